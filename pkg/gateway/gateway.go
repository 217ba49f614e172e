/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package gateway is the application facing API of the ledger. A Gateway is
// an explicit session: it owns the identity client, the connections to the
// endorsing peers, the orderer and the event service, and one channel client
// per enrolled user. Callers pass the Gateway to wherever it is needed; there
// is no process-wide client state.
package gateway

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel"
	mspclient "github.com/sharad-develop/fabric-node-ledger/pkg/client/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/metrics/disabled"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/core"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/core/config"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/events/deliverclient"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/orderer"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/peer"
	mspimpl "github.com/sharad-develop/fabric-node-ledger/pkg/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/util/concurrent/lazycache"
)

var logger = logging.NewLogger("ledger/gateway")

// Gateway is a session with the ledger network
type Gateway struct {
	config    *config.Config
	provider  msp.IdentityProvider
	identity  *mspclient.Client
	endorsers []fab.ProposalProcessor
	orderer   fab.Orderer
	events    fab.EventService
	metrics   metrics.Provider
	closers   []func()

	channels *lazycache.Cache[*channel.Client]

	mtx    sync.Mutex
	closed bool
}

// ConfigOption sets the configuration of the gateway
type ConfigOption = func(*Gateway) error

// Option sets an optional collaborator of the gateway. Collaborators that
// are not set are built from the configuration.
type Option = func(*Gateway) error

// Connect to the network described by the config option.
// Must specify a config option and zero or more options.
func Connect(configOption ConfigOption, options ...Option) (*Gateway, error) {
	gw := &Gateway{}
	gw.channels = lazycache.New("channel clients", gw.newChannelClient)

	if configOption == nil {
		return nil, errors.New("a config option is required")
	}
	if err := configOption(gw); err != nil {
		return nil, errors.Wrap(err, "Failed to apply config option")
	}

	for _, option := range options {
		if err := option(gw); err != nil {
			return nil, errors.Wrap(err, "Failed to apply gateway option")
		}
	}

	if err := gw.initialize(); err != nil {
		gw.Close()
		return nil, err
	}

	return gw, nil
}

// WithConfig configures the gateway from a config provider, such as config.FromFile
func WithConfig(provider core.ConfigProvider) ConfigOption {
	return func(gw *Gateway) error {
		cfg, err := config.FromProvider(provider)
		if err != nil {
			return err
		}
		gw.config = cfg
		return nil
	}
}

// WithEndpointConfig configures the gateway from an already loaded config
func WithEndpointConfig(cfg *config.Config) ConfigOption {
	return func(gw *Gateway) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		gw.config = cfg
		return nil
	}
}

// WithIdentityProvider sets the provider users are enrolled with
func WithIdentityProvider(provider msp.IdentityProvider) Option {
	return func(gw *Gateway) error {
		gw.provider = provider
		return nil
	}
}

// WithEndorsers sets the peers proposals are sent to
func WithEndorsers(endorsers ...fab.ProposalProcessor) Option {
	return func(gw *Gateway) error {
		gw.endorsers = endorsers
		return nil
	}
}

// WithOrderer sets the orderer endorsed transactions are broadcast to
func WithOrderer(o fab.Orderer) Option {
	return func(gw *Gateway) error {
		gw.orderer = o
		return nil
	}
}

// WithEventService sets the source of commit events
func WithEventService(events fab.EventService) Option {
	return func(gw *Gateway) error {
		gw.events = events
		return nil
	}
}

// WithMetrics records the meters of the gateway's channel clients on provider
func WithMetrics(provider metrics.Provider) Option {
	return func(gw *Gateway) error {
		gw.metrics = provider
		return nil
	}
}

func (gw *Gateway) initialize() error {
	if gw.metrics == nil {
		gw.metrics = &disabled.Provider{}
	}

	if gw.provider == nil {
		provider, err := mspimpl.New(gw.config)
		if err != nil {
			return errors.WithMessage(err, "failed to create identity provider")
		}
		gw.provider = provider
	}

	caConfig := gw.config.CAConfig()
	identity, err := mspclient.New(gw.provider,
		mspclient.WithRegistrar(caConfig.Registrar.EnrollID),
		mspclient.WithAffiliation(caConfig.Affiliation))
	if err != nil {
		return err
	}
	gw.identity = identity

	if len(gw.endorsers) == 0 {
		for _, peerCfg := range gw.config.PeersConfig() {
			peerCfg := peerCfg
			p, err := peer.New(gw.config, peer.FromPeerConfig(&peerCfg))
			if err != nil {
				return errors.WithMessagef(err, "failed to connect to peer [%s]", peerCfg.URL)
			}
			gw.closers = append(gw.closers, p.Close)
			gw.endorsers = append(gw.endorsers, p)
		}
	}

	if gw.orderer == nil {
		o, err := orderer.New(gw.config, orderer.FromOrdererConfig(gw.config.OrdererConfig()))
		if err != nil {
			return errors.WithMessage(err, "failed to connect to orderer")
		}
		gw.closers = append(gw.closers, o.Close)
		gw.orderer = o
	}

	if gw.events == nil {
		events, err := deliverclient.New(gw.config)
		if err != nil {
			return errors.WithMessage(err, "failed to connect to event service")
		}
		gw.closers = append(gw.closers, events.Close)
		gw.events = events
	}

	return nil
}

// Config returns the configuration of the gateway
func (gw *Gateway) Config() *config.Config {
	return gw.config
}

// EnrollAdmin enrolls the registrar. An admin that is already enrolled is
// returned from the credential store.
func (gw *Gateway) EnrollAdmin(username, password string) (*Credential, error) {
	logger.Infof("Enroll admin: %s", username)

	id, err := gw.identity.EnrollAdmin(username, password)
	if err != nil {
		logger.Errorf("Failed to enroll admin %s: %s", username, err)
		return nil, err
	}
	return credentialOf(id), nil
}

// RegisterUser registers and enrolls username. It returns UserEnrolled on
// success; otherwise UserEnrollmentFailed together with the cause.
func (gw *Gateway) RegisterUser(username string) (string, error) {
	if _, err := gw.identity.RegisterUser(username); err != nil {
		logger.Errorf("Failed to register %s: %s", username, err)
		return UserEnrollmentFailed, err
	}
	logger.Infof("%s was registered and enrolled and is ready to interact with the ledger", username)
	return UserEnrolled, nil
}

// Close releases the connections of the gateway. The gateway cannot be
// used after it has been closed.
func (gw *Gateway) Close() {
	gw.mtx.Lock()
	defer gw.mtx.Unlock()

	if gw.closed {
		return
	}
	gw.closed = true

	gw.channels.Close()
	for i := len(gw.closers) - 1; i >= 0; i-- {
		gw.closers[i]()
	}
}

// HealthCheck reports the gateway as unhealthy once it has been closed
func (gw *Gateway) HealthCheck(context.Context) error {
	return gw.checkOpen()
}

func (gw *Gateway) checkOpen() error {
	gw.mtx.Lock()
	defer gw.mtx.Unlock()

	if gw.closed {
		return errors.New("gateway is closed")
	}
	return nil
}

func credentialOf(id msp.SigningIdentity) *Credential {
	return &Credential{
		Name:        id.Identifier().ID,
		MSPID:       id.Identifier().MSPID,
		Certificate: string(id.EnrollmentCertificate()),
	}
}
