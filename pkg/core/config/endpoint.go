/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/retry"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/core"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/core/config/lookup"
)

// Defaults of the single-organization network the client talks to
const (
	DefaultMSPID               = "Org1MSP"
	DefaultChannelID           = "mychannel"
	DefaultChaincodeID         = "ledgerCC"
	DefaultEndorsementPolicy   = "responses >= 1 && status == 200"
	DefaultPeerName            = "peer0.org1.example.com"
	DefaultPeerURL             = "localhost:7051"
	DefaultOrdererName         = "orderer.example.com"
	DefaultOrdererURL          = "localhost:7050"
	DefaultEventURL            = "localhost:7053"
	DefaultCAName              = "ca.example.com"
	DefaultCAURL               = "http://localhost:7054"
	DefaultRegistrarID         = "admin"
	DefaultRegistrarSecret     = "adminpw"
	DefaultAffiliation         = "org1.department1"
	DefaultCredentialStorePath = "hfc_key_store"

	// DefaultCommitTimeout is how long a transaction waits for its commit event
	DefaultCommitTimeout = 3 * time.Second
)

var defaultTimeouts = map[fab.TimeoutType]time.Duration{
	fab.PeerConnection:    10 * time.Second,
	fab.PeerResponse:      30 * time.Second,
	fab.OrdererConnection: 10 * time.Second,
	fab.OrdererResponse:   10 * time.Second,
	fab.EventReg:          15 * time.Second,
	fab.Query:             30 * time.Second,
	fab.Execute:           DefaultCommitTimeout,
}

var timeoutKeys = map[fab.TimeoutType]string{
	fab.PeerConnection:    "client.timeouts.peer.connection",
	fab.PeerResponse:      "client.timeouts.peer.response",
	fab.OrdererConnection: "client.timeouts.orderer.connection",
	fab.OrdererResponse:   "client.timeouts.orderer.response",
	fab.EventReg:          "client.timeouts.eventReg",
	fab.Query:             "client.timeouts.query",
	fab.Execute:           "client.commitTimeout",
}

// Config is the typed view of the configuration backends. It implements
// fab.EndpointConfig and msp.IdentityConfig.
type Config struct {
	client      msp.ClientConfig
	ca          msp.CAConfig
	channel     fab.ChannelConfig
	peers       []fab.PeerConfig
	orderer     fab.OrdererConfig
	events      fab.EventServiceConfig
	timeouts    map[fab.TimeoutType]time.Duration
	retryOpts   retry.Opts
	loggingSpec string
}

// FromProvider loads the backends of the provider and returns the typed config
func FromProvider(provider core.ConfigProvider) (*Config, error) {
	backends, err := provider()
	if err != nil {
		return nil, err
	}
	return FromBackend(backends...)
}

// FromBackend returns the typed config of the given backends. Absent keys
// take the defaults of the single-organization network.
func FromBackend(backends ...core.ConfigBackend) (*Config, error) {
	l := lookup.New(backends...)

	c := &Config{
		client: msp.ClientConfig{
			MSPID: l.GetString("client.mspid", DefaultMSPID),
			CredentialStore: msp.CredentialStoreType{
				Path: l.GetString("client.credentialStore.path", DefaultCredentialStorePath),
			},
		},
		ca: msp.CAConfig{
			URL:    l.GetString("ca.url", DefaultCAURL),
			CAName: l.GetString("ca.name", DefaultCAName),
			Registrar: msp.EnrollCredentials{
				EnrollID:     l.GetString("ca.registrar.enrollId", DefaultRegistrarID),
				EnrollSecret: l.GetString("ca.registrar.enrollSecret", DefaultRegistrarSecret),
			},
			Affiliation: l.GetString("ca.affiliation", DefaultAffiliation),
		},
		channel: fab.ChannelConfig{
			ID:          l.GetString("channel.id", DefaultChannelID),
			ChaincodeID: l.GetString("channel.chaincode", DefaultChaincodeID),
			Policy:      l.GetString("channel.policy", DefaultEndorsementPolicy),
		},
		orderer: fab.OrdererConfig{
			Name: l.GetString("orderer.name", DefaultOrdererName),
			URL:  l.GetString("orderer.url", DefaultOrdererURL),
		},
		events: fab.EventServiceConfig{
			URL:                     l.GetString("eventService.url", DefaultEventURL),
			ConsumerTimeout:         l.GetDuration("eventService.consumerTimeout", 500*time.Millisecond),
			ReconnectInitialBackoff: l.GetDuration("eventService.reconnect.initialBackoff", 500*time.Millisecond),
			ReconnectMaxBackoff:     l.GetDuration("eventService.reconnect.maxBackoff", 10*time.Second),
		},
		timeouts: make(map[fab.TimeoutType]time.Duration),
		retryOpts: retry.Opts{
			Attempts:       l.GetInt("client.retry.attempts", retry.DefaultAttempts),
			InitialBackoff: l.GetDuration("client.retry.initialBackoff", retry.DefaultInitialBackoff),
			MaxBackoff:     l.GetDuration("client.retry.maxBackoff", retry.DefaultMaxBackoff),
			BackoffFactor:  l.GetFloat64("client.retry.backoffFactor", retry.DefaultBackoffFactor),
			RetryableCodes: retry.DefaultRetryableCodes,
		},
		loggingSpec: l.GetString("client.logging.level", "info"),
	}

	for t, def := range defaultTimeouts {
		c.timeouts[t] = l.GetDuration(timeoutKeys[t], def)
	}

	if err := l.UnmarshalKey("peers", &c.peers); err != nil {
		return nil, errors.Wrap(err, "failed to parse 'peers' config item")
	}
	if len(c.peers) == 0 {
		c.peers = []fab.PeerConfig{{Name: DefaultPeerName, URL: DefaultPeerURL, MSPID: c.client.MSPID}}
	}
	for i := range c.peers {
		if c.peers[i].MSPID == "" {
			c.peers[i].MSPID = c.client.MSPID
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.channel.ID == "" || c.channel.ChaincodeID == "" {
		return errors.New("channel id and chaincode id are required")
	}
	for _, p := range c.peers {
		if p.URL == "" {
			return errors.Errorf("peer [%s] has no url", p.Name)
		}
	}
	if c.timeouts[fab.Execute] <= 0 {
		return errors.New("client.commitTimeout must be positive")
	}
	if c.retryOpts.Attempts < 0 {
		return errors.New("client.retry.attempts must not be negative")
	}
	return nil
}

// Timeout reads timeout for the given timeout type
func (c *Config) Timeout(tType fab.TimeoutType) time.Duration {
	if t, ok := c.timeouts[tType]; ok {
		return t
	}
	return defaultTimeouts[tType]
}

// PeersConfig returns the endorsing peers
func (c *Config) PeersConfig() []fab.PeerConfig {
	return c.peers
}

// OrdererConfig returns the ordering service endpoint
func (c *Config) OrdererConfig() *fab.OrdererConfig {
	return &c.orderer
}

// EventServiceConfig returns the deliver service endpoint
func (c *Config) EventServiceConfig() *fab.EventServiceConfig {
	return &c.events
}

// ChannelConfig returns the channel, chaincode and endorsement policy
func (c *Config) ChannelConfig() *fab.ChannelConfig {
	return &c.channel
}

// Client returns the client identity configuration
func (c *Config) Client() *msp.ClientConfig {
	return &c.client
}

// CAConfig returns the certificate authority configuration
func (c *Config) CAConfig() *msp.CAConfig {
	return &c.ca
}

// CredentialStorePath returns the directory enrolled identities are kept in
func (c *Config) CredentialStorePath() string {
	return c.client.CredentialStore.Path
}

// RetryOpts returns the retry options for requests that fail before ordering
func (c *Config) RetryOpts() retry.Opts {
	return c.retryOpts
}
