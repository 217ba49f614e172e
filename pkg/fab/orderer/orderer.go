/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package orderer provides the client side of the ordering service.
package orderer

import (
	reqContext "context"
	"crypto/x509"
	"io"

	cb "github.com/hyperledger/fabric-protos-go/common"
	ab "github.com/hyperledger/fabric-protos-go/orderer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/multi"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/options"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/comm"
)

var logger = logging.NewLogger("ledger/fab")

// Orderer allows a client to broadcast a transaction.
type Orderer struct {
	config      fab.EndpointConfig
	name        string
	url         string
	serverName  string
	tlsCACert   *x509.Certificate
	kap         keepalive.ClientParameters
	failFast    bool
	conn        *grpc.ClientConn
	broadcaster ab.AtomicBroadcastClient
}

// Option describes a functional parameter for the New constructor
type Option func(*Orderer) error

// New Returns a Orderer instance
func New(config fab.EndpointConfig, opts ...Option) (*Orderer, error) {
	orderer := &Orderer{
		config:   config,
		failFast: true,
	}

	for _, opt := range opts {
		err := opt(orderer)

		if err != nil {
			return nil, err
		}
	}

	if orderer.url == "" {
		return nil, errors.New("orderer URL is required")
	}

	dialOpts := []options.Opt{
		comm.WithCertificate(orderer.tlsCACert),
		comm.WithHostOverride(orderer.serverName),
		comm.WithKeepAliveParams(orderer.kap),
		comm.WithFailFast(orderer.failFast),
	}
	if config != nil {
		dialOpts = append(dialOpts, comm.WithConnectTimeout(config.Timeout(fab.OrdererConnection)))
	}

	conn, err := comm.Dial(reqContext.Background(), orderer.url, dialOpts...)
	if err != nil {
		return nil, err
	}
	orderer.conn = conn
	orderer.broadcaster = ab.NewAtomicBroadcastClient(conn)

	return orderer, nil
}

// WithURL is a functional option for the orderer.New constructor that configures the orderer's URL.
func WithURL(url string) Option {
	return func(o *Orderer) error {
		o.url = url

		return nil
	}
}

// WithTLSCert is a functional option for the orderer.New constructor that configures the orderer's TLS certificate
func WithTLSCert(tlsCACert *x509.Certificate) Option {
	return func(o *Orderer) error {
		o.tlsCACert = tlsCACert

		return nil
	}
}

// WithServerName is a functional option for the orderer.New constructor that configures the orderer's server name
func WithServerName(serverName string) Option {
	return func(o *Orderer) error {
		o.serverName = serverName

		return nil
	}
}

// WithKeepAlive is a functional option for the orderer.New constructor that configures gRPC keep-alive
func WithKeepAlive(kap keepalive.ClientParameters) Option {
	return func(o *Orderer) error {
		o.kap = kap

		return nil
	}
}

// FromOrdererConfig is a functional option for the orderer.New constructor that configures a new orderer
// from a fab.OrdererConfig struct
func FromOrdererConfig(ordererCfg *fab.OrdererConfig) Option {
	return func(o *Orderer) error {
		if ordererCfg == nil {
			return errors.New("orderer config is nil")
		}
		o.name = ordererCfg.Name
		o.url = ordererCfg.URL

		return nil
	}
}

// Name returns the name of the orderer
func (o *Orderer) Name() string {
	return o.name
}

// URL Get the Orderer url. Required property for the instance objects.
func (o *Orderer) URL() string {
	return o.url
}

// SendBroadcast Send the created transaction to Orderer.
func (o *Orderer) SendBroadcast(ctx reqContext.Context, envelope *fab.SignedEnvelope) (*cb.Status, error) {
	if envelope == nil {
		return nil, errors.New("envelope is nil")
	}

	broadcastClient, err := o.broadcaster.Broadcast(ctx)
	if err != nil {
		logger.Debugf("broadcast to %s failed: %s", o.url, err)
		return nil, comm.StatusFromError(err, status.OrdererClientStatus, o.url)
	}

	responses := make(chan cb.Status)
	errs := make(chan error, 1)

	go o.broadcastStream(broadcastClient, responses, errs)

	err = broadcastClient.Send(&cb.Envelope{
		Payload:   envelope.Payload,
		Signature: envelope.Signature,
	})
	if err != nil {
		return nil, errors.Wrap(comm.StatusFromError(err, status.OrdererClientStatus, o.url), "failed to send envelope to orderer")
	}
	if err = broadcastClient.CloseSend(); err != nil {
		logger.Debugf("unable to close broadcast client [%s]", err)
	}

	return wrapStreamStatusRPC(responses, errs)
}

// wrapStreamStatusRPC returns the last response and err and blocks until the chan is closed.
func wrapStreamStatusRPC(responses chan cb.Status, errs chan error) (*cb.Status, error) {
	var st cb.Status
	var received bool
	var err multi.Errors

read:
	for {
		select {
		case s, ok := <-responses:
			if !ok {
				break read
			}
			st = s
			received = true
		case e := <-errs:
			err = append(err, e)
		}
	}

	// drain remaining errors.
	for i := 0; i < len(errs); i++ {
		e := <-errs
		err = append(err, e)
	}

	if len(err) == 0 && !received {
		return nil, errors.New("orderer closed the broadcast stream without a response")
	}
	if len(err) > 0 {
		return nil, err.ToError()
	}
	return &st, nil
}

func (o *Orderer) broadcastStream(broadcastClient ab.AtomicBroadcast_BroadcastClient, responses chan cb.Status, errs chan error) {
	for {
		broadcastResponse, err := broadcastClient.Recv()
		if err == io.EOF {
			// done
			close(responses)
			return
		}

		if err != nil {
			errs <- errors.Wrap(comm.StatusFromError(err, status.OrdererClientStatus, o.url), "broadcast recv failed")
			close(responses)
			return
		}

		if broadcastResponse.Status == cb.Status_SUCCESS {
			responses <- broadcastResponse.Status
		} else {
			errs <- status.New(status.OrdererServerStatus, int32(broadcastResponse.Status), broadcastResponse.Info, []interface{}{o.url})
		}
	}
}

// Close closes the connection to the orderer
func (o *Orderer) Close() {
	if err := o.conn.Close(); err != nil {
		logger.Debugf("unable to close connection to %s: %s", o.url, err)
	}
}

func (o *Orderer) String() string {
	return o.url
}
