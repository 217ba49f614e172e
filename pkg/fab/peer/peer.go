/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package peer provides the client side of a ledger endorsing peer.
package peer

import (
	reqContext "context"
	"crypto/x509"
	"io"

	"github.com/pkg/errors"
	"google.golang.org/grpc/keepalive"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

var logger = logging.NewLogger("ledger/fab")

// Peer represents a node in the target ledger network to which
// the client sends endorsement proposals or query requests.
type Peer struct {
	config      fab.EndpointConfig
	certificate *x509.Certificate
	serverName  string
	processor   fab.ProposalProcessor
	name        string
	mspID       string
	url         string
	kap         keepalive.ClientParameters
	failFast    bool
}

// Option describes a functional parameter for the New constructor
type Option func(*Peer) error

// New Returns a new Peer instance
func New(config fab.EndpointConfig, opts ...Option) (*Peer, error) {
	peer := &Peer{
		config:   config,
		failFast: true,
	}

	for _, opt := range opts {
		err := opt(peer)

		if err != nil {
			return nil, err
		}
	}

	if peer.processor == nil {
		if peer.url == "" {
			return nil, errors.New("peer URL is required")
		}
		endorseRequest := peerEndorserRequest{
			target:             peer.url,
			certificate:        peer.certificate,
			serverHostOverride: peer.serverName,
			config:             peer.config,
			kap:                peer.kap,
			failFast:           peer.failFast,
		}
		processor, err := newPeerEndorser(&endorseRequest)

		if err != nil {
			return nil, err
		}
		peer.processor = processor
	}

	return peer, nil
}

// WithURL is a functional option for the peer.New constructor that configures the peer's URL
func WithURL(url string) Option {
	return func(p *Peer) error {
		p.url = url

		return nil
	}
}

// WithTLSCert is a functional option for the peer.New constructor that configures the peer's TLS certificate
func WithTLSCert(certificate *x509.Certificate) Option {
	return func(p *Peer) error {
		p.certificate = certificate

		return nil
	}
}

// WithServerName is a functional option for the peer.New constructor that configures the peer's server name
func WithServerName(serverName string) Option {
	return func(p *Peer) error {
		p.serverName = serverName

		return nil
	}
}

// WithMSPID is a functional option for the peer.New constructor that configures the peer's msp ID
func WithMSPID(mspID string) Option {
	return func(p *Peer) error {
		p.mspID = mspID

		return nil
	}
}

// WithKeepAlive is a functional option for the peer.New constructor that configures gRPC keep-alive
func WithKeepAlive(kap keepalive.ClientParameters) Option {
	return func(p *Peer) error {
		p.kap = kap

		return nil
	}
}

// WithFailFast is a functional option for the peer.New constructor. When false,
// calls wait for the connection to become ready instead of failing.
func WithFailFast(failFast bool) Option {
	return func(p *Peer) error {
		p.failFast = failFast

		return nil
	}
}

// FromPeerConfig is a functional option for the peer.New constructor that configures a new peer
// from a fab.PeerConfig struct
func FromPeerConfig(peerCfg *fab.PeerConfig) Option {
	return func(p *Peer) error {
		if peerCfg == nil {
			return errors.New("peer config is nil")
		}
		p.name = peerCfg.Name
		p.url = peerCfg.URL
		p.mspID = peerCfg.MSPID

		return nil
	}
}

// WithPeerProcessor is a functional option for the peer.New constructor that configures the peer's proposal processor
func WithPeerProcessor(processor fab.ProposalProcessor) Option {
	return func(p *Peer) error {
		p.processor = processor

		return nil
	}
}

// Name gets the Peer name.
func (p *Peer) Name() string {
	return p.name
}

// MSPID gets the Peer mspID.
func (p *Peer) MSPID() string {
	return p.mspID
}

// URL gets the Peer URL. Required property for the instance objects.
// It returns the address of the Peer.
func (p *Peer) URL() string {
	return p.url
}

// ProcessTransactionProposal sends the created proposal to peer for endorsement.
func (p *Peer) ProcessTransactionProposal(ctx reqContext.Context, proposal fab.ProcessProposalRequest) (*fab.TransactionProposalResponse, error) {
	return p.processor.ProcessTransactionProposal(ctx, proposal)
}

// Close releases the connection to the peer
func (p *Peer) Close() {
	if c, ok := p.processor.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Debugf("unable to close connection to %s: %s", p.url, err)
		}
	}
}

func (p *Peer) String() string {
	return p.url
}

// PeersToTxnProcessors converts a slice of Peers to a slice of TxnProposalProcessors
func PeersToTxnProcessors(peers []fab.Peer) []fab.ProposalProcessor {
	tpp := make([]fab.ProposalProcessor, len(peers))

	for i := range peers {
		tpp[i] = peers[i]
	}
	return tpp
}
