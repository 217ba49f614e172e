/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package channel enables sending transactions and transaction proposals on a channel.
package channel

import (
	reqContext "context"

	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/retry"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/txn"
)

var logger = logging.NewLogger("ledger/fab")

// Transactor enables sending transactions and transaction proposals on the channel.
type Transactor struct {
	ChannelID    string
	config       fab.EndpointConfig
	signer       msp.SigningIdentity
	orderers     []fab.Orderer
	arity        map[string]int
	ordererRetry retry.Opts
}

// Option configures a Transactor
type Option func(*Transactor)

// WithArity checks the argument count of each proposal against arity before
// a transaction ID is allocated
func WithArity(arity map[string]int) Option {
	return func(t *Transactor) {
		t.arity = arity
	}
}

// WithOrdererRetry sets the retry options used when broadcasting to the orderer
func WithOrdererRetry(opts retry.Opts) Option {
	return func(t *Transactor) {
		t.ordererRetry = opts
	}
}

// NewTransactor returns a Transactor that signs with signer on the channel of the given config.
func NewTransactor(config fab.EndpointConfig, signer msp.SigningIdentity, orderers []fab.Orderer, opts ...Option) (*Transactor, error) {
	if signer == nil {
		return nil, errors.New("signing identity is required")
	}
	chConfig := config.ChannelConfig()
	if chConfig == nil || chConfig.ID == "" {
		return nil, errors.New("channel ID is required")
	}

	t := Transactor{
		ChannelID:    chConfig.ID,
		config:       config,
		signer:       signer,
		orderers:     orderers,
		ordererRetry: retry.DefaultOrdererOpts,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return &t, nil
}

// CreateTransactionHeader creates a Transaction Header for the signing identity.
func (t *Transactor) CreateTransactionHeader() (fab.TransactionHeader, error) {
	txh, err := txn.NewHeader(t.signer, t.ChannelID)
	if err != nil {
		return nil, errors.WithMessage(err, "new transaction ID failed")
	}

	return txh, nil
}

// CreateTransactionProposal creates a proposal with a fresh transaction ID.
func (t *Transactor) CreateTransactionProposal(request fab.ChaincodeInvokeRequest) (*fab.TransactionProposal, error) {
	if err := txn.CheckArity(t.arity, request); err != nil {
		return nil, err
	}

	txh, err := t.CreateTransactionHeader()
	if err != nil {
		return nil, err
	}

	return txn.CreateChaincodeInvokeProposal(txh, request)
}

// SendTransactionProposal sends a TransactionProposal to the target peers.
func (t *Transactor) SendTransactionProposal(reqCtx reqContext.Context, proposal *fab.TransactionProposal, targets []fab.ProposalProcessor) ([]*fab.TransactionProposalResponse, error) {
	ctx, cancel := t.withTimeout(reqCtx, fab.PeerResponse)
	defer cancel()

	return txn.SendProposal(ctx, t.signer, proposal, targets)
}

// CreateTransaction create a transaction with proposal response.
func (t *Transactor) CreateTransaction(request fab.TransactionRequest) (*fab.Transaction, error) {
	return txn.New(request)
}

// SendTransaction send a transaction to the chain's orderer service (one or more orderer endpoints) for consensus and committing to the ledger.
func (t *Transactor) SendTransaction(reqCtx reqContext.Context, tx *fab.Transaction) (*fab.TransactionResponse, error) {
	if len(t.orderers) == 0 {
		return nil, errors.New("orderers are not configured")
	}

	ctx, cancel := t.withTimeout(reqCtx, fab.OrdererResponse)
	defer cancel()

	logger.Debugf("Sending transaction [%s] to %d orderer(s)", tx.Proposal.TxnID, len(t.orderers))
	return txn.Send(ctx, t.signer, tx, t.orderers, t.ordererRetry)
}

func (t *Transactor) withTimeout(parent reqContext.Context, timeoutType fab.TimeoutType) (reqContext.Context, reqContext.CancelFunc) {
	if timeout := t.config.Timeout(timeoutType); timeout > 0 {
		return reqContext.WithTimeout(parent, timeout)
	}
	return reqContext.WithCancel(parent)
}
