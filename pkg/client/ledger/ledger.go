/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledger queries the ledger of a channel: its height, its blocks and
// the recorded result of a transaction. A transaction whose commit wait timed
// out is looked up with QueryTransaction before it is retried.
//
//  Basic Flow:
//  1) Create ledger client with the caller's signing identity
//  2) Query ledger
package ledger

import (
	reqContext "context"
	"math/rand"
	"reflect"
	"time"

	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/channel"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/txn"
)

var logger = logging.NewLogger("ledger/client")

// Client queries the ledger of one channel
type Client struct {
	channelID string
	signer    msp.SigningIdentity
	targets   []fab.ProposalProcessor
	timeout   time.Duration
}

// New returns a ledger client for channelID. Queries are signed by signer.
func New(channelID string, signer msp.SigningIdentity, opts ...ClientOption) (*Client, error) {
	if channelID == "" {
		return nil, errors.New("channel ID is required")
	}
	if signer == nil {
		return nil, errors.New("signing identity is required")
	}

	c := &Client{
		channelID: channelID,
		signer:    signer,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// QueryInfo returns the height of the chain
func (c *Client) QueryInfo(options ...RequestOption) (*cb.BlockchainInfo, error) {
	info := &cb.BlockchainInfo{}
	if err := c.query(channel.CreateChannelInfoInvokeRequest(c.channelID), info, options...); err != nil {
		return nil, errors.WithMessage(err, "QueryInfo failed")
	}
	return info, nil
}

// QueryBlock returns the block with the given number
func (c *Client) QueryBlock(blockNumber uint64, options ...RequestOption) (*pb.FilteredBlock, error) {
	block := &pb.FilteredBlock{}
	if err := c.query(channel.CreateBlockByNumberInvokeRequest(c.channelID, blockNumber), block, options...); err != nil {
		return nil, errors.WithMessage(err, "QueryBlock failed")
	}
	return block, nil
}

// QueryBlockByTxID returns the block holding the given transaction
func (c *Client) QueryBlockByTxID(transactionID fab.TransactionID, options ...RequestOption) (*pb.FilteredBlock, error) {
	if transactionID == fab.EmptyTransactionID {
		return nil, errors.New("transaction ID is required")
	}
	block := &pb.FilteredBlock{}
	if err := c.query(channel.CreateBlockByTxIDInvokeRequest(c.channelID, transactionID), block, options...); err != nil {
		return nil, errors.WithMessage(err, "QueryBlockByTxID failed")
	}
	return block, nil
}

// QueryTransaction returns the envelope and validation code a transaction
// was committed with. A transaction that is not on the ledger fails with a
// ChaincodeStatus NotFound error.
func (c *Client) QueryTransaction(transactionID fab.TransactionID, options ...RequestOption) (*pb.ProcessedTransaction, error) {
	if transactionID == fab.EmptyTransactionID {
		return nil, errors.New("transaction ID is required")
	}
	processed := &pb.ProcessedTransaction{}
	if err := c.query(channel.CreateTransactionByIDInvokeRequest(c.channelID, transactionID), processed, options...); err != nil {
		return nil, errors.WithMessage(err, "QueryTransaction failed")
	}
	return processed, nil
}

// query sends the query to the selected targets and decodes the payload
// into result. The payloads of all targets have to match.
func (c *Client) query(request fab.ChaincodeInvokeRequest, result proto.Message, options ...RequestOption) error {
	opts, err := c.prepareRequestOpts(options...)
	if err != nil {
		return err
	}
	targets, err := c.calculateTargets(opts)
	if err != nil {
		return errors.WithMessage(err, "failed to determine target peers")
	}

	txh, err := txn.NewHeader(c.signer, c.channelID)
	if err != nil {
		return errors.WithMessage(err, "creating transaction header failed")
	}
	proposal, err := txn.CreateChaincodeInvokeProposal(txh, request)
	if err != nil {
		return errors.WithMessage(err, "creating query proposal failed")
	}

	reqCtx, cancel := c.createRequestContext(opts)
	defer cancel()

	responses, err := txn.SendProposal(reqCtx, c.signer, proposal, targets)
	if err != nil && len(responses) < opts.MinTargets {
		return err
	}
	if err != nil {
		logger.Debugf("%s failed on some targets: %s", request.Fcn, err)
	}

	payloads, err := matchPayloads(responses, opts.MinTargets)
	if err != nil {
		return err
	}
	return errors.Wrap(proto.Unmarshal(payloads, result), "decoding query result failed")
}

func matchPayloads(responses []*fab.TransactionProposalResponse, minTargets int) ([]byte, error) {
	if len(responses) < minTargets {
		return nil, errors.Errorf("Number of responses %d is less than MinTargets %d", len(responses), minTargets)
	}

	payload := responses[0].GetResponse().GetPayload()
	for _, r := range responses[1:] {
		if !reflect.DeepEqual(payload, r.GetResponse().GetPayload()) {
			return nil, errors.New("Payloads of query responses do not match")
		}
	}
	return payload, nil
}

func (c *Client) prepareRequestOpts(options ...RequestOption) (requestOptions, error) {
	opts := requestOptions{}
	for _, option := range options {
		if err := option(&opts); err != nil {
			return opts, errors.WithMessage(err, "Failed to read request opts")
		}
	}

	if opts.MaxTargets == 0 {
		opts.MaxTargets = maxTargets
	}
	if opts.MinTargets == 0 {
		opts.MinTargets = minTargets
	}
	if opts.MinTargets > opts.MaxTargets {
		opts.MaxTargets = opts.MinTargets
	}
	return opts, nil
}

// calculateTargets picks at most MaxTargets of the request's or the
// client's targets in random order
func (c *Client) calculateTargets(opts requestOptions) ([]fab.ProposalProcessor, error) {
	targets := opts.Targets
	if targets == nil {
		targets = c.targets
	}

	if len(targets) == 0 {
		return nil, errors.WithStack(status.New(status.ClientStatus, status.NoPeersFound.ToInt32(), "no targets available", nil))
	}
	if len(targets) < opts.MinTargets {
		return nil, errors.Errorf("Error getting minimum number of targets. %d available, %d required", len(targets), opts.MinTargets)
	}

	shuffled := make([]fab.ProposalProcessor, len(targets))
	copy(shuffled, targets)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	if len(shuffled) > opts.MaxTargets {
		shuffled = shuffled[:opts.MaxTargets]
	}
	return shuffled, nil
}

func (c *Client) createRequestContext(opts requestOptions) (reqContext.Context, reqContext.CancelFunc) {
	parent := opts.ParentContext
	if parent == nil {
		parent = reqContext.Background()
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	return reqContext.WithTimeout(parent, timeout)
}
