/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package invoke provides the handlers for performing chaincode invocations.
package invoke

import (
	reqContext "context"
	"sync"
	"time"

	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel/invoke/policy"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/retry"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"

	pb "github.com/hyperledger/fabric-protos-go/peer"
)

// DefaultCommitTimeout is how long a transaction waits for its commit event
// when no fab.Execute timeout is given
const DefaultCommitTimeout = 3 * time.Second

// Outcome is the terminal state of a transaction
type Outcome string

const (
	// Committed the transaction is in a block and was validated
	Committed Outcome = "COMMITTED"
	// Invalid the transaction is in a block but was invalidated
	Invalid Outcome = "INVALID"
	// Timeout no commit event arrived in time. The status of the
	// transaction is unknown and it must be re-queried before a retry.
	Timeout Outcome = "TIMEOUT"
	// OrderFailed the transaction was not accepted for ordering
	OrderFailed Outcome = "ORDER_FAILED"
	// ProposalRejected the endorsement was not good; nothing was ordered
	ProposalRejected Outcome = "PROPOSAL_REJECTED"
)

// Opts allows the user to specify more advanced options
type Opts struct {
	Targets       []fab.ProposalProcessor // targets
	Retry         retry.Opts
	Timeouts      map[fab.TimeoutType]time.Duration
	ParentContext reqContext.Context //parent grpc context
}

// Request contains the parameters to execute transaction
type Request struct {
	ChaincodeID string
	Fcn         string
	Args        [][]byte
}

//Response contains response parameters for query and execute transaction
type Response struct {
	Payload          []byte
	TransactionID    fab.TransactionID
	TxValidationCode pb.TxValidationCode
	ChaincodeStatus  int32
	BlockNumber      uint64
	Outcome          Outcome
	Proposal         *fab.TransactionProposal
	Responses        []*fab.TransactionProposalResponse
}

//Handler for chaining transaction executions
type Handler interface {
	Handle(context *RequestContext, clientContext *ClientContext)
}

//ClientContext contains context parameters for handler execution
type ClientContext struct {
	Transactor   fab.Transactor
	EventService fab.EventService
	Policy       *policy.Policy
}

//RequestContext contains request, opts, response parameters for handler execution
type RequestContext struct {
	Request      Request
	Opts         Opts
	Response     Response
	Error        error
	RetryHandler retry.Handler
	Ctx          reqContext.Context
	Progress     *Progress
}

// Progress is how far the handler chain got. Unlike Response it may be read
// while the chain is running. A nil Progress records nothing.
type Progress struct {
	mtx        sync.RWMutex
	txnID      fab.TransactionID
	committing bool
}

func (p *Progress) proposed(txnID fab.TransactionID) {
	if p == nil {
		return
	}
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.txnID = txnID
}

func (p *Progress) commitStarted() {
	if p == nil {
		return
	}
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.committing = true
}

// Get returns the transaction ID of the current proposal and whether the
// transaction went on to the commit stage
func (p *Progress) Get() (txnID fab.TransactionID, committing bool) {
	if p == nil {
		return fab.EmptyTransactionID, false
	}
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.txnID, p.committing
}
