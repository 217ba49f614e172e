/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoke

import (
	reqContext "context"
	"fmt"
	"sync/atomic"
	"time"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

// TimeoutMessage is the reason given for a TIMEOUT outcome
const TimeoutMessage = "status unknown - re-query before retrying"

//CommitTxHandler for committing transactions
type CommitTxHandler struct {
	next Handler
}

//Handle submits the endorsed transaction for ordering and waits for its
//commit event. The order submit and the event wait run concurrently and are
//raced against the commit timeout.
func (c *CommitTxHandler) Handle(requestContext *RequestContext, clientContext *ClientContext) {
	txnID := requestContext.Response.TransactionID

	// a caller that stopped waiting before this point never sees the
	// transaction ordered
	requestContext.Progress.commitStarted()
	if err := requestContext.Ctx.Err(); err != nil {
		requestContext.Response.Outcome = Timeout
		requestContext.Error = status.New(status.ClientStatus, status.Timeout.ToInt32(), TimeoutMessage, nil)
		return
	}

	tx, err := clientContext.Transactor.CreateTransaction(fab.TransactionRequest{
		Proposal:          requestContext.Response.Proposal,
		ProposalResponses: requestContext.Response.Responses,
	})
	if err != nil {
		requestContext.Response.Outcome = OrderFailed
		requestContext.Error = orderFailedError(errors.WithMessage(err, "CreateTransaction failed"))
		return
	}

	//Register Tx event
	reg, statusNotifier, err := clientContext.EventService.RegisterTxStatusEvent(string(txnID))
	if err != nil {
		requestContext.Response.Outcome = OrderFailed
		requestContext.Error = orderFailedError(errors.WithMessage(err, "error registering for TxStatus event"))
		return
	}

	result := race(requestContext, clientContext.Transactor, tx, statusNotifier)
	clientContext.EventService.Unregister(reg)

	logger.Debugf("Transaction [%s] resolved as %s", txnID, result.outcome)
	requestContext.Response.Outcome = result.outcome

	switch result.outcome {
	case Committed:
		requestContext.Response.TxValidationCode = result.code
		requestContext.Response.BlockNumber = result.blockNum
	case Invalid:
		requestContext.Response.TxValidationCode = result.code
		requestContext.Response.BlockNumber = result.blockNum
		requestContext.Error = status.New(status.EventServerStatus, int32(result.code),
			fmt.Sprintf("transaction [%s] invalidated with code %s", txnID, result.code), nil)
		return
	case OrderFailed:
		requestContext.Error = orderFailedError(result.err)
		return
	default:
		requestContext.Error = status.New(status.ClientStatus, status.Timeout.ToInt32(), TimeoutMessage, nil)
		return
	}

	//Delegate to next step if any
	if c.next != nil {
		c.next.Handle(requestContext, clientContext)
	}
}

func orderFailedError(err error) error {
	return status.New(status.ClientStatus, status.OrderFailed.ToInt32(), err.Error(), nil)
}

func commitTimeout(opts Opts) time.Duration {
	if t, ok := opts.Timeouts[fab.Execute]; ok && t > 0 {
		return t
	}
	return DefaultCommitTimeout
}

type commitResult struct {
	outcome  Outcome
	code     pb.TxValidationCode
	blockNum uint64
	err      error
}

// commitRace holds the result of whichever of the commit event, the order
// submit and the deadline resolves it first. Later resolutions are dropped.
type commitRace struct {
	resolved int32
	done     chan struct{}
	result   commitResult
}

func newCommitRace() *commitRace {
	return &commitRace{done: make(chan struct{})}
}

func (r *commitRace) resolve(result commitResult) bool {
	if !atomic.CompareAndSwapInt32(&r.resolved, 0, 1) {
		return false
	}
	r.result = result
	close(r.done)
	return true
}

func (r *commitRace) wait() commitResult {
	<-r.done
	return r.result
}

// race arms the deadline, submits tx and waits for its status event. The
// deadline timer is released before it returns.
func race(requestContext *RequestContext, sender fab.Sender, tx *fab.Transaction, statusNotifier <-chan *fab.TxStatusEvent) commitResult {
	r := newCommitRace()

	timer := time.AfterFunc(commitTimeout(requestContext.Opts), func() {
		r.resolve(commitResult{outcome: Timeout})
	})
	defer timer.Stop()

	ctx, cancel := reqContext.WithCancel(requestContext.Ctx)
	defer cancel()

	go func() {
		_, err := sender.SendTransaction(ctx, tx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			// resolved already, or the caller gave up
			r.resolve(commitResult{outcome: Timeout, err: ctx.Err()})
			return
		}
		if !r.resolve(commitResult{outcome: OrderFailed, err: errors.WithMessage(err, "SendTransaction failed")}) {
			logger.Debugf("Ignoring ordering error after resolution: %s", err)
		}
	}()

	go func() {
		select {
		case txStatus, ok := <-statusNotifier:
			if !ok {
				r.resolve(commitResult{outcome: Timeout, err: errors.New("event service closed the registration")})
				return
			}
			r.resolve(resultFromTxStatus(txStatus))
		case <-ctx.Done():
			r.resolve(commitResult{outcome: Timeout, err: ctx.Err()})
		case <-r.done:
		}
	}()

	return r.wait()
}

func resultFromTxStatus(txStatus *fab.TxStatusEvent) commitResult {
	result := commitResult{
		outcome:  Committed,
		code:     txStatus.TxValidationCode,
		blockNum: txStatus.BlockNumber,
	}
	if txStatus.TxValidationCode != pb.TxValidationCode_VALID {
		result.outcome = Invalid
	}
	return result
}
