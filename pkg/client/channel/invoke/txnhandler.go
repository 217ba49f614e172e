/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoke

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel/invoke/policy"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

var logger = logging.NewLogger("ledger/client")

var defaultPolicy = policy.MustNew(policy.Default)

//EndorsementHandler for handling endorse transactions
type EndorsementHandler struct {
	next Handler
}

//Handle for endorsing transactions
func (e *EndorsementHandler) Handle(requestContext *RequestContext, clientContext *ClientContext) {
	if len(requestContext.Opts.Targets) == 0 {
		requestContext.Error = status.New(status.ClientStatus, status.NoPeersFound.ToInt32(), "targets were not provided", nil)
		return
	}

	// arity and transaction ID are settled before anything is sent
	proposal, err := clientContext.Transactor.CreateTransactionProposal(fab.ChaincodeInvokeRequest{
		ChaincodeID: requestContext.Request.ChaincodeID,
		Fcn:         requestContext.Request.Fcn,
		Args:        requestContext.Request.Args,
	})
	if err != nil {
		requestContext.Error = errors.WithMessage(err, "creating transaction proposal failed")
		return
	}
	requestContext.Response.Proposal = proposal
	requestContext.Response.TransactionID = proposal.TxnID
	requestContext.Progress.proposed(proposal.TxnID)

	transactionProposalResponses, err := clientContext.Transactor.SendTransactionProposal(requestContext.Ctx, proposal, requestContext.Opts.Targets)
	requestContext.Response.Responses = transactionProposalResponses
	if err != nil {
		requestContext.Response.Outcome = ProposalRejected
		requestContext.Error = err
		return
	}
	if len(transactionProposalResponses) == 0 {
		requestContext.Response.Outcome = ProposalRejected
		requestContext.Error = status.New(status.EndorserClientStatus, status.NoResults.ToInt32(), "no proposal responses received", nil)
		return
	}

	first := transactionProposalResponses[0]
	requestContext.Response.Payload = first.ProposalResponse.GetResponse().GetPayload()
	requestContext.Response.ChaincodeStatus = first.ChaincodeStatus

	//Delegate to next step if any
	if e.next != nil {
		e.next.Handle(requestContext, clientContext)
	}
}

//EndorsementValidationHandler for transaction proposal response filtering
type EndorsementValidationHandler struct {
	next Handler
}

//Handle for Filtering proposal response
func (f *EndorsementValidationHandler) Handle(requestContext *RequestContext, clientContext *ClientContext) {
	p := clientContext.Policy
	if p == nil {
		p = defaultPolicy
	}

	if err := f.validate(p, requestContext.Response.Responses); err != nil {
		requestContext.Response.Outcome = ProposalRejected
		requestContext.Error = errors.WithMessage(err, "endorsement validation failed")
		return
	}

	//Delegate to next step if any
	if f.next != nil {
		f.next.Handle(requestContext, clientContext)
	}
}

func (f *EndorsementValidationHandler) validate(p *policy.Policy, txProposalResponse []*fab.TransactionProposalResponse) error {
	satisfied, err := p.Evaluate(txProposalResponse)
	if err != nil {
		return status.New(status.EndorserClientStatus, status.ProposalRejected.ToInt32(), err.Error(), nil)
	}
	if !satisfied {
		return status.New(status.EndorserClientStatus, status.ProposalRejected.ToInt32(), rejectionReason(p, txProposalResponse), nil)
	}

	for n, r := range txProposalResponse {
		if n == 0 {
			continue
		}
		a1 := txProposalResponse[0].ProposalResponse
		if !bytes.Equal(a1.Payload, r.ProposalResponse.Payload) ||
			!bytes.Equal(a1.GetResponse().GetPayload(), r.ProposalResponse.GetResponse().GetPayload()) {
			return status.New(status.EndorserClientStatus, status.EndorsementMismatch.ToInt32(),
				"ProposalResponsePayloads do not match", nil)
		}
	}
	return nil
}

func rejectionReason(p *policy.Policy, responses []*fab.TransactionProposalResponse) string {
	for _, r := range responses {
		if msg := r.ProposalResponse.GetResponse().GetMessage(); msg != "" {
			return "endorsement policy [" + p.String() + "] not satisfied: " + msg
		}
	}
	return "endorsement policy [" + p.String() + "] not satisfied"
}

//NewQueryHandler returns query handler with chain of EndorsementHandler, EndorsementValidationHandler and SignatureValidationHandler
func NewQueryHandler(next ...Handler) Handler {
	return NewEndorsementHandler(
		NewEndorsementValidationHandler(
			NewSignatureValidationHandler(next...),
		),
	)
}

//NewExecuteHandler returns execute handler with chain of EndorsementHandler, EndorsementValidationHandler, SignatureValidationHandler and CommitHandler
func NewExecuteHandler(next ...Handler) Handler {
	return NewEndorsementHandler(
		NewEndorsementValidationHandler(
			NewSignatureValidationHandler(NewCommitHandler(next...)),
		),
	)
}

//NewEndorsementHandler returns a handler that endorses a transaction proposal
func NewEndorsementHandler(next ...Handler) *EndorsementHandler {
	return &EndorsementHandler{next: getNext(next)}
}

//NewEndorsementValidationHandler returns a handler that validates an endorsement
func NewEndorsementValidationHandler(next ...Handler) *EndorsementValidationHandler {
	return &EndorsementValidationHandler{next: getNext(next)}
}

//NewCommitHandler returns a handler that commits transaction propsal responses
func NewCommitHandler(next ...Handler) *CommitTxHandler {
	return &CommitTxHandler{next: getNext(next)}
}

func getNext(next []Handler) Handler {
	if len(next) > 0 {
		return next[0]
	}
	return nil
}
