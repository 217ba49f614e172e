/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoke

import (
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
	mspimpl "github.com/sharad-develop/fabric-node-ledger/pkg/msp"
)

//NewSignatureValidationHandler returns a handler that validates an endorsement
func NewSignatureValidationHandler(next ...Handler) *SignatureValidationHandler {
	return &SignatureValidationHandler{next: getNext(next)}
}

//SignatureValidationHandler for transaction proposal response filtering
type SignatureValidationHandler struct {
	next Handler
}

//Handle for Filtering proposal response
func (f *SignatureValidationHandler) Handle(requestContext *RequestContext, clientContext *ClientContext) {
	//Filter tx proposal responses
	err := f.validate(requestContext.Response.Responses)
	if err != nil {
		requestContext.Response.Outcome = ProposalRejected
		requestContext.Error = errors.WithMessage(err, "signature validation failed")
		return
	}

	// Delegate to next step if any
	if f.next != nil {
		f.next.Handle(requestContext, clientContext)
	}
}

func (f *SignatureValidationHandler) validate(txProposalResponse []*fab.TransactionProposalResponse) error {
	for _, r := range txProposalResponse {
		if err := verifyProposalResponse(r); err != nil {
			return err
		}
	}

	return nil
}

// verifyProposalResponse checks the endorser's signature over the response
// payload. Responses without an endorsement carry nothing to verify.
func verifyProposalResponse(res *fab.TransactionProposalResponse) error {
	endorsement := res.ProposalResponse.GetEndorsement()
	if endorsement == nil {
		return nil
	}

	endorser, err := mspimpl.Deserialize(endorsement.Endorser)
	if err != nil {
		return status.New(status.EndorserClientStatus, status.SignatureVerificationFailed.ToInt32(),
			"unable to deserialize endorser of "+res.Endorser+": "+err.Error(), nil)
	}

	msg := protoutil.EndorsementMessage(res.ProposalResponse.Payload, endorsement.Endorser)
	if err := endorser.Verify(msg, endorsement.Signature); err != nil {
		return status.New(status.EndorserClientStatus, status.SignatureVerificationFailed.ToInt32(),
			"endorsement signature of "+res.Endorser+" is invalid: "+err.Error(), nil)
	}
	return nil
}
