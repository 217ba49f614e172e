/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	reqContext "context"
	"sync/atomic"

	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
)

// MockEndorser answers every proposal with the configured response.
// Responses with status 200 are endorsed and signed by Signer; all other
// responses are returned unendorsed, the way a replica reports a chaincode error.
type MockEndorser struct {
	Signer      msp.SigningIdentity
	MockURL     string
	ChaincodeID string
	Status      int32
	Message     string
	Payload     []byte
	Error       error
	calls       int32
}

// NewMockEndorser returns an endorser that succeeds with payload
func NewMockEndorser(signer msp.SigningIdentity, payload []byte) *MockEndorser {
	return &MockEndorser{Signer: signer, MockURL: "localhost:7051", ChaincodeID: "ledgerCC", Status: 200, Payload: payload}
}

// Calls returns the number of proposals processed
func (e *MockEndorser) Calls() int {
	return int(atomic.LoadInt32(&e.calls))
}

// ProcessTransactionProposal returns the configured response
func (e *MockEndorser) ProcessTransactionProposal(_ reqContext.Context, _ fab.ProcessProposalRequest) (*fab.TransactionProposalResponse, error) {
	atomic.AddInt32(&e.calls, 1)
	if e.Error != nil {
		return nil, e.Error
	}

	response := &pb.Response{Status: e.Status, Message: e.Message, Payload: e.Payload}
	resp := &fab.TransactionProposalResponse{
		Endorser:         e.MockURL,
		Status:           200,
		ChaincodeStatus:  e.Status,
		ProposalResponse: &pb.ProposalResponse{Response: response},
	}
	if e.Status != int32(cb.Status_SUCCESS) {
		return resp, nil
	}

	payload, err := protoutil.GetBytesProposalResponsePayload(nil, response, nil, &pb.ChaincodeID{Name: e.ChaincodeID})
	if err != nil {
		return nil, err
	}
	endorser, err := e.Signer.Serialize()
	if err != nil {
		return nil, err
	}
	signature, err := e.Signer.Sign(protoutil.EndorsementMessage(payload, endorser))
	if err != nil {
		return nil, err
	}
	resp.ProposalResponse.Payload = payload
	resp.ProposalResponse.Endorsement = &pb.Endorsement{Endorser: endorser, Signature: signature}
	return resp, nil
}
