/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	reqContext "context"
	"sync"

	pb "github.com/hyperledger/fabric-protos-go/peer"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
)

// MockPeer is a mock fab.Peer.
type MockPeer struct {
	RWLock                  *sync.RWMutex
	Error                   error
	MockName                string
	MockURL                 string
	Payload                 []byte
	ResponseMessage         string
	ProposalResponsePayload []byte // Overrides proposal response payload generated from other values
	MockMSP                 string
	Status                  int32
	ProcessProposalCalls    int
	Endorser                []byte
	ChaincodeID             string
	// LastRequest is the last request received
	LastRequest *fab.ProcessProposalRequest
}

// NewMockPeer creates basic mock peer
func NewMockPeer(name string, url string) *MockPeer {
	mp := &MockPeer{MockName: name, MockMSP: "Org1MSP", MockURL: url, Status: 200, RWLock: &sync.RWMutex{}}
	return mp
}

// Name returns the mock peer's mock name
func (p *MockPeer) Name() string {
	return p.MockName
}

// MSPID gets the Peer mspID.
func (p *MockPeer) MSPID() string {
	return p.MockMSP
}

// URL returns the mock peer's mock URL
func (p *MockPeer) URL() string {
	return p.MockURL
}

// Calls returns the number of proposals processed
func (p *MockPeer) Calls() int {
	p.RWLock.RLock()
	defer p.RWLock.RUnlock()
	return p.ProcessProposalCalls
}

// ProcessTransactionProposal does not send anything anywhere but returns a mock ProposalResponse
func (p *MockPeer) ProcessTransactionProposal(ctx reqContext.Context, tp fab.ProcessProposalRequest) (*fab.TransactionProposalResponse, error) {
	if p.RWLock != nil {
		p.RWLock.Lock()
		defer p.RWLock.Unlock()
	}
	p.ProcessProposalCalls++
	p.LastRequest = &tp

	if p.Error != nil {
		return nil, p.Error
	}

	response := &pb.Response{
		Message: p.ResponseMessage,
		Status:  p.Status,
		Payload: p.Payload,
	}

	return &fab.TransactionProposalResponse{
		Endorser:        p.MockURL,
		Status:          200,
		ChaincodeStatus: p.Status,
		ProposalResponse: &pb.ProposalResponse{
			Response: response,
			Endorsement: &pb.Endorsement{
				Endorser:  p.Endorser,
				Signature: []byte("signature"),
			},
			Payload: p.getProposalResponsePayload(response),
		},
	}, nil
}

func (p *MockPeer) getProposalResponsePayload(response *pb.Response) []byte {
	if p.ProposalResponsePayload != nil {
		return p.ProposalResponsePayload
	}
	payload, err := protoutil.GetBytesProposalResponsePayload(nil, response, nil, &pb.ChaincodeID{Name: p.ChaincodeID})
	if err != nil {
		panic(err)
	}
	return payload
}
