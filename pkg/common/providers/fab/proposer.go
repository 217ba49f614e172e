/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	reqContext "context"
	"time"

	pb "github.com/hyperledger/fabric-protos-go/peer"
)

// ProposalProcessor endorses signed proposals. Peers and the dev network endorser implement it.
type ProposalProcessor interface {
	ProcessTransactionProposal(reqContext.Context, ProcessProposalRequest) (*TransactionProposalResponse, error)
}

// ProposalSender builds proposals and collects their endorsements
type ProposalSender interface {
	CreateTransactionProposal(request ChaincodeInvokeRequest) (*TransactionProposal, error)
	SendTransactionProposal(reqContext.Context, *TransactionProposal, []ProposalProcessor) ([]*TransactionProposalResponse, error)
}

// TransactionID is the hex encoded hash of a proposal's nonce and creator
type TransactionID string

const EmptyTransactionID = TransactionID("")

// TransactionHeader is the metadata shared by a proposal and its transaction
type TransactionHeader interface {
	TransactionID() TransactionID
	Creator() []byte
	Nonce() []byte
	ChannelID() string
	Timestamp() time.Time
}

// ChaincodeInvokeRequest names the chaincode function to call
type ChaincodeInvokeRequest struct {
	ChaincodeID string
	Fcn         string
	Args        [][]byte
}

// TransactionProposal is an unsigned proposal with its transaction ID
type TransactionProposal struct {
	TxnID TransactionID
	*pb.Proposal
}

// ProcessProposalRequest carries a signed proposal to an endorser
type ProcessProposalRequest struct {
	SignedProposal *pb.SignedProposal
}

// TransactionProposalResponse is the answer of the endorser named Endorser.
// Status is the endorser status, ChaincodeStatus the status set by the chaincode.
type TransactionProposalResponse struct {
	Endorser        string
	Status          int32
	ChaincodeStatus int32
	*pb.ProposalResponse
}
