/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	reqContext "context"

	pb "github.com/hyperledger/fabric-protos-go/peer"
)

// TransactionRequest is a proposal with the endorsements collected for it
type TransactionRequest struct {
	Proposal          *TransactionProposal
	ProposalResponses []*TransactionProposalResponse
}

// Sender turns endorsements into a transaction and hands it to ordering
type Sender interface {
	CreateTransaction(request TransactionRequest) (*Transaction, error)
	SendTransaction(ctx reqContext.Context, tx *Transaction) (*TransactionResponse, error)
}

// Transactor supplies methods for sending transaction proposals and transactions.
type Transactor interface {
	ProposalSender
	Sender
}

// Transaction is the endorsed transaction of a proposal
type Transaction struct {
	Proposal    *TransactionProposal
	Transaction *pb.Transaction
}

// TransactionResponse names the orderer that accepted a transaction
type TransactionResponse struct {
	Orderer string
}
