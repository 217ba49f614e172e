/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel/invoke"
)

// Results of RegisterUser
const (
	UserEnrolled         = "User successfully enrolled"
	UserEnrollmentFailed = "User enrollment failed , check logs"
)

// Credential summarizes an enrolled identity
type Credential struct {
	Name        string `json:"name"`
	MSPID       string `json:"mspid"`
	Certificate string `json:"certificate"`
}

// Outcome is the terminal result of a submitted transaction.
//
// Status is one of COMMITTED, INVALID, TIMEOUT, ORDER_FAILED or
// PROPOSAL_REJECTED. EventStatus is the validation code of the commit event,
// or TIMEOUT when none arrived in time. A TIMEOUT leaves the status of the
// transaction unknown; re-query before retrying it.
type Outcome struct {
	Status      invoke.Outcome `json:"status"`
	EventStatus string         `json:"event_status,omitempty"`
	TxID        string         `json:"tx_id,omitempty"`
	BlockNumber uint64         `json:"block_number,omitempty"`
	Payload     string         `json:"payload,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// Committed returns true if the transaction was committed as valid
func (o *Outcome) Committed() bool {
	return o.Status == invoke.Committed
}

// TransactionStatus is the validation result the ledger recorded for a
// transaction. It answers whether a transaction that timed out was committed.
type TransactionStatus struct {
	TxID             string `json:"tx_id"`
	TxValidationCode string `json:"tx_validation_code"`
	BlockNumber      uint64 `json:"block_number"`
}
