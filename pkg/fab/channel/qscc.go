/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package channel

import (
	"strconv"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

// QSCC is the system chaincode answering queries about the ledger itself.
// Its responses are not endorsed and never ordered. The first argument of
// every function is the channel ID; results are protobuf encoded.
const QSCC = "qscc"

// Functions of the ledger query chaincode
const (
	FcnGetTransactionByID = "GetTransactionByID"
	FcnGetChainInfo       = "GetChainInfo"
	FcnGetBlockByNumber   = "GetBlockByNumber"
	FcnGetBlockByTxID     = "GetBlockByTxID"
)

// CreateTransactionByIDInvokeRequest returns the query for a processed transaction
func CreateTransactionByIDInvokeRequest(channelID string, transactionID fab.TransactionID) fab.ChaincodeInvokeRequest {
	return fab.ChaincodeInvokeRequest{
		ChaincodeID: QSCC,
		Fcn:         FcnGetTransactionByID,
		Args:        [][]byte{[]byte(channelID), []byte(transactionID)},
	}
}

// CreateChannelInfoInvokeRequest returns the query for the chain height
func CreateChannelInfoInvokeRequest(channelID string) fab.ChaincodeInvokeRequest {
	return fab.ChaincodeInvokeRequest{
		ChaincodeID: QSCC,
		Fcn:         FcnGetChainInfo,
		Args:        [][]byte{[]byte(channelID)},
	}
}

// CreateBlockByNumberInvokeRequest returns the query for a block
func CreateBlockByNumberInvokeRequest(channelID string, blockNumber uint64) fab.ChaincodeInvokeRequest {
	return fab.ChaincodeInvokeRequest{
		ChaincodeID: QSCC,
		Fcn:         FcnGetBlockByNumber,
		Args:        [][]byte{[]byte(channelID), []byte(strconv.FormatUint(blockNumber, 10))},
	}
}

// CreateBlockByTxIDInvokeRequest returns the query for the block holding a transaction
func CreateBlockByTxIDInvokeRequest(channelID string, transactionID fab.TransactionID) fab.ChaincodeInvokeRequest {
	return fab.ChaincodeInvokeRequest{
		ChaincodeID: QSCC,
		Fcn:         FcnGetBlockByTxID,
		Args:        [][]byte{[]byte(channelID), []byte(transactionID)},
	}
}
