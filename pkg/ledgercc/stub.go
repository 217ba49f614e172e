/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledgercc

import (

	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
)

// Stub is the view of the world state the chaincode executes against
type Stub interface {
	// GetFunctionAndParameters returns the invoked function and its string arguments
	GetFunctionAndParameters() (string, []string)

	// GetState returns the value of key, or nil if the key does not exist
	GetState(key string) ([]byte, error)

	// PutState writes the value of key into the transaction's write set
	PutState(key string, value []byte) error

	// GetStateByRange returns an iterator over the keys in [startKey, endKey)
	// in lexical order
	GetStateByRange(startKey, endKey string) (StateIterator, error)
}

// KV is a key and its value as returned by a StateIterator
type KV struct {
	Key   string
	Value []byte
}

// StateIterator iterates over the result of a range query
type StateIterator interface {
	HasNext() bool
	Next() (*KV, error)
	Close() error
}

// Success returns a chaincode response with status 200
func Success(payload []byte) *pb.Response {
	return &pb.Response{
		Status:  int32(cb.Status_SUCCESS),
		Payload: payload,
	}
}

// Error returns a chaincode response with status 500
func Error(msg string) *pb.Response {
	return &pb.Response{
		Status:  int32(cb.Status_INTERNAL_SERVER_ERROR),
		Message: msg,
	}
}
