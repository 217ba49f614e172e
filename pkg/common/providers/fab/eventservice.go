/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	pb "github.com/hyperledger/fabric-protos-go/peer"
)

// FilteredBlockEvent is a committed block as reported by SourceURL
type FilteredBlockEvent struct {
	FilteredBlock *pb.FilteredBlock
	SourceURL     string
}

// TxStatusEvent reports the validation of one transaction in a committed block
type TxStatusEvent struct {
	TxID             string
	TxValidationCode pb.TxValidationCode
	BlockNumber      uint64
	SourceURL        string
}

// Registration identifies a subscription to Unregister
type Registration interface{}

// EventService delivers commit events of the channel. Each Register call
// returns a channel that stays open until the registration is passed to
// Unregister.
type EventService interface {
	RegisterFilteredBlockEvent() (Registration, <-chan *FilteredBlockEvent, error)

	// RegisterTxStatusEvent subscribes to the status of txID. Only one
	// registration per transaction ID may exist at a time.
	RegisterTxStatusEvent(txID string) (Registration, <-chan *TxStatusEvent, error)

	Unregister(reg Registration)
}

// ConnectionEvent reports a change of the connection to the event source.
// Err is the cause of a disconnect.
type ConnectionEvent struct {
	Connected bool
	Err       error
}
