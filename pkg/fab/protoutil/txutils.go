/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package protoutil

import (
	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset/kvrwset"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// GetPayloads gets the underlying payload objects in a TransactionAction
func GetPayloads(txActions *peer.TransactionAction) (*peer.ChaincodeActionPayload, *peer.ChaincodeAction, error) {
	ccPayload, err := UnmarshalChaincodeActionPayload(txActions.Payload)
	if err != nil {
		return nil, nil, err
	}

	if ccPayload.Action == nil || ccPayload.Action.ProposalResponsePayload == nil {
		return nil, nil, errors.New("no payload in ChaincodeActionPayload")
	}

	respPayload, err := GetActionFromProposalResponsePayload(ccPayload.Action.ProposalResponsePayload)
	if err != nil {
		return ccPayload, nil, err
	}
	return ccPayload, respPayload, nil
}

// GetBytesTxReadWriteSet wraps the key-value read-write set of a single
// chaincode namespace into the simulation results of a chaincode action
func GetBytesTxReadWriteSet(namespace string, kvrw *kvrwset.KVRWSet) ([]byte, error) {
	kvrwBytes, err := proto.Marshal(kvrw)
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling KVRWSet")
	}
	txrw := &rwset.TxReadWriteSet{
		DataModel: rwset.TxReadWriteSet_KV,
		NsRwset:   []*rwset.NsReadWriteSet{{Namespace: namespace, Rwset: kvrwBytes}},
	}
	txrwBytes, err := proto.Marshal(txrw)
	return txrwBytes, errors.Wrap(err, "error marshaling TxReadWriteSet")
}

// GetKVRWSet returns the key-value read-write set of namespace from the
// simulation results of a chaincode action. Results without the namespace
// yield an empty set.
func GetKVRWSet(results []byte, namespace string) (*kvrwset.KVRWSet, error) {
	txrw, err := UnmarshalTxReadWriteSet(results)
	if err != nil {
		return nil, err
	}
	if txrw.DataModel != rwset.TxReadWriteSet_KV {
		return nil, errors.Errorf("unsupported read-write set data model %s", txrw.DataModel)
	}
	for _, ns := range txrw.NsRwset {
		if ns.GetNamespace() == namespace {
			return UnmarshalKVRWSet(ns.Rwset)
		}
	}
	return &kvrwset.KVRWSet{}, nil
}
