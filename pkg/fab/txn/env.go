/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/common"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
)

// TransactionHeader contains metadata for a transaction created by the client.
type TransactionHeader struct {
	id        fab.TransactionID
	creator   []byte
	nonce     []byte
	channelID string
	timestamp time.Time
}

// TransactionID returns the transaction's computed identifier.
func (th *TransactionHeader) TransactionID() fab.TransactionID {
	return th.id
}

// Creator returns the transaction creator's identity bytes.
func (th *TransactionHeader) Creator() []byte {
	return th.creator
}

// Nonce returns the transaction's generated nonce.
func (th *TransactionHeader) Nonce() []byte {
	return th.nonce
}

// ChannelID returns the transaction's target channel identifier.
func (th *TransactionHeader) ChannelID() string {
	return th.channelID
}

// Timestamp returns the creation time of the header
func (th *TransactionHeader) Timestamp() time.Time {
	return th.timestamp
}

// NewHeader computes a TransactionID from the identity of the creator and
// a fresh random nonce
func NewHeader(creator msp.Identity, channelID string) (*TransactionHeader, error) {
	if creator == nil {
		return nil, errors.New("creator identity is required")
	}

	// generate a random nonce
	nonce, err := protoutil.CreateNonce()
	if err != nil {
		return nil, errors.WithMessage(err, "nonce creation failed")
	}

	creatorBytes, err := creator.Serialize()
	if err != nil {
		return nil, errors.WithMessage(err, "identity from context failed")
	}

	id, err := computeTxnID(nonce, creatorBytes, sha256.New())
	if err != nil {
		return nil, errors.WithMessage(err, "txn ID computation failed")
	}

	txnID := TransactionHeader{
		id:        fab.TransactionID(id),
		creator:   creatorBytes,
		nonce:     nonce,
		channelID: channelID,
		timestamp: time.Now(),
	}
	return &txnID, nil
}

// ComputeTxnID returns hex(SHA-256(nonce || creator))
func ComputeTxnID(nonce, creator []byte) string {
	id, _ := computeTxnID(nonce, creator, sha256.New()) // nolint: errcheck
	return id
}

func computeTxnID(nonce, creator []byte, h hash.Hash) (string, error) {
	b := make([]byte, 0, len(nonce)+len(creator))
	b = append(b, nonce...)
	b = append(b, creator...)

	_, err := h.Write(b)
	if err != nil {
		return "", err
	}
	digest := h.Sum(nil)
	id := hex.EncodeToString(digest)

	return id, nil
}

// signPayload signs payload
func signPayload(signer msp.SigningIdentity, payload *common.Payload) (*fab.SignedEnvelope, error) {
	payloadBytes, err := proto.Marshal(payload)
	if err != nil {
		return nil, errors.WithMessage(err, "marshaling of payload failed")
	}

	signature, err := signer.Sign(payloadBytes)
	if err != nil {
		return nil, errors.WithMessage(err, "signing of payload failed")
	}
	return &fab.SignedEnvelope{Payload: payloadBytes, Signature: signature}, nil
}
