/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package protoutil builds and takes apart the protobuf messages exchanged
// between clients, endorsers, the orderer and the deliver service.
package protoutil

import (
	"crypto/rand"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	cb "github.com/hyperledger/fabric-protos-go/common"
	"github.com/pkg/errors"
)

// NonceSize is the number of random bytes in a nonce
const NonceSize = 24

// Signer signs messages and serializes the identity that signed them
type Signer interface {
	Sign(msg []byte) ([]byte, error)
	Serialize() ([]byte, error)
}

// MarshalOrPanic serializes a protobuf message and panics if this
// operation fails
func MarshalOrPanic(pb proto.Message) []byte {
	data, err := proto.Marshal(pb)
	if err != nil {
		panic(err)
	}
	return data
}

// Marshal serializes a protobuf message.
func Marshal(pb proto.Message) ([]byte, error) {
	bytes, err := proto.Marshal(pb)
	return bytes, errors.Wrapf(err, "error marshaling %T", pb)
}

// CreateNonce returns NonceSize random bytes
func CreateNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "error generating random nonce")
	}
	return nonce, nil
}

// MakeChannelHeader creates a ChannelHeader stamped with the current time
func MakeChannelHeader(headerType cb.HeaderType, channelID, txID string) *cb.ChannelHeader {
	return &cb.ChannelHeader{
		Type:      int32(headerType),
		ChannelId: channelID,
		TxId:      txID,
		Timestamp: ptypes.TimestampNow(),
	}
}

// MakeSignatureHeader creates a SignatureHeader.
func MakeSignatureHeader(creator []byte, nonce []byte) *cb.SignatureHeader {
	return &cb.SignatureHeader{
		Creator: creator,
		Nonce:   nonce,
	}
}

// MakePayloadHeader creates a Payload Header.
func MakePayloadHeader(ch *cb.ChannelHeader, sh *cb.SignatureHeader) *cb.Header {
	return &cb.Header{
		ChannelHeader:   MarshalOrPanic(ch),
		SignatureHeader: MarshalOrPanic(sh),
	}
}

// Timestamp returns the time of a channel header or the zero time
func Timestamp(ch *cb.ChannelHeader) time.Time {
	if ch.GetTimestamp() == nil {
		return time.Time{}
	}
	t, err := ptypes.Timestamp(ch.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CreateSignedEnvelope wraps dataMsg into a payload of the given type and
// signs it. A nil signer produces an unsigned envelope without creator.
func CreateSignedEnvelope(txType cb.HeaderType, channelID string, signer Signer, dataMsg proto.Message) (*cb.Envelope, error) {
	payloadChannelHeader := MakeChannelHeader(txType, channelID, "")

	payloadSignatureHeader := &cb.SignatureHeader{}
	if signer != nil {
		creator, err := signer.Serialize()
		if err != nil {
			return nil, errors.WithMessage(err, "serializing signer failed")
		}
		nonce, err := CreateNonce()
		if err != nil {
			return nil, err
		}
		payloadSignatureHeader = MakeSignatureHeader(creator, nonce)
	}

	data, err := proto.Marshal(dataMsg)
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling")
	}

	paylBytes := MarshalOrPanic(&cb.Payload{
		Header: MakePayloadHeader(payloadChannelHeader, payloadSignatureHeader),
		Data:   data,
	})

	var sig []byte
	if signer != nil {
		sig, err = signer.Sign(paylBytes)
		if err != nil {
			return nil, err
		}
	}

	return &cb.Envelope{Payload: paylBytes, Signature: sig}, nil
}
