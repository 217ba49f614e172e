/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package protoutil

import (
	"crypto/sha256"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	cb "github.com/hyperledger/fabric-protos-go/common"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
)

// CreateChaincodeProposal creates an endorser transaction proposal for the
// invocation spec. The transaction ID is computed by the caller from nonce
// and creator.
func CreateChaincodeProposal(txid string, chainID string, cis *peer.ChaincodeInvocationSpec, nonce, creator []byte, timestamp time.Time) (*peer.Proposal, error) {
	if cis.GetChaincodeSpec().GetChaincodeId() == nil {
		return nil, errors.New("chaincode ID is required")
	}

	ccHdrExt := &peer.ChaincodeHeaderExtension{ChaincodeId: cis.ChaincodeSpec.ChaincodeId}
	ccHdrExtBytes, err := proto.Marshal(ccHdrExt)
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling ChaincodeHeaderExtension")
	}

	cisBytes, err := proto.Marshal(cis)
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling ChaincodeInvocationSpec")
	}

	ccPropPayloadBytes, err := proto.Marshal(&peer.ChaincodeProposalPayload{Input: cisBytes})
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling ChaincodeProposalPayload")
	}

	ts, err := ptypes.TimestampProto(timestamp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create timestamp in channel header")
	}

	hdr := &cb.Header{
		ChannelHeader: MarshalOrPanic(
			&cb.ChannelHeader{
				Type:      int32(cb.HeaderType_ENDORSER_TRANSACTION),
				TxId:      txid,
				Timestamp: ts,
				ChannelId: chainID,
				Extension: ccHdrExtBytes,
			},
		),
		SignatureHeader: MarshalOrPanic(MakeSignatureHeader(creator, nonce)),
	}

	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling Header")
	}

	return &peer.Proposal{
		Header:  hdrBytes,
		Payload: ccPropPayloadBytes,
	}, nil
}

// GetBytesProposalPayloadForTx returns the proposal payload as it is carried
// by the transaction: without transient data
func GetBytesProposalPayloadForTx(payload *peer.ChaincodeProposalPayload) ([]byte, error) {
	if payload == nil {
		return nil, errors.New("nil arguments")
	}
	cppNoTransient := &peer.ChaincodeProposalPayload{Input: payload.Input, TransientMap: nil}
	cppBytes, err := proto.Marshal(cppNoTransient)
	return cppBytes, errors.Wrap(err, "error marshaling ChaincodeProposalPayload")
}

// GetProposalHash returns the hash the endorsers sign over: the channel
// header, the signature header and the proposal payload as carried by the
// transaction
func GetProposalHash(header *cb.Header, ccPropPayloadForTx []byte) ([]byte, error) {
	if header == nil || header.ChannelHeader == nil || header.SignatureHeader == nil {
		return nil, errors.New("nil arguments")
	}
	h := sha256.New()
	h.Write(header.ChannelHeader)   // nolint: errcheck
	h.Write(header.SignatureHeader) // nolint: errcheck
	h.Write(ccPropPayloadForTx)     // nolint: errcheck
	return h.Sum(nil), nil
}

// GetBytesProposalResponsePayload gets proposal response payload
func GetBytesProposalResponsePayload(hash []byte, response *peer.Response, result []byte, ccid *peer.ChaincodeID) ([]byte, error) {
	cAct := &peer.ChaincodeAction{
		Results:     result,
		Response:    response,
		ChaincodeId: ccid,
	}
	cActBytes, err := proto.Marshal(cAct)
	if err != nil {
		return nil, errors.Wrap(err, "error marshaling ChaincodeAction")
	}

	prp := &peer.ProposalResponsePayload{
		Extension:    cActBytes,
		ProposalHash: hash,
	}
	prpBytes, err := proto.Marshal(prp)
	return prpBytes, errors.Wrap(err, "error marshaling ProposalResponsePayload")
}

// GetActionFromProposalResponsePayload returns the chaincode action an
// endorser signed
func GetActionFromProposalResponsePayload(prpBytes []byte) (*peer.ChaincodeAction, error) {
	prp, err := UnmarshalProposalResponsePayload(prpBytes)
	if err != nil {
		return nil, err
	}
	if prp.Extension == nil {
		return nil, errors.New("response payload is missing extension")
	}
	return UnmarshalChaincodeAction(prp.Extension)
}

// EndorsementMessage returns the bytes an endorser signs: the proposal
// response payload followed by the endorser's serialized identity
func EndorsementMessage(prpBytes, endorser []byte) []byte {
	msg := make([]byte, 0, len(prpBytes)+len(endorser))
	msg = append(msg, prpBytes...)
	return append(msg, endorser...)
}
