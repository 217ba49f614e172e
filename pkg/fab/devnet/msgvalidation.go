/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package devnet

import (
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/channel"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/txn"
)

// unpackedProposal holds the parts of a signed proposal the endorser works with
type unpackedProposal struct {
	ChaincodeName   string
	ChannelHeader   *cb.ChannelHeader
	Input           *pb.ChaincodeInput
	SignatureHeader *cb.SignatureHeader
	SignedProposal  *pb.SignedProposal
	ProposalHash    []byte
}

func (up *unpackedProposal) TxID() string {
	return up.ChannelHeader.TxId
}

// Function returns the invoked function and its arguments
func (up *unpackedProposal) Function() (string, [][]byte) {
	if len(up.Input.Args) == 0 {
		return "", nil
	}
	return string(up.Input.Args[0]), up.Input.Args[1:]
}

// unpackProposal takes a signed proposal apart and computes the hash the
// endorsement is bound to
func unpackProposal(sp *pb.SignedProposal) (*unpackedProposal, error) {
	if sp == nil || len(sp.ProposalBytes) == 0 {
		return nil, errors.New("empty proposal")
	}
	prop, err := protoutil.UnmarshalProposal(sp.ProposalBytes)
	if err != nil {
		return nil, err
	}
	hdr, err := protoutil.UnmarshalHeader(prop.Header)
	if err != nil {
		return nil, err
	}
	chdr, err := protoutil.UnmarshalChannelHeader(hdr.ChannelHeader)
	if err != nil {
		return nil, err
	}
	shdr, err := protoutil.UnmarshalSignatureHeader(hdr.SignatureHeader)
	if err != nil {
		return nil, err
	}
	ext, err := protoutil.UnmarshalChaincodeHeaderExtension(chdr.Extension)
	if err != nil {
		return nil, err
	}
	if ext.GetChaincodeId().GetName() == "" {
		return nil, errors.New("chaincode name is empty")
	}

	cpp, err := protoutil.UnmarshalChaincodeProposalPayload(prop.Payload)
	if err != nil {
		return nil, err
	}
	cis, err := protoutil.UnmarshalChaincodeInvocationSpec(cpp.Input)
	if err != nil {
		return nil, err
	}
	if cis.GetChaincodeSpec().GetInput() == nil {
		return nil, errors.New("chaincode invocation spec has no input")
	}

	ppBytes, err := protoutil.GetBytesProposalPayloadForTx(cpp)
	if err != nil {
		return nil, err
	}
	hash, err := protoutil.GetProposalHash(hdr, ppBytes)
	if err != nil {
		return nil, err
	}

	return &unpackedProposal{
		ChaincodeName:   ext.ChaincodeId.Name,
		ChannelHeader:   chdr,
		Input:           cis.ChaincodeSpec.Input,
		SignatureHeader: shdr,
		SignedProposal:  sp,
		ProposalHash:    hash,
	}, nil
}

// validateProposal checks the header, the creator's signature and the
// transaction ID of an unpacked proposal
func (n *Node) validateProposal(up *unpackedProposal) error {
	if cb.HeaderType(up.ChannelHeader.Type) != cb.HeaderType_ENDORSER_TRANSACTION {
		return errors.Errorf("invalid header type %s", cb.HeaderType(up.ChannelHeader.Type))
	}
	if up.ChannelHeader.ChannelId != n.config.ChannelID {
		return errors.Errorf("channel [%s] not found", up.ChannelHeader.ChannelId)
	}
	if up.ChaincodeName != n.config.ChaincodeID && up.ChaincodeName != channel.QSCC {
		return errors.Errorf("chaincode [%s] not found on channel [%s]", up.ChaincodeName, up.ChannelHeader.ChannelId)
	}
	if len(up.SignatureHeader.Nonce) == 0 {
		return errors.New("nonce is empty")
	}
	if len(up.SignatureHeader.Creator) == 0 {
		return errors.New("creator is empty")
	}
	if _, err := n.verifySignature(up.SignatureHeader.Creator, up.SignedProposal.ProposalBytes, up.SignedProposal.Signature); err != nil {
		return errors.WithMessage(err, "creator validation failed")
	}
	if expected := txn.ComputeTxnID(up.SignatureHeader.Nonce, up.SignatureHeader.Creator); up.TxID() != expected {
		return errors.Errorf("invalid txID. got [%s], expected [%s]", up.TxID(), expected)
	}
	return nil
}
