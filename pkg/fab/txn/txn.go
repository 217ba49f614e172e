/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package txn enables creating, endorsing and sending transactions to ledger peers and orderers.
package txn

import (
	"bytes"
	reqContext "context"
	"math/rand"

	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/retry"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
)

var logger = logging.NewLogger("ledger/fab")

// New create a transaction with proposal response, following the endorsement policy.
func New(request fab.TransactionRequest) (*fab.Transaction, error) {
	if len(request.ProposalResponses) == 0 {
		return nil, errors.New("at least one proposal response is necessary")
	}
	if request.Proposal == nil || request.Proposal.Proposal == nil {
		return nil, errors.New("proposal is nil")
	}
	proposal := request.Proposal

	// the original header
	hdr, err := protoutil.UnmarshalHeader(proposal.Header)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal proposal header failed")
	}

	// the original payload
	pPayl, err := protoutil.UnmarshalChaincodeProposalPayload(proposal.Payload)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal proposal payload failed")
	}

	for _, r := range request.ProposalResponses {
		if r == nil || r.ProposalResponse == nil {
			return nil, errors.New("proposal response is nil")
		}
	}

	responsePayload := request.ProposalResponses[0].ProposalResponse.Payload
	endorsements := make([]*pb.Endorsement, 0, len(request.ProposalResponses))
	for _, r := range request.ProposalResponses {
		if r.ProposalResponse.GetResponse().GetStatus() != int32(common.Status_SUCCESS) {
			return nil, status.NewFromProposalResponse(r.ProposalResponse, r.Endorser)
		}
		if !bytes.Equal(responsePayload, r.ProposalResponse.Payload) {
			return nil, status.New(status.EndorserClientStatus, status.EndorsementMismatch.ToInt32(),
				"proposal response payloads are not the same", nil)
		}
		if r.ProposalResponse.Endorsement == nil {
			return nil, status.New(status.EndorserClientStatus, status.MissingEndorsement.ToInt32(),
				"proposal response of "+r.Endorser+" carries no endorsement", nil)
		}
		endorsements = append(endorsements, r.ProposalResponse.Endorsement)
	}

	// create ChaincodeEndorsedAction
	cea := &pb.ChaincodeEndorsedAction{ProposalResponsePayload: responsePayload, Endorsements: endorsements}

	// obtain the bytes of the proposal payload that will go to the transaction
	propPayloadBytes, err := protoutil.GetBytesProposalPayloadForTx(pPayl)
	if err != nil {
		return nil, err
	}

	// serialize the chaincode action payload
	cap := &pb.ChaincodeActionPayload{ChaincodeProposalPayload: propPayloadBytes, Action: cea}
	capBytes, err := protoutil.Marshal(cap)
	if err != nil {
		return nil, err
	}

	// create a transaction
	taa := &pb.TransactionAction{Header: hdr.SignatureHeader, Payload: capBytes}

	return &fab.Transaction{
		Transaction: &pb.Transaction{Actions: []*pb.TransactionAction{taa}},
		Proposal:    proposal,
	}, nil
}

// Send send a transaction to the chain’s orderer service (one or more orderer endpoints) for consensus and committing to the ledger.
func Send(reqCtx reqContext.Context, signer msp.SigningIdentity, tx *fab.Transaction, orderers []fab.Orderer, retryOpts retry.Opts) (*fab.TransactionResponse, error) {
	if len(orderers) == 0 {
		return nil, errors.New("orderers is nil")
	}
	if tx == nil || tx.Transaction == nil {
		return nil, errors.New("transaction is nil")
	}
	if tx.Proposal == nil || tx.Proposal.Proposal == nil {
		return nil, errors.New("proposal is nil")
	}
	if signer == nil {
		return nil, errors.New("signing identity is nil")
	}

	// the original header
	hdr, err := protoutil.UnmarshalHeader(tx.Proposal.Proposal.Header)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal proposal header failed")
	}

	// serialize the tx
	txBytes, err := protoutil.Marshal(tx.Transaction)
	if err != nil {
		return nil, err
	}

	// create the payload
	envelope, err := signPayload(signer, &common.Payload{Header: hdr, Data: txBytes})
	if err != nil {
		return nil, err
	}

	return broadcastEnvelope(reqCtx, envelope, orderers, retryOpts)
}

// broadcastEnvelope will send the given envelope to some orderer, picking random endpoints
// until all are exhausted
func broadcastEnvelope(reqCtx reqContext.Context, envelope *fab.SignedEnvelope, orderers []fab.Orderer, retryOpts retry.Opts) (*fab.TransactionResponse, error) {
	// Iterate them in a random order and try broadcasting 1 by 1
	var lastErr error
	for _, i := range rand.Perm(len(orderers)) {
		resp, err := sendBroadcast(reqCtx, envelope, orderers[i], retry.New(retryOpts))
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if reqCtx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func sendBroadcast(reqCtx reqContext.Context, envelope *fab.SignedEnvelope, orderer fab.Orderer, retryHandler retry.Handler) (*fab.TransactionResponse, error) {
	for {
		logger.Debugf("Broadcasting envelope to orderer :%s", orderer.URL())
		_, err := orderer.SendBroadcast(reqCtx, envelope)
		if err == nil {
			logger.Debugf("Receive Success Response from orderer")
			return &fab.TransactionResponse{Orderer: orderer.URL()}, nil
		}
		logger.Debugf("Receive Error Response from orderer :%s", err)
		if reqCtx.Err() != nil || !retryHandler.Required(err) {
			return nil, errors.WithMessage(err, "calling orderer '"+orderer.URL()+"' failed")
		}
	}
}
