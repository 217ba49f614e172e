/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package devnet

import (
	"context"
	"time"

	cb "github.com/hyperledger/fabric-protos-go/common"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset/kvrwset"
	pb "github.com/hyperledger/fabric-protos-go/peer"

	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/channel"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/devnet/statedb"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
)

// ProcessProposal simulates a signed proposal against the committed state
// and endorses the result. Proposals which fail validation and chaincode
// errors are answered with an unendorsed response carrying the error status.
func (n *Node) ProcessProposal(ctx context.Context, sp *pb.SignedProposal) (*pb.ProposalResponse, error) {
	start := time.Now()
	resp := n.processProposal(sp)
	n.metrics.ProposalsReceived.With("status", cb.Status(resp.GetResponse().GetStatus()).String()).Add(1)
	n.metrics.ProposalDuration.Observe(time.Since(start).Seconds())
	return resp, nil
}

func (n *Node) processProposal(sp *pb.SignedProposal) *pb.ProposalResponse {
	up, err := unpackProposal(sp)
	if err != nil {
		return errorResponse(cb.Status_BAD_REQUEST, err.Error())
	}

	if err := n.validateProposal(up); err != nil {
		logger.Warnf("Rejected proposal [%s]: %s", up.TxID(), err)
		return errorResponse(cb.Status_FORBIDDEN, err.Error())
	}

	fcn, args := up.Function()
	if up.ChaincodeName == channel.QSCC {
		return &pb.ProposalResponse{Version: 1, Response: n.queryLedger(fcn, args)}
	}

	var resp *pb.Response
	var rwset *kvrwset.KVRWSet
	err = n.db.View(func(r statedb.Reader) error {
		sim := newSimulator(r, fcn, args)
		resp = n.chaincode.Invoke(sim)
		rwset = sim.rwSet()
		return nil
	})
	if err != nil {
		logger.Errorf("Simulation of [%s] failed: %s", up.TxID(), err)
		return errorResponse(cb.Status_INTERNAL_SERVER_ERROR, err.Error())
	}

	if resp.GetStatus() >= int32(cb.Status_BAD_REQUEST) {
		logger.Debugf("Chaincode returned error for [%s]: %s", up.TxID(), resp.GetMessage())
		return &pb.ProposalResponse{Version: 1, Response: resp}
	}

	endorsed, err := n.endorse(up, resp, rwset)
	if err != nil {
		logger.Errorf("Endorsement of [%s] failed: %s", up.TxID(), err)
		return errorResponse(cb.Status_INTERNAL_SERVER_ERROR, err.Error())
	}
	return endorsed
}

func (n *Node) endorse(up *unpackedProposal, resp *pb.Response, rwset *kvrwset.KVRWSet) (*pb.ProposalResponse, error) {
	results, err := protoutil.GetBytesTxReadWriteSet(up.ChaincodeName, rwset)
	if err != nil {
		return nil, err
	}

	payload, err := protoutil.GetBytesProposalResponsePayload(up.ProposalHash, resp, results, &pb.ChaincodeID{Name: up.ChaincodeName})
	if err != nil {
		return nil, err
	}

	endorser, err := n.signer.Serialize()
	if err != nil {
		return nil, err
	}

	signature, err := n.signer.Sign(protoutil.EndorsementMessage(payload, endorser))
	if err != nil {
		return nil, err
	}

	return &pb.ProposalResponse{
		Version:     1,
		Response:    resp,
		Payload:     payload,
		Endorsement: &pb.Endorsement{Endorser: endorser, Signature: signature},
	}, nil
}

func errorResponse(st cb.Status, msg string) *pb.ProposalResponse {
	return &pb.ProposalResponse{Response: &pb.Response{Status: int32(st), Message: msg}}
}
