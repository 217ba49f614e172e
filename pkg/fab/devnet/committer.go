/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package devnet

import (
	"bytes"

	cb "github.com/hyperledger/fabric-protos-go/common"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset/kvrwset"
	pb "github.com/hyperledger/fabric-protos-go/peer"

	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/devnet/statedb"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/txn"
)

// commit validates a batch, commits it as the next block and wakes up the
// deliver streams
func (n *Node) commit(batch []*pendingTx) error {
	if len(batch) == 0 {
		return nil
	}
	n.metrics.QueueDepth.Set(float64(len(n.queue)))

	txs := make([]*statedb.Transaction, len(batch))
	for i, p := range batch {
		txs[i] = n.validate(p)
	}

	block, err := n.db.CommitBlock(n.config.ChannelID, txs)
	if err != nil {
		logger.Errorf("Commit failed: %s", err)
		return err
	}

	n.metrics.BlocksCommitted.Add(1)
	n.metrics.BlockHeight.Set(float64(block.Number + 1))
	for _, ftx := range block.FilteredTransactions {
		n.metrics.TransactionsCommitted.With("validation_code", ftx.TxValidationCode.String()).Add(1)
	}
	logger.Infof("Committed block %d with %d transaction(s)", block.Number, len(block.FilteredTransactions))

	n.notifyBlock()
	return nil
}

// validate checks the endorsed transaction carried by an envelope. Read
// conflicts and duplicates are detected by the state database at commit.
func (n *Node) validate(p *pendingTx) *statedb.Transaction {
	code, rwset := n.validateTransaction(p)
	if code != pb.TxValidationCode_VALID {
		logger.Debugf("Transaction [%s] is invalid: %s", p.chdr.TxId, code)
	}
	return &statedb.Transaction{
		TxID:     p.chdr.TxId,
		Code:     code,
		RWSet:    rwset,
		Envelope: p.envelope,
	}
}

func (n *Node) validateTransaction(p *pendingTx) (pb.TxValidationCode, *kvrwset.KVRWSet) {
	tx, err := protoutil.UnmarshalTransaction(p.payload.Data)
	if err != nil {
		return pb.TxValidationCode_BAD_PAYLOAD, nil
	}
	if len(tx.Actions) != 1 {
		logger.Debugf("Transaction [%s] carries %d actions", p.chdr.TxId, len(tx.Actions))
		return pb.TxValidationCode_BAD_PAYLOAD, nil
	}
	action := tx.Actions[0]

	// the action must be the one proposed by the envelope's creator
	if !bytes.Equal(action.Header, p.payload.Header.SignatureHeader) {
		return pb.TxValidationCode_BAD_CREATOR_SIGNATURE, nil
	}
	if txn.ComputeTxnID(p.shdr.Nonce, p.shdr.Creator) != p.chdr.TxId {
		return pb.TxValidationCode_BAD_PROPOSAL_TXID, nil
	}

	ccPayload, ca, err := protoutil.GetPayloads(action)
	if err != nil {
		return pb.TxValidationCode_BAD_RESPONSE_PAYLOAD, nil
	}
	prp, err := protoutil.UnmarshalProposalResponsePayload(ccPayload.Action.ProposalResponsePayload)
	if err != nil {
		return pb.TxValidationCode_BAD_RESPONSE_PAYLOAD, nil
	}
	hash, err := protoutil.GetProposalHash(p.payload.Header, ccPayload.ChaincodeProposalPayload)
	if err != nil || !bytes.Equal(hash, prp.ProposalHash) {
		return pb.TxValidationCode_BAD_RESPONSE_PAYLOAD, nil
	}
	if ca.GetChaincodeId().GetName() != n.config.ChaincodeID {
		return pb.TxValidationCode_INVALID_ENDORSER_TRANSACTION, nil
	}
	if ca.GetResponse().GetStatus() != int32(cb.Status_SUCCESS) {
		return pb.TxValidationCode_INVALID_ENDORSER_TRANSACTION, nil
	}

	endorsements := ccPayload.Action.Endorsements
	if len(endorsements) == 0 {
		return pb.TxValidationCode_ENDORSEMENT_POLICY_FAILURE, nil
	}
	for _, e := range endorsements {
		msg := protoutil.EndorsementMessage(ccPayload.Action.ProposalResponsePayload, e.Endorser)
		if _, err := n.verifySignature(e.Endorser, msg, e.Signature); err != nil {
			logger.Debugf("Endorsement of [%s] is invalid: %s", p.chdr.TxId, err)
			return pb.TxValidationCode_ENDORSEMENT_POLICY_FAILURE, nil
		}
	}

	rwset, err := protoutil.GetKVRWSet(ca.Results, n.config.ChaincodeID)
	if err != nil {
		return pb.TxValidationCode_BAD_RESPONSE_PAYLOAD, nil
	}
	return pb.TxValidationCode_VALID, rwset
}
