/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

import (
	"context"
	"testing"
	"time"

	cb "github.com/hyperledger/fabric-protos-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/retry"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/mocks"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
)

func endorse(t *testing.T, peers ...*mocks.MockPeer) (*fab.TransactionProposal, []*fab.TransactionProposalResponse) {
	user := newTestUser(t)
	th, err := NewHeader(user, testChannel)
	require.NoError(t, err)
	tp, err := CreateChaincodeInvokeProposal(th, fab.ChaincodeInvokeRequest{ChaincodeID: "ledgerCC", Fcn: "transfer"})
	require.NoError(t, err)

	targets := make([]fab.ProposalProcessor, len(peers))
	for i, p := range peers {
		targets[i] = p
	}
	responses, err := SendProposal(context.Background(), user, tp, targets)
	require.NoError(t, err)
	return tp, responses
}

func TestNewTransaction(t *testing.T) {
	tp, responses := endorse(t, mocks.NewMockPeer("peer1", "peer1:7051"), mocks.NewMockPeer("peer2", "peer2:7051"))

	tx, err := New(fab.TransactionRequest{Proposal: tp, ProposalResponses: responses})
	require.NoError(t, err)
	require.Len(t, tx.Transaction.Actions, 1)

	hdr, err := protoutil.UnmarshalHeader(tp.Header)
	require.NoError(t, err)
	action := tx.Transaction.Actions[0]
	assert.Equal(t, hdr.SignatureHeader, action.Header, "the action carries the proposal's signature header")

	ccPayload, _, err := protoutil.GetPayloads(action)
	require.NoError(t, err)
	assert.Len(t, ccPayload.Action.Endorsements, 2)
	assert.Equal(t, responses[0].Payload, ccPayload.Action.ProposalResponsePayload)
	assert.NotEmpty(t, ccPayload.ChaincodeProposalPayload)

	_, err = New(fab.TransactionRequest{Proposal: tp})
	assert.Error(t, err)
}

func TestNewTransactionRejected(t *testing.T) {
	failing := mocks.NewMockPeer("peer2", "peer2:7051")
	failing.Status = 500
	failing.ResponseMessage = "INSUFFICIENT_FUNDS: account 1 has insufficient funds"
	tp, responses := endorse(t, mocks.NewMockPeer("peer1", "peer1:7051"), failing)

	_, err := New(fab.TransactionRequest{Proposal: tp, ProposalResponses: responses})
	require.Error(t, err)
	s, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, status.EndorserServerStatus, s.Group)
	assert.Equal(t, int32(500), s.Code)
}

func TestNewTransactionMismatch(t *testing.T) {
	other := mocks.NewMockPeer("peer2", "peer2:7051")
	other.Payload = []byte("different")
	tp, responses := endorse(t, mocks.NewMockPeer("peer1", "peer1:7051"), other)

	_, err := New(fab.TransactionRequest{Proposal: tp, ProposalResponses: responses})
	require.Error(t, err)
	assert.True(t, status.Is(err, status.EndorserClientStatus, status.EndorsementMismatch))
}

func TestSendTransaction(t *testing.T) {
	user := newTestUser(t)
	tp, responses := endorse(t, mocks.NewMockPeer("peer1", "peer1:7051"))
	tx, err := New(fab.TransactionRequest{Proposal: tp, ProposalResponses: responses})
	require.NoError(t, err)

	listener := make(chan *fab.SignedEnvelope, 1)
	orderer := mocks.NewMockOrderer("orderer:7050", listener)
	defer orderer.CloseQueue()

	resp, err := Send(context.Background(), user, tx, []fab.Orderer{orderer}, retry.NoRetryOpts)
	require.NoError(t, err)
	assert.Equal(t, "orderer:7050", resp.Orderer)

	envelope := <-listener
	assert.NoError(t, user.Verify(envelope.Payload, envelope.Signature))
	payload, err := protoutil.UnmarshalPayload(envelope.Payload)
	require.NoError(t, err)
	chdr, err := protoutil.UnmarshalChannelHeader(payload.Header.ChannelHeader)
	require.NoError(t, err)
	assert.Equal(t, string(tp.TxnID), chdr.TxId)
	assert.Equal(t, testChannel, chdr.ChannelId)
	assert.Equal(t, int32(cb.HeaderType_ENDORSER_TRANSACTION), chdr.Type)

	sent, err := protoutil.UnmarshalTransaction(payload.Data)
	require.NoError(t, err)
	assert.Len(t, sent.Actions, 1)
}

func TestSendTransactionRetry(t *testing.T) {
	user := newTestUser(t)
	tp, responses := endorse(t, mocks.NewMockPeer("peer1", "peer1:7051"))
	tx, err := New(fab.TransactionRequest{Proposal: tp, ProposalResponses: responses})
	require.NoError(t, err)

	orderer := mocks.NewMockOrderer("orderer:7050", nil)
	unavailable := status.New(status.OrdererServerStatus, int32(cb.Status_SERVICE_UNAVAILABLE), "not ready", nil)
	orderer.EnqueueSendBroadcastError(unavailable)

	opts := retry.DefaultOrdererOpts
	opts.InitialBackoff = time.Millisecond
	_, err = Send(context.Background(), user, tx, []fab.Orderer{orderer}, opts)
	assert.NoError(t, err, "transient orderer error is retried")

	orderer.EnqueueSendBroadcastError(status.New(status.OrdererServerStatus, int32(cb.Status_BAD_REQUEST), "bad", nil))
	_, err = Send(context.Background(), user, tx, []fab.Orderer{orderer}, opts)
	require.Error(t, err)
	assert.True(t, status.Is(err, status.OrdererServerStatus, status.Code(cb.Status_BAD_REQUEST)))
}

func TestSendTransactionErrors(t *testing.T) {
	user := newTestUser(t)
	orderer := mocks.NewMockOrderer("orderer:7050", nil)

	_, err := Send(context.Background(), user, nil, []fab.Orderer{orderer}, retry.NoRetryOpts)
	assert.Error(t, err)

	_, err = Send(context.Background(), user, &fab.Transaction{}, nil, retry.NoRetryOpts)
	assert.Error(t, err)
}
