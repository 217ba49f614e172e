/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package peer

import (
	"context"
	"net"
	"testing"
	"time"

	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/mocks"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
)

// endorser answers with the response stored under the proposal bytes
type endorser struct {
	responses map[string]*pb.Response
}

func (e *endorser) ProcessProposal(_ context.Context, sp *pb.SignedProposal) (*pb.ProposalResponse, error) {
	resp := e.responses[string(sp.ProposalBytes)]
	payload, err := protoutil.GetBytesProposalResponsePayload(nil, resp, nil, &pb.ChaincodeID{Name: "ledgerCC"})
	if err != nil {
		return nil, err
	}
	return &pb.ProposalResponse{Response: resp, Payload: payload}, nil
}

func startEndorser(t *testing.T, e *endorser) string {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer()
	pb.RegisterEndorserServer(srv, e)
	go srv.Serve(lis) // nolint: errcheck
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func request(key string) fab.ProcessProposalRequest {
	return fab.ProcessProposalRequest{SignedProposal: &pb.SignedProposal{ProposalBytes: []byte(key), Signature: []byte("sig")}}
}

func TestProcessTransactionProposal(t *testing.T) {
	url := startEndorser(t, &endorser{responses: map[string]*pb.Response{
		"ok":          {Status: 200, Payload: []byte(`{"id":"1"}`)},
		"notfound":    {Status: 500, Message: "NOT_FOUND: 9 does not exist"},
		"unavailable": {Status: 503, Message: "node is starting"},
	}})

	p, err := New(mocks.NewMockEndpointConfig(), WithURL(url), WithMSPID("Org1MSP"))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, url, p.URL())
	assert.Equal(t, "Org1MSP", p.MSPID())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tpr, err := p.ProcessTransactionProposal(ctx, request("ok"))
	require.NoError(t, err)
	assert.Equal(t, int32(200), tpr.Status)
	assert.Equal(t, int32(200), tpr.ChaincodeStatus)
	assert.Equal(t, url, tpr.Endorser)
	assert.Equal(t, []byte(`{"id":"1"}`), tpr.GetResponse().GetPayload())

	_, err = p.ProcessTransactionProposal(ctx, request("notfound"))
	require.Error(t, err)
	assert.True(t, status.Is(err, status.ChaincodeStatus, status.NotFound))
	s, _ := status.FromError(err)
	assert.Equal(t, "9 does not exist", s.Message)

	_, err = p.ProcessTransactionProposal(ctx, request("unavailable"))
	require.Error(t, err)
	assert.True(t, status.Is(err, status.EndorserServerStatus, status.Code(cb.Status_SERVICE_UNAVAILABLE)))
}

func TestProcessTransactionProposalUnreachable(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := lis.Addr().String()
	require.NoError(t, lis.Close())

	p, err := New(mocks.NewMockEndpointConfig(), WithURL(url))
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tpr, err := p.ProcessTransactionProposal(ctx, request("ok"))
	require.Error(t, err)
	assert.Equal(t, url, tpr.Endorser)
	assert.True(t, status.Is(err, status.GRPCTransportStatus, status.Code(codes.Unavailable)))
}

func TestNewPeer(t *testing.T) {
	_, err := New(mocks.NewMockEndpointConfig())
	assert.Error(t, err, "URL is required")

	mockPeer := mocks.NewMockPeer("peer0", "localhost:7051")
	p, err := New(mocks.NewMockEndpointConfig(),
		FromPeerConfig(&fab.PeerConfig{Name: "peer0.org1.example.com", URL: "localhost:7051", MSPID: "Org1MSP"}),
		WithPeerProcessor(mockPeer))
	require.NoError(t, err)
	assert.Equal(t, "peer0.org1.example.com", p.Name())
	assert.Equal(t, "localhost:7051", p.String())

	tpr, err := p.ProcessTransactionProposal(context.Background(), request("x"))
	require.NoError(t, err)
	assert.Equal(t, int32(200), tpr.Status)
	assert.Equal(t, 1, mockPeer.Calls())

	processors := PeersToTxnProcessors([]fab.Peer{p})
	assert.Len(t, processors, 1)

	_, err = New(mocks.NewMockEndpointConfig(), FromPeerConfig(nil))
	assert.Error(t, err)
}
