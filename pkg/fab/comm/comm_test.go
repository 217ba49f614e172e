/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package comm

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	ab "github.com/hyperledger/fabric-protos-go/orderer"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
)

type testServer struct{}

func (testServer) ProcessProposal(_ context.Context, sp *pb.SignedProposal) (*pb.ProposalResponse, error) {
	if len(sp.Signature) == 0 {
		return nil, grpcstatus.Error(codes.InvalidArgument, "missing signature")
	}
	return &pb.ProposalResponse{Response: &pb.Response{Status: 200, Payload: sp.ProposalBytes}}, nil
}

func (testServer) Broadcast(srv ab.AtomicBroadcast_BroadcastServer) error {
	for {
		env, err := srv.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := srv.Send(&ab.BroadcastResponse{Status: cb.Status_SUCCESS, Info: string(env.Payload)}); err != nil {
			return err
		}
	}
}

func (testServer) Deliver(pb.Deliver_DeliverServer) error {
	return grpcstatus.Error(codes.Unimplemented, "blocks are not served")
}

// broadcastServer exposes testServer's Broadcast as an AtomicBroadcastServer;
// its Deliver has a different signature from the peer Deliver service
type broadcastServer struct{ testServer }

func (broadcastServer) Deliver(ab.AtomicBroadcast_DeliverServer) error {
	return grpcstatus.Error(codes.Unimplemented, "blocks are not served")
}

func (testServer) DeliverWithPrivateData(pb.Deliver_DeliverWithPrivateDataServer) error {
	return grpcstatus.Error(codes.Unimplemented, "private data is not served")
}

// DeliverFiltered streams three blocks starting at the block named in the
// envelope payload
func (testServer) DeliverFiltered(srv pb.Deliver_DeliverFilteredServer) error {
	env, err := srv.Recv()
	if err != nil {
		return err
	}
	seekInfo := &ab.SeekInfo{}
	if err := proto.Unmarshal(env.Payload, seekInfo); err != nil {
		return err
	}
	start := seekInfo.GetStart().GetSpecified().GetNumber()
	for i := start; i < start+3; i++ {
		block := &pb.FilteredBlock{ChannelId: "mychannel", Number: i}
		if err := srv.Send(&pb.DeliverResponse{Type: &pb.DeliverResponse_FilteredBlock{FilteredBlock: block}}); err != nil {
			return err
		}
	}
	return nil
}

func startServer(t *testing.T) string {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	pb.RegisterEndorserServer(srv, testServer{})
	ab.RegisterAtomicBroadcastServer(srv, broadcastServer{})
	pb.RegisterDeliverServer(srv, testServer{})
	go srv.Serve(lis) // nolint: errcheck
	t.Cleanup(srv.Stop)

	return lis.Addr().String()
}

func TestServices(t *testing.T) {
	url := startServer(t)

	conn, err := Dial(context.Background(), "grpc://"+url, WithConnectTimeout(time.Second))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := pb.NewEndorserClient(conn).ProcessProposal(ctx, &pb.SignedProposal{ProposalBytes: []byte("p"), Signature: []byte("s")})
	require.NoError(t, err)
	assert.Equal(t, int32(200), resp.GetResponse().GetStatus())
	assert.Equal(t, []byte("p"), resp.GetResponse().GetPayload())

	_, err = pb.NewEndorserClient(conn).ProcessProposal(ctx, &pb.SignedProposal{ProposalBytes: []byte("p")})
	require.Error(t, err)
	s := StatusFromError(err, status.EndorserClientStatus, url)
	assert.Equal(t, status.GRPCTransportStatus, s.Group)
	assert.Equal(t, int32(codes.InvalidArgument), s.Code)

	bstream, err := ab.NewAtomicBroadcastClient(conn).Broadcast(ctx)
	require.NoError(t, err)
	require.NoError(t, bstream.Send(&cb.Envelope{Payload: []byte("env")}))
	bresp, err := bstream.Recv()
	require.NoError(t, err)
	assert.Equal(t, cb.Status_SUCCESS, bresp.Status)
	assert.Equal(t, "env", bresp.Info)
	require.NoError(t, bstream.CloseSend())

	seekInfo := &ab.SeekInfo{Start: &ab.SeekPosition{Type: &ab.SeekPosition_Specified{Specified: &ab.SeekSpecified{Number: 5}}}}
	seekBytes, err := proto.Marshal(seekInfo)
	require.NoError(t, err)
	dstream, err := pb.NewDeliverClient(conn).DeliverFiltered(ctx)
	require.NoError(t, err)
	require.NoError(t, dstream.Send(&cb.Envelope{Payload: seekBytes}))
	require.NoError(t, dstream.CloseSend())
	var numbers []uint64
	for {
		resp, err := dstream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		numbers = append(numbers, resp.GetFilteredBlock().GetNumber())
	}
	assert.Equal(t, []uint64{5, 6, 7}, numbers)
}

func TestUnavailable(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := lis.Addr().String()
	require.NoError(t, lis.Close())

	conn, err := Dial(context.Background(), url)
	require.NoError(t, err, "dial is lazy")
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = pb.NewEndorserClient(conn).ProcessProposal(ctx, &pb.SignedProposal{})
	require.Error(t, err)
	s := StatusFromError(err, status.OrdererClientStatus, url)
	assert.Equal(t, status.GRPCTransportStatus, s.Group)
	assert.Equal(t, int32(codes.Unavailable), s.Code)
}

func TestStatusFromError(t *testing.T) {
	assert.Nil(t, StatusFromError(nil, status.ClientStatus, "x"))

	s := StatusFromError(errors.New("boom"), status.OrdererClientStatus, "orderer:7050")
	assert.Equal(t, status.OrdererClientStatus, s.Group)
	assert.Equal(t, status.ConnectionFailed.ToInt32(), s.Code)

	orig := status.New(status.ChaincodeStatus, status.NotFound.ToInt32(), "missing", nil)
	assert.Equal(t, orig, StatusFromError(errors.WithMessage(orig, "wrapped"), status.ClientStatus, ""))
}

func TestURLHelpers(t *testing.T) {
	assert.Equal(t, "localhost:7051", ToAddress("grpc://localhost:7051"))
	assert.Equal(t, "localhost:7051", ToAddress("grpcs://localhost:7051"))
	assert.Equal(t, "localhost:7051", ToAddress("localhost:7051"))
	assert.True(t, IsTLSEnabled("grpcs://localhost:7051"))
	assert.False(t, IsTLSEnabled("localhost:7051"))

	_, err := Dial(context.Background(), "")
	assert.Error(t, err)
}
