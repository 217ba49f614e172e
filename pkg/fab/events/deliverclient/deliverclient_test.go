/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package deliverclient

import (
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

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/test/mockmsp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/events/deliverclient/seek"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/mocks"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
	mspimpl "github.com/sharad-develop/fabric-node-ledger/pkg/msp"
)

const waitTimeout = 5 * time.Second

// seekRequest is a decoded DELIVER_SEEK_INFO envelope
type seekRequest struct {
	channelID string
	creator   []byte
	signature []byte
	payload   []byte
	seekInfo  *ab.SeekInfo
}

// deliverer records each seek request and streams the blocks it is fed.
// A nil block breaks the stream.
type deliverer struct {
	requests chan *seekRequest
	blocks   chan *pb.FilteredBlock
}

func newDeliverer() *deliverer {
	return &deliverer{
		requests: make(chan *seekRequest, 10),
		blocks:   make(chan *pb.FilteredBlock),
	}
}

func (d *deliverer) Deliver(pb.Deliver_DeliverServer) error {
	return grpcstatus.Error(codes.Unimplemented, "not served")
}

func (d *deliverer) DeliverWithPrivateData(pb.Deliver_DeliverWithPrivateDataServer) error {
	return grpcstatus.Error(codes.Unimplemented, "not served")
}

func (d *deliverer) DeliverFiltered(stream pb.Deliver_DeliverFilteredServer) error {
	env, err := stream.Recv()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	req, err := decodeSeekRequest(env)
	if err != nil {
		return err
	}
	d.requests <- req

	for {
		select {
		case block := <-d.blocks:
			if block == nil {
				return errors.New("stream reset")
			}
			if err := stream.Send(&pb.DeliverResponse{Type: &pb.DeliverResponse_FilteredBlock{FilteredBlock: block}}); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return stream.Context().Err()
		}
	}
}

func decodeSeekRequest(env *cb.Envelope) (*seekRequest, error) {
	payload, err := protoutil.UnmarshalPayload(env.Payload)
	if err != nil {
		return nil, err
	}
	chdr, err := protoutil.UnmarshalChannelHeader(payload.Header.ChannelHeader)
	if err != nil {
		return nil, err
	}
	if chdr.Type != int32(cb.HeaderType_DELIVER_SEEK_INFO) {
		return nil, errors.Errorf("unexpected header type %d", chdr.Type)
	}
	shdr, err := protoutil.UnmarshalSignatureHeader(payload.Header.SignatureHeader)
	if err != nil {
		return nil, err
	}
	seekInfo := &ab.SeekInfo{}
	if err := proto.Unmarshal(payload.Data, seekInfo); err != nil {
		return nil, err
	}
	return &seekRequest{
		channelID: chdr.ChannelId,
		creator:   shdr.Creator,
		signature: env.Signature,
		payload:   env.Payload,
		seekInfo:  seekInfo,
	}, nil
}

func startDeliverer(t *testing.T, d *deliverer) string {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer()
	pb.RegisterDeliverServer(srv, d)
	go srv.Serve(lis) // nolint: errcheck
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func block(num uint64, txID string, code pb.TxValidationCode) *pb.FilteredBlock {
	return &pb.FilteredBlock{
		ChannelId:            "mychannel",
		Number:               num,
		FilteredTransactions: []*pb.FilteredTransaction{{Txid: txID, TxValidationCode: code}},
	}
}

func nextRequest(t *testing.T, d *deliverer) *seekRequest {
	select {
	case req := <-d.requests:
		return req
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for deliver request")
		return nil
	}
}

func nextTxStatus(t *testing.T, eventch <-chan *fab.TxStatusEvent) *fab.TxStatusEvent {
	select {
	case event, ok := <-eventch:
		require.True(t, ok, "unexpected closed channel")
		return event
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for tx status event")
		return nil
	}
}

func TestTxStatusAndReconnect(t *testing.T) {
	d := newDeliverer()
	url := startDeliverer(t, d)

	client, err := New(mocks.NewMockEndpointConfig(), WithURL(url))
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, url, client.URL())

	req := nextRequest(t, d)
	assert.Equal(t, "mychannel", req.channelID)
	assert.NotNil(t, req.seekInfo.Start.GetNewest())
	assert.Equal(t, ab.SeekInfo_BLOCK_UNTIL_READY, req.seekInfo.Behavior)
	assert.Empty(t, req.signature, "seek requests are unsigned by default")

	reg1, eventch1, err := client.RegisterTxStatusEvent("tx1")
	require.NoError(t, err)
	defer client.Unregister(reg1)

	_, connch, err := client.RegisterConnectionEvent()
	require.NoError(t, err)

	d.blocks <- block(4, "tx1", pb.TxValidationCode_VALID)
	event := nextTxStatus(t, eventch1)
	assert.Equal(t, "tx1", event.TxID)
	assert.Equal(t, pb.TxValidationCode_VALID, event.TxValidationCode)
	assert.Equal(t, uint64(4), event.BlockNumber)
	assert.Equal(t, url, event.SourceURL)

	d.blocks <- nil

	disconnected := false
	deadline := time.After(waitTimeout)
	for !disconnected {
		select {
		case ce := <-connch:
			if !ce.Connected {
				disconnected = true
				assert.Error(t, ce.Err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for disconnect event")
		}
	}

	req = nextRequest(t, d)
	assert.Nil(t, req.seekInfo.Start.GetNewest())
	assert.Equal(t, uint64(5), req.seekInfo.Start.GetSpecified().GetNumber())

	reg2, eventch2, err := client.RegisterTxStatusEvent("tx2")
	require.NoError(t, err)
	defer client.Unregister(reg2)

	d.blocks <- block(5, "tx2", pb.TxValidationCode_MVCC_READ_CONFLICT)
	event = nextTxStatus(t, eventch2)
	assert.Equal(t, pb.TxValidationCode_MVCC_READ_CONFLICT, event.TxValidationCode)
	assert.Equal(t, uint64(5), event.BlockNumber)
}

func TestSeekFromBlock(t *testing.T) {
	d := newDeliverer()
	url := startDeliverer(t, d)

	client, err := New(mocks.NewMockEndpointConfig(), WithURL(url), WithSeekType(seek.FromBlock), WithBlockNum(7))
	require.NoError(t, err)
	defer client.Close()

	req := nextRequest(t, d)
	assert.Equal(t, uint64(7), req.seekInfo.Start.GetSpecified().GetNumber())
}

func TestSignedSeekRequest(t *testing.T) {
	d := newDeliverer()
	url := startDeliverer(t, d)

	certPEM, keyPEM, err := mockmsp.NewCertAndKey("user1")
	require.NoError(t, err)
	user, err := mspimpl.NewUser("Org1MSP", "user1", certPEM, keyPEM)
	require.NoError(t, err)

	client, err := New(mocks.NewMockEndpointConfig(), WithURL(url), WithSeekType(seek.Oldest), WithSigningIdentity(user))
	require.NoError(t, err)
	defer client.Close()

	req := nextRequest(t, d)
	assert.NotNil(t, req.seekInfo.Start.GetOldest())
	serialized, err := user.Serialize()
	require.NoError(t, err)
	assert.Equal(t, serialized, req.creator)
	assert.NoError(t, user.Verify(req.payload, req.signature))
}

func TestCloseClosesRegistrations(t *testing.T) {
	d := newDeliverer()
	url := startDeliverer(t, d)

	client, err := New(mocks.NewMockEndpointConfig(), WithURL(url))
	require.NoError(t, err)

	_, eventch, err := client.RegisterTxStatusEvent("tx1")
	require.NoError(t, err)

	client.Close()
	client.Close()

	select {
	case _, ok := <-eventch:
		assert.False(t, ok)
	case <-time.After(waitTimeout):
		t.Fatal("expected registration channel to be closed")
	}
}

func TestNewErrors(t *testing.T) {
	config := mocks.NewMockEndpointConfig()
	config.Channel = &fab.ChannelConfig{}
	_, err := New(config)
	assert.Error(t, err)

	config = mocks.NewMockEndpointConfig()
	config.EventService = nil
	_, err = New(config)
	assert.Error(t, err, "URL is required")
}
