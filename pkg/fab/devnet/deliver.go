/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package devnet

import (
	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	ab "github.com/hyperledger/fabric-protos-go/orderer"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
)

// deliverService streams the filtered blocks of a node
type deliverService struct {
	n *Node
}

// Deliver is not offered; clients subscribe to filtered blocks
func (d *deliverService) Deliver(pb.Deliver_DeliverServer) error {
	return grpcstatus.Error(codes.Unimplemented, "only filtered blocks are delivered")
}

// DeliverWithPrivateData is not offered; clients subscribe to filtered blocks
func (d *deliverService) DeliverWithPrivateData(pb.Deliver_DeliverWithPrivateDataServer) error {
	return grpcstatus.Error(codes.Unimplemented, "only filtered blocks are delivered")
}

// DeliverFiltered streams the filtered blocks of the channel starting at the
// requested block and then every block as it is committed. The stream ends
// when the client goes away or the node is closed.
func (d *deliverService) DeliverFiltered(srv pb.Deliver_DeliverFilteredServer) error {
	env, err := srv.Recv()
	if err != nil {
		return err
	}

	n := d.n
	start, st := n.seekStart(env)
	if st != cb.Status_SUCCESS {
		return srv.Send(statusResponse(st))
	}
	logger.Debugf("Delivering blocks of [%s] from %d", n.config.ChannelID, start)

	next := start
	for {
		notify := n.blockNotifier()

		height, err := n.db.Height()
		if err != nil {
			return srv.Send(statusResponse(cb.Status_INTERNAL_SERVER_ERROR))
		}
		for ; next < height; next++ {
			block, err := n.db.GetBlock(next)
			if err != nil {
				logger.Errorf("Reading block %d failed: %s", next, err)
				return srv.Send(statusResponse(cb.Status_INTERNAL_SERVER_ERROR))
			}
			if err := srv.Send(&pb.DeliverResponse{Type: &pb.DeliverResponse_FilteredBlock{FilteredBlock: block}}); err != nil {
				return err
			}
		}

		select {
		case <-notify:
		case <-srv.Context().Done():
			return nil
		case <-n.closed:
			return nil
		}
	}
}

// seekStart returns the first block a seek envelope asks for
func (n *Node) seekStart(env *cb.Envelope) (uint64, cb.Status) {
	seekInfo, chdr, err := n.checkSeekEnvelope(env)
	if err != nil {
		logger.Warnf("Rejected deliver request: %s", err)
		return 0, cb.Status_BAD_REQUEST
	}
	if chdr.ChannelId != n.config.ChannelID {
		logger.Warnf("Deliver requested for unknown channel [%s]", chdr.ChannelId)
		return 0, cb.Status_NOT_FOUND
	}

	switch start := seekInfo.GetStart().GetType().(type) {
	case *ab.SeekPosition_Oldest:
		return 0, cb.Status_SUCCESS
	case *ab.SeekPosition_Newest:
		height, err := n.db.Height()
		if err != nil {
			return 0, cb.Status_INTERNAL_SERVER_ERROR
		}
		if height == 0 {
			return 0, cb.Status_SUCCESS
		}
		return height - 1, cb.Status_SUCCESS
	case *ab.SeekPosition_Specified:
		return start.Specified.Number, cb.Status_SUCCESS
	default:
		logger.Warnf("Deliver request has no start position")
		return 0, cb.Status_BAD_REQUEST
	}
}

// checkSeekEnvelope unpacks a seek envelope. Signed envelopes must carry a
// valid signature of their creator.
func (n *Node) checkSeekEnvelope(env *cb.Envelope) (*ab.SeekInfo, *cb.ChannelHeader, error) {
	if env == nil || len(env.Payload) == 0 {
		return nil, nil, errors.New("envelope has no payload")
	}
	payload, err := protoutil.UnmarshalPayload(env.Payload)
	if err != nil {
		return nil, nil, err
	}
	if payload.Header == nil {
		return nil, nil, errors.New("envelope has no header")
	}
	chdr, err := protoutil.UnmarshalChannelHeader(payload.Header.ChannelHeader)
	if err != nil {
		return nil, nil, err
	}
	if cb.HeaderType(chdr.Type) != cb.HeaderType_DELIVER_SEEK_INFO {
		return nil, nil, errors.Errorf("invalid header type %s", cb.HeaderType(chdr.Type))
	}
	if len(env.Signature) > 0 {
		shdr, err := protoutil.UnmarshalSignatureHeader(payload.Header.SignatureHeader)
		if err != nil {
			return nil, nil, err
		}
		if _, err := n.verifySignature(shdr.Creator, env.Payload, env.Signature); err != nil {
			return nil, nil, errors.WithMessage(err, "deliver request signature validation failed")
		}
	}
	seekInfo := &ab.SeekInfo{}
	if err := proto.Unmarshal(payload.Data, seekInfo); err != nil {
		return nil, nil, errors.Wrap(err, "error unmarshaling SeekInfo")
	}
	return seekInfo, chdr, nil
}

func statusResponse(st cb.Status) *pb.DeliverResponse {
	return &pb.DeliverResponse{Type: &pb.DeliverResponse_Status{Status: st}}
}
