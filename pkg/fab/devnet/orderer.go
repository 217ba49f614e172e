/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package devnet

import (
	"io"

	cb "github.com/hyperledger/fabric-protos-go/common"
	ab "github.com/hyperledger/fabric-protos-go/orderer"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/protoutil"
)

// pendingTx is an accepted envelope waiting to be cut into a block
type pendingTx struct {
	envelope []byte
	payload  *cb.Payload
	chdr     *cb.ChannelHeader
	shdr     *cb.SignatureHeader
}

// atomicBroadcast serves the ordering service of a node
type atomicBroadcast struct {
	n *Node
}

// Broadcast answers every envelope received on the stream until the client
// closes its send direction
func (a *atomicBroadcast) Broadcast(srv ab.AtomicBroadcast_BroadcastServer) error {
	for {
		env, err := srv.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			logger.Debugf("Broadcast stream ended: %s", err)
			return err
		}

		resp := a.n.broadcast(env)
		a.n.metrics.BroadcastsReceived.With("status", resp.Status.String()).Add(1)
		if err := srv.Send(resp); err != nil {
			return err
		}
	}
}

// Deliver is not offered by the orderer; blocks are streamed by the deliver service
func (a *atomicBroadcast) Deliver(ab.AtomicBroadcast_DeliverServer) error {
	return grpcstatus.Error(codes.Unimplemented, "blocks are delivered by the peer's deliver service")
}

// broadcast verifies an envelope and enqueues it for ordering. The envelope
// is accepted once it is queued; its validity is decided at commit.
func (n *Node) broadcast(env *cb.Envelope) *ab.BroadcastResponse {
	tx, err := n.checkEnvelope(env)
	if err != nil {
		logger.Warnf("Rejected envelope: %s", err)
		return &ab.BroadcastResponse{Status: cb.Status_BAD_REQUEST, Info: err.Error()}
	}

	select {
	case <-n.closed:
		return &ab.BroadcastResponse{Status: cb.Status_SERVICE_UNAVAILABLE, Info: "orderer is shutting down"}
	default:
	}

	select {
	case n.queue <- tx:
		n.metrics.QueueDepth.Set(float64(len(n.queue)))
		logger.Debugf("Enqueued transaction [%s]", tx.chdr.TxId)
		return &ab.BroadcastResponse{Status: cb.Status_SUCCESS}
	default:
		logger.Warnf("Ordering queue full, rejecting [%s]", tx.chdr.TxId)
		return &ab.BroadcastResponse{Status: cb.Status_SERVICE_UNAVAILABLE, Info: "ordering queue is full"}
	}
}

func (n *Node) checkEnvelope(env *cb.Envelope) (*pendingTx, error) {
	if env == nil || len(env.Payload) == 0 {
		return nil, errors.New("envelope has no payload")
	}

	payload, err := protoutil.UnmarshalPayload(env.Payload)
	if err != nil {
		return nil, err
	}
	if payload.Header == nil {
		return nil, errors.New("envelope has no header")
	}
	chdr, err := protoutil.UnmarshalChannelHeader(payload.Header.ChannelHeader)
	if err != nil {
		return nil, err
	}
	if cb.HeaderType(chdr.Type) != cb.HeaderType_ENDORSER_TRANSACTION {
		return nil, errors.Errorf("unsupported header type %s", cb.HeaderType(chdr.Type))
	}
	if chdr.ChannelId != n.config.ChannelID {
		return nil, errors.Errorf("channel [%s] not found", chdr.ChannelId)
	}
	if chdr.TxId == "" {
		return nil, errors.New("envelope has no transaction ID")
	}
	shdr, err := protoutil.UnmarshalSignatureHeader(payload.Header.SignatureHeader)
	if err != nil {
		return nil, err
	}
	if _, err := n.verifySignature(shdr.Creator, env.Payload, env.Signature); err != nil {
		return nil, errors.WithMessage(err, "envelope signature validation failed")
	}

	raw, err := protoutil.Marshal(env)
	if err != nil {
		return nil, err
	}
	return &pendingTx{envelope: raw, payload: payload, chdr: chdr, shdr: shdr}, nil
}
