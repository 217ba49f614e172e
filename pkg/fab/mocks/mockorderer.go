/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"context"
	"sync/atomic"

	cb "github.com/hyperledger/fabric-protos-go/common"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

// MockOrderer is a fab.Orderer that accepts every envelope unless an error
// was enqueued. Accepted envelopes are not delivered to any event service.
type MockOrderer struct {
	url       string
	listener  chan<- *fab.SignedEnvelope
	pending   chan *fab.SignedEnvelope
	errs      chan error
	broadcast atomic.Int32
}

// NewMockOrderer returns a MockOrderer. When listener is set every
// broadcast envelope is forwarded to it; the forwarding goroutine stops and
// closes listener on CloseQueue.
func NewMockOrderer(url string, listener chan *fab.SignedEnvelope) *MockOrderer {
	o := &MockOrderer{
		url:      url,
		listener: listener,
		pending:  make(chan *fab.SignedEnvelope, 100),
		errs:     make(chan error, 100),
	}
	if listener != nil {
		go o.forward()
	}
	return o
}

// forward decouples senders from a slow listener
func (o *MockOrderer) forward() {
	for envelope := range o.pending {
		o.listener <- envelope
	}
	close(o.listener)
}

// URL returns the URL of the orderer
func (o *MockOrderer) URL() string {
	return o.url
}

// SendBroadcast fails with the next enqueued error if there is one
func (o *MockOrderer) SendBroadcast(_ context.Context, envelope *fab.SignedEnvelope) (*cb.Status, error) {
	o.broadcast.Add(1)
	if o.listener != nil {
		o.pending <- envelope
	}
	select {
	case err := <-o.errs:
		return nil, err
	default:
	}
	st := cb.Status_SUCCESS
	return &st, nil
}

// Broadcasts returns the number of SendBroadcast calls
func (o *MockOrderer) Broadcasts() int {
	return int(o.broadcast.Load())
}

// CloseQueue stops forwarding to the listener
func (o *MockOrderer) CloseQueue() {
	close(o.pending)
}

// EnqueueSendBroadcastError makes a following SendBroadcast fail with err
func (o *MockOrderer) EnqueueSendBroadcastError(err error) {
	o.errs <- err
}
