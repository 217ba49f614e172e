/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"fmt"
	"testing"
	"time"

	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	grpcCodes "google.golang.org/grpc/codes"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
)

func newTestHandler(opts Opts) (*impl, *[]time.Duration) {
	var slept []time.Duration
	h := New(opts).(*impl)
	h.sleep = func(d time.Duration) { slept = append(slept, d) }
	return h, &slept
}

func TestRetryRequired(t *testing.T) {
	h, slept := newTestHandler(Opts{
		Attempts:       3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     25 * time.Millisecond,
		BackoffFactor:  2,
		RetryableCodes: TestRetryableCodes,
	})

	transient := status.New(status.TestStatus, status.GenericTransient.ToInt32(), "transient", nil)
	assert.True(t, h.Required(transient))
	assert.True(t, h.Required(errors.Wrap(transient, "wrapped")))
	assert.True(t, h.Required(transient))
	assert.False(t, h.Required(transient), "attempts exhausted")

	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}, *slept)
}

func TestRetryNotRequired(t *testing.T) {
	h, slept := newTestHandler(DefaultOpts)

	assert.False(t, h.Required(nil))
	assert.False(t, h.Required(fmt.Errorf("not a status")))
	assert.False(t, h.Required(status.New(status.EndorserClientStatus, status.ProposalRejected.ToInt32(), "rejected", nil)))
	assert.False(t, h.Required(status.New(status.EventServerStatus, int32(pb.TxValidationCode_MVCC_READ_CONFLICT), "invalid", nil)))
	assert.False(t, h.Required(status.New(status.ClientStatus, status.Timeout.ToInt32(), "timeout", nil)))
	assert.Empty(t, *slept)
}

func TestDefaultRetryableCodes(t *testing.T) {
	h, _ := newTestHandler(DefaultOpts)
	assert.True(t, h.Required(status.New(status.GRPCTransportStatus, int32(grpcCodes.Unavailable), "down", nil)))

	o, _ := newTestHandler(DefaultOrdererOpts)
	assert.True(t, o.Required(status.New(status.OrdererServerStatus, int32(cb.Status_SERVICE_UNAVAILABLE), "busy", nil)))
	assert.False(t, o.Required(status.New(status.OrdererServerStatus, int32(cb.Status_BAD_REQUEST), "bad", nil)))
}

func TestWithAttempts(t *testing.T) {
	h := WithAttempts(0)
	assert.False(t, h.Required(status.New(status.GRPCTransportStatus, int32(grpcCodes.Unavailable), "down", nil)))
}
