/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"time"

	grpcCodes "google.golang.org/grpc/codes"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"

	cb "github.com/hyperledger/fabric-protos-go/common"
)

const (
	// DefaultAttempts number of retry attempts made by default
	DefaultAttempts = 3
	// DefaultInitialBackoff default initial backoff
	DefaultInitialBackoff = 250 * time.Millisecond
	// DefaultMaxBackoff default maximum backoff
	DefaultMaxBackoff = 5 * time.Second
	// DefaultBackoffFactor default backoff factor
	DefaultBackoffFactor = 2.0
)

// DefaultOpts default retry options
var DefaultOpts = Opts{
	Attempts:       DefaultAttempts,
	InitialBackoff: DefaultInitialBackoff,
	MaxBackoff:     DefaultMaxBackoff,
	BackoffFactor:  DefaultBackoffFactor,
	RetryableCodes: DefaultRetryableCodes,
}

// NoRetryOpts disables retries
var NoRetryOpts = Opts{}

// DefaultRetryableCodes are the transient conditions of the endorsement stage.
// They are raised before anything reaches the orderer, so the whole request
// may be sent again with a fresh transaction id.
var DefaultRetryableCodes = map[status.Group][]status.Code{
	status.EndorserClientStatus: {
		status.ConnectionFailed,
	},
	status.EndorserServerStatus: {
		status.Code(cb.Status_SERVICE_UNAVAILABLE),
	},
	status.GRPCTransportStatus: {
		status.Code(grpcCodes.Unavailable),
	},
}

// OrdererRetryableCodes are the conditions under which the same envelope is
// broadcast again. A duplicate that slips through is invalidated by the
// committer with DUPLICATE_TXID.
var OrdererRetryableCodes = map[status.Group][]status.Code{
	status.OrdererClientStatus: {
		status.ConnectionFailed,
	},
	status.OrdererServerStatus: {
		status.Code(cb.Status_SERVICE_UNAVAILABLE),
	},
	status.GRPCTransportStatus: {
		status.Code(grpcCodes.Unavailable),
	},
}

// DefaultOrdererOpts default retry options for broadcasting to the orderer
var DefaultOrdererOpts = Opts{
	Attempts:       DefaultAttempts,
	InitialBackoff: DefaultInitialBackoff,
	MaxBackoff:     time.Second,
	BackoffFactor:  DefaultBackoffFactor,
	RetryableCodes: OrdererRetryableCodes,
}

// TestRetryableCodes are used by tests to determine error situations that can be retried.
var TestRetryableCodes = map[status.Group][]status.Code{
	status.TestStatus: {
		status.GenericTransient,
	},
}
