/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package channel

import (
	reqContext "context"
	"time"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/client/channel/invoke"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/retry"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

// opts allows the user to specify more advanced options
type requestOptions struct {
	Targets       []fab.ProposalProcessor // targets
	Retry         retry.Opts
	Timeouts      map[fab.TimeoutType]time.Duration
	ParentContext reqContext.Context //parent grpc context
}

// RequestOption func for each Opts argument
type RequestOption func(opts *requestOptions) error

// Request contains the parameters to query and execute an invocation transaction
type Request struct {
	ChaincodeID string
	Fcn         string
	Args        [][]byte
}

//Response contains response parameters for query and execute an invocation transaction
type Response struct {
	Payload          []byte
	TransactionID    fab.TransactionID
	TxValidationCode pb.TxValidationCode
	ChaincodeStatus  int32
	BlockNumber      uint64
	Outcome          invoke.Outcome
	Proposal         *fab.TransactionProposal
	Responses        []*fab.TransactionProposalResponse
}

//WithTimeout encapsulates key value pairs of timeout type, timeout duration to Options
//The fab.Execute timeout is the commit timeout of a transaction
func WithTimeout(timeoutType fab.TimeoutType, timeout time.Duration) RequestOption {
	return func(o *requestOptions) error {
		if timeout <= 0 {
			return errors.New("timeout must be positive")
		}
		if o.Timeouts == nil {
			o.Timeouts = make(map[fab.TimeoutType]time.Duration)
		}
		o.Timeouts[timeoutType] = timeout
		return nil
	}
}

//WithTargets encapsulates ProposalProcessors to Option
func WithTargets(targets ...fab.ProposalProcessor) RequestOption {
	return func(o *requestOptions) error {
		for _, t := range targets {
			if t == nil {
				return errors.New("target is nil")
			}
		}
		o.Targets = targets
		return nil
	}
}

// WithRetry option to configure retries
func WithRetry(retryOpt retry.Opts) RequestOption {
	return func(o *requestOptions) error {
		o.Retry = retryOpt
		return nil
	}
}

//WithParentContext encapsulates grpc parent context
func WithParentContext(parentContext reqContext.Context) RequestOption {
	return func(o *requestOptions) error {
		o.ParentContext = parentContext
		return nil
	}
}
