/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	reqContext "context"
	"time"

	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/fab"
)

const (
	minTargets     = 1
	maxTargets     = 1
	defaultTimeout = 10 * time.Second
)

// ClientOption describes a functional parameter for the New constructor
type ClientOption func(*Client) error

// WithDefaultTargets sets the peers queried when a request names none
func WithDefaultTargets(targets ...fab.ProposalProcessor) ClientOption {
	return func(c *Client) error {
		for _, t := range targets {
			if t == nil {
				return errors.New("target is nil")
			}
		}
		c.targets = targets
		return nil
	}
}

// WithDefaultTimeout sets the response timeout of requests without WithTimeout
func WithDefaultTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout <= 0 {
			return errors.New("timeout must be positive")
		}
		c.timeout = timeout
		return nil
	}
}

// RequestOption func for each requestOptions argument
type RequestOption func(opts *requestOptions) error

type requestOptions struct {
	Targets []fab.ProposalProcessor
	// MaxTargets is the number of targets queried
	MaxTargets int
	// MinTargets is the number of targets that have to answer and agree
	MinTargets    int
	Timeout       time.Duration
	ParentContext reqContext.Context
}

// WithTargets overrides the client's default targets
func WithTargets(targets ...fab.ProposalProcessor) RequestOption {
	return func(opts *requestOptions) error {
		for _, t := range targets {
			if t == nil {
				return errors.New("target is nil")
			}
		}
		opts.Targets = targets
		return nil
	}
}

// WithMaxTargets sets the number of targets queried
func WithMaxTargets(maxTargets int) RequestOption {
	return func(opts *requestOptions) error {
		opts.MaxTargets = maxTargets
		return nil
	}
}

// WithMinTargets sets the number of targets that have to agree
func WithMinTargets(minTargets int) RequestOption {
	return func(opts *requestOptions) error {
		opts.MinTargets = minTargets
		return nil
	}
}

// WithTimeout sets the response timeout of the request
func WithTimeout(timeout time.Duration) RequestOption {
	return func(opts *requestOptions) error {
		opts.Timeout = timeout
		return nil
	}
}

// WithParentContext cancels the request together with parentContext
func WithParentContext(parentContext reqContext.Context) RequestOption {
	return func(opts *requestOptions) error {
		opts.ParentContext = parentContext
		return nil
	}
}
