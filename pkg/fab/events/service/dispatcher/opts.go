/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/


package dispatcher

import (
	"time"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/options"
)

const (
	defaultConsumerBufferSize = 100
	defaultConsumerTimeout    = 500 * time.Millisecond
)

type params struct {
	eventConsumerBufferSize uint
	eventConsumerTimeout    time.Duration
}

func defaultParams() *params {
	return &params{
		eventConsumerBufferSize: defaultConsumerBufferSize,
		eventConsumerTimeout:    defaultConsumerTimeout,
	}
}

type (
	consumerBufferSizeSetter interface{ SetEventConsumerBufferSize(uint) }
	consumerTimeoutSetter    interface{ SetEventConsumerTimeout(time.Duration) }
)

// WithEventConsumerBufferSize sets the capacity of the dispatcher's input
// channel
func WithEventConsumerBufferSize(value uint) options.Opt {
	return func(p options.Params) {
		if s, ok := p.(consumerBufferSizeSetter); ok {
			s.SetEventConsumerBufferSize(value)
		}
	}
}

// WithEventConsumerTimeout bounds how long the dispatcher waits on a full
// registration channel. A negative value drops the event at once, zero
// waits until it is taken.
func WithEventConsumerTimeout(value time.Duration) options.Opt {
	return func(p options.Params) {
		if s, ok := p.(consumerTimeoutSetter); ok {
			s.SetEventConsumerTimeout(value)
		}
	}
}

func (p *params) SetEventConsumerBufferSize(value uint)       { p.eventConsumerBufferSize = value }
func (p *params) SetEventConsumerTimeout(value time.Duration) { p.eventConsumerTimeout = value }
