/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

// defaultBufferSize is the capacity of the channels handed to block and
// connection subscribers
const defaultBufferSize = 100

type params struct {
	eventConsumerBufferSize uint
}

func defaultParams() *params {
	return &params{eventConsumerBufferSize: defaultBufferSize}
}

// SetEventConsumerBufferSize is set by dispatcher.WithEventConsumerBufferSize
func (p *params) SetEventConsumerBufferSize(value uint) {
	p.eventConsumerBufferSize = value
}
