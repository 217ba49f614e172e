/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package deliverclient

import (
	"time"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/options"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/events/deliverclient/seek"
)

type params struct {
	url                     string
	seekType                seek.Type
	fromBlock               uint64
	reconnectInitialBackoff time.Duration
	reconnectMaxBackoff     time.Duration
	signer                  msp.SigningIdentity
}

func defaultParams() *params {
	return &params{
		seekType:                seek.Newest,
		reconnectInitialBackoff: 500 * time.Millisecond,
		reconnectMaxBackoff:     30 * time.Second,
	}
}

// WithURL overrides the URL of the deliver service from the endpoint config.
func WithURL(value string) options.Opt {
	return func(p options.Params) {
		if setter, ok := p.(urlSetter); ok {
			setter.SetURL(value)
		}
	}
}

// WithSeekType specifies the point from which block events are to be received.
func WithSeekType(value seek.Type) options.Opt {
	return func(p options.Params) {
		if setter, ok := p.(seekTypeSetter); ok {
			setter.SetSeekType(value)
		}
	}
}

// WithBlockNum specifies the block number from which events are to be received.
// Note that this option is only valid if SeekType is set to FromBlock.
func WithBlockNum(value uint64) options.Opt {
	return func(p options.Params) {
		if setter, ok := p.(fromBlockSetter); ok {
			setter.SetFromBlock(value)
		}
	}
}

// WithReconnectBackoff bounds the wait between reconnection attempts. The wait
// starts at initial and doubles up to max.
func WithReconnectBackoff(initial, max time.Duration) options.Opt {
	return func(p options.Params) {
		if setter, ok := p.(reconnectBackoffSetter); ok {
			setter.SetReconnectBackoff(initial, max)
		}
	}
}

// WithSigningIdentity signs the seek requests sent to the deliver service.
// Requests are unsigned by default.
func WithSigningIdentity(value msp.SigningIdentity) options.Opt {
	return func(p options.Params) {
		if setter, ok := p.(signerSetter); ok {
			setter.SetSigningIdentity(value)
		}
	}
}

type urlSetter interface {
	SetURL(value string)
}

type seekTypeSetter interface {
	SetSeekType(value seek.Type)
}

type fromBlockSetter interface {
	SetFromBlock(value uint64)
}

type signerSetter interface {
	SetSigningIdentity(value msp.SigningIdentity)
}

type reconnectBackoffSetter interface {
	SetReconnectBackoff(initial, max time.Duration)
}

func (p *params) SetURL(value string) {
	logger.Debugf("URL: %s", value)
	p.url = value
}

func (p *params) SetFromBlock(value uint64) {
	logger.Debugf("FromBlock: %d", value)
	p.fromBlock = value
}

func (p *params) SetSeekType(value seek.Type) {
	logger.Debugf("SeekType: %s", value)
	if value != "" {
		p.seekType = value
	}
}

func (p *params) SetReconnectBackoff(initial, max time.Duration) {
	logger.Debugf("ReconnectBackoff: %s - %s", initial, max)
	if initial > 0 {
		p.reconnectInitialBackoff = initial
	}
	if max >= p.reconnectInitialBackoff {
		p.reconnectMaxBackoff = max
	}
}

func (p *params) SetSigningIdentity(value msp.SigningIdentity) {
	if value != nil {
		logger.Debugf("SigningIdentity: %s", value.Identifier().ID)
	}
	p.signer = value
}
