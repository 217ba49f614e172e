/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/


package comm

import (
	"crypto/x509"
	"time"

	"google.golang.org/grpc/keepalive"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/options"
)

const defaultConnectTimeout = 3 * time.Second

// params are the dial parameters of Dial. The options below are shared
// with the event service layers, which ignore the ones they don't know.
type params struct {
	hostOverride    string
	certificate     *x509.Certificate
	keepAliveParams keepalive.ClientParameters
	failFast        bool
	connectTimeout  time.Duration
}

func defaultParams() *params {
	return &params{failFast: true, connectTimeout: defaultConnectTimeout}
}

type (
	hostOverrideSetter    interface{ SetHostOverride(string) }
	certificateSetter     interface{ SetCertificate(*x509.Certificate) }
	keepAliveParamsSetter interface {
		SetKeepAliveParams(keepalive.ClientParameters)
	}
	failFastSetter       interface{ SetFailFast(bool) }
	connectTimeoutSetter interface{ SetConnectTimeout(time.Duration) }
)

// WithHostOverride sets the server name expected in the TLS certificate
func WithHostOverride(value string) options.Opt {
	return func(p options.Params) {
		if s, ok := p.(hostOverrideSetter); ok {
			s.SetHostOverride(value)
		}
	}
}

// WithCertificate switches the connection to TLS, trusting value as root
func WithCertificate(value *x509.Certificate) options.Opt {
	return func(p options.Params) {
		if s, ok := p.(certificateSetter); ok {
			s.SetCertificate(value)
		}
	}
}

// WithKeepAliveParams sets the gRPC keep-alive of the connection
func WithKeepAliveParams(value keepalive.ClientParameters) options.Opt {
	return func(p options.Params) {
		if s, ok := p.(keepAliveParamsSetter); ok {
			s.SetKeepAliveParams(value)
		}
	}
}

// WithFailFast makes calls on a connection that is not ready fail at once.
// With false they wait for it.
func WithFailFast(value bool) options.Opt {
	return func(p options.Params) {
		if s, ok := p.(failFastSetter); ok {
			s.SetFailFast(value)
		}
	}
}

// WithConnectTimeout bounds the time Dial waits for the connection
func WithConnectTimeout(value time.Duration) options.Opt {
	return func(p options.Params) {
		if s, ok := p.(connectTimeoutSetter); ok {
			s.SetConnectTimeout(value)
		}
	}
}

func (p *params) SetHostOverride(value string)                      { p.hostOverride = value }
func (p *params) SetCertificate(value *x509.Certificate)            { p.certificate = value }
func (p *params) SetKeepAliveParams(value keepalive.ClientParameters) { p.keepAliveParams = value }
func (p *params) SetFailFast(value bool)                            { p.failFast = value }

func (p *params) SetConnectTimeout(value time.Duration) {
	if value > 0 {
		p.connectTimeout = value
	}
}
