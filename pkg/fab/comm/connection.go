/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package comm provides the gRPC plumbing shared by the peer, orderer and
// deliver clients and by the devnet node.
package comm

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/options"
)

var logger = logging.NewLogger("ledger/fab")

const (
	grpcScheme  = "grpc://"
	grpcsScheme = "grpcs://"

	maxCallRecvMsgSize = 100 * 1024 * 1024
	maxCallSendMsgSize = 100 * 1024 * 1024
)

// ToAddress strips the protocol from the URL
func ToAddress(url string) string {
	if strings.HasPrefix(url, grpcScheme) {
		return strings.TrimPrefix(url, grpcScheme)
	}
	if strings.HasPrefix(url, grpcsScheme) {
		return strings.TrimPrefix(url, grpcsScheme)
	}
	return url
}

// IsTLSEnabled is a generic function that expects a URL and verifies if it has
// a prefix grpcs (or not).
func IsTLSEnabled(url string) bool {
	return strings.HasPrefix(strings.ToLower(url), grpcsScheme)
}

// Dial creates a client connection to url. The connection is established
// lazily; calls made while the server is unreachable fail with Unavailable
// (or wait, if fail-fast is disabled).
func Dial(ctx context.Context, url string, opts ...options.Opt) (*grpc.ClientConn, error) {
	if url == "" {
		return nil, errors.New("server URL not specified")
	}

	params := defaultParams()
	options.Apply(params, opts)

	dialOpts, err := newDialOpts(url, params)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, params.connectTimeout)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, ToAddress(url), dialOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s", url)
	}
	return conn, nil
}

func newDialOpts(url string, params *params) ([]grpc.DialOption, error) {
	var dialOpts []grpc.DialOption

	if params.keepAliveParams.Time > 0 || params.keepAliveParams.Timeout > 0 {
		dialOpts = append(dialOpts, grpc.WithKeepaliveParams(params.keepAliveParams))
	}

	dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(
		grpc.WaitForReady(!params.failFast),
		grpc.MaxCallRecvMsgSize(maxCallRecvMsgSize),
		grpc.MaxCallSendMsgSize(maxCallSendMsgSize),
	))

	if IsTLSEnabled(url) {
		tlsConfig, err := tlsConfig(params.certificate, params.hostOverride)
		if err != nil {
			return nil, err
		}
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
		logger.Debugf("Creating a secure connection to [%s] with TLS HostOverride [%s]", url, params.hostOverride)
	} else {
		logger.Debugf("Creating an insecure connection [%s]", url)
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	return dialOpts, nil
}

func tlsConfig(certificate *x509.Certificate, serverName string) (*tls.Config, error) {
	certPool, err := x509.SystemCertPool()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load system cert pool")
	}
	if certificate != nil {
		certPool.AddCert(certificate)
	}
	return &tls.Config{RootCAs: certPool, ServerName: serverName, MinVersion: tls.VersionTLS12}, nil
}
