/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package caclient

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"strings"

	"github.com/cloudflare/cfssl/helpers"
	"github.com/pkg/errors"
)

// SignFunc signs the SHA-256 digest of msg
type SignFunc func(msg []byte) ([]byte, error)

// CreateToken creates the authorization token of a request made by an
// enrolled identity: base64(cert) "." base64(signature), where the signature
// covers base64(body) "." base64(cert).
func CreateToken(certPEM []byte, sign SignFunc, body []byte) (string, error) {
	b64cert := base64.StdEncoding.EncodeToString(certPEM)
	payload := base64.StdEncoding.EncodeToString(body) + "." + b64cert
	sig, err := sign([]byte(payload))
	if err != nil {
		return "", errors.WithMessage(err, "signing token failed")
	}
	return b64cert + "." + base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyToken checks a token created by CreateToken against the request body
// and returns the certificate of the caller. The caller of VerifyToken is
// responsible for checking who issued the certificate.
func VerifyToken(token string, body []byte) (*x509.Certificate, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return nil, errors.New("invalid token format")
	}
	certPEM, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, errors.Wrap(err, "invalid certificate in token")
	}
	sig, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, errors.Wrap(err, "invalid signature in token")
	}
	cert, err := helpers.ParseCertificatePEM(certPEM)
	if err != nil {
		return nil, errors.Wrap(err, "invalid certificate in token")
	}
	publicKey, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("token certificate does not carry an ECDSA key")
	}

	payload := base64.StdEncoding.EncodeToString(body) + "." + parts[0]
	digest := sha256.Sum256([]byte(payload))
	if !ecdsa.VerifyASN1(publicKey, digest[:], sig) {
		return nil, errors.New("token signature verification failed")
	}
	return cert, nil
}
