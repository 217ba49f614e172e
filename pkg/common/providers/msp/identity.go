/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"github.com/pkg/errors"
)

// ErrUserNotFound is returned by user stores and the identity provider for
// a user that was never enrolled
var ErrUserNotFound = errors.New("user not found")

// Identity is an enrolled member of an MSP as seen by others
type Identity interface {
	Identifier() *IdentityIdentifier

	// Verify checks sig over msg against the identity's certificate
	Verify(msg []byte, sig []byte) error

	// Serialize returns the msp.SerializedIdentity protobuf carried in proposal
	// headers as the creator
	Serialize() ([]byte, error)

	// EnrollmentCertificate returns the PEM encoded certificate issued by the CA
	EnrollmentCertificate() []byte
}

// SigningIdentity is an Identity that holds its private key. Proposals and
// transaction envelopes are signed with it.
type SigningIdentity interface {
	Identity

	Sign(msg []byte) ([]byte, error)

	// PublicVersion drops the private key
	PublicVersion() Identity
}

// IdentityIdentifier names an identity within its MSP
type IdentityIdentifier struct {
	MSPID string
	ID    string
}
