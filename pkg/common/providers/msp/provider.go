/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

// IdentityProvider issues and looks up signing identities
type IdentityProvider interface {
	// Enroll returns the signing identity of enrollmentID. An identity that
	// is already in the credential store is returned without contacting the CA.
	Enroll(enrollmentID string, secret string) (SigningIdentity, error)

	// Register registers a new identity with the CA on behalf of the
	// enrolled registrar and returns the enrollment secret.
	Register(request *RegistrationRequest, registrar string) (string, error)

	// GetSigningIdentity returns a previously enrolled identity or ErrUserNotFound
	GetSigningIdentity(id string) (SigningIdentity, error)
}

//IdentityConfig contains identity configurations
type IdentityConfig interface {
	Client() *ClientConfig
	CAConfig() *CAConfig
	CredentialStorePath() string
}

// ClientConfig provides the definition of the client configuration
type ClientConfig struct {
	MSPID           string
	CredentialStore CredentialStoreType
}

// CredentialStoreType defines pluggable KV store properties
type CredentialStoreType struct {
	Path string
}

// EnrollCredentials holds credentials used for enrollment
type EnrollCredentials struct {
	EnrollID     string
	EnrollSecret string
}

// CAConfig defines a CA configuration
type CAConfig struct {
	URL         string
	CAName      string
	Registrar   EnrollCredentials
	Affiliation string
}

// RegistrationRequest defines the attributes required to register a user with the CA
type RegistrationRequest struct {
	// Name is the unique name of the identity
	Name string
	// Type of identity being registered (e.g. "peer, app, user")
	Type string
	// MaxEnrollments is the number of times the secret can be reused to enroll.
	// if omitted, this defaults to max_enrollments configured on the server
	MaxEnrollments int
	// The identity's affiliation e.g. org1.department1
	Affiliation string
	// Secret is an optional password.  If not specified,
	// a random secret is generated.  In both cases, the secret
	// is returned from registration.
	Secret string
}
