/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

// UserData is an enrolled user as the credential store keeps it. The private
// key is kept apart in a KeyStore.
type UserData struct {
	ID                    string
	MSPID                 string
	EnrollmentCertificate []byte
}

// UserStore persists enrolled users. Load returns ErrUserNotFound for an
// unknown user.
type UserStore interface {
	Store(*UserData) error
	Load(IdentityIdentifier) (*UserData, error)
}

// PrivKeyKey is a composite key for accessing a private key in the key store
type PrivKeyKey struct {
	ID    string
	MSPID string
}

// KeyStore is responsible for private key persistence. Keys are PEM encoded.
type KeyStore interface {
	StoreKey(PrivKeyKey, []byte) error
	LoadKey(PrivKeyKey) ([]byte, error)
}
