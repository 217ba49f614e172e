/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"

	"github.com/cloudflare/cfssl/helpers"
	"github.com/golang/protobuf/proto"
	pb_msp "github.com/hyperledger/fabric-protos-go/msp"
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
)

// identity is the public part of a user: the enrollment certificate and the
// key it certifies
type identity struct {
	id                    string
	mspID                 string
	enrollmentCertificate []byte
	publicKey             *ecdsa.PublicKey
}

// User is a representation of a ledger client identity that is able to sign
type User struct {
	identity
	privateKey *ecdsa.PrivateKey
}

// NewUser creates a User from a PEM encoded certificate and a PEM encoded
// private key. The key must belong to the certificate.
func NewUser(mspID, id string, certPEM, keyPEM []byte) (*User, error) {
	ident, err := newIdentity(mspID, certPEM)
	if err != nil {
		return nil, err
	}
	if id != "" {
		ident.id = id
	}

	signer, err := helpers.ParsePrivateKeyPEM(keyPEM)
	if err != nil {
		return nil, errors.Wrap(err, "parsing private key failed")
	}
	privateKey, ok := signer.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not an ECDSA key")
	}
	if !privateKey.PublicKey.Equal(ident.publicKey) {
		return nil, errors.Errorf("private key does not match the certificate of %s", ident.id)
	}

	return &User{identity: *ident, privateKey: privateKey}, nil
}

func newIdentity(mspID string, certPEM []byte) (*identity, error) {
	cert, err := helpers.ParseCertificatePEM(certPEM)
	if err != nil {
		return nil, errors.Wrap(err, "parsing enrollment certificate failed")
	}
	return identityFromCert(mspID, cert, certPEM)
}

func identityFromCert(mspID string, cert *x509.Certificate, certPEM []byte) (*identity, error) {
	publicKey, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate does not carry an ECDSA public key")
	}
	return &identity{
		id:                    cert.Subject.CommonName,
		mspID:                 mspID,
		enrollmentCertificate: certPEM,
		publicKey:             publicKey,
	}, nil
}

// Deserialize converts the serialized form of an identity back into an
// identity that can verify signatures
func Deserialize(raw []byte) (msp.Identity, error) {
	sID := &pb_msp.SerializedIdentity{}
	if err := proto.Unmarshal(raw, sID); err != nil {
		return nil, errors.Wrap(err, "unmarshal serialized identity failed")
	}
	if sID.Mspid == "" {
		return nil, errors.New("serialized identity has no MSP ID")
	}
	return newIdentity(sID.Mspid, sID.IdBytes)
}

// Identifier returns the identifier of this identity
func (i *identity) Identifier() *msp.IdentityIdentifier {
	return &msp.IdentityIdentifier{MSPID: i.mspID, ID: i.id}
}

// Verify checks an ECDSA signature over the SHA-256 digest of msg
func (i *identity) Verify(msg []byte, sig []byte) error {
	digest := sha256.Sum256(msg)
	if !ecdsa.VerifyASN1(i.publicKey, digest[:], sig) {
		return errors.Errorf("signature verification failed for %s", i.id)
	}
	return nil
}

// Serialize returns the serialized identity (MSP ID and certificate)
func (i *identity) Serialize() ([]byte, error) {
	serializedIdentity := &pb_msp.SerializedIdentity{
		Mspid:   i.mspID,
		IdBytes: i.enrollmentCertificate,
	}
	raw, err := proto.Marshal(serializedIdentity)
	if err != nil {
		return nil, errors.Wrap(err, "marshal serializedIdentity failed")
	}
	return raw, nil
}

// EnrollmentCertificate Returns the underlying ECert representing this user’s identity.
func (i *identity) EnrollmentCertificate() []byte {
	return i.enrollmentCertificate
}

// Sign signs the SHA-256 digest of msg
func (u *User) Sign(msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig, err := ecdsa.SignASN1(rand.Reader, u.privateKey, digest[:])
	if err != nil {
		return nil, errors.Wrap(err, "signing failed")
	}
	return sig, nil
}

// PublicVersion returns the public parts of this identity
func (u *User) PublicVersion() msp.Identity {
	return &u.identity
}

// PrivateKey returns the user's private key
func (u *User) PrivateKey() *ecdsa.PrivateKey {
	return u.privateKey
}
