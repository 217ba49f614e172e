/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package msp manages the enrolled identities of the ledger client.
package msp

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/msp/caclient"
)

var logger = logging.NewLogger("ledger/msp")

// CAClient is the certificate authority used to issue identities
type CAClient interface {
	Enroll(enrollmentID, enrollmentSecret string) (*caclient.EnrollmentResponse, error)
	Register(registrar msp.SigningIdentity, request *msp.RegistrationRequest) (string, error)
}

// IdentityManager implements msp.IdentityProvider on top of a certificate
// authority and a local credential store
type IdentityManager struct {
	mspID     string
	caClient  CAClient
	userStore msp.UserStore
	keyStore  msp.KeyStore
	// serializes enrollments so that concurrent enrollments of the same
	// user contact the CA only once
	enrollMtx sync.Mutex
}

// New creates an IdentityManager from configuration. Credentials are kept
// in files under the configured credential store path.
func New(config msp.IdentityConfig) (*IdentityManager, error) {
	caConfig := config.CAConfig()
	if caConfig == nil {
		return nil, errors.New("CA config is required")
	}
	caClient, err := caclient.New(caConfig.URL, caConfig.CAName)
	if err != nil {
		return nil, errors.WithMessage(err, "creating CA client failed")
	}
	userStore, err := NewFileUserStore(config.CredentialStorePath())
	if err != nil {
		return nil, err
	}
	keyStore, err := NewFileKeyStore(config.CredentialStorePath())
	if err != nil {
		return nil, err
	}
	return NewIdentityManager(config.Client().MSPID, caClient, userStore, keyStore)
}

// NewIdentityManager creates a new instance of IdentityManager
func NewIdentityManager(mspID string, caClient CAClient, userStore msp.UserStore, keyStore msp.KeyStore) (*IdentityManager, error) {
	if mspID == "" {
		return nil, errors.New("MSP ID is required")
	}
	if caClient == nil || userStore == nil || keyStore == nil {
		return nil, errors.New("CA client, user store and key store are required")
	}
	return &IdentityManager{
		mspID:     mspID,
		caClient:  caClient,
		userStore: userStore,
		keyStore:  keyStore,
	}, nil
}

// Enroll returns the signing identity of enrollmentID. If the identity is
// already in the credential store it is returned as is, otherwise it is
// enrolled with the CA and stored.
func (mgr *IdentityManager) Enroll(enrollmentID string, enrollmentSecret string) (msp.SigningIdentity, error) {
	if enrollmentID == "" {
		return nil, identityError("enrollment ID is required")
	}

	mgr.enrollMtx.Lock()
	defer mgr.enrollMtx.Unlock()

	user, err := mgr.GetUser(enrollmentID)
	if err == nil {
		logger.Debugf("%s is already enrolled", enrollmentID)
		return user, nil
	}
	if err != msp.ErrUserNotFound {
		return nil, identityError("loading %s from the credential store failed: %s", enrollmentID, err)
	}

	resp, err := mgr.caClient.Enroll(enrollmentID, enrollmentSecret)
	if err != nil {
		return nil, identityError("enroll %s failed: %s", enrollmentID, err)
	}

	user, err = NewUser(mgr.mspID, enrollmentID, resp.Cert, resp.Key)
	if err != nil {
		return nil, identityError("enrollment of %s returned an unusable credential: %s", enrollmentID, err)
	}

	// the key goes first: a stored certificate marks the user as enrolled
	keyID := msp.PrivKeyKey{ID: enrollmentID, MSPID: mgr.mspID}
	if err := mgr.keyStore.StoreKey(keyID, resp.Key); err != nil {
		return nil, identityError("storing key of %s failed: %s", enrollmentID, err)
	}
	userData := &msp.UserData{ID: enrollmentID, MSPID: mgr.mspID, EnrollmentCertificate: resp.Cert}
	if err := mgr.userStore.Store(userData); err != nil {
		return nil, identityError("storing certificate of %s failed: %s", enrollmentID, err)
	}

	logger.Infof("Successfully enrolled %s", enrollmentID)
	return user, nil
}

// Register registers a new identity with the CA on behalf of the enrolled
// identity registrar and returns the enrollment secret
func (mgr *IdentityManager) Register(request *msp.RegistrationRequest, registrar string) (string, error) {
	if request == nil || request.Name == "" {
		return "", identityError("registration request requires a name")
	}

	registrarUser, err := mgr.GetUser(registrar)
	if err != nil {
		if err == msp.ErrUserNotFound {
			return "", identityError("registrar %s is not enrolled", registrar)
		}
		return "", identityError("loading registrar %s failed: %s", registrar, err)
	}

	secret, err := mgr.caClient.Register(registrarUser, request)
	if err != nil {
		return "", identityError("register %s failed: %s", request.Name, err)
	}
	logger.Infof("Successfully registered %s", request.Name)
	return secret, nil
}

// GetSigningIdentity returns a previously enrolled identity or ErrUserNotFound
func (mgr *IdentityManager) GetSigningIdentity(id string) (msp.SigningIdentity, error) {
	user, err := mgr.GetUser(id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser loads a user and its private key from the credential store
func (mgr *IdentityManager) GetUser(id string) (*User, error) {
	userData, err := mgr.userStore.Load(msp.IdentityIdentifier{MSPID: mgr.mspID, ID: id})
	if err != nil {
		return nil, err
	}
	keyPEM, err := mgr.keyStore.LoadKey(msp.PrivKeyKey{ID: id, MSPID: mgr.mspID})
	if err != nil {
		if err == msp.ErrUserNotFound {
			return nil, errors.Errorf("private key of %s not found", id)
		}
		return nil, errors.WithMessage(err, "loading private key failed")
	}
	return NewUser(userData.MSPID, userData.ID, userData.EnrollmentCertificate, keyPEM)
}

func identityError(format string, args ...interface{}) error {
	return status.New(status.IdentityClientStatus, status.IdentityError.ToInt32(), fmt.Sprintf(format, args...), nil)
}
