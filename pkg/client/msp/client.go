/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package msp enables enrollment and registration of the users of the ledger.
//
// Basic Flow:
// 1) Prepare client options
// 2) Create instance of a client over an identity provider
// 3) Enroll the registrar with EnrollAdmin
// 4) Register and enroll users with RegisterUser
package msp

import (
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
)

var logger = logging.NewLogger("ledger/msp")

const (
	defaultRegistrar   = "admin"
	defaultAffiliation = "org1.department1"
	defaultUserType    = "client"
)

// Client enables access to the identity services of the ledger
type Client struct {
	provider    msp.IdentityProvider
	registrar   string
	affiliation string
	userType    string
}

// New creates a new Client instance
func New(provider msp.IdentityProvider, opts ...ClientOption) (*Client, error) {
	if provider == nil {
		return nil, errors.New("identity provider is required")
	}

	o := clientOptions{
		registrar:   defaultRegistrar,
		affiliation: defaultAffiliation,
		userType:    defaultUserType,
	}
	for _, param := range opts {
		if err := param(&o); err != nil {
			return nil, errors.WithMessage(err, "failed to create client")
		}
	}

	return &Client{
		provider:    provider,
		registrar:   o.registrar,
		affiliation: o.affiliation,
		userType:    o.userType,
	}, nil
}

// Registrar returns the enrollment ID used to register new users
func (c *Client) Registrar() string {
	return c.registrar
}

// EnrollAdmin enrolls the registrar with its secret. Enrolling an identity
// that is already in the credential store returns the stored identity.
func (c *Client) EnrollAdmin(username, password string) (msp.SigningIdentity, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}
	id, err := c.provider.Enroll(username, password)
	if err != nil {
		return nil, errors.WithMessage(err, "enroll admin failed")
	}
	return id, nil
}

// RegisterUser registers username under the configured affiliation on behalf
// of the registrar and enrolls it with the returned secret. A user that is
// already enrolled is returned as is.
func (c *Client) RegisterUser(username string) (msp.SigningIdentity, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}

	id, err := c.provider.GetSigningIdentity(username)
	if err == nil {
		logger.Infof("%s is already enrolled", username)
		return id, nil
	}
	if errors.Cause(err) != msp.ErrUserNotFound {
		return nil, errors.WithMessagef(err, "loading %s failed", username)
	}

	secret, err := c.provider.Register(&msp.RegistrationRequest{
		Name:        username,
		Type:        c.userType,
		Affiliation: c.affiliation,
	}, c.registrar)
	if err != nil {
		return nil, errors.WithMessagef(err, "register %s failed", username)
	}

	id, err = c.provider.Enroll(username, secret)
	if err != nil {
		return nil, errors.WithMessagef(err, "enroll %s failed", username)
	}
	return id, nil
}

// GetSigningIdentity returns the enrolled identity of username
func (c *Client) GetSigningIdentity(username string) (msp.SigningIdentity, error) {
	id, err := c.provider.GetSigningIdentity(username)
	if err != nil {
		if errors.Cause(err) == msp.ErrUserNotFound {
			return nil, errors.Wrapf(err, "%s is not enrolled", username)
		}
		return nil, err
	}
	return id, nil
}
