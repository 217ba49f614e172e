/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"github.com/pkg/errors"
)

// client options collector
type clientOptions struct {
	registrar   string
	affiliation string
	userType    string
}

// ClientOption describes a functional parameter for the New constructor
type ClientOption func(*clientOptions) error

// WithRegistrar sets the enrollment ID of the identity that registers new users
func WithRegistrar(enrollmentID string) ClientOption {
	return func(o *clientOptions) error {
		if enrollmentID == "" {
			return errors.New("registrar enrollment ID is required")
		}
		o.registrar = enrollmentID
		return nil
	}
}

// WithAffiliation sets the affiliation new users are registered under
func WithAffiliation(affiliation string) ClientOption {
	return func(o *clientOptions) error {
		o.affiliation = affiliation
		return nil
	}
}

// WithUserType sets the type new users are registered with
func WithUserType(typ string) ClientOption {
	return func(o *clientOptions) error {
		o.userType = typ
		return nil
	}
}
