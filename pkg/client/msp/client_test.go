/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/errors/status"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/test/mockmsp"
	mspimpl "github.com/sharad-develop/fabric-node-ledger/pkg/msp"
)

func newUser(t *testing.T, id string) msp.SigningIdentity {
	certPEM, keyPEM, err := mockmsp.NewCertAndKey(id)
	require.NoError(t, err)
	user, err := mspimpl.NewUser("Org1MSP", id, certPEM, keyPEM)
	require.NoError(t, err)
	return user
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	_, err = New(mockmsp.NewMockIdentityProvider(mockCtrl), WithRegistrar(""))
	assert.Error(t, err)

	c, err := New(mockmsp.NewMockIdentityProvider(mockCtrl), WithRegistrar("registrar"))
	require.NoError(t, err)
	assert.Equal(t, "registrar", c.Registrar())
}

func TestEnrollAdminIsIdempotent(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	admin := newUser(t, "admin")
	provider := mockmsp.NewMockIdentityProvider(mockCtrl)
	// the provider answers repeated enrollments from its store
	provider.EXPECT().Enroll("admin", "adminpw").Return(admin, nil).Times(2)

	c, err := New(provider)
	require.NoError(t, err)

	first, err := c.EnrollAdmin("admin", "adminpw")
	require.NoError(t, err)
	second, err := c.EnrollAdmin("admin", "adminpw")
	require.NoError(t, err)
	assert.Equal(t, first.EnrollmentCertificate(), second.EnrollmentCertificate())

	_, err = c.EnrollAdmin("", "adminpw")
	assert.Error(t, err)
}

func TestEnrollAdminFailure(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	provider := mockmsp.NewMockIdentityProvider(mockCtrl)
	provider.EXPECT().Enroll("admin", "wrong").Return(nil, errors.New("authentication failure"))

	c, err := New(provider)
	require.NoError(t, err)

	_, err = c.EnrollAdmin("admin", "wrong")
	assert.Error(t, err)
}

func TestRegisterUser(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	user1 := newUser(t, "user1")
	provider := mockmsp.NewMockIdentityProvider(mockCtrl)
	gomock.InOrder(
		provider.EXPECT().GetSigningIdentity("user1").Return(nil, msp.ErrUserNotFound),
		provider.EXPECT().Register(&msp.RegistrationRequest{
			Name:        "user1",
			Type:        "client",
			Affiliation: "org1.department1",
		}, "admin").Return("s3cret", nil),
		provider.EXPECT().Enroll("user1", "s3cret").Return(user1, nil).Times(1),
	)

	c, err := New(provider)
	require.NoError(t, err)

	id, err := c.RegisterUser("user1")
	require.NoError(t, err)
	assert.Equal(t, "user1", id.Identifier().ID)
}

func TestRegisterUserAlreadyEnrolled(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	user1 := newUser(t, "user1")
	provider := mockmsp.NewMockIdentityProvider(mockCtrl)
	provider.EXPECT().GetSigningIdentity("user1").Return(user1, nil)

	c, err := New(provider)
	require.NoError(t, err)

	id, err := c.RegisterUser("user1")
	require.NoError(t, err)
	assert.Equal(t, user1, id)
}

func TestRegisterUserWithoutAdmin(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	notEnrolled := status.New(status.IdentityClientStatus, status.IdentityError.ToInt32(), "registrar admin is not enrolled", nil)
	provider := mockmsp.NewMockIdentityProvider(mockCtrl)
	provider.EXPECT().GetSigningIdentity("user1").Return(nil, msp.ErrUserNotFound)
	provider.EXPECT().Register(gomock.Any(), "admin").Return("", notEnrolled)

	c, err := New(provider, WithAffiliation("org2.department1"))
	require.NoError(t, err)

	_, err = c.RegisterUser("user1")
	require.Error(t, err)
	assert.True(t, status.Is(err, status.IdentityClientStatus, status.IdentityError))
}

func TestGetSigningIdentity(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	provider := mockmsp.NewMockIdentityProvider(mockCtrl)
	provider.EXPECT().GetSigningIdentity("ghost").Return(nil, msp.ErrUserNotFound)

	c, err := New(provider)
	require.NoError(t, err)

	_, err = c.GetSigningIdentity("ghost")
	require.Error(t, err)
	assert.Equal(t, msp.ErrUserNotFound, errors.Cause(err))
}
