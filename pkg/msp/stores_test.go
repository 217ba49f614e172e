/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
)

func TestFileUserStore(t *testing.T) {
	path := t.TempDir()
	store, err := NewFileUserStore(path)
	require.NoError(t, err)

	key := msp.IdentityIdentifier{MSPID: testMSPID, ID: "user1"}
	_, err = store.Load(key)
	assert.Equal(t, msp.ErrUserNotFound, err)

	require.NoError(t, store.Store(&msp.UserData{ID: "user1", MSPID: testMSPID, EnrollmentCertificate: []byte("cert")}))
	_, err = os.Stat(filepath.Join(path, "user1@Org1MSP.json"))
	require.NoError(t, err)

	data, err := store.Load(key)
	require.NoError(t, err)
	assert.Equal(t, &msp.UserData{ID: "user1", MSPID: testMSPID, EnrollmentCertificate: []byte("cert")}, data)

	require.NoError(t, store.Delete(key))
	_, err = store.Load(key)
	assert.Equal(t, msp.ErrUserNotFound, err)

	_, err = NewFileUserStore("")
	assert.Error(t, err)
}

func TestFileKeyStore(t *testing.T) {
	path := t.TempDir()
	store, err := NewFileKeyStore(path)
	require.NoError(t, err)

	key := msp.PrivKeyKey{ID: "user1", MSPID: testMSPID}
	_, err = store.LoadKey(key)
	assert.Equal(t, msp.ErrUserNotFound, err)

	require.NoError(t, store.StoreKey(key, []byte("key")))
	_, err = os.Stat(filepath.Join(path, "user1@Org1MSP-priv"))
	require.NoError(t, err)

	v, err := store.LoadKey(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), v)
}

func TestMemoryStores(t *testing.T) {
	users := NewMemoryUserStore()
	key := msp.IdentityIdentifier{MSPID: testMSPID, ID: "user1"}
	_, err := users.Load(key)
	assert.Equal(t, msp.ErrUserNotFound, err)
	require.NoError(t, users.Store(&msp.UserData{ID: "user1", MSPID: testMSPID, EnrollmentCertificate: []byte("cert")}))
	data, err := users.Load(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("cert"), data.EnrollmentCertificate)
	_, err = users.Load(msp.IdentityIdentifier{MSPID: "Org2MSP", ID: "user1"})
	assert.Equal(t, msp.ErrUserNotFound, err)

	keys := NewMemoryKeyStore()
	_, err = keys.LoadKey(msp.PrivKeyKey{ID: "user1", MSPID: testMSPID})
	assert.Equal(t, msp.ErrUserNotFound, err)
	require.NoError(t, keys.StoreKey(msp.PrivKeyKey{ID: "user1", MSPID: testMSPID}, []byte("key")))
	v, err := keys.LoadKey(msp.PrivKeyKey{ID: "user1", MSPID: testMSPID})
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), v)
}
