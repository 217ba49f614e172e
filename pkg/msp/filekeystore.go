/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/core"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/keyvaluestore"
)

// FileKeyStore stores the PEM encoded private key of each user next to the
// user's certificate. File naming is <user>@<msp>-priv
type FileKeyStore struct {
	store core.KVStore
}

func storeKeyFromPrivKeyKey(key msp.PrivKeyKey) string {
	return key.ID + "@" + key.MSPID + "-priv"
}

// NewFileKeyStore creates a new instance of FileKeyStore
func NewFileKeyStore(path string) (*FileKeyStore, error) {
	if path == "" {
		return nil, errors.New("path is empty")
	}
	store, err := keyvaluestore.New(&keyvaluestore.FileKeyValueStoreOptions{
		Path: path,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "key store creation failed")
	}
	return &FileKeyStore{store: store}, nil
}

// StoreKey stores a private key
func (s *FileKeyStore) StoreKey(key msp.PrivKeyKey, keyPEM []byte) error {
	return s.store.Store(storeKeyFromPrivKeyKey(key), keyPEM)
}

// LoadKey loads a private key. ErrUserNotFound is returned if there is none.
func (s *FileKeyStore) LoadKey(key msp.PrivKeyKey) ([]byte, error) {
	v, err := s.store.Load(storeKeyFromPrivKeyKey(key))
	if err != nil {
		if err == core.ErrKeyValueNotFound {
			return nil, msp.ErrUserNotFound
		}
		return nil, err
	}
	keyPEM, ok := v.([]byte)
	if !ok {
		return nil, errors.New("key is not of proper type")
	}
	return keyPEM, nil
}
