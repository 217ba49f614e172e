/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/core"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
	"github.com/sharad-develop/fabric-node-ledger/pkg/fab/keyvaluestore"
)

// userRecord is the file layout of an enrolled user
type userRecord struct {
	Name        string `json:"name"`
	MSPID       string `json:"mspid"`
	Certificate string `json:"certificate"`
}

// FileUserStore keeps each enrolled user in <user>@<msp>.json under the
// credential store path. The private key is stored next to it by FileKeyStore.
type FileUserStore struct {
	store core.KVStore
}

func userFileName(key msp.IdentityIdentifier) string {
	return key.ID + "@" + key.MSPID + ".json"
}

// NewFileUserStore opens the user store in path
func NewFileUserStore(path string) (*FileUserStore, error) {
	if path == "" {
		return nil, errors.New("path is empty")
	}
	store, err := keyvaluestore.New(&keyvaluestore.FileKeyValueStoreOptions{
		Path: path,
		KeySerializer: func(key interface{}) (string, error) {
			id, ok := key.(msp.IdentityIdentifier)
			if !ok {
				return "", errors.New("converting key to IdentityIdentifier failed")
			}
			name, err := keyvaluestore.FileName(userFileName(id))
			if err != nil {
				return "", err
			}
			return filepath.Join(path, name), nil
		},
		Marshaller: func(value interface{}) ([]byte, error) {
			return json.Marshal(value)
		},
		Unmarshaller: func(value []byte) (interface{}, error) {
			record := &userRecord{}
			if err := json.Unmarshal(value, record); err != nil {
				return nil, errors.Wrap(err, "corrupt user record")
			}
			return record, nil
		},
	})
	if err != nil {
		return nil, errors.WithMessage(err, "user store creation failed")
	}
	return &FileUserStore{store: store}, nil
}

// Load returns msp.ErrUserNotFound for a user that was never stored
func (s *FileUserStore) Load(key msp.IdentityIdentifier) (*msp.UserData, error) {
	v, err := s.store.Load(key)
	if err != nil {
		if err == core.ErrKeyValueNotFound {
			return nil, msp.ErrUserNotFound
		}
		return nil, err
	}
	record, ok := v.(*userRecord)
	if !ok {
		return nil, errors.New("user is not of proper type")
	}
	return &msp.UserData{
		ID:                    record.Name,
		MSPID:                 record.MSPID,
		EnrollmentCertificate: []byte(record.Certificate),
	}, nil
}

// Store overwrites the record of user
func (s *FileUserStore) Store(user *msp.UserData) error {
	return s.store.Store(msp.IdentityIdentifier{MSPID: user.MSPID, ID: user.ID}, &userRecord{
		Name:        user.ID,
		MSPID:       user.MSPID,
		Certificate: string(user.EnrollmentCertificate),
	})
}

// Delete removes the record of the user
func (s *FileUserStore) Delete(key msp.IdentityIdentifier) error {
	return s.store.Delete(key)
}

// MemoryUserStore is a UserStore that forgets its users on restart
type MemoryUserStore struct {
	mtx   sync.RWMutex
	users map[msp.IdentityIdentifier]msp.UserData
}

// NewMemoryUserStore returns an empty MemoryUserStore
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[msp.IdentityIdentifier]msp.UserData)}
}

// Store overwrites the user
func (s *MemoryUserStore) Store(user *msp.UserData) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.users[msp.IdentityIdentifier{MSPID: user.MSPID, ID: user.ID}] = *user
	return nil
}

// Load returns msp.ErrUserNotFound for an unknown user
func (s *MemoryUserStore) Load(id msp.IdentityIdentifier) (*msp.UserData, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, msp.ErrUserNotFound
	}
	return &user, nil
}
