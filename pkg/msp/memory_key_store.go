/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package msp

import (
	"sync"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/msp"
)

// MemoryKeyStore is in-memory implementation of KeyStore
type MemoryKeyStore struct {
	mtx   sync.RWMutex
	store map[msp.PrivKeyKey][]byte
}

// NewMemoryKeyStore creates a new MemoryKeyStore instance
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{store: make(map[msp.PrivKeyKey][]byte)}
}

// StoreKey stores a key
func (s *MemoryKeyStore) StoreKey(key msp.PrivKeyKey, keyPEM []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.store[key] = keyPEM
	return nil
}

// LoadKey returns the key stored for the user
func (s *MemoryKeyStore) LoadKey(key msp.PrivKeyKey) ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	keyPEM, ok := s.store[key]
	if !ok {
		return nil, msp.ErrUserNotFound
	}
	return keyPEM, nil
}
