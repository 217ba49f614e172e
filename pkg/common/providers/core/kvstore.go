/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package core

import "github.com/pkg/errors"

// ErrKeyValueNotFound is returned by KVStore.Load for a missing key
var ErrKeyValueNotFound = errors.New("value for key not found")

// KVStore backs the credential store. Keys are mapped to file paths by the
// implementation; values are the marshaled user records or PEM keys.
type KVStore interface {
	Store(key interface{}, value interface{}) error
	// Load returns ErrKeyValueNotFound when nothing is stored under key
	Load(key interface{}) (interface{}, error)
	Delete(key interface{}) error
}
