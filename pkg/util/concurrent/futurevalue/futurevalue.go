/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package futurevalue

import (
	"sync"
	"sync/atomic"
)

// Initializer creates the value
type Initializer[V any] func() (V, error)

type result[V any] struct {
	value V
	err   error
}

// Value is set once, by the single caller of Initialize. Get blocks until
// then. A failed initialization is final as well.
type Value[V any] struct {
	mtx         sync.RWMutex
	res         atomic.Pointer[result[V]]
	initializer Initializer[V]
}

// New returns a value that Initialize sets with initializer
func New[V any](initializer Initializer[V]) *Value[V] {
	f := &Value[V]{initializer: initializer}
	f.mtx.Lock()
	return f
}

// Initialize runs the initializer and releases the callers of Get.
// It must be called exactly once.
func (f *Value[V]) Initialize() (V, error) {
	value, err := f.initializer()
	f.res.Store(&result[V]{value: value, err: err})
	f.mtx.Unlock()
	return value, err
}

// Get waits for Initialize and returns its result
func (f *Value[V]) Get() (V, error) {
	if r := f.res.Load(); r != nil {
		return r.value, r.err
	}

	f.mtx.RLock()
	defer f.mtx.RUnlock()

	r := f.res.Load()
	return r.value, r.err
}

// IsSet returns true once Initialize has returned
func (f *Value[V]) IsSet() bool {
	return f.res.Load() != nil
}
