/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lazycache

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/util/concurrent/futurevalue"
)

var logger = logging.NewLogger("ledger/common")

// EntryInitializer creates the value of key
type EntryInitializer[V any] func(key string) (V, error)

type closable interface {
	Close()
}

// Cache creates an entry the first time its key is requested. Concurrent
// requests for the same key wait for the one initialization. An entry
// whose initializer fails is not kept.
type Cache[V any] struct {
	name        string
	m           sync.Map
	initializer EntryInitializer[V]
	closed      atomic.Bool
}

// New returns a cache that creates its entries with initializer. The name
// appears in log messages only.
func New[V any](name string, initializer EntryInitializer[V]) *Cache[V] {
	return &Cache[V]{name: name, initializer: initializer}
}

// Get returns the value of key, creating it if needed
func (c *Cache[V]) Get(key string) (V, error) {
	if f, ok := c.m.Load(key); ok {
		return f.(*futurevalue.Value[V]).Get()
	}

	newFuture := futurevalue.New(func() (V, error) {
		if c.closed.Load() {
			var zero V
			return zero, errors.Errorf("%s - cache is closed", c.name)
		}
		return c.initializer(key)
	})

	f, loaded := c.m.LoadOrStore(key, newFuture)
	if loaded {
		return f.(*futurevalue.Value[V]).Get()
	}

	value, err := newFuture.Initialize()
	if err != nil {
		logger.Debugf("%s - Failed to initialize key [%s]: %s. Deleting key.", c.name, key, err)
		c.m.Delete(key)
	}
	return value, err
}

// Close closes the values that have a Close method and empties the cache.
// Get fails after Close.
func (c *Cache[V]) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	logger.Debugf("%s - Closing cache", c.name)

	c.m.Range(func(key, f interface{}) bool {
		c.close(key.(string), f.(*futurevalue.Value[V]))
		c.m.Delete(key)
		return true
	})
}

func (c *Cache[V]) close(key string, f *futurevalue.Value[V]) {
	if !f.IsSet() {
		logger.Debugf("%s - Value of [%s] is not set", c.name, key)
		return
	}
	value, err := f.Get()
	if err != nil {
		return
	}
	if clos, ok := interface{}(value).(closable); ok {
		logger.Debugf("%s - Closing value of [%s]", c.name, key)
		clos.Close()
	}
}
