/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"github.com/spf13/viper"
)

// viperBackend serves lookups from a viper instance loaded by one of the
// From* functions
type viperBackend struct {
	v    *viper.Viper
	opts options
}

// Lookup returns the value of key; unset keys report false
func (b *viperBackend) Lookup(key string) (interface{}, bool) {
	value := b.v.Get(key)
	return value, value != nil
}
