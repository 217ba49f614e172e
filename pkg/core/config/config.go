/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/logging"
	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/core"
)

var logModules = [...]string{"ledger/common", "ledger/client", "ledger/core", "ledger/fab", "ledger/msp",
	"ledger/gateway", "ledger/rest", "ledger/devnet", "ledger/cc", "ledger/cmd"}

// EnvPrefix prefixes the environment variables that override config keys.
// client.commitTimeout is read from LEDGER_CLIENT_COMMITTIMEOUT.
const EnvPrefix = "LEDGER"

type options struct {
	envPrefix string
}

// Option configures how a provider loads its backend
type Option func(opts *options) error

// WithEnvPrefix replaces EnvPrefix
func WithEnvPrefix(prefix string) Option {
	return func(opts *options) error {
		if prefix == "" {
			return errors.New("env prefix must not be empty")
		}
		opts.envPrefix = prefix
		return nil
	}
}

// FromFile loads the named YAML or JSON file
func FromFile(name string, opts ...Option) core.ConfigProvider {
	return provider(opts, func(v *viper.Viper) error {
		if name == "" {
			return errors.New("filename is required")
		}
		v.SetConfigFile(name)
		return errors.Wrapf(v.MergeInConfig(), "loading config file failed: %s", name)
	})
}

// FromReader loads configuration of configType ("yaml" or "json") from in
func FromReader(in io.Reader, configType string, opts ...Option) core.ConfigProvider {
	return provider(opts, func(v *viper.Viper) error {
		if configType == "" {
			return errors.New("empty config type")
		}
		v.SetConfigType(configType)
		return errors.Wrap(v.MergeConfig(in), "reading config failed")
	})
}

// FromRaw loads configuration of configType from configBytes
func FromRaw(configBytes []byte, configType string, opts ...Option) core.ConfigProvider {
	return func() ([]core.ConfigBackend, error) {
		return FromReader(bytes.NewReader(configBytes), configType, opts...)()
	}
}

// FromEnv reads environment variables only. Keys without a variable keep
// their defaults.
func FromEnv(opts ...Option) core.ConfigProvider {
	return provider(opts, func(*viper.Viper) error { return nil })
}

func provider(opts []Option, load func(v *viper.Viper) error) core.ConfigProvider {
	return func() ([]core.ConfigBackend, error) {
		o := options{envPrefix: EnvPrefix}
		for _, option := range opts {
			if err := option(&o); err != nil {
				return nil, errors.WithMessage(err, "Error in options passed to create new config backend")
			}
		}

		v := viper.New()
		v.SetEnvPrefix(o.envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if err := load(v); err != nil {
			return nil, err
		}

		backend := &viperBackend{v: v, opts: o}
		if err := applyLogLevel(backend); err != nil {
			return nil, err
		}
		return []core.ConfigBackend{backend}, nil
	}
}

func applyLogLevel(backend core.ConfigBackend) error {
	level := "INFO"
	if value, ok := backend.Lookup("client.logging.level"); ok {
		level = cast.ToString(value)
	}
	return errors.WithMessage(SetLogLevel(level), "invalid client.logging.level")
}

// SetLogLevel sets the level of every ledger logging module
func SetLogLevel(level string) error {
	logLevel, err := logging.LogLevel(level)
	if err != nil {
		return err
	}
	for _, module := range logModules {
		logging.SetLevel(module, logLevel)
	}
	return nil
}
