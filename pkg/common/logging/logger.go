/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/


// Package logging is the logging facade of the ledger packages. Each
// package holds a module logger from NewLogger; the logger binds to the
// provider on first use, so Initialize may replace the default zerolog
// backed provider before anything is logged.
package logging

import (
	"sync"

	"github.com/sharad-develop/fabric-node-ledger/pkg/core/logging/api"
	"github.com/sharad-develop/fabric-node-ledger/pkg/core/logging/modlog"
)

// Level is the severity of a message. A module logs messages at or above
// its level.
type Level int

// Levels, most severe first
const (
	CRITICAL Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

const facadeModule = "ledger/common"

var (
	providerOnce     sync.Once
	providerInstance api.LoggerProvider
)

// Logger logs on behalf of one module
type Logger struct {
	module string
	once   sync.Once
	bound  api.Logger
}

// NewLogger returns the logger of module
func NewLogger(module string) *Logger {
	return &Logger{module: module}
}

// Initialize installs provider. Only the first call, made before anything
// was logged, takes effect.
func Initialize(provider api.LoggerProvider) {
	providerOnce.Do(func() {
		providerInstance = provider
		provider.GetLogger(facadeModule).Debug("Logger provider initialized")
	})
}

func loggerProvider() api.LoggerProvider {
	providerOnce.Do(func() {
		providerInstance = modlog.LoggerProvider()
	})
	return providerInstance
}

// SetLevel sets the level of module
func SetLevel(module string, level Level) {
	modlog.SetLevel(module, api.Level(level))
}

// GetLevel returns the level of module
func GetLevel(module string) Level {
	return Level(modlog.GetLevel(module))
}

// IsEnabledFor reports whether module logs messages of level
func IsEnabledFor(module string, level Level) bool {
	return modlog.IsEnabledFor(module, api.Level(level))
}

// LogLevel parses a level name such as "INFO" or "debug"
func LogLevel(level string) (Level, error) {
	l, err := api.ParseLevel(level)
	return Level(l), err
}

func (l Level) String() string {
	return api.Level(l).String()
}

func (l *Logger) Debug(args ...interface{})                 { l.logger().Debug(args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.logger().Debugf(format, args...) }
func (l *Logger) Info(args ...interface{})                  { l.logger().Info(args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.logger().Infof(format, args...) }
func (l *Logger) Warn(args ...interface{})                  { l.logger().Warn(args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logger().Warnf(format, args...) }
func (l *Logger) Error(args ...interface{})                 { l.logger().Error(args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.logger().Errorf(format, args...) }

func (l *Logger) logger() api.Logger {
	l.once.Do(func() {
		l.bound = loggerProvider().GetLogger(l.module)
	})
	return l.bound
}
