/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package modlog is the default module logger. Every module has its own level
// (INFO unless configured) and output is rendered by zerolog.
package modlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sharad-develop/fabric-node-ledger/pkg/core/logging/api"
)

var levels = &moduleLevels{}
var useCustomLogger int32

// custom logger factory singleton
var loggerProviderInstance api.LoggerProvider
var loggerProviderOnce sync.Once

const moduleField = "module"

// Provider is the default logger implementation
type Provider struct {
	base zerolog.Logger
}

// LoggerProvider returns the default provider which writes human readable
// lines to stdout
func LoggerProvider() api.LoggerProvider {
	return NewProvider(os.Stdout, true)
}

// NewProvider returns a provider writing to w. If console is false the
// output is one JSON object per line.
func NewProvider(w io.Writer, console bool) *Provider {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return &Provider{base: zerolog.New(w).With().Timestamp().Logger()}
}

//GetLogger returns SDK logger implementation
func (p *Provider) GetLogger(module string) api.Logger {
	return &Log{zlog: p.base.With().Str(moduleField, module).Logger(), module: module}
}

//InitLogger sets custom logger which will be used over the zerolog output.
//It is required to call this function before making any loggings.
func InitLogger(l api.LoggerProvider) {
	loggerProviderOnce.Do(func() {
		loggerProviderInstance = l
		atomic.StoreInt32(&useCustomLogger, 1)
	})
}

//SetLevel - setting log level for given module
func SetLevel(module string, level api.Level) {
	levels.set(module, level)
}

//GetLevel - getting log level for given module
func GetLevel(module string) api.Level {
	return levels.get(module)
}

//IsEnabledFor - Check if given log level is enabled for given module
func IsEnabledFor(module string, level api.Level) bool {
	return levels.isEnabledFor(module, level)
}

//Log is a standard module logger
type Log struct {
	zlog         zerolog.Logger
	customLogger api.Logger
	module       string
	custom       bool
	once         sync.Once
}

// Fatal is CRITICAL log followed by a call to os.Exit(1).
func (l *Log) Fatal(args ...interface{}) {
	if l.loadCustomLogger() {
		l.customLogger.Fatal(args...)
		return
	}
	l.zlog.Fatal().Msg(fmt.Sprint(args...))
}

// Fatalf is CRITICAL log formatted followed by a call to os.Exit(1).
func (l *Log) Fatalf(format string, args ...interface{}) {
	if l.loadCustomLogger() {
		l.customLogger.Fatalf(format, args...)
		return
	}
	l.zlog.Fatal().Msgf(format, args...)
}

// Debug logs at DEBUG level. Arguments are handled in the manner of fmt.Print.
func (l *Log) Debug(args ...interface{}) {
	if !IsEnabledFor(l.module, api.DEBUG) {
		return
	}
	if l.loadCustomLogger() {
		l.customLogger.Debug(args...)
		return
	}
	l.write(api.DEBUG, fmt.Sprint(args...))
}

// Debugf logs at DEBUG level. Arguments are handled in the manner of fmt.Printf.
func (l *Log) Debugf(format string, args ...interface{}) {
	if !IsEnabledFor(l.module, api.DEBUG) {
		return
	}
	if l.loadCustomLogger() {
		l.customLogger.Debugf(format, args...)
		return
	}
	l.write(api.DEBUG, fmt.Sprintf(format, args...))
}

// Info logs at INFO level. Arguments are handled in the manner of fmt.Print.
func (l *Log) Info(args ...interface{}) {
	if !IsEnabledFor(l.module, api.INFO) {
		return
	}
	if l.loadCustomLogger() {
		l.customLogger.Info(args...)
		return
	}
	l.write(api.INFO, fmt.Sprint(args...))
}

// Infof logs at INFO level. Arguments are handled in the manner of fmt.Printf.
func (l *Log) Infof(format string, args ...interface{}) {
	if !IsEnabledFor(l.module, api.INFO) {
		return
	}
	if l.loadCustomLogger() {
		l.customLogger.Infof(format, args...)
		return
	}
	l.write(api.INFO, fmt.Sprintf(format, args...))
}

// Warn logs at WARNING level. Arguments are handled in the manner of fmt.Print.
func (l *Log) Warn(args ...interface{}) {
	if !IsEnabledFor(l.module, api.WARNING) {
		return
	}
	if l.loadCustomLogger() {
		l.customLogger.Warn(args...)
		return
	}
	l.write(api.WARNING, fmt.Sprint(args...))
}

// Warnf logs at WARNING level. Arguments are handled in the manner of fmt.Printf.
func (l *Log) Warnf(format string, args ...interface{}) {
	if !IsEnabledFor(l.module, api.WARNING) {
		return
	}
	if l.loadCustomLogger() {
		l.customLogger.Warnf(format, args...)
		return
	}
	l.write(api.WARNING, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level. Arguments are handled in the manner of fmt.Print.
func (l *Log) Error(args ...interface{}) {
	if !IsEnabledFor(l.module, api.ERROR) {
		return
	}
	if l.loadCustomLogger() {
		l.customLogger.Error(args...)
		return
	}
	l.write(api.ERROR, fmt.Sprint(args...))
}

// Errorf logs at ERROR level. Arguments are handled in the manner of fmt.Printf.
func (l *Log) Errorf(format string, args ...interface{}) {
	if !IsEnabledFor(l.module, api.ERROR) {
		return
	}
	if l.loadCustomLogger() {
		l.customLogger.Errorf(format, args...)
		return
	}
	l.write(api.ERROR, fmt.Sprintf(format, args...))
}

func (l *Log) write(level api.Level, msg string) {
	l.zlog.WithLevel(toZerologLevel(level)).Msg(msg)
}

func (l *Log) loadCustomLogger() bool {
	l.once.Do(func() {
		if atomic.LoadInt32(&useCustomLogger) > 0 {
			l.customLogger = loggerProviderInstance.GetLogger(l.module)
			l.custom = true
		}
	})
	return l.custom
}
