/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"strings"

	"github.com/pkg/errors"
)

// Level is the severity of a log message. A module logs messages at or
// below its configured level.
type Level int

const (
	CRITICAL Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

var levelNames = [...]string{CRITICAL: "CRITICAL", ERROR: "ERROR", WARNING: "WARNING", INFO: "INFO", DEBUG: "DEBUG"}

func (l Level) String() string {
	if l < CRITICAL || l > DEBUG {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel parses a level name, ignoring case
func ParseLevel(name string) (Level, error) {
	for l := CRITICAL; l <= DEBUG; l++ {
		if strings.EqualFold(levelNames[l], name) {
			return l, nil
		}
	}
	return ERROR, errors.Errorf("logger: invalid log level [%s]", name)
}

// Logger is implemented by the backends a module logger writes to
type Logger interface {
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
}

// LoggerProvider creates the backend logger of a module
type LoggerProvider interface {
	GetLogger(module string) Logger
}
