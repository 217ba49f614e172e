/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package modlog

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/sharad-develop/fabric-node-ledger/pkg/core/logging/api"
)

// moduleLevels maintains log levels based on module.
// The empty module name holds the default for modules without an entry.
type moduleLevels struct {
	mutex  sync.RWMutex
	levels map[string]api.Level
}

func (l *moduleLevels) get(module string) api.Level {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	level, exists := l.levels[module]
	if !exists {
		level, exists = l.levels[""]
		if !exists {
			level = api.INFO
		}
	}
	return level
}

func (l *moduleLevels) set(module string, level api.Level) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.levels == nil {
		l.levels = make(map[string]api.Level)
	}
	l.levels[module] = level
}

func (l *moduleLevels) isEnabledFor(module string, level api.Level) bool {
	return level <= l.get(module)
}

func toZerologLevel(level api.Level) zerolog.Level {
	switch level {
	case api.CRITICAL:
		return zerolog.FatalLevel
	case api.ERROR:
		return zerolog.ErrorLevel
	case api.WARNING:
		return zerolog.WarnLevel
	case api.DEBUG:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
