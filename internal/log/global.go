package log

import (
	"sync/atomic"
)

var defaultLogger atomic.Pointer[Logger]

// SetDefaultLogger installs the process logger. The CLI sets it once per
// invocation after configuration is loaded.
func SetDefaultLogger(logger *Logger) {
	defaultLogger.Store(logger)
}

// DefaultLogger returns the process logger, or Default() when none was set.
func DefaultLogger() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := Default()
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	return defaultLogger.Load()
}
