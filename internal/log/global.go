package log

import "sync/atomic"

var defaultLogger atomic.Pointer[Logger]

// SetDefaultLogger installs the process-wide logger. The root command calls
// it once after flags are parsed.
func SetDefaultLogger(logger *Logger) {
	defaultLogger.Store(logger)
}

// DefaultLogger returns the process-wide logger, lazily creating one with
// DefaultConfig when nothing was installed.
func DefaultLogger() *Logger {
	if logger := defaultLogger.Load(); logger != nil {
		return logger
	}
	defaultLogger.CompareAndSwap(nil, Default())
	return defaultLogger.Load()
}
