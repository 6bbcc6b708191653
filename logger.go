package kle

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package logger. It is a no-op logger by default; the
// codec only emits debug-level summaries, never errors (those are returned).
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs a logger for the package. Call it before the first
// decode/encode; the codec itself never mutates the logger afterwards.
func SetLogger(l *zap.Logger) {
	logger = l
}
