// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package log holds the process-wide logger. Diagnostics go to stderr
// through zap; command results are written to stdout by the caller.
package log

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/aikokb/pkg/types"
)

var logger = logr.Discard()

// New builds a logr.Logger backed by zap from cfg. An empty level means info.
func New(cfg types.LogConfig) (logr.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return logr.Logger{}, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
		}
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	zl, err := zc.Build()
	if err != nil {
		return logr.Logger{}, fmt.Errorf("building logger: %w", err)
	}
	return zapr.NewLogger(zl), nil
}

// Logger returns the global logger. It discards everything until SetLogger
// is called, so packages can log unconditionally in tests.
func Logger() logr.Logger {
	return logger
}

// SetLogger replaces the global logger.
func SetLogger(l logr.Logger) {
	logger = l
}

// Info logs a non-error message with the given key/value pairs as context.
func Info(msg string, keysAndValues ...any) {
	logger.Info(msg, keysAndValues...)
}

// Debug logs at verbosity 1, which zapr maps to zap's debug level.
func Debug(msg string, keysAndValues ...any) {
	logger.V(1).Info(msg, keysAndValues...)
}

// Error logs an error message with the given key/value pairs as context.
func Error(err error, msg string, keysAndValues ...any) {
	logger.Error(err, msg, keysAndValues...)
}
