// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package logging provides context-scoped logging for benchmark code.
//
// Code that runs under a test should log through ContextLog and ContextLogf
// so that messages are attributed to the test that is currently running.
package logging

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

type loggerKey struct{}

// New returns a logger writing to stderr. A colored console encoder is used
// when stderr is a terminal; otherwise lines are emitted as JSON.
func New(verbose bool) (*zap.Logger, error) {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	var cfg zap.Config
	if term.IsTerminal(int(os.Stderr.Fd())) {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// WithLogger returns a context carrying l. Messages passed to ContextLog with
// the returned context are sent to l.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l.Sugar())
}

// WithFields returns a context whose logger annotates every message with the
// given key-value pairs.
func WithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	return context.WithValue(ctx, loggerKey{}, fromContext(ctx).With(keysAndValues...))
}

func fromContext(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
		return l
	}
	return zap.NewNop().Sugar()
}

// ContextLog formats its arguments using default formatting and logs them via
// the logger attached to ctx. Nothing is logged if ctx carries no logger.
func ContextLog(ctx context.Context, args ...interface{}) {
	fromContext(ctx).Info(fmt.Sprint(args...))
}

// ContextLogf is like ContextLog but formats its arguments using fmt.Sprintf.
func ContextLogf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Infof(format, args...)
}

// ContextDebugf logs a message at debug level.
func ContextDebugf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Debugf(format, args...)
}
