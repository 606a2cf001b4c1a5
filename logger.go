// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler drops every record. Enabled reports false, so call sites skip
// building attributes when no logger is installed.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr holds the logger shared by every cache, context and allocator.
// Caches live on their owner's goroutine, but several contexts may run on
// different goroutines while SetLogger is called.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger installs the logger used for cache diagnostics. The package is
// silent until it is called; nil makes it silent again.
//
// Records from caches and contexts carry a "cache" attribute with their
// name. Levels:
//
//   - Debug: resource creation, purge passes, flushes, unique key takeover,
//     texture and buffer allocation in package gpu
//   - Info: context creation and close
//   - Warn: resources still locked when a cache is closed
//
// For example, to trace every eviction to stderr:
//
//	gpucache.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the installed logger. Package gpu logs through it too.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
