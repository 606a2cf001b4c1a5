// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import "time"

// Default budget, matching the limits GPU contexts start with.
const (
	// DefaultMaxCount is the default maximum number of budgeted resources.
	DefaultMaxCount = 2048

	// DefaultMaxBytes is the default maximum budgeted size (256 MB).
	DefaultMaxBytes = 256 * 1024 * 1024
)

// Option configures a ResourceCache or a Context during creation.
//
// Example:
//
//	ctx := gpucache.NewContext(
//	    gpucache.WithName("ui"),
//	    gpucache.WithBudget(512, 64<<20),
//	)
type Option func(*options)

// options holds optional configuration for caches and contexts.
type options struct {
	name      string
	maxCount  int
	maxBytes  uint64
	clock     func() time.Time
	observers []FlushObserver
	submit    func() error
}

// defaultOptions returns the default options.
func defaultOptions() options {
	return options{
		name:     "default",
		maxCount: DefaultMaxCount,
		maxBytes: DefaultMaxBytes,
		clock:    time.Now,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithName sets the name used in log records and metrics labels.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithBudget sets the initial budget. A negative count is treated as zero.
func WithBudget(maxCount int, maxBytes uint64) Option {
	return func(o *options) {
		o.maxCount = max(maxCount, 0)
		o.maxBytes = maxBytes
	}
}

// WithClock replaces time.Now as the source of access times.
// Tests use it to make PurgeNotUsedSince deterministic.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithFlushObserver registers an observer notified after every flush.
// Only meaningful for NewContext.
func WithFlushObserver(obs FlushObserver) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithSubmitFunc sets the function FlushAndSubmit calls after the flush,
// typically a queue submission on the owning device.
// Only meaningful for NewContext.
func WithSubmitFunc(submit func() error) Option {
	return func(o *options) {
		o.submit = submit
	}
}
