// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	o := applyOptions(nil)
	if o.name != "default" {
		t.Errorf("name = %q, want %q", o.name, "default")
	}
	if o.maxCount != DefaultMaxCount || o.maxBytes != DefaultMaxBytes {
		t.Errorf("budget = (%d, %d), want (%d, %d)", o.maxCount, o.maxBytes, DefaultMaxCount, DefaultMaxBytes)
	}
	if o.clock == nil {
		t.Error("clock is nil")
	}
	if o.submit != nil || len(o.observers) != 0 {
		t.Error("expected no submit function and no observers by default")
	}
}

func TestOptions(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	errSubmit := errors.New("submit")

	tests := []struct {
		name  string
		opts  []Option
		check func(t *testing.T, o options)
	}{
		{
			name: "WithName",
			opts: []Option{WithName("atlas")},
			check: func(t *testing.T, o options) {
				if o.name != "atlas" {
					t.Errorf("name = %q, want atlas", o.name)
				}
			},
		},
		{
			name: "WithName empty keeps default",
			opts: []Option{WithName("")},
			check: func(t *testing.T, o options) {
				if o.name != "default" {
					t.Errorf("name = %q, want default", o.name)
				}
			},
		},
		{
			name: "WithBudget",
			opts: []Option{WithBudget(16, 4096)},
			check: func(t *testing.T, o options) {
				if o.maxCount != 16 || o.maxBytes != 4096 {
					t.Errorf("budget = (%d, %d), want (16, 4096)", o.maxCount, o.maxBytes)
				}
			},
		},
		{
			name: "WithBudget negative count",
			opts: []Option{WithBudget(-1, 1)},
			check: func(t *testing.T, o options) {
				if o.maxCount != 0 {
					t.Errorf("maxCount = %d, want 0", o.maxCount)
				}
			},
		},
		{
			name: "WithClock",
			opts: []Option{WithClock(func() time.Time { return fixed })},
			check: func(t *testing.T, o options) {
				if !o.clock().Equal(fixed) {
					t.Errorf("clock() = %v, want %v", o.clock(), fixed)
				}
			},
		},
		{
			name: "WithClock nil keeps default",
			opts: []Option{WithClock(nil)},
			check: func(t *testing.T, o options) {
				if o.clock == nil {
					t.Error("clock is nil")
				}
			},
		},
		{
			name: "WithFlushObserver",
			opts: []Option{
				WithFlushObserver(FlushObserverFunc(func(FlushInfo) {})),
				WithFlushObserver(nil),
				WithFlushObserver(FlushObserverFunc(func(FlushInfo) {})),
			},
			check: func(t *testing.T, o options) {
				if len(o.observers) != 2 {
					t.Errorf("observers = %d, want 2", len(o.observers))
				}
			},
		},
		{
			name: "WithSubmitFunc",
			opts: []Option{WithSubmitFunc(func() error { return errSubmit })},
			check: func(t *testing.T, o options) {
				if o.submit == nil || !errors.Is(o.submit(), errSubmit) {
					t.Error("submit function not applied")
				}
			},
		},
		{
			name: "nil option ignored",
			opts: []Option{nil, WithName("x")},
			check: func(t *testing.T, o options) {
				if o.name != "x" {
					t.Errorf("name = %q, want x", o.name)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, applyOptions(tt.opts))
		})
	}
}

func TestNewResourceCacheWithOptions(t *testing.T) {
	c := NewResourceCache(WithName("glyphs"), WithBudget(3, 300))
	maxCount, maxBytes := c.Budget()
	if maxCount != 3 || maxBytes != 300 {
		t.Errorf("Budget() = (%d, %d), want (3, 300)", maxCount, maxBytes)
	}
	if c.name != "glyphs" {
		t.Errorf("name = %q, want glyphs", c.name)
	}
}
