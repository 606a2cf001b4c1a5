// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"errors"
	"testing"
)

func TestNewContext(t *testing.T) {
	ctx := NewContext(WithName("main"), WithBudget(8, 1024))
	defer ctx.Close()

	if ctx.Name() != "main" {
		t.Errorf("Name() = %q, want main", ctx.Name())
	}
	if ctx.Cache() == nil || ctx.Coordinator() == nil {
		t.Fatal("context without cache or coordinator")
	}
	maxCount, maxBytes := ctx.ResourceCacheLimits()
	if maxCount != 8 || maxBytes != 1024 {
		t.Errorf("ResourceCacheLimits() = (%d, %d), want (8, 1024)", maxCount, maxBytes)
	}
}

func TestContextAcquireMarksFlushPending(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()
	f := &fakeFactory{}

	if _, err := ctx.Acquire(Key{}, 1, f); err == nil {
		t.Fatal("expected error for invalid key")
	}
	if ctx.Coordinator().State() != Idle {
		t.Error("failed acquire should not mark a draw")
	}

	h, err := ctx.Acquire(uniqueKey(1), 16, f)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	h.Release()

	if ctx.Coordinator().State() != FlushPending {
		t.Errorf("State() = %v, want FlushPending", ctx.Coordinator().State())
	}
	count, bytes := ctx.ResourceCacheUsage()
	if count != 1 || bytes != 16 {
		t.Errorf("ResourceCacheUsage() = (%d, %d), want (1, 16)", count, bytes)
	}
}

// Shrinking the limits does not evict until the next flush.
func TestContextSetResourceCacheLimits(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()
	f := &fakeFactory{}

	for i := range 6 {
		h, err := ctx.Acquire(uniqueKey(uint32(i)), 10, f)
		if err != nil {
			t.Fatal(err)
		}
		h.Release()
	}
	ctx.Flush()

	ctx.SetResourceCacheLimits(3, 1<<20)
	if count, _ := ctx.ResourceCacheUsage(); count != 6 {
		t.Errorf("usage before flush = %d, want 6", count)
	}

	info := ctx.Flush()
	if count, _ := ctx.ResourceCacheUsage(); count != 3 || info.Purged != 3 {
		t.Errorf("usage after flush = %d (purged %d), want 3 (purged 3)", count, info.Purged)
	}
}

func TestContextPurge(t *testing.T) {
	clock := newFakeClock()
	ctx := NewContext(WithClock(clock.Now))
	defer ctx.Close()
	f := &fakeFactory{}

	addPurgeable(t, ctx.Cache(), uniqueKey(1), 10, f)
	addPurgeable(t, ctx.Cache(), uniqueKey(2), 10, f)

	if n := ctx.PurgeNotUsedSince(clock.Advance(1)); n != 2 {
		t.Errorf("PurgeNotUsedSince() = %d, want 2", n)
	}
	addPurgeable(t, ctx.Cache(), uniqueKey(3), 10, f)
	if n := ctx.PurgeUnlockedResources(PurgeAll); n != 1 {
		t.Errorf("PurgeUnlockedResources() = %d, want 1", n)
	}
}

func TestContextFlushAndSubmit(t *testing.T) {
	errQueue := errors.New("queue lost")

	tests := []struct {
		name    string
		submit  func() error
		wantErr error
	}{
		{"no submit function", nil, nil},
		{"submit ok", func() error { return nil }, nil},
		{"submit fails", func() error { return errQueue }, errQueue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(WithSubmitFunc(tt.submit))
			defer ctx.Close()

			info, err := ctx.FlushAndSubmit()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FlushAndSubmit() error = %v, want %v", err, tt.wantErr)
			}
			if info.Frame != 1 {
				t.Errorf("Frame = %d, want 1", info.Frame)
			}
		})
	}
}

func TestContextObserverOption(t *testing.T) {
	var frames []uint64
	ctx := NewContext(WithFlushObserver(FlushObserverFunc(func(info FlushInfo) {
		frames = append(frames, info.Frame)
	})))
	defer ctx.Close()

	ctx.Flush()
	ctx.Flush()
	if len(frames) != 2 || frames[1] != 2 {
		t.Errorf("frames = %v, want [1 2]", frames)
	}
}

func TestContextClose(t *testing.T) {
	ctx := NewContext()
	f := &fakeFactory{}
	h, err := ctx.Acquire(uniqueKey(1), 10, f)
	if err != nil {
		t.Fatal(err)
	}

	ctx.Close()
	ctx.Close()

	if f.created[0].destroyed != 1 {
		t.Errorf("destroyed %d times, want 1", f.created[0].destroyed)
	}
	h.Release()

	if _, err := ctx.Acquire(uniqueKey(2), 10, f); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Acquire() after Close error = %v, want %v", err, ErrCacheClosed)
	}
}
