// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import "fmt"

// FlushState is the state of a FlushCoordinator.
type FlushState uint8

const (
	// Idle means no draw happened since the last flush.
	Idle FlushState = iota

	// FlushPending means at least one draw happened since the last flush.
	FlushPending
)

// String returns a human-readable name for the state.
func (s FlushState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case FlushPending:
		return "FlushPending"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// FlushInfo describes one completed flush.
type FlushInfo struct {
	// Frame is the 1-based number of the flush.
	Frame uint64
	// HadDraws reports whether the coordinator was FlushPending.
	HadDraws bool
	// Purged is the number of resources evicted by the flush.
	Purged int
	// Stats is the cache state right after the purge pass.
	Stats Stats
}

// FlushObserver is notified after every flush, on the owning goroutine.
type FlushObserver interface {
	ObserveFlush(FlushInfo)
}

// FlushObserverFunc adapts a function to the FlushObserver interface.
type FlushObserverFunc func(FlushInfo)

// ObserveFlush calls f(info).
func (f FlushObserverFunc) ObserveFlush(info FlushInfo) { f(info) }

// FlushCoordinator ties budget enforcement to frame boundaries.
//
// Draws move it to FlushPending; Flush runs a budget-only purge pass on the
// cache and moves it back to Idle. Flush is the only automatic trigger for
// budget enforcement: a cache that is never flushed may grow without bound.
type FlushCoordinator struct {
	cache     *ResourceCache
	state     FlushState
	frame     uint64
	observers []FlushObserver
}

// NewFlushCoordinator creates a coordinator for cache in the Idle state.
func NewFlushCoordinator(cache *ResourceCache, observers ...FlushObserver) *FlushCoordinator {
	return &FlushCoordinator{
		cache:     cache,
		observers: observers,
	}
}

// State returns the current state.
func (f *FlushCoordinator) State() FlushState {
	return f.state
}

// Frame returns the number of flushes performed so far.
func (f *FlushCoordinator) Frame() uint64 {
	return f.frame
}

// NoteDraw records that a draw happened since the last flush.
func (f *FlushCoordinator) NoteDraw() {
	f.state = FlushPending
}

// AddObserver registers obs for subsequent flushes.
func (f *FlushCoordinator) AddObserver(obs FlushObserver) {
	if obs != nil {
		f.observers = append(f.observers, obs)
	}
}

// Flush runs the frame-boundary purge pass and returns to Idle.
//
// The pass runs even when Idle so that a budget reduction made between
// frames takes effect at the next flush.
func (f *FlushCoordinator) Flush() FlushInfo {
	f.frame++
	info := FlushInfo{
		Frame:    f.frame,
		HadDraws: f.state == FlushPending,
		Purged:   f.cache.PurgeUnlockedResources(PurgeBudgetOnly),
		Stats:    f.cache.Stats(),
	}
	f.state = Idle

	Logger().Debug("gpucache: flush",
		"cache", f.cache.name, "frame", info.Frame, "draws", info.HadDraws,
		"purged", info.Purged, "count", info.Stats.BudgetedCount, "bytes", info.Stats.BudgetedBytes)

	for _, obs := range f.observers {
		obs.ObserveFlush(info)
	}
	return info
}
