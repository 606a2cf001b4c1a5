// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"fmt"
	"time"
)

// Context is the rendering-context side of the cache: it owns one
// ResourceCache and the FlushCoordinator driving it.
//
// A Context is meant to be used from a single goroutine, like the GPU
// context it models. Independent contexts may run on different goroutines.
type Context struct {
	name   string
	cache  *ResourceCache
	flush  *FlushCoordinator
	submit func() error
}

// NewContext creates a context with an empty cache.
//
// Example:
//
//	ctx := gpucache.NewContext(gpucache.WithBudget(256, 96<<20))
//	defer ctx.Close()
//
//	h, err := ctx.Acquire(key, size, factory)
//	if err != nil {
//	    return err
//	}
//	draw(h.Resource())
//	h.Release()
//
//	ctx.Flush() // frame boundary: enforce the budget
func NewContext(opts ...Option) *Context {
	o := applyOptions(opts)
	cache := newResourceCache(o)
	ctx := &Context{
		name:   o.name,
		cache:  cache,
		flush:  NewFlushCoordinator(cache, o.observers...),
		submit: o.submit,
	}
	Logger().Info("gpucache: context created",
		"context", o.name, "maxCount", o.maxCount, "maxBytes", o.maxBytes)
	return ctx
}

// Name returns the context name.
func (ctx *Context) Name() string { return ctx.name }

// Cache returns the resource cache owned by the context.
func (ctx *Context) Cache() *ResourceCache { return ctx.cache }

// Coordinator returns the flush coordinator owned by the context.
func (ctx *Context) Coordinator() *FlushCoordinator { return ctx.flush }

// Acquire looks up or creates a resource for a draw and marks a flush as
// pending. See ResourceCache.FindOrCreate.
func (ctx *Context) Acquire(key Key, sizeHint uint64, factory Factory, opts ...RequestOption) (*Handle, error) {
	h, err := ctx.cache.FindOrCreate(key, sizeHint, factory, opts...)
	if err != nil {
		return nil, err
	}
	ctx.flush.NoteDraw()
	return h, nil
}

// SetResourceCacheLimits sets the cache budget. It takes effect at the next
// purge pass.
func (ctx *Context) SetResourceCacheLimits(maxCount int, maxBytes uint64) {
	ctx.cache.SetBudget(maxCount, maxBytes)
}

// ResourceCacheLimits returns the cache budget.
func (ctx *Context) ResourceCacheLimits() (maxCount int, maxBytes uint64) {
	return ctx.cache.Budget()
}

// ResourceCacheUsage returns the budgeted resource count and bytes.
func (ctx *Context) ResourceCacheUsage() (count int, bytes uint64) {
	return ctx.cache.Usage()
}

// PurgeUnlockedResources runs an explicit purge pass on the cache.
func (ctx *Context) PurgeUnlockedResources(mode PurgeMode) int {
	return ctx.cache.PurgeUnlockedResources(mode)
}

// PurgeNotUsedSince purges resources idle since before t.
func (ctx *Context) PurgeNotUsedSince(t time.Time) int {
	return ctx.cache.PurgeNotUsedSince(t)
}

// Flush marks a frame boundary and enforces the cache budget.
func (ctx *Context) Flush() FlushInfo {
	return ctx.flush.Flush()
}

// FlushAndSubmit flushes and then runs the submit function configured with
// WithSubmitFunc, if any.
func (ctx *Context) FlushAndSubmit() (FlushInfo, error) {
	info := ctx.flush.Flush()
	if ctx.submit == nil {
		return info, nil
	}
	if err := ctx.submit(); err != nil {
		return info, fmt.Errorf("gpucache: submit frame %d: %w", info.Frame, err)
	}
	return info, nil
}

// Close destroys every cached resource. Outstanding handles become inert.
func (ctx *Context) Close() {
	if ctx.cache.Closed() {
		return
	}
	stats := ctx.cache.Stats()
	ctx.cache.Close()
	Logger().Info("gpucache: context closed",
		"context", ctx.name, "resources", stats.ResourceCount, "peakBytes", stats.PeakBytes,
		"hits", stats.Hits, "misses", stats.Misses)
}
