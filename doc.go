// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucache provides a budgeted cache for GPU resources.
//
// # Overview
//
// Drawing code asks the cache for a resource by Key. On a hit the resident
// resource is reused; on a miss a Factory creates a new one. Either way the
// caller receives a Handle that locks the resource until released. Unlocked
// resources stay resident so they can be reused, and are reclaimed least
// recently used first when the cache is over its budget.
//
// # Quick Start
//
//	ctx := gpucache.NewContext(gpucache.WithBudget(128, 64<<20))
//	defer ctx.Close()
//
//	key := gpucache.NewScratchKey(texDomain, width, height, format)
//	h, err := ctx.Acquire(key, size, factory)
//	if err != nil {
//	    return err
//	}
//	defer h.Release()
//
//	// ... draw with h.Resource() ...
//
//	ctx.Flush() // frame boundary
//
// # Keys
//
// Scratch keys describe structure (dimensions, format, usage); any resource
// with an equal scratch key is interchangeable. Unique keys describe one
// logical resource; at most one resident resource holds a unique key.
//
// # Budget
//
// The budget limits the number and total size of budgeted resources.
// Budget enforcement happens only in purge passes: at Flush, or by an
// explicit PurgeUnlockedResources / PurgeNotUsedSince call. Changing the
// budget does not purge by itself. Acquisition never fails for budget
// reasons; between flushes the cache may run over budget, and it may stay
// over budget after a pass if every remaining resource is locked.
//
// # Thread Safety
//
// ResourceCache, FlushCoordinator and Context are not safe for concurrent
// use. Each rendering context owns its cache and uses it from one
// goroutine; separate contexts are independent.
//
// # Sub-packages
//
//   - gpu: textures and buffers allocated through a WebGPU HAL device
//   - metrics: Prometheus instrumentation updated at every flush
package gpucache
