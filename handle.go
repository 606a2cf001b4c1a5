// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

// Handle is one lock on a cached resource.
//
// The resource cannot be evicted while any handle to it is unreleased.
// Release exactly once, typically with defer right after acquisition:
//
//	h, err := cache.FindOrCreate(key, size, factory)
//	if err != nil {
//	    return err
//	}
//	defer h.Release()
//
// Releasing more than once is a no-op, so a scoped Release can coexist
// with an early explicit one. All methods accept a nil *Handle, which
// reports zero values.
type Handle struct {
	cache    *ResourceCache
	e        *entry
	released bool
}

func newHandle(c *ResourceCache, e *entry) *Handle {
	return &Handle{cache: c, e: e}
}

// Resource returns the locked resource, or nil once the handle has been
// released or the cache closed.
func (h *Handle) Resource() Resource {
	if h == nil || h.released || h.e.destroyed {
		return nil
	}
	return h.e.res
}

// ID returns the id of the resource within its cache.
func (h *Handle) ID() ResourceID {
	if h == nil {
		return 0
	}
	return h.e.id
}

// Key returns the key the resource is currently cached under. It is the
// zero Key when a newer resource has taken over the unique key.
func (h *Handle) Key() Key {
	if h == nil {
		return Key{}
	}
	return h.e.key
}

// Size returns the resource size in bytes.
func (h *Handle) Size() uint64 {
	if h == nil {
		return 0
	}
	return h.e.size
}

// Shared reports whether the resource is locked in shareable mode.
func (h *Handle) Shared() bool {
	if h == nil {
		return false
	}
	return h.e.shared
}

// Released reports whether Release has been called on this handle.
func (h *Handle) Released() bool {
	return h == nil || h.released
}

// Release drops this handle's lock. When the last lock goes away the
// resource becomes purgeable but stays cached for reuse.
func (h *Handle) Release() {
	if h == nil || h.released {
		return
	}
	h.released = true
	h.cache.release(h.e)
}
