// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"time"

	"github.com/gogpu/gpucache/internal/lru"
)

// Resource is a cacheable GPU-side allocation such as a texture or a buffer.
//
// The cache only relies on the size and on being able to free the
// allocation; the concrete kind is known to the Factory that created it.
type Resource interface {
	// ByteSize returns the size of the underlying allocation in bytes.
	// It must not change over the lifetime of the resource.
	ByteSize() uint64

	// Destroy frees the underlying allocation. The cache calls it exactly once.
	Destroy()
}

// Factory materializes a new Resource on a cache miss.
//
// Allocation failures are returned as errors and propagated to the caller of
// FindOrCreate unchanged (wrapped); the cache never retries.
type Factory interface {
	Create(key Key, sizeHint uint64) (Resource, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(key Key, sizeHint uint64) (Resource, error)

// Create calls f(key, sizeHint).
func (f FactoryFunc) Create(key Key, sizeHint uint64) (Resource, error) {
	return f(key, sizeHint)
}

// ResourceID identifies a resident resource. IDs start at 1 and are never
// reused within one cache.
type ResourceID uint64

// ResourceInfo is a read-only snapshot of one resident resource.
type ResourceInfo struct {
	ID         ResourceID
	Key        Key
	Size       uint64
	Locks      int
	Shared     bool
	Budgeted   bool
	Purgeable  bool
	LastAccess time.Time
	Resource   Resource
}

// entry is the cache bookkeeping for one resident resource.
type entry struct {
	id   ResourceID
	res  Resource
	key  Key // zero once a unique key has been taken over by a newer resource
	size uint64

	locks    int
	shared   bool // locked in shareable mode; stays findable while locked
	budgeted bool
	findable bool // listed in the scratch map

	token      uint64
	lastAccess time.Time

	node      *lru.Node[*entry] // non-nil while in the purgeable queue
	destroyed bool
}

func (e *entry) purgeable() bool {
	return e.node != nil
}

func (e *entry) info() ResourceInfo {
	return ResourceInfo{
		ID:         e.id,
		Key:        e.key,
		Size:       e.size,
		Locks:      e.locks,
		Shared:     e.shared,
		Budgeted:   e.budgeted,
		Purgeable:  e.purgeable(),
		LastAccess: e.lastAccess,
		Resource:   e.res,
	}
}
