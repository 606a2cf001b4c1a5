// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import "errors"

// Resource cache errors.
var (
	// ErrCacheClosed is returned when acquiring from a cache that has been closed.
	ErrCacheClosed = errors.New("gpucache: cache closed")

	// ErrInvalidKey is returned when a request carries the zero Key.
	ErrInvalidKey = errors.New("gpucache: invalid key")

	// ErrNilFactory is returned when a cache miss has no factory to create the resource.
	ErrNilFactory = errors.New("gpucache: nil factory")

	// ErrNilResource is returned when a factory reports success but returns no resource.
	ErrNilResource = errors.New("gpucache: factory returned nil resource")
)
