// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucache"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyBufferAlignment is the size granularity of buffers used in copies.
const copyBufferAlignment uint64 = 4

var bufferDomain = gpucache.GenerateDomain()

// BufferDesc describes a GPU buffer.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

func (d BufferDesc) validate() error {
	if d.Size == 0 {
		return fmt.Errorf("%w: buffer %q has size 0", ErrInvalidDescriptor, d.Label)
	}
	if d.Usage == 0 {
		return fmt.Errorf("%w: buffer %q has no usage", ErrInvalidDescriptor, d.Label)
	}
	return nil
}

func (d BufferDesc) alignedSize() uint64 {
	return (d.Size + copyBufferAlignment - 1) &^ (copyBufferAlignment - 1)
}

// BufferKey returns the scratch key shared by every buffer with the same
// aligned size and usage.
func BufferKey(desc BufferDesc) gpucache.Key {
	size := desc.alignedSize()
	return gpucache.NewScratchKey(bufferDomain,
		uint32(size), uint32(size>>32), uint32(desc.Usage))
}

// Buffer is a cacheable HAL buffer.
type Buffer struct {
	alloc     *Allocator
	raw       hal.Buffer
	desc      BufferDesc
	destroyed bool
}

// Raw returns the underlying HAL buffer, or nil once destroyed.
func (b *Buffer) Raw() hal.Buffer {
	if b.destroyed {
		return nil
	}
	return b.raw
}

// Desc returns the descriptor with the aligned size.
func (b *Buffer) Desc() BufferDesc { return b.desc }

// ByteSize implements gpucache.Resource.
func (b *Buffer) ByteSize() uint64 { return b.desc.Size }

// Destroy implements gpucache.Resource.
func (b *Buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.alloc.device.DestroyBuffer(b.raw)
	b.alloc.trackFree(b.desc.Size, false)
}

// CreateBuffer allocates a buffer on the device. The size is rounded up to
// a multiple of 4 bytes.
func (a *Allocator) CreateBuffer(desc BufferDesc) (*Buffer, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	desc.Size = desc.alignedSize()

	raw, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create buffer %q: %w", desc.Label, err)
	}

	a.trackAlloc(desc.Size, false)
	gpucache.Logger().Debug("gpu: buffer created", "label", desc.Label, "size", desc.Size)
	return &Buffer{alloc: a, raw: raw, desc: desc}, nil
}

// BufferFactory returns a factory creating buffers described by desc.
func (a *Allocator) BufferFactory(desc BufferDesc) gpucache.Factory {
	return gpucache.FactoryFunc(func(gpucache.Key, uint64) (gpucache.Resource, error) {
		return a.CreateBuffer(desc)
	})
}
