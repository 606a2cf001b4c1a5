// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu provides cacheable GPU textures and buffers backed by a
// WebGPU HAL device.
//
// An Allocator wraps a hal.Device. Its factories plug into a gpucache
// ResourceCache or Context, so textures and buffers are created on a cache
// miss and destroyed when the cache evicts them:
//
//	alloc := gpu.NewAllocator(device)
//	ctx := gpucache.NewContext(gpucache.WithBudget(256, 96<<20))
//	defer ctx.Close()
//
//	h, err := alloc.AcquireTexture(ctx, gpu.TextureDesc{
//	    Width:  512,
//	    Height: 512,
//	    Format: gputypes.TextureFormatRGBA8Unorm,
//	    Usage:  gpu.DefaultTextureUsage,
//	})
//	if err != nil {
//	    return err
//	}
//	defer h.Release()
//	tex := h.Resource().(*gpu.Texture)
//
// The device can also come from a gpucontext.DeviceProvider that exposes
// HAL types, see NewAllocatorFromProvider.
package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucache"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// Allocation errors.
var (
	// ErrNilDevice is returned when an allocator is created without a device.
	ErrNilDevice = errors.New("gpu: device is nil")

	// ErrNoHalDevice is returned when a device provider does not expose a
	// hal.Device.
	ErrNoHalDevice = errors.New("gpu: provider does not expose a HAL device")

	// ErrInvalidDescriptor is returned for descriptors with zero extents,
	// missing usage or an unsupported format.
	ErrInvalidDescriptor = errors.New("gpu: invalid descriptor")
)

// Device is the part of hal.Device the allocator needs.
// Any hal.Device satisfies it.
type Device interface {
	CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(texture hal.Texture)
	CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error)
	DestroyBuffer(buffer hal.Buffer)
}

// AllocStats describes the live allocations of an Allocator.
type AllocStats struct {
	// Textures and Buffers are the numbers of live allocations.
	Textures int
	Buffers  int

	// Bytes is the total size of live allocations.
	Bytes uint64

	// Allocations and Frees count device calls since creation.
	Allocations uint64
	Frees       uint64
}

// String returns a human-readable summary.
func (s AllocStats) String() string {
	return fmt.Sprintf("Alloc[%d textures, %d buffers, %d KB, %d allocs, %d frees]",
		s.Textures, s.Buffers, s.Bytes/1024, s.Allocations, s.Frees)
}

// Allocator creates textures and buffers on a HAL device and tracks the
// memory they use.
//
// Allocator is safe for concurrent use, so several cache contexts may
// share one device.
type Allocator struct {
	device Device

	mu    sync.Mutex
	stats AllocStats
}

// NewAllocator creates an allocator for device.
func NewAllocator(device Device) (*Allocator, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	return &Allocator{device: device}, nil
}

// NewAllocatorFromProvider creates an allocator for the device of an
// external provider (e.g. gogpu). The provider must also expose HAL types
// through HalDevice() any.
func NewAllocatorFromProvider(provider gpucontext.DeviceProvider) (*Allocator, error) {
	type halProvider interface {
		HalDevice() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHalDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHalDevice, hp.HalDevice())
	}
	return NewAllocator(device)
}

// Stats returns the current allocation statistics.
func (a *Allocator) Stats() AllocStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *Allocator) trackAlloc(size uint64, texture bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if texture {
		a.stats.Textures++
	} else {
		a.stats.Buffers++
	}
	a.stats.Bytes += size
	a.stats.Allocations++
}

func (a *Allocator) trackFree(size uint64, texture bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if texture {
		a.stats.Textures--
	} else {
		a.stats.Buffers--
	}
	a.stats.Bytes -= size
	a.stats.Frees++
}

// AcquireTexture looks up or creates a scratch texture matching desc in
// ctx. The returned handle's resource is a *Texture.
func (a *Allocator) AcquireTexture(ctx *gpucache.Context, desc TextureDesc, opts ...gpucache.RequestOption) (*gpucache.Handle, error) {
	size, err := desc.ByteSize()
	if err != nil {
		return nil, err
	}
	return ctx.Acquire(TextureKey(desc), size, a.TextureFactory(desc), opts...)
}

// AcquireBuffer looks up or creates a scratch buffer matching desc in ctx.
// The returned handle's resource is a *Buffer.
func (a *Allocator) AcquireBuffer(ctx *gpucache.Context, desc BufferDesc, opts ...gpucache.RequestOption) (*gpucache.Handle, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	return ctx.Acquire(BufferKey(desc), desc.alignedSize(), a.BufferFactory(desc), opts...)
}
