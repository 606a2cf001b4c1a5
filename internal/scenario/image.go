// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenario

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpucache"
	"github.com/gogpu/gpucache/gpu"
)

// imageDomain holds the unique keys of checkerboard images.
var imageDomain = gpucache.GenerateDomain()

// Image is a square checkerboard image identified by ID.
type Image struct {
	ID       uint32
	Size     uint32 // edge length in pixels
	CellSize uint32 // checker cell edge length in pixels
}

// Key returns the unique key of the image.
func (img Image) Key() gpucache.Key {
	return gpucache.NewUniqueKey(imageDomain, img.ID, img.Size, img.CellSize)
}

// ImageSource materializes images as cache resources.
type ImageSource interface {
	// ImageBytes returns the size of the resource backing img.
	ImageBytes(img Image) uint64

	// ImageFactory returns the factory creating the resource for img.
	ImageFactory(img Image) gpucache.Factory
}

// MemorySource keeps checkerboard pixels in host memory.
type MemorySource struct{}

// Pixels is an RGBA8 checkerboard held in host memory.
type Pixels struct {
	Data []byte
}

// ByteSize implements gpucache.Resource.
func (p *Pixels) ByteSize() uint64 { return uint64(len(p.Data)) }

// Destroy implements gpucache.Resource.
func (p *Pixels) Destroy() { p.Data = nil }

// ImageBytes implements ImageSource.
func (MemorySource) ImageBytes(img Image) uint64 {
	return uint64(img.Size) * uint64(img.Size) * 4
}

// ImageFactory implements ImageSource.
func (MemorySource) ImageFactory(img Image) gpucache.Factory {
	return gpucache.FactoryFunc(func(gpucache.Key, uint64) (gpucache.Resource, error) {
		return &Pixels{Data: checkerboard(img)}, nil
	})
}

// checkerboard renders img as opaque black and white RGBA8 cells.
func checkerboard(img Image) []byte {
	cell := max(img.CellSize, 1)
	data := make([]byte, 0, int(img.Size)*int(img.Size)*4)
	for y := range img.Size {
		for x := range img.Size {
			v := byte(0)
			if (x/cell+y/cell)%2 == 0 {
				v = 0xff
			}
			data = append(data, v, v, v, 0xff)
		}
	}
	return data
}

// TextureSource backs images with RGBA8 textures of a HAL device.
type TextureSource struct {
	Alloc *gpu.Allocator
}

func (s TextureSource) desc(img Image) gpu.TextureDesc {
	return gpu.TextureDesc{
		Label:  "checkerboard",
		Width:  img.Size,
		Height: img.Size,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gpu.DefaultTextureUsage,
	}
}

// ImageBytes implements ImageSource.
func (s TextureSource) ImageBytes(img Image) uint64 {
	size, err := s.desc(img).ByteSize()
	if err != nil {
		return 0
	}
	return size
}

// ImageFactory implements ImageSource.
func (s TextureSource) ImageFactory(img Image) gpucache.Factory {
	return s.Alloc.TextureFactory(s.desc(img))
}
