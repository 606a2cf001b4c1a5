// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gpucache"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DefaultTextureUsage is the usage of sampled textures filled by uploads.
const DefaultTextureUsage = gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding

// textureDomain separates texture scratch keys from every other client.
var textureDomain = gpucache.GenerateDomain()

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label string

	Width  uint32
	Height uint32

	// Layers is the array layer count; 0 means 1.
	Layers uint32

	// MipLevels is the mip chain length; 0 means 1.
	MipLevels uint32

	// SampleCount is the MSAA sample count; 0 means 1.
	SampleCount uint32

	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
}

// BytesPerPixel returns the size of one texel of format, or 0 if the
// format is not supported.
func BytesPerPixel(format gputypes.TextureFormat) uint64 {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatDepth24PlusStencil8:
		return 4
	default:
		return 0
	}
}

func orOne(v uint32) uint32 { return max(v, 1) }

// normalized returns desc with zero counts replaced by 1.
func (d TextureDesc) normalized() TextureDesc {
	d.Layers = orOne(d.Layers)
	d.MipLevels = orOne(d.MipLevels)
	d.SampleCount = orOne(d.SampleCount)
	return d
}

func (d TextureDesc) validate() error {
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("%w: texture %q is %dx%d", ErrInvalidDescriptor, d.Label, d.Width, d.Height)
	}
	if d.Usage == 0 {
		return fmt.Errorf("%w: texture %q has no usage", ErrInvalidDescriptor, d.Label)
	}
	if BytesPerPixel(d.Format) == 0 {
		return fmt.Errorf("%w: texture %q has unsupported format %v", ErrInvalidDescriptor, d.Label, d.Format)
	}
	return nil
}

// ByteSize returns the memory the texture occupies: every mip level of
// every layer, times the sample count.
func (d TextureDesc) ByteSize() (uint64, error) {
	if err := d.validate(); err != nil {
		return 0, err
	}
	d = d.normalized()

	bpp := BytesPerPixel(d.Format)
	var size uint64
	w, h := uint64(d.Width), uint64(d.Height)
	for range d.MipLevels {
		size += w * h * bpp
		w = max(w/2, 1)
		h = max(h/2, 1)
	}
	return size * uint64(d.Layers) * uint64(d.SampleCount), nil
}

// TextureKey returns the scratch key shared by every texture structurally
// equal to desc. The label is not part of the key.
func TextureKey(desc TextureDesc) gpucache.Key {
	d := desc.normalized()
	return gpucache.NewScratchKey(textureDomain,
		d.Width, d.Height, d.Layers, d.MipLevels, d.SampleCount,
		uint32(d.Format), uint32(d.Usage))
}

// Texture is a cacheable HAL texture.
type Texture struct {
	alloc     *Allocator
	raw       hal.Texture
	desc      TextureDesc
	size      uint64
	destroyed bool
}

// Raw returns the underlying HAL texture, or nil once destroyed.
func (t *Texture) Raw() hal.Texture {
	if t.destroyed {
		return nil
	}
	return t.raw
}

// Desc returns the descriptor the texture was created with.
func (t *Texture) Desc() TextureDesc { return t.desc }

// ByteSize implements gpucache.Resource.
func (t *Texture) ByteSize() uint64 { return t.size }

// Destroy implements gpucache.Resource.
func (t *Texture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.alloc.device.DestroyTexture(t.raw)
	t.alloc.trackFree(t.size, true)
	gpucache.Logger().Debug("gpu: texture destroyed", "label", t.desc.Label, "size", t.size)
}

// CreateTexture allocates a texture on the device.
func (a *Allocator) CreateTexture(desc TextureDesc) (*Texture, error) {
	size, err := desc.ByteSize()
	if err != nil {
		return nil, err
	}
	d := desc.normalized()

	raw, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label: d.Label,
		Size: hal.Extent3D{
			Width:              d.Width,
			Height:             d.Height,
			DepthOrArrayLayers: d.Layers,
		},
		MipLevelCount: d.MipLevels,
		SampleCount:   d.SampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        d.Format,
		Usage:         d.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create texture %q: %w", d.Label, err)
	}

	a.trackAlloc(size, true)
	gpucache.Logger().Debug("gpu: texture created",
		"label", d.Label, "width", d.Width, "height", d.Height, "format", d.Format, "size", size)
	return &Texture{alloc: a, raw: raw, desc: d, size: size}, nil
}

// TextureFactory returns a factory creating textures described by desc.
// It can be used with scratch keys from TextureKey or with unique keys of
// the caller's own domain.
func (a *Allocator) TextureFactory(desc TextureDesc) gpucache.Factory {
	return gpucache.FactoryFunc(func(gpucache.Key, uint64) (gpucache.Resource, error) {
		return a.CreateTexture(desc)
	})
}
