// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
)

// Texture-related errors.
var (
	// ErrInvalidDimensions is returned for zero or negative texture sizes.
	ErrInvalidDimensions = errors.New("gpu: invalid texture dimensions")

	// ErrTextureReleased is returned when operating on a destroyed texture.
	ErrTextureReleased = errors.New("gpu: texture has been released")

	// ErrForeignTexture is returned when a texture created by another device
	// is passed to a device.
	ErrForeignTexture = errors.New("gpu: texture belongs to another device")

	// ErrDataSize is returned when uploaded data does not match the texture size.
	ErrDataSize = errors.New("gpu: data size does not match texture")
)

// Format is the texel format of a texture.
type Format uint8

const (
	// FormatRGBA8 is 8-bit unsigned normalized RGBA.
	FormatRGBA8 Format = iota

	// FormatBGRA8 is 8-bit BGRA, the native order of presentable surfaces
	// and readback targets.
	FormatBGRA8

	// FormatRGBA16F is half-precision RGBA, used for lookup tables.
	FormatRGBA16F

	// FormatRGBA32F is full-precision RGBA, used for intermediate buffers.
	FormatRGBA32F
)

// String returns a short lowercase name used in descriptor keys.
func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatBGRA8:
		return "bgra8"
	case FormatRGBA16F:
		return "rgba16f"
	case FormatRGBA32F:
		return "rgba32f"
	default:
		return fmt.Sprintf("format(%d)", f)
	}
}

// BytesPerPixel returns the storage size of one texel.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA16F:
		return 8
	case FormatRGBA32F:
		return 16
	default:
		return 4
	}
}

// Usage describes where a texture lives and who may touch it.
type Usage uint8

const (
	// UsagePrivate is a GPU-only render target for intermediate passes.
	UsagePrivate Usage = iota

	// UsageShaderRead is a sampled input: uploaded frames and lookup tables.
	UsageShaderRead

	// UsageReadback is a CPU-visible target for capture results.
	UsageReadback

	// UsagePresent is a presentable surface texture.
	UsagePresent
)

func (u Usage) String() string {
	switch u {
	case UsagePrivate:
		return "private"
	case UsageShaderRead:
		return "shaderread"
	case UsageReadback:
		return "readback"
	case UsagePresent:
		return "present"
	default:
		return fmt.Sprintf("usage(%d)", u)
	}
}

// TextureDescriptor describes parameters for creating a texture.
type TextureDescriptor struct {
	// Label is an optional debug label. It is not part of Key.
	Label string

	Width  int
	Height int

	// Depth is the number of slices for 3D textures. Zero means 1.
	Depth int

	Format Format
	Usage  Usage
}

// Desc2D returns a descriptor for a 2D texture.
func Desc2D(width, height int, format Format, usage Usage) TextureDescriptor {
	return TextureDescriptor{Width: width, Height: height, Depth: 1, Format: format, Usage: usage}
}

// Slices returns the depth, treating zero as one.
func (d TextureDescriptor) Slices() int {
	if d.Depth <= 0 {
		return 1
	}
	return d.Depth
}

// Key returns the canonical descriptor string, e.g. "1920x1080x1:rgba32f:private".
// Two descriptors with equal keys describe interchangeable textures.
func (d TextureDescriptor) Key() string {
	return fmt.Sprintf("%dx%dx%d:%s:%s", d.Width, d.Height, d.Slices(), d.Format, d.Usage)
}

// Texels returns the number of texels in the texture.
func (d TextureDescriptor) Texels() int {
	return d.Width * d.Height * d.Slices()
}

// SizeBytes returns the storage size of the texture.
func (d TextureDescriptor) SizeBytes() uint64 {
	//nolint:gosec // G115: dimensions validated positive
	return uint64(d.Texels()) * uint64(d.Format.BytesPerPixel())
}

// Validate reports whether the descriptor can be allocated.
func (d TextureDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 || d.Depth < 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimensions, d.Width, d.Height, d.Depth)
	}
	return nil
}

// Texture is a device-owned texel buffer.
type Texture interface {
	// Descriptor returns the descriptor the texture was created with.
	Descriptor() TextureDescriptor

	// Width returns the texture width in texels.
	Width() int

	// Height returns the texture height in texels.
	Height() int
}
