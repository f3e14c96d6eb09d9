// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/x448/float16"
)

// HostTexture is a texture in host memory. Exactly one of the backing
// slices is populated, according to the format.
//
// Texel coordinates are clamped to the edge on load, matching a
// clamp-to-edge sampler on hardware devices.
type HostTexture struct {
	desc TextureDescriptor
	dev  *HostDevice

	// F32 holds RGBA32F texels.
	F32 []float32
	// F16 holds RGBA16F texels as IEEE 754 half bits.
	F16 []uint16
	// U8 holds RGBA8 or BGRA8 texels.
	U8 []byte

	released atomic.Bool
}

var _ Texture = (*HostTexture)(nil)

func newHostTexture(dev *HostDevice, desc TextureDescriptor) *HostTexture {
	t := &HostTexture{desc: desc, dev: dev}
	n := desc.Texels() * 4
	switch desc.Format {
	case FormatRGBA32F:
		t.F32 = make([]float32, n)
	case FormatRGBA16F:
		t.F16 = make([]uint16, n)
	default:
		t.U8 = make([]byte, n)
	}
	return t
}

// NewHostTexture allocates a detached host texture. Detached textures are
// not owned by any device; kernels and tests use them as scratch images.
func NewHostTexture(desc TextureDescriptor) (*HostTexture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return newHostTexture(nil, desc), nil
}

// Descriptor returns the texture descriptor.
func (t *HostTexture) Descriptor() TextureDescriptor { return t.desc }

// Width returns the texture width in texels.
func (t *HostTexture) Width() int { return t.desc.Width }

// Height returns the texture height in texels.
func (t *HostTexture) Height() int { return t.desc.Height }

// Depth returns the number of slices.
func (t *HostTexture) Depth() int { return t.desc.Slices() }

func (t *HostTexture) index(x, y, z int) int {
	w, h, d := t.desc.Width, t.desc.Height, t.desc.Slices()
	x = clampInt(x, 0, w-1)
	y = clampInt(y, 0, h-1)
	z = clampInt(z, 0, d-1)
	return ((z*h+y)*w + x) * 4
}

// Load returns the texel at (x, y) of slice 0 as RGBA.
func (t *HostTexture) Load(x, y int) [4]float32 {
	return t.LoadZ(x, y, 0)
}

// LoadZ returns the texel at (x, y, z) as RGBA.
func (t *HostTexture) LoadZ(x, y, z int) [4]float32 {
	i := t.index(x, y, z)
	switch t.desc.Format {
	case FormatRGBA32F:
		return [4]float32{t.F32[i], t.F32[i+1], t.F32[i+2], t.F32[i+3]}
	case FormatRGBA16F:
		return [4]float32{
			float16.Frombits(t.F16[i]).Float32(),
			float16.Frombits(t.F16[i+1]).Float32(),
			float16.Frombits(t.F16[i+2]).Float32(),
			float16.Frombits(t.F16[i+3]).Float32(),
		}
	case FormatBGRA8:
		return [4]float32{
			float32(t.U8[i+2]) / 255,
			float32(t.U8[i+1]) / 255,
			float32(t.U8[i]) / 255,
			float32(t.U8[i+3]) / 255,
		}
	default:
		return [4]float32{
			float32(t.U8[i]) / 255,
			float32(t.U8[i+1]) / 255,
			float32(t.U8[i+2]) / 255,
			float32(t.U8[i+3]) / 255,
		}
	}
}

// Store writes an RGBA texel at (x, y) of slice 0. Out-of-range writes are
// dropped. 8-bit formats clamp to [0, 1] and round to nearest.
func (t *HostTexture) Store(x, y int, c [4]float32) {
	if x < 0 || y < 0 || x >= t.desc.Width || y >= t.desc.Height {
		return
	}
	i := (y*t.desc.Width + x) * 4
	switch t.desc.Format {
	case FormatRGBA32F:
		t.F32[i], t.F32[i+1], t.F32[i+2], t.F32[i+3] = c[0], c[1], c[2], c[3]
	case FormatRGBA16F:
		for k := 0; k < 4; k++ {
			t.F16[i+k] = float16.Fromfloat32(c[k]).Bits()
		}
	case FormatBGRA8:
		t.U8[i], t.U8[i+1], t.U8[i+2], t.U8[i+3] = Unorm8(c[2]), Unorm8(c[1]), Unorm8(c[0]), Unorm8(c[3])
	default:
		t.U8[i], t.U8[i+1], t.U8[i+2], t.U8[i+3] = Unorm8(c[0]), Unorm8(c[1]), Unorm8(c[2]), Unorm8(c[3])
	}
}

// Sample returns the bilinearly filtered texel at normalized (u, v) of
// slice 0, with texel centers at (i+0.5)/size.
func (t *HostTexture) Sample(u, v float32) [4]float32 {
	fx := u*float32(t.desc.Width) - 0.5
	fy := v*float32(t.desc.Height) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	c00 := t.Load(x0, y0)
	c10 := t.Load(x0+1, y0)
	c01 := t.Load(x0, y0+1)
	c11 := t.Load(x0+1, y0+1)

	var out [4]float32
	for k := 0; k < 4; k++ {
		top := c00[k] + (c10[k]-c00[k])*tx
		bot := c01[k] + (c11[k]-c01[k])*tx
		out[k] = top + (bot-top)*ty
	}
	return out
}

// Sample3D returns the trilinearly filtered texel of a cubic lookup table at
// normalized coordinates, where 0 and 1 address the first and last slices.
func (t *HostTexture) Sample3D(r, g, b float32) [4]float32 {
	n := float32(t.desc.Width - 1)
	fx, fy, fz := clampF(r, 0, 1)*n, clampF(g, 0, 1)*n, clampF(b, 0, 1)*n
	x0, y0, z0 := int(fx), int(fy), int(fz)
	tx, ty, tz := fx-float32(x0), fy-float32(y0), fz-float32(z0)

	var out [4]float32
	c000 := t.LoadZ(x0, y0, z0)
	c100 := t.LoadZ(x0+1, y0, z0)
	c010 := t.LoadZ(x0, y0+1, z0)
	c110 := t.LoadZ(x0+1, y0+1, z0)
	c001 := t.LoadZ(x0, y0, z0+1)
	c101 := t.LoadZ(x0+1, y0, z0+1)
	c011 := t.LoadZ(x0, y0+1, z0+1)
	c111 := t.LoadZ(x0+1, y0+1, z0+1)
	for k := 0; k < 4; k++ {
		near := lerp(lerp(c000[k], c100[k], tx), lerp(c010[k], c110[k], tx), ty)
		far := lerp(lerp(c001[k], c101[k], tx), lerp(c011[k], c111[k], tx), ty)
		out[k] = lerp(near, far, tz)
	}
	return out
}

// Bytes returns the texels tightly packed in the texture format.
func (t *HostTexture) Bytes() []byte {
	switch t.desc.Format {
	case FormatRGBA32F:
		out := make([]byte, len(t.F32)*4)
		for i, v := range t.F32 {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
		}
		return out
	case FormatRGBA16F:
		out := make([]byte, len(t.F16)*2)
		for i, v := range t.F16 {
			binary.LittleEndian.PutUint16(out[i*2:], v)
		}
		return out
	default:
		out := make([]byte, len(t.U8))
		copy(out, t.U8)
		return out
	}
}

// SetBytes replaces the texels with tightly packed data in the texture format.
func (t *HostTexture) SetBytes(data []byte) error {
	if uint64(len(data)) != t.desc.SizeBytes() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrDataSize, len(data), t.desc.SizeBytes())
	}
	switch t.desc.Format {
	case FormatRGBA32F:
		for i := range t.F32 {
			t.F32[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case FormatRGBA16F:
		for i := range t.F16 {
			t.F16[i] = binary.LittleEndian.Uint16(data[i*2:])
		}
	default:
		copy(t.U8, data)
	}
	return nil
}

// checkCopy reports whether src can be copied into t.
func (t *HostTexture) checkCopy(src *HostTexture) error {
	if src.desc.Width != t.desc.Width || src.desc.Height != t.desc.Height {
		return fmt.Errorf("%w: copy %dx%d into %dx%d", ErrDataSize,
			src.desc.Width, src.desc.Height, t.desc.Width, t.desc.Height)
	}
	return nil
}

// copyRows converts rows [y0, y1) of src into t. Sizes must match.
func (t *HostTexture) copyRows(src *HostTexture, y0, y1 int) {
	if src.desc.Format == t.desc.Format {
		w := t.desc.Width * 4
		switch t.desc.Format {
		case FormatRGBA32F:
			copy(t.F32[y0*w:y1*w], src.F32[y0*w:y1*w])
		case FormatRGBA16F:
			copy(t.F16[y0*w:y1*w], src.F16[y0*w:y1*w])
		default:
			copy(t.U8[y0*w:y1*w], src.U8[y0*w:y1*w])
		}
		return
	}
	for y := y0; y < y1; y++ {
		for x := 0; x < t.desc.Width; x++ {
			t.Store(x, y, src.Load(x, y))
		}
	}
}

// Unorm8 converts a normalized value to 8 bits, clamping to [0, 1] and
// rounding to nearest.
func Unorm8(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }
