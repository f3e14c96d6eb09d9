package effect

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/internal/uniform"
)

// ErrMissingInput is returned when a pass binds fewer inputs than its
// program reads.
var ErrMissingInput = errors.New("effect: missing input texture")

// decode unmarshals the parameter block of type T and checks the input count.
func decode[T any](params []byte, srcs []*gpu.HostTexture, inputs int) (T, error) {
	var block T
	if len(srcs) < inputs {
		return block, fmt.Errorf("%w: want %d, got %d", ErrMissingInput, inputs, len(srcs))
	}
	if err := uniform.Decode(params, &block); err != nil {
		return block, err
	}
	return block, nil
}

// perPixel turns a texel function into a row function over dst.
func perPixel(dst *gpu.HostTexture, fn func(x, y int) [4]float32) gpu.RowFunc {
	w := dst.Width()
	return func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				dst.Store(x, y, fn(x, y))
			}
		}
	}
}

// uv returns the normalized center of output texel (x, y).
func uv(f uniform.Frame, x, y int) (float32, float32) {
	return (float32(x) + 0.5) / f.OutW, (float32(y) + 0.5) / f.OutH
}

// rgb is a color without alpha.
type rgb [3]float32

func rgbOf(c [4]float32) rgb { return rgb{c[0], c[1], c[2]} }

func (c rgb) rgba(a float32) [4]float32 { return [4]float32{c[0], c[1], c[2], a} }

func (c rgb) luma() float32 { return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2] }

func (c rgb) add(d rgb) rgb { return rgb{c[0] + d[0], c[1] + d[1], c[2] + d[2]} }

func (c rgb) sub(d rgb) rgb { return rgb{c[0] - d[0], c[1] - d[1], c[2] - d[2]} }

func (c rgb) mul(d rgb) rgb { return rgb{c[0] * d[0], c[1] * d[1], c[2] * d[2]} }

func (c rgb) scale(s float32) rgb { return rgb{c[0] * s, c[1] * s, c[2] * s} }

func (c rgb) offset(s float32) rgb { return rgb{c[0] + s, c[1] + s, c[2] + s} }

func (c rgb) mix(d rgb, t float32) rgb {
	return rgb{mix(c[0], d[0], t), mix(c[1], d[1], t), mix(c[2], d[2], t)}
}

func (c rgb) clamp() rgb { return rgb{clamp01(c[0]), clamp01(c[1]), clamp01(c[2])} }

// screen blends d over c with the screen operator.
func (c rgb) screen(d rgb) rgb {
	return rgb{1 - (1-c[0])*(1-d[0]), 1 - (1-c[1])*(1-d[1]), 1 - (1-c[2])*(1-d[2])}
}

func gray(v float32) rgb { return rgb{v, v, v} }

func mix(a, b, t float32) float32 { return a + (b-a)*t }

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func smoothstep(e0, e1, x float32) float32 {
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func length(x, y float32) float32 { return float32(math.Sqrt(float64(x*x + y*y))) }

func exp2(v float32) float32 { return float32(math.Exp2(float64(v))) }

func sin(v float32) float32 { return float32(math.Sin(float64(v))) }

func floor(v float32) float32 { return float32(math.Floor(float64(v))) }

func fract(v float32) float32 { return v - floor(v) }

// hash3 is a 32-bit integer hash of a lattice point and seed. The WGSL
// prelude has the same function; both rely on wrapping u32 arithmetic.
func hash3(x, y, s uint32) uint32 {
	h := x*374761393 + y*668265263 + s*2246822519
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}

// rand01 returns a uniform value in [0, 1) for the lattice point.
func rand01(x, y int, s uint32) float32 {
	//nolint:gosec // G115: wrapping conversion is part of the hash
	return float32(hash3(uint32(int32(x)), uint32(int32(y)), s)>>8) / 16777216
}

// valueNoise is bilinearly interpolated lattice noise in [0, 1).
func valueNoise(px, py float32, s uint32) float32 {
	x0, y0 := floor(px), floor(py)
	tx, ty := px-x0, py-y0
	tx, ty = tx*tx*(3-2*tx), ty*ty*(3-2*ty)
	ix, iy := int(x0), int(y0)
	a := rand01(ix, iy, s)
	b := rand01(ix+1, iy, s)
	c := rand01(ix, iy+1, s)
	d := rand01(ix+1, iy+1, s)
	return mix(mix(a, b, tx), mix(c, d, tx), ty)
}

func seedOf(f uniform.Frame) uint32 {
	//nolint:gosec // G115: seeds are small non-negative integers
	return uint32(f.Seed)
}

// hsl conversions, all components in [0, 1].

func rgbToHSL(c rgb) (h, s, l float32) {
	mx := max(c[0], c[1], c[2])
	mn := min(c[0], c[1], c[2])
	l = (mx + mn) / 2
	d := mx - mn
	if d <= 1e-6 {
		return 0, 0, l
	}
	if l > 0.5 {
		s = d / (2 - mx - mn)
	} else {
		s = d / (mx + mn)
	}
	switch mx {
	case c[0]:
		h = (c[1] - c[2]) / d
		if c[1] < c[2] {
			h += 6
		}
	case c[1]:
		h = (c[2]-c[0])/d + 2
	default:
		h = (c[0]-c[1])/d + 4
	}
	return h / 6, s, l
}

func hueToRGB(p, q, t float32) float32 {
	t = fract(t)
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

func hslToRGB(h, s, l float32) rgb {
	if s <= 0 {
		return gray(l)
	}
	var q float32
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return rgb{hueToRGB(p, q, h+1.0/3), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3)}
}
