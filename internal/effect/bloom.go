package effect

import (
	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/internal/uniform"
)

// ccdSamples is the number of smear taps on each side of a texel.
const ccdSamples = 16

// ccdBloomKernel smears bright texels vertically.
func ccdBloomKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.CCDBloom](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	step := max(1, int(p.Length*p.OutH/ccdSamples))
	fringe := rgb{1, 1, 1}.mix(rgb{0.6, 0.5, 1}, p.Fringe)
	knee := max(1-p.Threshold, 1e-3)
	bright := func(x, y int) float32 {
		return max(0, rgbOf(src.Load(x, y)).luma()-p.Threshold) / knee
	}
	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		var sum float32
		for k := 1; k <= ccdSamples; k++ {
			w := 1 - float32(k)/(ccdSamples+1)
			sum += (bright(x, y-k*step) + bright(x, y+k*step)) * w
		}
		smear := sum / ccdSamples
		return rgbOf(in).add(fringe.scale(smear * p.Intensity)).rgba(in[3])
	}), nil
}

// thresholdKernel extracts highlights into a scratch texture. weights
// selects the brightness measure.
func thresholdKernel(weights rgb) gpu.HostKernel {
	return func(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
		p, err := decode[uniform.Threshold](params, srcs, 1)
		if err != nil {
			return nil, err
		}
		src := srcs[0]
		tint := rgb{p.TintR, p.TintG, p.TintB}
		lo, hi := p.Threshold-p.Softness*0.5, p.Threshold+p.Softness*0.5+1e-4
		return perPixel(dst, func(x, y int) [4]float32 {
			c := rgbOf(src.Sample(uv(p.Frame, x, y)))
			l := c[0]*weights[0] + c[1]*weights[1] + c[2]*weights[2]
			return c.mul(tint).scale(smoothstep(lo, hi, l)).rgba(1)
		}), nil
	}
}

var (
	bloomThresholdKernel    = thresholdKernel(rgb{0.2126, 0.7152, 0.0722})
	halationThresholdKernel = thresholdKernel(rgb{0.6, 0.3, 0.1})
)

func blurKernel(dx, dy int) gpu.HostKernel {
	return func(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
		p, err := decode[uniform.Blur](params, srcs, 1)
		if err != nil {
			return nil, err
		}
		src := srcs[0]
		taps := blurTaps(p.Radius, p.Sigma)
		r := len(taps) / 2
		return perPixel(dst, func(x, y int) [4]float32 {
			var out [4]float32
			for i, w := range taps {
				k := i - r
				c := src.Load(x+k*dx, y+k*dy)
				for ch := 0; ch < 4; ch++ {
					out[ch] += c[ch] * w
				}
			}
			return out
		}), nil
	}
}

var (
	blurHKernel = blurKernel(1, 0)
	blurVKernel = blurKernel(0, 1)
)

// bloomCompositeKernel: inputs [base, glow]. The glow texture may be
// smaller than the base and is sampled bilinearly.
func bloomCompositeKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.Composite](params, srcs, 2)
	if err != nil {
		return nil, err
	}
	base, glow := srcs[0], srcs[1]
	tint := rgb{p.TintR, p.TintG, p.TintB}
	return perPixel(dst, func(x, y int) [4]float32 {
		in := base.Load(x, y)
		g := rgbOf(glow.Sample(uv(p.Frame, x, y)))
		return rgbOf(in).add(g.mul(tint).scale(p.Intensity)).rgba(in[3])
	}), nil
}

// halationCompositeKernel screens the tinted glow over the base.
func halationCompositeKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.Composite](params, srcs, 2)
	if err != nil {
		return nil, err
	}
	base, glow := srcs[0], srcs[1]
	tint := rgb{p.TintR, p.TintG, p.TintB}
	return perPixel(dst, func(x, y int) [4]float32 {
		in := base.Load(x, y)
		g := rgbOf(glow.Sample(uv(p.Frame, x, y))).mul(tint).scale(p.Intensity).clamp()
		return rgbOf(in).clamp().screen(g).rgba(in[3])
	}), nil
}

// ring is the tap pattern of the single-pass bloom: eight directions at
// full and half radius.
var ring = [8][2]float32{
	{1, 0}, {0.7071, 0.7071}, {0, 1}, {-0.7071, 0.7071},
	{-1, 0}, {-0.7071, -0.7071}, {0, -1}, {0.7071, -0.7071},
}

func bloomSimpleKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.BloomSimple](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	tint := rgb{p.TintR, p.TintG, p.TintB}
	lo, hi := p.Threshold-p.Softness*0.5, p.Threshold+p.Softness*0.5+1e-4
	bright := func(c rgb) rgb { return c.scale(smoothstep(lo, hi, c.luma())) }
	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		sum := bright(rgbOf(in))
		for _, d := range ring {
			for _, s := range [2]float32{1, 0.5} {
				ox := int(d[0]*p.Radius*s + 0.5*sign(d[0]))
				oy := int(d[1]*p.Radius*s + 0.5*sign(d[1]))
				sum = sum.add(bright(rgbOf(src.Load(x+ox, y+oy))))
			}
		}
		glow := sum.scale(1.0 / 17)
		return rgbOf(in).add(glow.mul(tint).scale(p.Intensity)).rgba(in[3])
	}), nil
}

func sign(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
