package effect

import (
	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/internal/uniform"
)

func blackWhiteKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.BlackWhite](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	tone := rgb{p.ToneR, p.ToneG, p.ToneB}
	toneLuma := tone.luma()
	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		l := in[0]*p.RedMix + in[1]*p.GreenMix + in[2]*p.BlueMix
		l = clamp01((l-0.5)*(1+p.Contrast) + 0.5)
		c := gray(l)
		if p.ToneAmount > 0 && toneLuma > 1e-3 {
			c = c.mix(tone.scale(l/toneLuma), p.ToneAmount)
		}
		return c.rgba(in[3])
	}), nil
}

func flashKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.Flash](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	aspect := p.OutW / p.OutH
	warm := rgb{1, 1, 1}.mix(rgb{1, 0.85, 0.65}, p.Warmth)
	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		u, v := uv(p.Frame, x, y)
		d := length((u-p.CenterX)*aspect, v-p.CenterY) / p.Radius
		fall := p.Intensity * (1 - smoothstep(0, 1, d))
		c := rgbOf(in).add(warm.scale(fall * 0.5))
		c = c.offset(p.ShadowLift * 0.2 * (1 - smoothstep(0, 0.5, c.luma())))
		return c.rgba(in[3])
	}), nil
}

// vignetteKernel darkens by radial distance. With zero feather the falloff
// is a hard step at the midpoint.
func vignetteKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.Vignette](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		u, v := uv(p.Frame, x, y)
		dx, dy := (u-0.5)*2, (v-0.5)*2
		r := mix(max(abs(dx), abs(dy)), length(dx, dy), p.Roundness)
		var w float32
		if p.Feather <= 0 {
			if r >= p.Midpoint {
				w = 1
			}
		} else {
			w = smoothstep(p.Midpoint-p.Feather*0.5, p.Midpoint+p.Feather*0.5, r)
		}
		return rgbOf(in).scale(1 - p.Intensity*w).rgba(in[3])
	}), nil
}

func lightLeakKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.LightLeak](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	aspect := p.OutW / p.OutH
	color := rgb{p.R, p.G, p.B}
	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		u, v := uv(p.Frame, x, y)
		d := length((u-p.X)*aspect, v-p.Y) / p.Radius
		g := 1 - smoothstep(0, 1, d)
		g = p.Intensity * g * g
		return rgbOf(in).screen(color.scale(g)).rgba(in[3])
	}), nil
}
