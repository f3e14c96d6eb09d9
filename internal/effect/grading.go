package effect

import (
	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/internal/uniform"
)

// colorGradingKernel: inputs [frame, lut?]. The LUT is read only when the
// block enables it.
func colorGradingKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.ColorGrading](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	var lut *gpu.HostTexture
	if p.UseLUT > 0 {
		if len(srcs) < 2 {
			return nil, ErrMissingInput
		}
		lut = srcs[1]
	}
	gain := exp2(p.Exposure)
	n := int(p.SelectiveCount)

	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		c := grade(&p, rgbOf(in), gain, n)
		if lut != nil {
			l := lut.Sample3D(clamp01(c[0]), clamp01(c[1]), clamp01(c[2]))
			c = c.mix(rgb{l[0], l[1], l[2]}, p.LUTIntensity)
		}
		c = splitTone(&p, c)
		if p.Fade > 0 {
			c = c.scale(1 - p.Fade*0.25).offset(p.Fade * 0.15)
		}
		if p.Clarity != 0 {
			l := rgbOf(in).luma()
			blur := (rgbOf(src.Load(x-2, y)).luma() + rgbOf(src.Load(x+2, y)).luma() +
				rgbOf(src.Load(x, y-2)).luma() + rgbOf(src.Load(x, y+2)).luma()) / 4
			mid := 1 - abs(c.luma()-0.5)*2
			c = c.offset((l - blur) * p.Clarity * mid)
		}
		return c.clamp().rgba(in[3])
	}), nil
}

// grade applies the per-pixel adjustments that precede the LUT.
func grade(p *uniform.ColorGrading, c rgb, gain float32, selective int) rgb {
	c = c.scale(gain)
	if p.Contrast != 0 {
		c = c.offset(-0.5).scale(1 + p.Contrast).offset(0.5)
	}

	if p.Shadows != 0 || p.Highlights != 0 || p.Blacks != 0 || p.Whites != 0 {
		l := c.luma()
		shadowW := 1 - smoothstep(0, 0.5, l)
		highW := smoothstep(0.5, 1, l)
		blackW := 1 - smoothstep(0, 0.25, l)
		whiteW := smoothstep(0.75, 1, l)
		c = c.offset(p.Shadows*0.25*shadowW + p.Highlights*0.25*highW + p.Blacks*0.15*blackW + p.Whites*0.15*whiteW)
	}

	if p.Temperature != 0 || p.Tint != 0 {
		c = c.add(rgb{p.Temperature * 0.1, -p.Tint * 0.1, -p.Temperature * 0.1})
	}

	for i := 0; i < selective; i++ {
		c = selectiveColor(p.Selective[i], c)
	}

	if p.Saturation != 0 {
		c = gray(c.luma()).mix(c, 1+p.Saturation)
	}
	if p.Vibrance != 0 {
		mx := max(c[0], c[1], c[2])
		mn := min(c[0], c[1], c[2])
		amount := p.Vibrance * (1 - clamp01(mx-mn))
		c = gray(c.luma()).mix(c, 1+amount)
	}
	return c
}

func selectiveColor(s uniform.Selective, c rgb) rgb {
	if s.Range <= 0 {
		return c
	}
	h, sat, l := rgbToHSL(c.clamp())
	d := abs(h - s.Hue)
	d = min(d, 1-d)
	w := 1 - smoothstep(0, s.Range, d)
	if w <= 0 || sat <= 0 {
		return c
	}
	// Weight by saturation so neutrals are left alone.
	w *= smoothstep(0, 0.2, sat)
	h = fract(h + s.HueShift*w)
	sat = clamp01(sat * (1 + s.SatAdj*w))
	l = clamp01(l + s.LumAdj*w*0.5)
	return hslToRGB(h, sat, l)
}

func splitTone(p *uniform.ColorGrading, c rgb) rgb {
	if p.ShadowsSat <= 0 && p.HighlightsSat <= 0 {
		return c
	}
	l := clamp01(c.luma())
	pivot := clamp(0.5+p.SplitBalance*0.25, 0.05, 0.95)
	shadowW := 1 - smoothstep(0, pivot, l)
	highW := smoothstep(pivot, 1, l)
	protect := 1 - p.MidtoneProtection*(1-abs(l-0.5)*2)
	shadowTint := hslToRGB(p.ShadowsHue, 1, 0.5).offset(-0.5)
	highTint := hslToRGB(p.HighlightsHue, 1, 0.5).offset(-0.5)
	return c.add(shadowTint.scale(p.ShadowsSat * shadowW * protect)).
		add(highTint.scale(p.HighlightsSat * highW * protect))
}
