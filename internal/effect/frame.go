package effect

import (
	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/internal/segment"
	"github.com/gogpu/filmlook/internal/uniform"
)

// lensDistortionKernel applies radial barrel/pincushion distortion with
// per-channel scale for lateral chromatic aberration.
func lensDistortionKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.LensDistortion](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	return perPixel(dst, func(x, y int) [4]float32 {
		u, v := uv(p.Frame, x, y)
		dx, dy := u-0.5, v-0.5
		r2 := dx*dx + dy*dy
		f := (1 + p.K1*r2 + p.K2*r2*r2) * p.Scale
		at := func(s float32) [4]float32 {
			return src.Sample(clamp01(0.5+dx*s), clamp01(0.5+dy*s))
		}
		g := at(f)
		if p.CAStrength == 0 {
			return g
		}
		r := at(f * (1 + p.CAStrength))
		b := at(f * (1 - p.CAStrength))
		return [4]float32{r[0], g[1], b[2], g[3]}
	}), nil
}

// Segment stroke thickness relative to the glyph cell.
const glyphThickness = 0.15

// glyphAt reports whether (px, py) falls on a lit segment of the text
// laid out from (x0, y0) with cells of gw×gh.
func glyphAt(glyphs []float32, px, py, x0, y0, gw, gh float32) bool {
	if px < x0 || py < y0 || py >= y0+gh {
		return false
	}
	i := int((px - x0) / gw)
	if i >= len(glyphs) {
		return false
	}
	u := (px - x0 - float32(i)*gw) / gw
	v := (py - y0) / gh
	//nolint:gosec // G115: masks are small non-negative integers
	return segment.Lit(uint16(glyphs[i]), u, v, glyphThickness)
}

// dateStampKernel burns seven-segment text into the bottom-right corner.
func dateStampKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.Stamp](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	glyphs := p.Glyphs[:min(int(p.Count), len(p.Glyphs))]
	gh := p.Scale * p.OutH
	gw := gh * 0.6
	margin := gh * 0.8
	x0 := p.OutW - margin - float32(len(glyphs))*gw
	y0 := p.OutH - margin - gh
	color := rgb{p.R, p.G, p.B}
	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		if !glyphAt(glyphs, float32(x)+0.5, float32(y)+0.5, x0, y0, gw, gh) {
			return in
		}
		return rgbOf(in).mix(color, p.Opacity).rgba(in[3])
	}), nil
}

var sprocketColor = rgb{0.85, 0.85, 0.8}

// filmStripKernel frames the image with sprocketed borders and rebate text.
func filmStripKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.FilmStrip](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	border := p.Border * p.OutH
	base := rgb{p.R, p.G, p.B}
	text := rgb{p.TextR, p.TextG, p.TextB}
	glyphs := p.Glyphs[:min(int(p.Count), len(p.Glyphs))]
	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		px, py := float32(x)+0.5, float32(y)+0.5
		top := py < border
		bottom := py >= p.OutH-border
		if border <= 0 || (!top && !bottom) {
			return in
		}
		by := py // offset into the border band, measured from the outer edge
		if bottom {
			by = p.OutH - py
		}
		pitch := border * 0.75
		hx := px - floor(px/pitch)*pitch
		if by >= border*0.3 && by < border*0.75 && hx >= (pitch-border*0.3)*0.5 && hx < (pitch+border*0.3)*0.5 {
			return sprocketColor.rgba(1)
		}
		if bottom && len(glyphs) > 0 {
			gh := border * 0.22
			gw := gh * 0.6
			if glyphAt(glyphs, px, p.OutH-py, border, border*0.05, gw, gh) {
				return text.rgba(1)
			}
		}
		return base.rgba(1)
	}), nil
}

// instantFrameKernel scales the image into the inner window of an instant
// print border.
func instantFrameKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.InstantFrame](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	w, h := p.OutW, p.OutH
	left, right := p.Left*w, w-p.Right*w
	top, bottom := p.Top*h, h-p.Bottom*h
	color := rgb{p.R, p.G, p.B}
	return perPixel(dst, func(x, y int) [4]float32 {
		px, py := float32(x)+0.5, float32(y)+0.5
		if right > left && bottom > top && px >= left && px < right && py >= top && py < bottom {
			su := (px - left) / (right - left)
			sv := (py - top) / (bottom - top)
			c := rgbOf(src.Sample(su, sv))
			if p.EdgeFade > 0 {
				edge := min(px-left, right-px, py-top, bottom-py) / (p.EdgeFade * min(w, h))
				c = color.mix(c, smoothstep(0, 1, edge))
			}
			return c.rgba(1)
		}
		u, v := px/w, py/h
		dark := p.CornerDarkening * smoothstep(0.5, 0.72, length(u-0.5, v-0.5)) * 0.5
		return color.scale(1 - dark).rgba(1)
	}), nil
}
