package effect

import (
	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/internal/uniform"
)

// Per-program seed offsets keep the noise fields of different programs
// uncorrelated under the same frame seed.
const (
	grainSalt    = 0x9e3779b9
	overlaysSalt = 0x85ebca6b
	vhsSalt      = 0xc2b2ae35
	digicamSalt  = 0x27d4eb2f
)

// grainNoise returns zero-centered noise for one channel.
func grainNoise(p *uniform.Grain, x, y int, s uint32) float32 {
	px, py := float32(x)/p.Size, float32(y)/p.Size
	hard := rand01(int(floor(px)), int(floor(py)), s)
	soft := valueNoise(px, py, s)
	return mix(hard, soft, p.Softness) - 0.5
}

// grainKernel adds per-channel noise with a density curve peaking in the
// midtones.
func grainKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.Grain](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	s := seedOf(p.Frame) + grainSalt
	channel := rgb{p.ChannelR, p.ChannelG, p.ChannelB}
	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		c := rgbOf(in)
		l := clamp01(c.luma())
		density := 0.4 + 0.6*4*l*(1-l)
		n := grainNoise(&p, x, y, s)
		var noise rgb
		for k := 0; k < 3; k++ {
			nk := n
			if p.Chroma > 0 {
				nk = mix(n, grainNoise(&p, x, y, s+uint32(k)+1), p.Chroma)
			}
			noise[k] = nk
		}
		return c.add(noise.mul(channel).scale(p.Intensity * density)).rgba(in[3])
	}), nil
}

// Overlay cell sizes in texels.
const (
	dustCell    = 24
	scratchBand = 64
)

func overlaysKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.Overlays](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	s := seedOf(p.Frame) + overlaysSalt
	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		c := rgbOf(in)

		cx, cy := x/dustCell, y/dustCell
		if rand01(cx, cy, s) < p.Dust*0.3 {
			sx := float32(cx*dustCell) + rand01(cx, cy, s+1)*dustCell
			sy := float32(cy*dustCell) + rand01(cx, cy, s+2)*dustCell
			r := 0.5 + rand01(cx, cy, s+3)*2
			if d := length(float32(x)+0.5-sx, float32(y)+0.5-sy); d < r {
				c = c.scale(1 - 0.6*p.Opacity*(1-d/r))
			}
		}

		band := x / scratchBand
		if rand01(band, 0, s+4) < p.Scratches*0.5 {
			sx := float32(band*scratchBand) + rand01(band, 1, s+4)*scratchBand
			top := rand01(band, 2, s+4) * p.OutH
			span := (0.3 + rand01(band, 3, s+4)*0.7) * p.OutH
			fy := float32(y)
			// Scratches drift slightly along their length.
			sx += sin(fy*0.01+float32(band)) * 2
			if abs(float32(x)+0.5-sx) < 0.75 && fy >= top && fy <= top+span {
				c = c.offset(0.25 * p.Opacity)
			}
		}
		return c.rgba(in[3])
	}), nil
}

func vhsKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.VHS](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	s := seedOf(p.Frame) + vhsSalt
	bleed := int(p.Bleed * 6)
	return perPixel(dst, func(x, y int) [4]float32 {
		fy := float32(y)
		shift := p.Wobble*4*sin(fy*0.05+float32(s%628)/100) + (rand01(0, y, s)-0.5)*p.Wobble*2
		sx := x + int(floor(shift+0.5))
		in := src.Load(sx, y)
		c := rgbOf(in)
		if bleed > 0 {
			var avg rgb
			for k := 0; k <= bleed; k++ {
				avg = avg.add(rgbOf(src.Load(sx-k, y)))
			}
			avg = avg.scale(1 / float32(bleed+1))
			c = gray(c.luma()).add(avg.offset(-avg.luma()))
		}
		if y%2 == 1 {
			c = c.scale(1 - p.Scanlines*0.25)
		}
		c = c.offset((rand01(x, y, s+1) - 0.5) * p.Noise * 0.15)
		return c.rgba(in[3])
	}), nil
}

const digicamBlock = 8

func digicamKernel(params []byte, dst *gpu.HostTexture, srcs []*gpu.HostTexture) (gpu.RowFunc, error) {
	p, err := decode[uniform.Digicam](params, srcs, 1)
	if err != nil {
		return nil, err
	}
	src := srcs[0]
	s := seedOf(p.Frame) + digicamSalt
	return perPixel(dst, func(x, y int) [4]float32 {
		in := src.Load(x, y)
		c := rgbOf(in)

		if p.Compression > 0 {
			bx, by := x/digicamBlock*digicamBlock, y/digicamBlock*digicamBlock
			block := rgbOf(src.Load(bx+2, by+2)).add(rgbOf(src.Load(bx+6, by+2))).
				add(rgbOf(src.Load(bx+2, by+6))).add(rgbOf(src.Load(bx+6, by+6))).scale(0.25)
			edge := abs(c.luma() - block.luma())
			c = c.mix(block, p.Compression*0.5*(1-smoothstep(0, 0.2, edge)))
		}
		if p.Sharpen > 0 {
			around := rgbOf(src.Load(x-1, y)).add(rgbOf(src.Load(x+1, y))).
				add(rgbOf(src.Load(x, y-1))).add(rgbOf(src.Load(x, y+1))).scale(0.25)
			c = c.add(rgbOf(in).sub(around).scale(p.Sharpen * 0.5))
		}
		if p.Noise > 0 {
			n := rand01(x, y, s) - 0.5
			chroma := rgb{rand01(x, y, s+1) - 0.5, 0, rand01(x, y, s+2) - 0.5}
			c = c.offset(n * p.Noise * 0.1).add(chroma.scale(p.Noise * 0.04))
		}
		return c.rgba(in[3])
	}), nil
}
