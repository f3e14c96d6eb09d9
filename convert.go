package filmlook

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/x448/float16"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/filmlook/gpu"
)

// ImageToTexture uploads img as an RGBA32F shader input with straight
// alpha. The caller owns the texture and releases it with ReleaseTexture.
func (e *Engine) ImageToTexture(img image.Image) (gpu.Texture, error) {
	if err := e.Err(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNilImage
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) || nrgba.Stride != w*4 {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(nrgba, nrgba.Rect, img, b.Min, xdraw.Src)
	}

	desc := gpu.Desc2D(w, h, gpu.FormatRGBA32F, gpu.UsageShaderRead)
	desc.Label = "frame"
	tex, err := e.dev.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("filmlook: create frame texture: %w", err)
	}
	data := make([]byte, w*h*16)
	for i, v := range nrgba.Pix[:w*h*4] {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(float32(v)/255))
	}
	if err := e.dev.WriteTexture(tex, data); err != nil {
		e.dev.DestroyTexture(tex)
		return nil, fmt.Errorf("filmlook: upload frame: %w", err)
	}
	return tex, nil
}

// ReleaseTexture destroys a texture created by ImageToTexture.
func (e *Engine) ReleaseTexture(t gpu.Texture) {
	if t != nil && e.dev != nil {
		e.dev.DestroyTexture(t)
	}
}

// TextureToImage reads t back into an RGBA image. Textures hold straight
// alpha; the result is premultiplied as image.RGBA requires. BGRA readback
// targets, the native order of surfaces, are swizzled; float formats are
// clamped and rounded to 8 bits.
func (e *Engine) TextureToImage(t gpu.Texture) (*image.RGBA, error) {
	if e.dev == nil {
		return nil, e.initErr
	}
	if t == nil {
		return nil, ErrNilTexture
	}
	data, err := e.dev.ReadTexture(t)
	if err != nil {
		return nil, fmt.Errorf("filmlook: read texture: %w", err)
	}
	desc := t.Descriptor()
	img := image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	n := desc.Width * desc.Height * 4
	if uint64(len(data)) < desc.SizeBytes() {
		return nil, fmt.Errorf("%w: read %d bytes of %s", gpu.ErrDataSize, len(data), desc.Key())
	}
	pix := img.Pix
	switch desc.Format {
	case gpu.FormatBGRA8:
		for i := 0; i < n; i += 4 {
			a := data[i+3]
			pix[i], pix[i+1], pix[i+2], pix[i+3] = premul8(data[i+2], a), premul8(data[i+1], a), premul8(data[i], a), a
		}
	case gpu.FormatRGBA8:
		for i := 0; i < n; i += 4 {
			a := data[i+3]
			pix[i], pix[i+1], pix[i+2], pix[i+3] = premul8(data[i], a), premul8(data[i+1], a), premul8(data[i+2], a), a
		}
	case gpu.FormatRGBA16F:
		for i := 0; i < n; i += 4 {
			var c [4]float32
			for k := range c {
				c[k] = float16.Frombits(binary.LittleEndian.Uint16(data[(i+k)*2:])).Float32()
			}
			storePremul(pix[i:i+4], c)
		}
	case gpu.FormatRGBA32F:
		for i := 0; i < n; i += 4 {
			var c [4]float32
			for k := range c {
				c[k] = math.Float32frombits(binary.LittleEndian.Uint32(data[(i+k)*4:]))
			}
			storePremul(pix[i:i+4], c)
		}
	default:
		return nil, fmt.Errorf("filmlook: unsupported readback format %s", desc.Format)
	}
	return img, nil
}

func premul8(v, a uint8) uint8 {
	return uint8((uint32(v)*uint32(a) + 127) / 255)
}

// storePremul writes a straight-alpha float texel as premultiplied 8-bit.
func storePremul(dst []uint8, c [4]float32) {
	a := min(max(c[3], 0), 1)
	dst[0] = gpu.Unorm8(c[0] * a)
	dst[1] = gpu.Unorm8(c[1] * a)
	dst[2] = gpu.Unorm8(c[2] * a)
	dst[3] = gpu.Unorm8(a)
}
