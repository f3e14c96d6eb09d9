package lut

import (
	"encoding/binary"
	"fmt"

	"github.com/x448/float16"

	"github.com/gogpu/filmlook/gpu"
)

// Uploader creates and fills textures. gpu.Device satisfies it.
type Uploader interface {
	CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error)
	WriteTexture(t gpu.Texture, data []byte) error
	DestroyTexture(t gpu.Texture)
}

// Texels converts the table into packed RGBA16F texels with alpha fixed at
// 1. Values are clamped to [0, 1].
func (t *Table) Texels() []byte {
	n := t.Size * t.Size * t.Size
	out := make([]byte, n*8)
	one := float16.Fromfloat32(1).Bits()
	for i := 0; i < n; i++ {
		o := out[i*8:]
		binary.LittleEndian.PutUint16(o[0:], float16.Fromfloat32(clamp01(t.Data[i*3])).Bits())
		binary.LittleEndian.PutUint16(o[2:], float16.Fromfloat32(clamp01(t.Data[i*3+1])).Bits())
		binary.LittleEndian.PutUint16(o[4:], float16.Fromfloat32(clamp01(t.Data[i*3+2])).Bits())
		binary.LittleEndian.PutUint16(o[6:], one)
	}
	return out
}

// Build uploads the table as an N×N×N RGBA16F texture. Texture x, y and z
// address red, green and blue.
func Build(up Uploader, t *Table, label string) (gpu.Texture, error) {
	desc := gpu.TextureDescriptor{
		Label:  label,
		Width:  t.Size,
		Height: t.Size,
		Depth:  t.Size,
		Format: gpu.FormatRGBA16F,
		Usage:  gpu.UsageShaderRead,
	}
	tex, err := up.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("lut: create %s: %w", desc.Key(), err)
	}
	if err := up.WriteTexture(tex, t.Texels()); err != nil {
		up.DestroyTexture(tex)
		return nil, fmt.Errorf("lut: upload: %w", err)
	}
	return tex, nil
}
