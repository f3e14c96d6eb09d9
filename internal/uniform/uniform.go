// Package uniform marshals effect configuration into the fixed-layout
// parameter blocks effect programs consume.
//
// Every block is a struct of float32 fields (and float32 arrays) starting
// with a Frame header. Blocks are encoded little-endian in declaration
// order; WGSL reads them as array<vec4<f32>, 64> by float index, so the
// field order of each struct is part of the program contract.
package uniform

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxBlockSize is the size of the parameter binding in bytes.
const MaxBlockSize = 1024

// ErrBlockTooLarge is returned when a block exceeds MaxBlockSize.
var ErrBlockTooLarge = errors.New("uniform: block exceeds binding size")

// Frame is the header of every block. Indices 0..7.
type Frame struct {
	OutW, OutH float32 // output texture size
	SrcW, SrcH float32 // primary input size
	AuxW, AuxH float32 // auxiliary input size, or LUT size in AuxW
	Seed       float32
	Time       float32
}

// NewFrame returns a header for an output of w×h reading a w×h source.
func NewFrame(w, h int, seed, time float32) Frame {
	return Frame{
		OutW: float32(w), OutH: float32(h),
		SrcW: float32(w), SrcH: float32(h),
		Seed: seed, Time: time,
	}
}

// WithOut returns f with a different output size.
func (f Frame) WithOut(w, h int) Frame {
	f.OutW, f.OutH = float32(w), float32(h)
	return f
}

// WithSrc returns f with a different primary input size.
func (f Frame) WithSrc(w, h int) Frame {
	f.SrcW, f.SrcH = float32(w), float32(h)
	return f
}

// WithAux returns f with the auxiliary input size.
func (f Frame) WithAux(w, h int) Frame {
	f.AuxW, f.AuxH = float32(w), float32(h)
	return f
}

// Encode marshals a block. v must be a pointer to or value of one of the
// block structs in this package.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, fmt.Errorf("uniform: encode %T: %w", v, err)
	}
	if buf.Len() > MaxBlockSize {
		return nil, fmt.Errorf("%w: %T is %d bytes", ErrBlockTooLarge, v, buf.Len())
	}
	return buf.Bytes(), nil
}

// Decode unmarshals a block into v, which must be a pointer.
func Decode(data []byte, v any) error {
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, v); err != nil {
		return fmt.Errorf("uniform: decode %T: %w", v, err)
	}
	return nil
}
