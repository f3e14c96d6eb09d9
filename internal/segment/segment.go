// Package segment encodes text for seven-segment glyph rendering.
//
// Segments are numbered a..g as bits 0..6 in the usual layout:
//
//	 aaa
//	f   b
//	 ggg
//	e   c
//	 ddd
//
// Bit 7 is a dot in the lower right corner and bit 8 a colon.
package segment

import (
	"errors"
	"fmt"
)

// ErrUnsupportedRune is returned for characters without a glyph.
var ErrUnsupportedRune = errors.New("segment: unsupported character")

// MaxGlyphs is the longest text a stamp can carry.
const MaxGlyphs = 16

// Segment bits.
const (
	A uint16 = 1 << iota
	B
	C
	D
	E
	F
	G
	Dot
	Colon
)

var digits = [10]uint16{
	A | B | C | D | E | F,     // 0
	B | C,                     // 1
	A | B | D | E | G,         // 2
	A | B | C | D | G,         // 3
	B | C | F | G,             // 4
	A | C | D | F | G,         // 5
	A | C | D | E | F | G,     // 6
	A | B | C,                 // 7
	A | B | C | D | E | F | G, // 8
	A | B | C | D | F | G,     // 9
}

// Mask returns the segment mask for r.
func Mask(r rune) (uint16, bool) {
	switch {
	case r >= '0' && r <= '9':
		return digits[r-'0'], true
	case r == ' ':
		return 0, true
	case r == '\'':
		return F, true
	case r == '-':
		return G, true
	case r == '.':
		return Dot, true
	case r == ':':
		return Colon, true
	}
	return 0, false
}

// Valid reports whether every character of s has a glyph and s fits a stamp.
func Valid(s string) bool {
	_, err := Encode(s)
	return err == nil
}

// Encode returns the masks for s.
func Encode(s string) ([]uint16, error) {
	out := make([]uint16, 0, len(s))
	for _, r := range s {
		m, ok := Mask(r)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedRune, r)
		}
		out = append(out, m)
	}
	if len(out) > MaxGlyphs {
		return nil, fmt.Errorf("segment: %d glyphs exceed %d", len(out), MaxGlyphs)
	}
	return out, nil
}

// Lit reports whether the point (u, v) inside a glyph cell is covered by a
// lit segment of mask. The cell spans [0, 1] horizontally and vertically
// with v growing downward; thickness is the stroke width as a fraction of
// the cell width.
func Lit(mask uint16, u, v, thickness float32) bool {
	if mask == 0 || u < 0 || u > 1 || v < 0 || v > 1 {
		return false
	}
	t := thickness
	ht := t / 2
	// The glyph occupies the left 70% of the cell, the rest is spacing.
	const gw = 0.7
	x := u / gw
	if x > 1 {
		if mask&Dot != 0 && v > 1-t && u > gw+0.05 && u < gw+0.05+t {
			return true
		}
		return false
	}
	inH := x > t && x < 1-t
	inTop := v < 0.5 && v > t
	inBot := v > 0.5 && v < 1-t
	switch {
	case mask&A != 0 && inH && v <= t:
		return true
	case mask&D != 0 && inH && v >= 1-t:
		return true
	case mask&G != 0 && inH && v > 0.5-ht && v < 0.5+ht:
		return true
	case mask&F != 0 && x <= t && inTop:
		return true
	case mask&B != 0 && x >= 1-t && inTop:
		return true
	case mask&E != 0 && x <= t && inBot:
		return true
	case mask&C != 0 && x >= 1-t && inBot:
		return true
	}
	if mask&Colon != 0 && x > 0.5-ht && x < 0.5+ht {
		if (v > 0.3-ht && v < 0.3+ht) || (v > 0.7-ht && v < 0.7+ht) {
			return true
		}
	}
	return false
}
