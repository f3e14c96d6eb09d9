// Package lut parses ASCII cube lookup tables and builds half-precision
// cubic textures from them.
package lut

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
)

// Parse errors.
var (
	// ErrMissingSize is returned when no LUT_3D_SIZE directive precedes the data.
	ErrMissingSize = errors.New("lut: missing or zero LUT_3D_SIZE")

	// ErrSizeMismatch is returned when the triple count differs from N³.
	ErrSizeMismatch = errors.New("lut: triple count does not match size")

	// ErrMalformed is returned for lines that cannot be parsed.
	ErrMalformed = errors.New("lut: malformed line")

	// ErrUnsupported is returned for 1D tables.
	ErrUnsupported = errors.New("lut: unsupported table type")
)

// MaxSize bounds LUT_3D_SIZE. 256³ triples already take 768 MiB as float32.
const MaxSize = 256

// Table is a parsed 3D lookup table. Data holds Size³ RGB triples with red
// varying fastest, then green, then blue.
type Table struct {
	Title string
	Size  int
	Data  []float32
}

// Parse reads a cube table.
func Parse(r io.Reader) (*Table, error) {
	t := &Table{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	want := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch strings.ToUpper(fields[0]) {
		case "TITLE":
			t.Title = strings.Trim(strings.TrimSpace(line[len(fields[0]):]), `"`)
			continue
		case "DOMAIN_MIN", "DOMAIN_MAX", "LUT_3D_INPUT_RANGE":
			continue
		case "LUT_1D_SIZE":
			return nil, fmt.Errorf("%w: line %d: 1D tables are not supported", ErrUnsupported, lineNo)
		case "LUT_3D_SIZE":
			if len(fields) != 2 {
				return nil, fmt.Errorf("%w: line %d: %q", ErrMalformed, lineNo, line)
			}
			if t.Size != 0 {
				return nil, fmt.Errorf("%w: line %d: repeated LUT_3D_SIZE", ErrMalformed, lineNo)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, lineNo, err)
			}
			if n <= 0 {
				return nil, fmt.Errorf("%w: line %d", ErrMissingSize, lineNo)
			}
			if n > MaxSize {
				return nil, fmt.Errorf("%w: line %d: size %d exceeds %d", ErrUnsupported, lineNo, n, MaxSize)
			}
			t.Size = n
			want = n * n * n
			t.Data = make([]float32, 0, want*3)
			continue
		}

		if t.Size == 0 {
			return nil, fmt.Errorf("%w: data at line %d", ErrMissingSize, lineNo)
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: want 3 values, got %d", ErrMalformed, lineNo, len(fields))
		}
		if len(t.Data) >= want*3 {
			return nil, fmt.Errorf("%w: more than %d triples", ErrSizeMismatch, want)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, lineNo, err)
			}
			t.Data = append(t.Data, float32(v))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lut: read: %w", err)
	}
	if t.Size == 0 {
		return nil, ErrMissingSize
	}
	if got := len(t.Data) / 3; got != want {
		return nil, fmt.Errorf("%w: got %d triples, want %d (size %d)", ErrSizeMismatch, got, want, t.Size)
	}
	return t, nil
}

// Load parses the named file from fsys.
func Load(fsys fs.FS, name string) (*Table, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("lut: open %s: %w", name, err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// Identity returns an identity table of the given size.
func Identity(size int) *Table {
	t := &Table{Title: "identity", Size: size, Data: make([]float32, 0, size*size*size*3)}
	scale := float32(1)
	if size > 1 {
		scale = 1 / float32(size-1)
	}
	for b := 0; b < size; b++ {
		for g := 0; g < size; g++ {
			for r := 0; r < size; r++ {
				t.Data = append(t.Data, float32(r)*scale, float32(g)*scale, float32(b)*scale)
			}
		}
	}
	return t
}

// At returns the triple at lattice point (r, g, b).
func (t *Table) At(r, g, b int) [3]float32 {
	i := ((b*t.Size+g)*t.Size + r) * 3
	return [3]float32{t.Data[i], t.Data[i+1], t.Data[i+2]}
}

// Sample returns the trilinearly interpolated color at normalized (r, g, b).
func (t *Table) Sample(r, g, b float32) [3]float32 {
	n := float32(t.Size - 1)
	fr, fg, fb := clamp01(r)*n, clamp01(g)*n, clamp01(b)*n
	r0, g0, b0 := int(fr), int(fg), int(fb)
	r1, g1, b1 := min(r0+1, t.Size-1), min(g0+1, t.Size-1), min(b0+1, t.Size-1)
	tr, tg, tb := fr-float32(r0), fg-float32(g0), fb-float32(b0)

	c000, c100 := t.At(r0, g0, b0), t.At(r1, g0, b0)
	c010, c110 := t.At(r0, g1, b0), t.At(r1, g1, b0)
	c001, c101 := t.At(r0, g0, b1), t.At(r1, g0, b1)
	c011, c111 := t.At(r0, g1, b1), t.At(r1, g1, b1)

	var out [3]float32
	for k := 0; k < 3; k++ {
		near := lerp(lerp(c000[k], c100[k], tr), lerp(c010[k], c110[k], tr), tg)
		far := lerp(lerp(c001[k], c101[k], tr), lerp(c011[k], c111[k], tr), tg)
		out[k] = lerp(near, far, tb)
	}
	return out
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

func lerp(a, b, t float32) float32 { return a + (b-a)*t }
