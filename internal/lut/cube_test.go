package lut

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gogpu/filmlook/gpu"
)

// halfTolerance bounds the rounding error of a half-precision value in [0, 1].
const halfTolerance = 1.0 / 1024

func identityCube(n int) string {
	var sb strings.Builder
	sb.WriteString("TITLE \"identity\"\n# generated\n\nDOMAIN_MIN 0 0 0\nDOMAIN_MAX 1 1 1\n")
	fmt.Fprintf(&sb, "LUT_3D_SIZE %d\n", n)
	for b := 0; b < n; b++ {
		for g := 0; g < n; g++ {
			for r := 0; r < n; r++ {
				d := float64(n - 1)
				fmt.Fprintf(&sb, "%.6f %.6f %.6f\n", float64(r)/d, float64(g)/d, float64(b)/d)
			}
		}
	}
	return sb.String()
}

func TestParse_Identity(t *testing.T) {
	tab, err := Parse(strings.NewReader(identityCube(3)))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tab.Size != 3 || len(tab.Data) != 27*3 {
		t.Fatalf("Size = %d, len(Data) = %d", tab.Size, len(tab.Data))
	}
	if tab.Title != "identity" {
		t.Errorf("Title = %q, want identity", tab.Title)
	}
	if got := tab.At(2, 1, 0); got != [3]float32{1, 0.5, 0} {
		t.Errorf("At(2,1,0) = %v, want [1 0.5 0]", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrMissingSize},
		{"comments only", "# nothing\n\n", ErrMissingSize},
		{"zero size", "LUT_3D_SIZE 0\n", ErrMissingSize},
		{"data before size", "0 0 0\nLUT_3D_SIZE 2\n", ErrMissingSize},
		{"too few triples", "LUT_3D_SIZE 2\n0 0 0\n1 1 1\n", ErrSizeMismatch},
		{"too many triples", "LUT_3D_SIZE 1\n0 0 0\n1 1 1\n", ErrSizeMismatch},
		{"bad number", "LUT_3D_SIZE 1\n0 x 0\n", ErrMalformed},
		{"two values", "LUT_3D_SIZE 1\n0 0\n", ErrMalformed},
		{"bad size", "LUT_3D_SIZE two\n", ErrMalformed},
		{"repeated size", "LUT_3D_SIZE 2\n0 0 0\n1 0 0\n0 1 0\n1 1 0\nLUT_3D_SIZE 1\n0.5 0.5 0.5\n", ErrMalformed},
		{"repeated size before data", "LUT_3D_SIZE 1\nLUT_3D_SIZE 1\n0 0 0\n", ErrMalformed},
		{"1d table", "LUT_1D_SIZE 4\n", ErrUnsupported},
		{"huge", "LUT_3D_SIZE 1000\n", ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"id.cube":  {Data: []byte(identityCube(2))},
		"bad.cube": {Data: []byte("LUT_3D_SIZE 2\n")},
	}
	if _, err := Load(fsys, "id.cube"); err != nil {
		t.Errorf("Load(id.cube): %v", err)
	}
	if _, err := Load(fsys, "bad.cube"); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Load(bad.cube) error = %v, want ErrSizeMismatch", err)
	}
	if _, err := Load(fsys, "missing.cube"); err == nil {
		t.Error("Load(missing.cube) succeeded")
	}
}

func TestIdentity_SampleIsIdentity(t *testing.T) {
	tab := Identity(17)
	for _, c := range [][3]float32{{0, 0, 0}, {0.3, 0.6, 0.9}, {1, 0.25, 0.75}} {
		got := tab.Sample(c[0], c[1], c[2])
		for k := 0; k < 3; k++ {
			if d := got[k] - c[k]; d > 1e-5 || d < -1e-5 {
				t.Errorf("Sample(%v) = %v", c, got)
				break
			}
		}
	}
}

func TestBuild_CornersSurviveHalfPrecision(t *testing.T) {
	tab, err := Parse(strings.NewReader(identityCube(3)))
	if err != nil {
		t.Fatal(err)
	}
	dev := gpu.NewHostDevice(gpu.HostOptions{Workers: 1})
	defer dev.Close()

	tex, err := Build(dev, tab, "identity")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	desc := tex.Descriptor()
	if desc.Format != gpu.FormatRGBA16F || desc.Slices() != 3 {
		t.Fatalf("descriptor = %s, want 3x3x3 rgba16f", desc.Key())
	}
	ht := tex.(*gpu.HostTexture)

	for _, r := range []float32{0, 1} {
		for _, g := range []float32{0, 1} {
			for _, b := range []float32{0, 1} {
				got := ht.Sample3D(r, g, b)
				want := [4]float32{r, g, b, 1}
				for k := 0; k < 4; k++ {
					if d := got[k] - want[k]; d > halfTolerance || d < -halfTolerance {
						t.Errorf("corner (%v,%v,%v) = %v, want %v", r, g, b, got, want)
						break
					}
				}
			}
		}
	}
}

func TestTexels_ClampsOutOfRange(t *testing.T) {
	tab := &Table{Size: 1, Data: []float32{-0.5, 2, 0.5}}
	tex, err := gpu.NewHostTexture(gpu.TextureDescriptor{Width: 1, Height: 1, Depth: 1, Format: gpu.FormatRGBA16F})
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.SetBytes(tab.Texels()); err != nil {
		t.Fatal(err)
	}
	if got := tex.Load(0, 0); got != [4]float32{0, 1, 0.5, 1} {
		t.Errorf("texel = %v, want [0 1 0.5 1]", got)
	}
}
