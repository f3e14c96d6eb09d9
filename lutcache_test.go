package filmlook

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/preset"
)

// identityCube returns an identity table in cube format.
func identityCube(n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TITLE \"identity\"\nLUT_3D_SIZE %d\n", n)
	for bl := 0; bl < n; bl++ {
		for g := 0; g < n; g++ {
			for r := 0; r < n; r++ {
				d := float64(n - 1)
				fmt.Fprintf(&b, "%g %g %g\n", float64(r)/d, float64(g)/d, float64(bl)/d)
			}
		}
	}
	return b.String()
}

func lutFS() fstest.MapFS {
	return fstest.MapFS{
		"identity.cube": {Data: []byte(identityCube(3))},
		"short.cube":    {Data: []byte("LUT_3D_SIZE 2\n0 0 0\n1 1 1\n")},
	}
}

func TestLUT_CachedOnce(t *testing.T) {
	e := newTestEngine(t, WithLUTFS(lutFS()))

	a, ok := e.LUT("identity.cube")
	if !ok {
		t.Fatalf("LUT(identity.cube) failed: %v", e.Diagnostics())
	}
	b, _ := e.LUT("identity.cube")
	if a != b {
		t.Error("second lookup returned a different texture")
	}
	if a.Width() != 3 || a.Descriptor().Slices() != 3 || a.Descriptor().Format != gpu.FormatRGBA16F {
		t.Errorf("LUT descriptor = %s, want 3x3x3:rgba16f", a.Descriptor().Key())
	}
	if n := e.LUTCacheLen(); n != 1 {
		t.Errorf("LUTCacheLen = %d, want 1", n)
	}
}

func TestLUT_ConcurrentMissLoadsOnce(t *testing.T) {
	e := newTestEngine(t, WithLUTFS(lutFS()))
	host := e.Device().(*gpu.HostDevice)
	before := host.LiveTextures()

	var wg sync.WaitGroup
	texs := make([]gpu.Texture, 16)
	for i := range texs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			texs[i], _ = e.LUT("identity.cube")
		}(i)
	}
	wg.Wait()

	for i, tex := range texs {
		if tex == nil || tex != texs[0] {
			t.Fatalf("lookup %d = %v, want the shared texture", i, tex)
		}
	}
	if n := host.LiveTextures() - before; n != 1 {
		t.Errorf("created %d LUT textures, want 1", n)
	}
}

func TestLUT_Failures(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		lut  string
		want error
	}{
		{"no source", nil, "identity.cube", ErrNoLUTSource},
		{"missing file", []Option{WithLUTFS(lutFS())}, "missing.cube", nil},
		{"size mismatch", []Option{WithLUTFS(lutFS())}, "short.cube", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, tt.opts...)
			if _, ok := e.LUT(tt.lut); ok {
				t.Fatal("LUT succeeded, want failure")
			}
			if _, ok := e.LUT(tt.lut); ok {
				t.Fatal("second LUT succeeded, want cached failure")
			}

			var lutDiags []Diagnostic
			for _, d := range e.Diagnostics() {
				if d.Stage == StageLUT {
					lutDiags = append(lutDiags, d)
				}
			}
			if len(lutDiags) != 1 || lutDiags[0].LUT != tt.lut {
				t.Fatalf("LUT diagnostics = %v, want one for %s", lutDiags, tt.lut)
			}
			if tt.want != nil && !errors.Is(lutDiags[0].Err, tt.want) {
				t.Errorf("diagnostic err = %v, want %v", lutDiags[0].Err, tt.want)
			}

			e.ClearLUTCache()
			if n := e.LUTCacheLen(); n != 0 {
				t.Errorf("LUTCacheLen after clear = %d, want 0", n)
			}
		})
	}
}

func TestLUT_FailureStillRenders(t *testing.T) {
	e := newTestEngine(t)
	p, _ := preset.Lookup("gold-200")
	withLUT, err := e.ApplyFilter(gradientImage(16, 16), p)
	if err != nil {
		t.Fatalf("ApplyFilter with unavailable LUT: %v", err)
	}
	p.LUT, p.LUTIntensity = "", 0
	without, err := e.ApplyFilter(gradientImage(16, 16), p)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(withLUT.Pix, without.Pix) {
		t.Error("a failed LUT changed the output")
	}
}

func TestLUT_IdentityIsTransparent(t *testing.T) {
	e := newTestEngine(t, WithLUTFS(lutFS()))
	img := uniformImage(8, 8, color.NRGBA{64, 128, 192, 255})

	p, _ := preset.Lookup("neutral")
	plain, err := e.ApplyFilter(img, p)
	if err != nil {
		t.Fatal(err)
	}
	p.LUT, p.LUTIntensity = "identity.cube", 1
	graded, err := e.ApplyFilter(img, p)
	if err != nil {
		t.Fatal(err)
	}
	for i := range plain.Pix {
		d := int(plain.Pix[i]) - int(graded.Pix[i])
		if d < -1 || d > 1 {
			t.Fatalf("byte %d = %d with identity LUT, want %d±1", i, graded.Pix[i], plain.Pix[i])
		}
	}
}

func TestClearLUTCache_DestroysIdleTextures(t *testing.T) {
	e := newTestEngine(t, WithLUTFS(lutFS()))
	host := e.Device().(*gpu.HostDevice)
	before := host.LiveTextures()

	if _, ok := e.LUT("identity.cube"); !ok {
		t.Fatal("LUT failed")
	}
	if host.LiveTextures() != before+1 {
		t.Fatalf("live textures = %d, want %d", host.LiveTextures(), before+1)
	}
	e.ClearLUTCache()
	if host.LiveTextures() != before {
		t.Errorf("live textures after clear = %d, want %d", host.LiveTextures(), before)
	}

	// A cleared name loads again.
	if _, ok := e.LUT("identity.cube"); !ok {
		t.Error("LUT after clear failed")
	}
}

func TestLUTRef_ReleaseAfterRetire(t *testing.T) {
	dev := gpu.NewHostDevice(gpu.HostOptions{Workers: 1})
	defer dev.Close()
	tex, err := dev.CreateTexture(gpu.Desc2D(2, 2, gpu.FormatRGBA16F, gpu.UsageShaderRead))
	if err != nil {
		t.Fatal(err)
	}
	ref := &lutRef{dev: dev, tex: tex}
	ref.refs.Add(1)

	ref.retire()
	if dev.LiveTextures() != 1 {
		t.Fatal("retire destroyed a referenced texture")
	}
	ref.release()
	if dev.LiveTextures() != 0 {
		t.Error("last release did not destroy the retired texture")
	}
	ref.release()
	ref.retire()
}
