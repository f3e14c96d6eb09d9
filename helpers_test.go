package filmlook

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/preset"
)

// faultyDevice wraps a host device and injects failures.
type faultyDevice struct {
	*gpu.HostDevice

	mu          sync.Mutex
	failCompile map[string]bool
	failCreate  func(gpu.TextureDescriptor) bool
	failUnits   bool
	failCopy    bool
	discarded   int
}

func newFaultyDevice(t *testing.T) *faultyDevice {
	t.Helper()
	d := &faultyDevice{HostDevice: gpu.NewHostDevice(gpu.HostOptions{Workers: 2})}
	t.Cleanup(d.HostDevice.Close)
	return d
}

func (d *faultyDevice) CompileProgram(src gpu.ProgramSource) (gpu.Program, error) {
	d.mu.Lock()
	fail := d.failCompile[src.Name]
	d.mu.Unlock()
	if fail {
		return nil, gpu.ErrProgramUnavailable
	}
	return d.HostDevice.CompileProgram(src)
}

func (d *faultyDevice) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	d.mu.Lock()
	fail := d.failCreate != nil && d.failCreate(desc)
	d.mu.Unlock()
	if fail {
		return nil, errOutOfMemory
	}
	return d.HostDevice.CreateTexture(desc)
}

func (d *faultyDevice) NewWorkUnit(label string) (gpu.WorkUnit, error) {
	d.mu.Lock()
	fail := d.failUnits
	d.mu.Unlock()
	if fail {
		return nil, errOutOfMemory
	}
	u, err := d.HostDevice.NewWorkUnit(label)
	if err != nil {
		return nil, err
	}
	return &faultyUnit{WorkUnit: u, dev: d}, nil
}

func (d *faultyDevice) discards() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.discarded
}

// faultyUnit counts discards and fails copies on request.
type faultyUnit struct {
	gpu.WorkUnit
	dev *faultyDevice
}

func (u *faultyUnit) Copy(dst, src gpu.Texture) error {
	u.dev.mu.Lock()
	fail := u.dev.failCopy
	u.dev.mu.Unlock()
	if fail {
		return errOutOfMemory
	}
	return u.WorkUnit.Copy(dst, src)
}

func (u *faultyUnit) Discard() {
	u.dev.mu.Lock()
	u.dev.discarded++
	u.dev.mu.Unlock()
	u.WorkUnit.Discard()
}

func (d *faultyDevice) setFailCreate(fn func(gpu.TextureDescriptor) bool) {
	d.mu.Lock()
	d.failCreate = fn
	d.mu.Unlock()
}

type testError string

func (e testError) Error() string { return string(e) }

const errOutOfMemory = testError("out of device memory")

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithWorkers(2)}, opts...)
	e := NewHost(opts...)
	if err := e.Err(); err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(1, w-1)),
				G: uint8(y * 255 / max(1, h-1)),
				B: uint8((x + y) * 255 / max(1, w+h-2)),
				A: 255,
			})
		}
	}
	return img
}

// everything enables every effect.
func everything() preset.Preset {
	p, _ := preset.Lookup("portra-400")
	p.LensDistortion = preset.LensDistortion{Enabled: true, K1: 0.05, CAStrength: 0.002}
	p.BlackWhite = preset.BlackWhite{Enabled: true, RedMix: 0.3, GreenMix: 0.6, BlueMix: 0.1}
	p.Flash = preset.Flash{Enabled: true, Intensity: 0.3}
	p.CCDBloom = preset.CCDBloom{Enabled: true, Intensity: 0.2, Threshold: 0.8}
	p.Bloom.Enabled = true
	p.Vignette.Enabled = true
	p.Halation = preset.Halation{Enabled: true, Intensity: 0.3, Threshold: 0.7, Radius: 6, Color: preset.RGB{R: 1, G: 0.3, B: 0.1}}
	p.Grain.Enabled = true
	p.LightLeak = preset.LightLeak{Enabled: true, Intensity: 0.3, X: 0.9, Y: 0.1}
	p.DateStamp = preset.DateStamp{Enabled: true, Text: "03 14 98", Scale: 0.05, Opacity: 1, Color: preset.RGB{R: 1, G: 0.5}}
	p.Overlays = preset.Overlays{Enabled: true, Dust: 0.3, Scratches: 0.3, Opacity: 0.5}
	p.VHS = preset.VHS{Enabled: true, Wobble: 0.2, Bleed: 0.3, Scanlines: 0.2, Noise: 0.1}
	p.Digicam = preset.Digicam{Enabled: true, Compression: 0.3, Sharpen: 0.2, Noise: 0.05}
	p.FilmStrip = preset.FilmStrip{Enabled: true, Border: 0.08, Text: "400", TextColor: preset.RGB{R: 1, G: 0.6}}
	p.InstantFrame = preset.InstantFrame{Enabled: true, Top: 0.05, Left: 0.05, Right: 0.05, Bottom: 0.2, Color: preset.RGB{R: 0.95, G: 0.95, B: 0.92}}
	return p
}
