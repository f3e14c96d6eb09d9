package filmlook

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"

	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/internal/effect"
	"github.com/gogpu/filmlook/internal/texpool"
	"github.com/gogpu/filmlook/preset"
	"github.com/gogpu/filmlook/surface"
)

// Errors.
var (
	// ErrEngineUnusable is returned by every render call of an engine whose
	// device is missing or whose critical programs failed to compile.
	ErrEngineUnusable = errors.New("filmlook: engine unusable")

	// ErrEngineClosed is returned after Close.
	ErrEngineClosed = errors.New("filmlook: engine closed")

	// ErrNilImage is returned for nil or empty input images.
	ErrNilImage = errors.New("filmlook: nil or empty image")

	// ErrNilTexture is returned for nil source or destination textures.
	ErrNilTexture = errors.New("filmlook: nil texture")

	// ErrNilDrawable is returned when RenderLive gets no drawable.
	ErrNilDrawable = errors.New("filmlook: nil drawable")

	// ErrSizeMismatch is returned when source and destination differ in size.
	ErrSizeMismatch = errors.New("filmlook: source and destination sizes differ")

	// ErrProgramMissing is recorded when a step needs a program that did
	// not compile.
	ErrProgramMissing = errors.New("filmlook: program not compiled")

	// ErrScratchUnavailable is recorded when a step's scratch textures
	// cannot be leased.
	ErrScratchUnavailable = errors.New("filmlook: scratch texture unavailable")

	// ErrNoLUTSource is recorded when a preset names a LUT but the engine
	// has no LUT directory.
	ErrNoLUTSource = errors.New("filmlook: no LUT source configured")
)

// stillSeed seeds procedural noise for stills and gallery previews, so
// repeated renders are byte-identical.
const stillSeed = 1

// TextureStats is a snapshot of the engine's texture pool.
type TextureStats = texpool.Stats

// Engine owns a device, its compiled effect programs, a texture pool and a
// LUT cache, and renders presets at a quality tier.
//
// Engine is safe for concurrent use. Locks cover cache bookkeeping only and
// are never held across GPU submission.
type Engine struct {
	dev     gpu.Device
	ownsDev bool
	opts    options

	programs map[string]gpu.Program
	initErr  error
	pool     *texpool.Pool

	lutMu    sync.Mutex
	luts     map[string]*lutRef
	lutGroup singleflight.Group

	diagMu sync.Mutex
	diags  []Diagnostic

	frames atomic.Uint64
	start  time.Time
	closed atomic.Bool
}

// New creates an engine on dev and compiles every effect program.
//
// Compile failures are recorded as diagnostics. If dev is nil or a critical
// program failed, the engine is returned unusable: Err reports why and every
// render call fails with an error wrapping ErrEngineUnusable.
func New(dev gpu.Device, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{
		dev:      dev,
		opts:     o,
		programs: make(map[string]gpu.Program),
		luts:     make(map[string]*lutRef),
		start:    time.Now(),
	}
	if dev == nil {
		e.initErr = fmt.Errorf("%w: %w", ErrEngineUnusable, gpu.ErrNoGPU)
		return e
	}
	e.pool = texpool.New(dev)
	e.compile()
	return e
}

// NewHost creates an engine on its own host device.
func NewHost(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	dev := gpu.NewHostDevice(gpu.HostOptions{Workers: o.workers, ValidateShaders: o.validateShaders})
	e := New(dev, opts...)
	e.ownsDev = true
	return e
}

// Open creates an engine on the first hardware adapter, falling back to a
// host device when none can be opened.
func Open(opts ...Option) *Engine {
	dev, err := gpu.OpenHALDevice()
	if err != nil {
		slogger().Warn("filmlook: no GPU device, using host device", "err", err)
		return NewHost(opts...)
	}
	e := New(dev, opts...)
	e.ownsDev = true
	if e.initErr != nil {
		slogger().Warn("filmlook: GPU engine unusable, using host device", "err", e.initErr)
		e.Close()
		return NewHost(opts...)
	}
	return e
}

// OpenGPU creates an engine on the first hardware adapter without a host
// fallback. When no adapter can be opened the engine is unusable.
func OpenGPU(opts ...Option) *Engine {
	dev, err := gpu.OpenHALDevice()
	if err != nil {
		e := New(nil, opts...)
		e.initErr = fmt.Errorf("%w: %w", ErrEngineUnusable, err)
		return e
	}
	e := New(dev, opts...)
	e.ownsDev = true
	return e
}

func (e *Engine) compile() {
	var failed []string
	for _, src := range effect.Sources() {
		prog, err := e.dev.CompileProgram(src)
		if err != nil {
			e.diagnose(Diagnostic{Stage: StageCompile, Program: src.Name, Err: err})
			if effect.Critical(src.Name) {
				failed = append(failed, src.Name)
			}
			continue
		}
		e.programs[src.Name] = prog
	}
	if len(failed) > 0 {
		e.initErr = fmt.Errorf("%w: critical programs failed: %s", ErrEngineUnusable, strings.Join(failed, ", "))
		slogger().Warn("filmlook: engine unusable", "device", e.dev.Name(), "failed", failed)
		return
	}
	slogger().Info("filmlook: engine ready", "device", e.dev.Name(), "programs", len(e.programs))
}

// Err returns nil when the engine can render, or why it cannot.
func (e *Engine) Err() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.initErr
}

// Usable reports whether Err is nil.
func (e *Engine) Usable() bool { return e.Err() == nil }

// Device returns the engine's device.
func (e *Engine) Device() gpu.Device { return e.dev }

// ApplyFilter renders img at Capture tier and blocks until the result is
// ready. The result has the input's dimensions with its origin at (0, 0).
func (e *Engine) ApplyFilter(img image.Image, p preset.Preset) (*image.RGBA, error) {
	return e.applyImage(img, &p, Capture)
}

// ApplyFilterPreview renders a gallery thumbnail. Images whose longer edge
// exceeds the thumbnail size are downscaled first.
func (e *Engine) ApplyFilterPreview(img image.Image, p preset.Preset) (*image.RGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNilImage
	}
	return e.applyImage(downscale(img, e.opts.thumbnailSize), &p, GalleryPreview)
}

func (e *Engine) applyImage(img image.Image, p *preset.Preset, tier Tier) (*image.RGBA, error) {
	if err := e.Err(); err != nil {
		return nil, err
	}
	src, err := e.ImageToTexture(img)
	if err != nil {
		return nil, err
	}
	defer e.dev.DestroyTexture(src)
	return e.renderSync(src, p, tier, stillSeed, 0)
}

// RenderFrame renders one video frame synchronously and reads it back.
// Procedural noise advances with every call.
func (e *Engine) RenderFrame(frame gpu.Texture, p preset.Preset, tier Tier) (*image.RGBA, error) {
	seed, t := e.nextFrame()
	return e.renderSync(frame, &p, tier, seed, t)
}

func (e *Engine) renderSync(src gpu.Texture, p *preset.Preset, tier Tier, seed, t float32) (*image.RGBA, error) {
	if err := e.Err(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, ErrNilTexture
	}
	out, err := e.pool.Lease(src.Width(), src.Height(), gpu.FormatBGRA8, gpu.UsageReadback)
	if err != nil {
		return nil, fmt.Errorf("filmlook: lease readback texture: %w", err)
	}
	defer out.Release()

	if _, err := e.execute(job{src: src, dst: out.Texture(), preset: p, tier: tier, seed: seed, time: t, mode: submitSync}); err != nil {
		return nil, err
	}
	return e.TextureToImage(out.Texture())
}

// RenderLive renders frame at LivePreview tier into d without blocking.
// d is presented when the GPU finishes, or discarded if rendering fails.
// frame must stay alive until done runs; done may be nil.
func (e *Engine) RenderLive(frame gpu.Texture, p preset.Preset, d surface.Drawable, done func(error)) error {
	if d == nil {
		return ErrNilDrawable
	}
	seed, t := e.nextFrame()
	_, err := e.execute(job{
		src: frame, dst: d.Texture(), preset: &p, tier: LivePreview,
		seed: seed, time: t, mode: submitAsync,
		onDone: func(err error) {
			if err != nil {
				d.Discard()
			} else {
				d.Present()
			}
			if done != nil {
				done(err)
			}
		},
	})
	if err != nil {
		d.Discard()
		return err
	}
	return nil
}

// Render executes the graph for tier from src into dst and blocks until it
// completes. It reports the executed and skipped passes.
func (e *Engine) Render(src, dst gpu.Texture, p preset.Preset, tier Tier) (Result, error) {
	seed, t := float32(stillSeed), float32(0)
	if tier == LivePreview {
		seed, t = e.nextFrame()
	}
	return e.execute(job{src: src, dst: dst, preset: &p, tier: tier, seed: seed, time: t, mode: submitSync})
}

// nextFrame returns the noise seed and animation time of the next frame.
func (e *Engine) nextFrame() (float32, float32) {
	n := e.frames.Add(1)
	return float32(n % (1 << 24)), float32(time.Since(e.start).Seconds())
}

// PoolStats returns a snapshot of the texture pool.
func (e *Engine) PoolStats() TextureStats {
	if e.pool == nil {
		return TextureStats{}
	}
	return e.pool.Stats()
}

// PurgeTextures destroys idle pooled textures and returns how many were
// destroyed.
func (e *Engine) PurgeTextures() int {
	if e.pool == nil {
		return 0
	}
	n := e.pool.Purge()
	slogger().Debug("filmlook: purged textures", "count", n)
	return n
}

// Close releases the pool and the LUT cache, and the device when the engine
// created it. Close is idempotent.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	if e.dev == nil {
		return
	}
	if e.ownsDev {
		// Drains submitted work first.
		e.dev.Close()
	}
	e.ClearLUTCache()
	e.pool.Close()
}

// downscale fits img into a max×max box, keeping the aspect ratio.
func downscale(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return img
	}
	if w >= h {
		h = max(1, h*maxEdge/w)
		w = maxEdge
	} else {
		w = max(1, w*maxEdge/h)
		h = maxEdge
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
