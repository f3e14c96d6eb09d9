// Package preview drives the live viewfinder.
//
// A capture session delivers frames at its own pace through Deliver, which
// only swaps a pointer and never waits for the GPU. A display loop renders
// whatever frame is cached at a fixed rate. Frames that are superseded
// before the loop picks them up are dropped and released.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gogpu/filmlook"
	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/preset"
	"github.com/gogpu/filmlook/surface"
)

// DefaultFPS is the display rate used when none is configured.
const DefaultFPS = 30

// ErrClosed is returned by Tick and Run after Close.
var ErrClosed = errors.New("preview: loop closed")

// frame is a delivered texture shared between the cache and in-flight
// renders. The owner's release runs when the last reference goes.
type frame struct {
	tex      gpu.Texture
	release  func()
	refs     atomic.Int32
	rendered atomic.Bool
}

// acquire takes a reference unless the frame is already released.
func (f *frame) acquire() bool {
	for {
		n := f.refs.Load()
		if n <= 0 {
			return false
		}
		if f.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (f *frame) unref() {
	if f.refs.Add(-1) == 0 && f.release != nil {
		f.release()
	}
}

// Stats counts frames since the loop was created.
type Stats struct {
	Delivered uint64
	Rendered  uint64
	// Dropped frames were replaced before any render picked them up.
	Dropped uint64
	// Busy ticks found no free drawable and rendered nothing.
	Busy uint64
	// Failed renders discarded their drawable.
	Failed uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithFPS sets the display rate.
func WithFPS(fps int) Option {
	return func(l *Loop) {
		if fps > 0 {
			l.interval = time.Second / time.Duration(fps)
		}
	}
}

// Loop renders the most recent frame to a surface at a fixed rate.
//
// Deliver, SetPreset and Stats are safe to call from any goroutine. Tick
// and Run belong to the display goroutine.
type Loop struct {
	engine   *filmlook.Engine
	surf     surface.Surface
	interval time.Duration

	preset atomic.Pointer[preset.Preset]
	latest atomic.Pointer[frame]
	closed atomic.Bool

	delivered atomic.Uint64
	rendered  atomic.Uint64
	dropped   atomic.Uint64
	busy      atomic.Uint64
	failed    atomic.Uint64
}

// New creates a loop rendering p through e into s.
func New(e *filmlook.Engine, s surface.Surface, p preset.Preset, opts ...Option) *Loop {
	l := &Loop{engine: e, surf: s, interval: time.Second / DefaultFPS}
	for _, opt := range opts {
		opt(l)
	}
	l.SetPreset(p)
	return l
}

// SetPreset switches the look from the next tick on.
func (l *Loop) SetPreset(p preset.Preset) {
	p = p.Clone()
	l.preset.Store(&p)
}

// Deliver caches tex as the latest frame. release, which may be nil, runs
// once the frame is neither cached nor being rendered. Deliver never
// blocks.
func (l *Loop) Deliver(tex gpu.Texture, release func()) {
	if tex == nil {
		return
	}
	f := &frame{tex: tex, release: release}
	f.refs.Store(1)
	l.delivered.Add(1)
	if l.closed.Load() {
		f.unref()
		return
	}
	if old := l.latest.Swap(f); old != nil {
		if !old.rendered.Load() {
			l.dropped.Add(1)
		}
		old.unref()
	}
	// Close may have drained the cache between the check and the swap.
	if l.closed.Load() {
		if f := l.latest.Swap(nil); f != nil {
			f.unref()
		}
	}
}

// current returns the cached frame with a reference, or nil.
func (l *Loop) current() *frame {
	for {
		f := l.latest.Load()
		if f == nil {
			return nil
		}
		if f.acquire() {
			return f
		}
	}
}

// Tick renders the cached frame once. It returns nil when there is no
// frame yet or every drawable is still in flight.
func (l *Loop) Tick() error {
	if l.closed.Load() {
		return ErrClosed
	}
	if err := l.engine.Err(); err != nil {
		return err
	}
	f := l.current()
	if f == nil {
		return nil
	}

	w, h := f.tex.Width(), f.tex.Height()
	if l.surf.Width() != w || l.surf.Height() != h {
		if err := l.surf.Resize(w, h); err != nil {
			f.unref()
			return fmt.Errorf("preview: resize surface to %dx%d: %w", w, h, err)
		}
		filmlook.Logger().Debug("preview: surface resized", "width", w, "height", h)
	}

	d, err := l.surf.NextDrawable()
	if errors.Is(err, surface.ErrNoDrawable) {
		f.unref()
		l.busy.Add(1)
		return nil
	}
	if err != nil {
		f.unref()
		return fmt.Errorf("preview: next drawable: %w", err)
	}

	f.rendered.Store(true)
	err = l.engine.RenderLive(f.tex, *l.preset.Load(), d, func(err error) {
		if err != nil {
			l.failed.Add(1)
		} else {
			l.rendered.Add(1)
		}
		f.unref()
	})
	if err != nil {
		f.unref()
		l.failed.Add(1)
		return fmt.Errorf("preview: render: %w", err)
	}
	return nil
}

// Run ticks at the configured rate until ctx is done or the engine becomes
// unusable. Render failures of single frames are logged and skipped.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	log := filmlook.Logger()
	log.Info("preview: loop started", "interval", l.interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("preview: loop stopped", "rendered", l.rendered.Load(), "dropped", l.dropped.Load())
			return ctx.Err()
		case <-ticker.C:
			err := l.Tick()
			if err == nil {
				continue
			}
			if errors.Is(err, ErrClosed) || errors.Is(err, filmlook.ErrEngineUnusable) || errors.Is(err, filmlook.ErrEngineClosed) {
				return err
			}
			log.Warn("preview: frame skipped", "err", err)
		}
	}
}

// Stats returns the frame counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Delivered: l.delivered.Load(),
		Rendered:  l.rendered.Load(),
		Dropped:   l.dropped.Load(),
		Busy:      l.busy.Load(),
		Failed:    l.failed.Load(),
	}
}

// Close releases the cached frame. Renders in flight release their frame
// when they complete. The surface is left to its owner.
func (l *Loop) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	if f := l.latest.Swap(nil); f != nil {
		f.unref()
	}
}
