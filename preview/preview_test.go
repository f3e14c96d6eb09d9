package preview

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/filmlook"
	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/preset"
	"github.com/gogpu/filmlook/surface"
)

func setup(t *testing.T, w, h int) (*filmlook.Engine, *surface.Offscreen, preset.Preset) {
	t.Helper()
	e := filmlook.NewHost(filmlook.WithWorkers(2))
	t.Cleanup(e.Close)
	s, err := surface.NewOffscreen(e.Device(), surface.Options{Width: w, Height: h})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	p, err := preset.Lookup("portra-400")
	if err != nil {
		t.Fatal(err)
	}
	return e, s, p
}

func newFrame(t *testing.T, e *filmlook.Engine, w, h int) gpu.Texture {
	t.Helper()
	tex, err := e.Device().CreateTexture(gpu.Desc2D(w, h, gpu.FormatRGBA32F, gpu.UsageShaderRead))
	if err != nil {
		t.Fatal(err)
	}
	return tex
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDeliver_NeverBlocksAndDrops(t *testing.T) {
	e, s, p := setup(t, 8, 8)
	l := New(e, s, p)
	tex := newFrame(t, e, 8, 8)

	var released atomic.Int32
	for i := 0; i < 1000; i++ {
		l.Deliver(tex, func() { released.Add(1) })
	}
	st := l.Stats()
	if st.Delivered != 1000 || st.Dropped != 999 {
		t.Errorf("stats = %+v, want 1000 delivered, 999 dropped", st)
	}
	if released.Load() != 999 {
		t.Errorf("released = %d, want 999", released.Load())
	}

	l.Close()
	if released.Load() != 1000 {
		t.Errorf("released after Close = %d, want 1000", released.Load())
	}
	if err := l.Tick(); !errors.Is(err, ErrClosed) {
		t.Errorf("Tick after Close = %v, want ErrClosed", err)
	}
}

func TestTick_NoFrame(t *testing.T) {
	e, s, p := setup(t, 8, 8)
	l := New(e, s, p)
	if err := l.Tick(); err != nil {
		t.Fatalf("Tick without frame: %v", err)
	}
	if s.Presented() != 0 {
		t.Error("presented without a frame")
	}
}

func TestTick_RendersAndReleases(t *testing.T) {
	e, s, p := setup(t, 16, 16)
	l := New(e, s, p)

	var released atomic.Int32
	l.Deliver(newFrame(t, e, 16, 16), func() { released.Add(1) })
	if err := l.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	waitFor(t, "render", func() bool { return l.Stats().Rendered == 1 })
	if s.Presented() != 1 {
		t.Errorf("Presented = %d, want 1", s.Presented())
	}

	// A newer frame releases the rendered one without counting a drop.
	l.Deliver(newFrame(t, e, 16, 16), nil)
	waitFor(t, "release", func() bool { return released.Load() == 1 })
	if st := l.Stats(); st.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", st.Dropped)
	}
}

func TestTick_ResolutionChange(t *testing.T) {
	e, s, p := setup(t, 1920, 1080)
	l := New(e, s, p)

	for i, size := range [][2]int{{1920, 1080}, {1280, 720}} {
		l.Deliver(newFrame(t, e, size[0], size[1]), nil)
		if err := l.Tick(); err != nil {
			t.Fatalf("Tick %dx%d: %v", size[0], size[1], err)
		}
		want := uint64(i + 1)
		waitFor(t, "render", func() bool { return l.Stats().Rendered == want })
		if s.Width() != size[0] || s.Height() != size[1] {
			t.Errorf("surface = %dx%d, want %dx%d", s.Width(), s.Height(), size[0], size[1])
		}
	}
	if st := l.Stats(); st.Failed != 0 {
		t.Errorf("Failed = %d, want 0", st.Failed)
	}
}

func TestTick_BusySurface(t *testing.T) {
	e, _, p := setup(t, 8, 8)
	s, err := surface.NewOffscreen(e.Device(), surface.Options{Width: 8, Height: 8, Buffers: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	held, err := s.NextDrawable()
	if err != nil {
		t.Fatal(err)
	}

	l := New(e, s, p)
	l.Deliver(newFrame(t, e, 8, 8), nil)
	if err := l.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if st := l.Stats(); st.Busy != 1 {
		t.Errorf("Busy = %d, want 1", st.Busy)
	}
	held.Discard()
}

func TestRun_StopsOnCancel(t *testing.T) {
	e, s, p := setup(t, 8, 8)
	l := New(e, s, p, WithFPS(200))
	l.Deliver(newFrame(t, e, 8, 8), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	waitFor(t, "three frames", func() bool { return l.Stats().Rendered >= 3 })
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestRun_StopsOnUnusableEngine(t *testing.T) {
	e, s, p := setup(t, 8, 8)
	l := New(e, s, p, WithFPS(200))
	l.Deliver(newFrame(t, e, 8, 8), nil)
	e.Close()

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	select {
	case err := <-done:
		if !errors.Is(err, filmlook.ErrEngineClosed) {
			t.Errorf("Run = %v, want ErrEngineClosed", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not stop on a closed engine")
	}
}
