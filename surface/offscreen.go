// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/filmlook/gpu"
)

// Offscreen is a Surface backed by device textures.
type Offscreen struct {
	dev     gpu.Device
	buffers int

	mu       sync.Mutex
	width    int
	height   int
	gen      uint64
	free     []*drawable
	front    *drawable
	inFlight int
	closed   bool

	presented atomic.Uint64
	discarded atomic.Uint64
}

var _ Surface = (*Offscreen)(nil)

// NewOffscreen creates an offscreen surface on dev.
func NewOffscreen(dev gpu.Device, opts Options) (*Offscreen, error) {
	if dev == nil {
		return nil, fmt.Errorf("surface: offscreen: nil device")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	return &Offscreen{dev: dev, buffers: opts.buffers(), width: opts.Width, height: opts.Height}, nil
}

type drawable struct {
	s    *Offscreen
	tex  gpu.Texture
	gen  uint64
	done atomic.Bool
}

func (d *drawable) Texture() gpu.Texture { return d.tex }

func (d *drawable) Present() {
	if d.done.CompareAndSwap(false, true) {
		d.s.finish(d, true)
	}
}

func (d *drawable) Discard() {
	if d.done.CompareAndSwap(false, true) {
		d.s.finish(d, false)
	}
}

// Width returns the current drawable width.
func (s *Offscreen) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

// Height returns the current drawable height.
func (s *Offscreen) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// Resize changes the size of drawables handed out from now on. The last
// presented frame is dropped.
func (s *Offscreen) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if width == s.width && height == s.height {
		s.mu.Unlock()
		return nil
	}
	stale := s.takeIdle()
	s.width, s.height = width, height
	s.gen++
	s.mu.Unlock()

	s.destroy(stale)
	return nil
}

// NextDrawable returns a free drawable, creating one while the ring is not
// full.
func (s *Offscreen) NextDrawable() (Drawable, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if n := len(s.free); n > 0 {
		d := s.free[n-1]
		s.free = s.free[:n-1]
		s.inFlight++
		s.mu.Unlock()
		d.done.Store(false)
		return d, nil
	}
	total := s.inFlight + len(s.free)
	if s.front != nil {
		total++
	}
	if total >= s.buffers {
		s.mu.Unlock()
		return nil, ErrNoDrawable
	}
	s.inFlight++
	w, h, gen := s.width, s.height, s.gen
	s.mu.Unlock()

	desc := gpu.Desc2D(w, h, gpu.FormatBGRA8, gpu.UsagePresent)
	desc.Label = "surface:drawable"
	tex, err := s.dev.CreateTexture(desc)
	if err != nil {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
		return nil, fmt.Errorf("surface: create drawable: %w", err)
	}
	return &drawable{s: s, tex: tex, gen: gen}, nil
}

func (s *Offscreen) finish(d *drawable, present bool) {
	s.mu.Lock()
	s.inFlight--
	if s.closed || d.gen != s.gen {
		s.mu.Unlock()
		s.dev.DestroyTexture(d.tex)
		return
	}
	if present {
		if s.front != nil {
			s.free = append(s.free, s.front)
		}
		s.front = d
		s.presented.Add(1)
	} else {
		s.free = append(s.free, d)
		s.discarded.Add(1)
	}
	s.mu.Unlock()
}

// Presented returns the number of presented frames.
func (s *Offscreen) Presented() uint64 { return s.presented.Load() }

// Discarded returns the number of discarded drawables.
func (s *Offscreen) Discarded() uint64 { return s.discarded.Load() }

// Snapshot reads back the last presented frame, premultiplied as
// image.RGBA requires.
func (s *Offscreen) Snapshot() (*image.RGBA, error) {
	s.mu.Lock()
	front := s.front
	s.mu.Unlock()
	if front == nil {
		return nil, ErrNothingPresented
	}
	data, err := s.dev.ReadTexture(front.tex)
	if err != nil {
		return nil, fmt.Errorf("surface: snapshot: %w", err)
	}
	w, h := front.tex.Width(), front.tex.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(data) && i+3 < len(img.Pix); i += 4 {
		a := uint32(data[i+3])
		img.Pix[i] = uint8((uint32(data[i+2])*a + 127) / 255)
		img.Pix[i+1] = uint8((uint32(data[i+1])*a + 127) / 255)
		img.Pix[i+2] = uint8((uint32(data[i])*a + 127) / 255)
		img.Pix[i+3] = data[i+3]
	}
	return img, nil
}

// Close destroys idle drawables. Drawables in flight are destroyed when
// they are presented or discarded.
func (s *Offscreen) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stale := s.takeIdle()
	s.mu.Unlock()

	s.destroy(stale)
	return nil
}

// takeIdle detaches the free drawables and the front buffer. Must be
// called with s.mu held.
func (s *Offscreen) takeIdle() []*drawable {
	stale := s.free
	if s.front != nil {
		stale = append(stale, s.front)
	}
	s.free, s.front = nil, nil
	return stale
}

func (s *Offscreen) destroy(ds []*drawable) {
	for _, d := range ds {
		s.dev.DestroyTexture(d.tex)
	}
}
