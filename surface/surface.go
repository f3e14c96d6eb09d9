// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"

	"github.com/gogpu/filmlook/gpu"
)

// Errors.
var (
	// ErrClosed is returned when using a closed surface.
	ErrClosed = errors.New("surface: closed")

	// ErrNoDrawable is returned when every drawable is in flight.
	ErrNoDrawable = errors.New("surface: no drawable available")

	// ErrInvalidSize is returned for zero or negative dimensions.
	ErrInvalidSize = errors.New("surface: invalid size")

	// ErrNothingPresented is returned by Snapshot before the first Present.
	ErrNothingPresented = errors.New("surface: nothing presented")
)

// Drawable is a presentable texture for one frame.
//
// Exactly one of Present or Discard must be called. Both may be called from
// any goroutine, including a device completion handler.
type Drawable interface {
	// Texture returns the BGRA8 texture to render into.
	Texture() gpu.Texture

	// Present shows the rendered frame.
	Present()

	// Discard returns the drawable without showing it.
	Discard()
}

// Surface is a presentable render target.
//
// Surfaces are safe for concurrent use.
type Surface interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Resize changes the drawable size. Drawables in flight keep their old
	// size and are dropped when presented.
	Resize(width, height int) error

	// NextDrawable returns a free drawable or ErrNoDrawable.
	NextDrawable() (Drawable, error)

	// Close releases the surface textures. Close is idempotent.
	Close() error
}

// Options configures surface creation.
type Options struct {
	Width  int
	Height int

	// Buffers is the number of drawables in the ring. Zero means 3.
	Buffers int
}

func (o Options) buffers() int {
	if o.Buffers <= 0 {
		return 3
	}
	return o.Buffers
}
