package recording

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
)

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("recording: writer closed")

	// ErrFrameSize is returned when a frame does not match the configured
	// size.
	ErrFrameSize = errors.New("recording: frame size does not match writer")
)

// Frame is one filtered video frame.
type Frame struct {
	// Index counts frames from zero in append order.
	Index int

	// PTS is the presentation timestamp given to Append.
	PTS time.Duration

	Image *image.RGBA
}

// VideoWriter accepts filtered frames in presentation order.
//
// The Recorder owns the frame image only until WriteFrame returns; writers
// that keep frames must copy them.
type VideoWriter interface {
	WriteFrame(f Frame) error
	Close() error
}

// WriterConfig describes the stream a writer produces.
type WriterConfig struct {
	Width  int
	Height int

	// FPS is the nominal frame rate. Zero means 30.
	FPS int

	// Quality is the encoder quality from 1 to 100 for lossy writers.
	// Zero means the writer's default.
	Quality int
}

// Validate reports whether the configuration can produce a stream.
func (c WriterConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrFrameSize, c.Width, c.Height)
	}
	if c.FPS < 0 || c.Quality < 0 || c.Quality > 100 {
		return fmt.Errorf("recording: invalid writer config %+v", c)
	}
	return nil
}

// Rate returns FPS with the default applied.
func (c WriterConfig) Rate() int {
	if c.FPS == 0 {
		return 30
	}
	return c.FPS
}

// CheckFrame reports whether f matches the configured size.
func (c WriterConfig) CheckFrame(f Frame) error {
	if f.Image == nil {
		return fmt.Errorf("%w: frame %d has no image", ErrFrameSize, f.Index)
	}
	if s := f.Image.Bounds().Size(); s.X != c.Width || s.Y != c.Height {
		return fmt.Errorf("%w: frame %d is %dx%d, writer is %dx%d", ErrFrameSize, f.Index, s.X, s.Y, c.Width, c.Height)
	}
	return nil
}

// MemoryWriter keeps copies of written frames.
type MemoryWriter struct {
	mu     sync.Mutex
	frames []Frame
	closed bool
}

var _ VideoWriter = (*MemoryWriter)(nil)

// WriteFrame stores a copy of f.
func (w *MemoryWriter) WriteFrame(f Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	if f.Image != nil {
		img := image.NewRGBA(f.Image.Bounds())
		copy(img.Pix, f.Image.Pix)
		f.Image = img
	}
	w.frames = append(w.frames, f)
	return nil
}

// Close marks the writer closed.
func (w *MemoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// Frames returns the written frames.
func (w *MemoryWriter) Frames() []Frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Frame(nil), w.frames...)
}

// Closed reports whether Close was called.
func (w *MemoryWriter) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
