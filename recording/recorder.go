package recording

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/filmlook"
	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/preset"
)

// Recorder errors.
var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("recording: recorder closed")

	// ErrOutOfOrder is returned for a timestamp earlier than its
	// predecessor.
	ErrOutOfOrder = errors.New("recording: timestamp out of order")
)

// Recorder renders appended frames and writes them in order.
//
// Append calls are serialized; concurrent callers are written in the order
// they acquire the recorder. Recorder is safe for concurrent use.
type Recorder struct {
	engine *filmlook.Engine
	preset preset.Preset
	writer VideoWriter

	mu      sync.Mutex
	err     error
	closed  bool
	frames  int
	lastPTS time.Duration
}

// NewRecorder creates a recorder writing p-filtered frames to w. The
// preset is copied.
func NewRecorder(e *filmlook.Engine, p preset.Preset, w VideoWriter) *Recorder {
	return &Recorder{engine: e, preset: p.Clone(), writer: w}
}

// Append renders frame and writes it with timestamp pts. The caller keeps
// ownership of frame; it is no longer used when Append returns.
func (r *Recorder) Append(frame gpu.Texture, pts time.Duration) error {
	return r.append(pts, func() (*image.RGBA, error) {
		return r.engine.RenderFrame(frame, r.preset, filmlook.Capture)
	})
}

// AppendImage uploads img and appends it.
func (r *Recorder) AppendImage(img image.Image, pts time.Duration) error {
	return r.append(pts, func() (*image.RGBA, error) {
		tex, err := r.engine.ImageToTexture(img)
		if err != nil {
			return nil, err
		}
		defer r.engine.ReleaseTexture(tex)
		return r.engine.RenderFrame(tex, r.preset, filmlook.Capture)
	})
}

func (r *Recorder) append(pts time.Duration, render func() (*image.RGBA, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.err != nil {
		return r.err
	}
	if r.frames > 0 && pts < r.lastPTS {
		return r.fail(fmt.Errorf("%w: frame %d at %v after %v", ErrOutOfOrder, r.frames, pts, r.lastPTS))
	}

	img, err := render()
	if err != nil {
		return r.fail(fmt.Errorf("recording: render frame %d: %w", r.frames, err))
	}
	if err := r.writer.WriteFrame(Frame{Index: r.frames, PTS: pts, Image: img}); err != nil {
		return r.fail(fmt.Errorf("recording: write frame %d: %w", r.frames, err))
	}
	r.frames++
	r.lastPTS = pts
	return nil
}

// fail records the first error. Must be called with r.mu held.
func (r *Recorder) fail(err error) error {
	r.err = err
	filmlook.Logger().Warn("recording: stopped", "frames", r.frames, "err", err)
	return err
}

// Frames returns the number of written frames.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Err returns the first error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// SetPreset changes the look for subsequent frames.
func (r *Recorder) SetPreset(p preset.Preset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preset = p.Clone()
}

// Close closes the writer and returns the first error of the recording,
// or the writer's close error.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.err
	}
	r.closed = true
	if err := r.writer.Close(); err != nil && r.err == nil {
		r.err = fmt.Errorf("recording: close writer: %w", err)
	}
	filmlook.Logger().Info("recording: closed", "frames", r.frames, "err", r.err)
	return r.err
}
