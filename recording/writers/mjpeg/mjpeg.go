// Package mjpeg writes a Motion JPEG elementary stream: every frame is a
// complete baseline JPEG, written back to back.
//
// Import it for its side effect to register the "mjpeg" writer:
//
//	import _ "github.com/gogpu/filmlook/recording/writers/mjpeg"
package mjpeg

import (
	"bufio"
	"image/jpeg"
	"io"

	"github.com/gogpu/filmlook/recording"
)

// DefaultQuality is used when the config leaves Quality at zero.
const DefaultQuality = 85

func init() {
	recording.Register("mjpeg", func(out io.Writer, cfg recording.WriterConfig) (recording.VideoWriter, error) {
		return New(out, cfg), nil
	})
}

// Writer encodes frames as JPEG.
type Writer struct {
	cfg     recording.WriterConfig
	out     *bufio.Writer
	quality int
	closed  bool
	frames  int
}

// New creates a writer on out.
func New(out io.Writer, cfg recording.WriterConfig) *Writer {
	q := cfg.Quality
	if q == 0 {
		q = DefaultQuality
	}
	return &Writer{cfg: cfg, out: bufio.NewWriter(out), quality: q}
}

// WriteFrame encodes f.
func (w *Writer) WriteFrame(f recording.Frame) error {
	if w.closed {
		return recording.ErrWriterClosed
	}
	if err := w.cfg.CheckFrame(f); err != nil {
		return err
	}
	if err := jpeg.Encode(w.out, f.Image, &jpeg.Options{Quality: w.quality}); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Frames returns the number of encoded frames.
func (w *Writer) Frames() int { return w.frames }

// Close flushes buffered output. The underlying writer is not closed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.out.Flush()
}
