// Package y4m writes uncompressed YUV4MPEG2 streams with full-resolution
// (4:4:4) chroma, readable by ffmpeg and most encoders.
//
// Import it for its side effect to register the "y4m" writer:
//
//	import _ "github.com/gogpu/filmlook/recording/writers/y4m"
package y4m

import (
	"bufio"
	"fmt"
	"image/color"
	"io"

	"github.com/gogpu/filmlook/recording"
)

func init() {
	recording.Register("y4m", func(out io.Writer, cfg recording.WriterConfig) (recording.VideoWriter, error) {
		return New(out, cfg), nil
	})
}

// Writer emits one FRAME per WriteFrame. The stream header is written
// with the first frame.
type Writer struct {
	cfg    recording.WriterConfig
	out    *bufio.Writer
	plane  []byte
	header bool
	closed bool
}

// New creates a writer on out.
func New(out io.Writer, cfg recording.WriterConfig) *Writer {
	return &Writer{cfg: cfg, out: bufio.NewWriter(out), plane: make([]byte, cfg.Width*cfg.Height*3)}
}

// Header returns the stream header line.
func (w *Writer) Header() string {
	return fmt.Sprintf("YUV4MPEG2 W%d H%d F%d:1 Ip A1:1 C444\n", w.cfg.Width, w.cfg.Height, w.cfg.Rate())
}

// WriteFrame converts f to Y, Cb and Cr planes. Alpha is dropped.
func (w *Writer) WriteFrame(f recording.Frame) error {
	if w.closed {
		return recording.ErrWriterClosed
	}
	if err := w.cfg.CheckFrame(f); err != nil {
		return err
	}
	if !w.header {
		if _, err := w.out.WriteString(w.Header()); err != nil {
			return err
		}
		w.header = true
	}

	n := w.cfg.Width * w.cfg.Height
	img := f.Image
	b := img.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < w.cfg.Width; x++ {
			yy, cb, cr := color.RGBToYCbCr(row[x*4], row[x*4+1], row[x*4+2])
			w.plane[i], w.plane[n+i], w.plane[2*n+i] = yy, cb, cr
			i++
		}
	}
	if _, err := w.out.WriteString("FRAME\n"); err != nil {
		return err
	}
	_, err := w.out.Write(w.plane)
	return err
}

// Close flushes buffered output. The underlying writer is not closed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.out.Flush()
}
