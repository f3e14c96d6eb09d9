package mjpeg

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"testing"

	"github.com/gogpu/filmlook/recording"
)

func frame(i, w, h int) recording.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for k := range img.Pix {
		img.Pix[k] = 200
	}
	return recording.Frame{Index: i, Image: img}
}

func TestWriter_Stream(t *testing.T) {
	var buf bytes.Buffer
	w, err := recording.NewWriter("mjpeg", &buf, recording.WriterConfig{Width: 8, Height: 6, Quality: 90})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := w.WriteFrame(frame(i, 8, 6)); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if n := bytes.Count(buf.Bytes(), []byte{0xFF, 0xD8, 0xFF}); n != 2 {
		t.Errorf("stream holds %d JPEG images, want 2", n)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil || cfg.Width != 8 || cfg.Height != 6 {
		t.Errorf("first frame = %+v, %v; want 8x6", cfg, err)
	}
}

func TestWriter_Errors(t *testing.T) {
	w := New(io.Discard, recording.WriterConfig{Width: 8, Height: 6})
	if err := w.WriteFrame(frame(0, 4, 4)); !errors.Is(err, recording.ErrFrameSize) {
		t.Errorf("wrong size = %v, want ErrFrameSize", err)
	}
	if w.Frames() != 0 {
		t.Errorf("Frames = %d, want 0", w.Frames())
	}
	_ = w.Close()
	if err := w.WriteFrame(frame(0, 8, 6)); !errors.Is(err, recording.ErrWriterClosed) {
		t.Errorf("after Close = %v, want ErrWriterClosed", err)
	}
}
