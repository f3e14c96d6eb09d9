package y4m

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/gogpu/filmlook/recording"
)

func TestWriter_Stream(t *testing.T) {
	var buf bytes.Buffer
	w, err := recording.NewWriter("y4m", &buf, recording.WriterConfig{Width: 3, Height: 2, FPS: 25})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	img.SetRGBA(0, 0, color.RGBA{0, 0, 0, 255})
	for i := 0; i < 2; i++ {
		if err := w.WriteFrame(recording.Frame{Index: i, Image: img}); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	header := "YUV4MPEG2 W3 H2 F25:1 Ip A1:1 C444\n"
	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte(header)) {
		t.Fatalf("header = %q", out[:min(len(out), len(header))])
	}
	frameLen := len("FRAME\n") + 3*6
	if len(out) != len(header)+2*frameLen {
		t.Fatalf("stream length = %d, want %d", len(out), len(header)+2*frameLen)
	}

	planes := out[len(header)+len("FRAME\n"):]
	if planes[0] != 0 || planes[1] != 255 {
		t.Errorf("luma = %v, want black then white", planes[:6])
	}
	if planes[6] != 128 || planes[12] != 128 {
		t.Errorf("chroma of gray = %d, %d; want 128", planes[6], planes[12])
	}
}

func TestWriter_Errors(t *testing.T) {
	w := New(io.Discard, recording.WriterConfig{Width: 3, Height: 2})
	bad := recording.Frame{Image: image.NewRGBA(image.Rect(0, 0, 2, 2))}
	if err := w.WriteFrame(bad); !errors.Is(err, recording.ErrFrameSize) {
		t.Errorf("wrong size = %v, want ErrFrameSize", err)
	}
	_ = w.Close()
	if err := w.WriteFrame(bad); !errors.Is(err, recording.ErrWriterClosed) {
		t.Errorf("after Close = %v, want ErrWriterClosed", err)
	}
}
