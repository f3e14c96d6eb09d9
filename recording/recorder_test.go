package recording

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/gogpu/filmlook"
	"github.com/gogpu/filmlook/preset"
)

func newEngine(t *testing.T) *filmlook.Engine {
	t.Helper()
	e := filmlook.NewHost(filmlook.WithWorkers(2))
	if err := e.Err(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e
}

func grayImage(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

type failingWriter struct {
	MemoryWriter
	failAt int
	err    error
}

func (w *failingWriter) WriteFrame(f Frame) error {
	if f.Index == w.failAt {
		return w.err
	}
	return w.MemoryWriter.WriteFrame(f)
}

func TestRecorder_WritesInOrder(t *testing.T) {
	e := newEngine(t)
	p, _ := preset.Lookup("portra-400")
	w := &MemoryWriter{}
	rec := NewRecorder(e, p, w)

	for i := 0; i < 3; i++ {
		tex, err := e.ImageToTexture(grayImage(16, 12, 120))
		if err != nil {
			t.Fatal(err)
		}
		pts := time.Duration(i) * time.Second / 30
		if err := rec.Append(tex, pts); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		e.ReleaseTexture(tex)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	frames := w.Frames()
	if len(frames) != 3 || rec.Frames() != 3 {
		t.Fatalf("wrote %d frames, recorder counted %d; want 3", len(frames), rec.Frames())
	}
	for i, f := range frames {
		if f.Index != i || f.PTS != time.Duration(i)*time.Second/30 {
			t.Errorf("frame %d: index %d pts %v", i, f.Index, f.PTS)
		}
		if f.Image.Bounds().Size() != (image.Point{16, 12}) {
			t.Errorf("frame %d size = %v", i, f.Image.Bounds().Size())
		}
	}
	// Grain is seeded per frame, so identical input frames differ.
	if bytes.Equal(frames[0].Image.Pix, frames[1].Image.Pix) {
		t.Error("consecutive frames share a noise seed")
	}
	if !w.Closed() {
		t.Error("writer not closed")
	}
}

func TestRecorder_AppendImage(t *testing.T) {
	e := newEngine(t)
	p := preset.Preset{ID: "g", Name: "G", Category: preset.CategoryDigital,
		ColorGrading: preset.ColorGrading{Exposure: 0.5, Contrast: 0.2}}
	w := &MemoryWriter{}
	rec := NewRecorder(e, p, w)

	if err := rec.AppendImage(grayImage(4, 4, 128), 0); err != nil {
		t.Fatal(err)
	}
	if c := w.Frames()[0].Image.RGBAAt(2, 2); c != (color.RGBA{192, 192, 192, 255}) {
		t.Errorf("graded texel = %v, want 192 gray", c)
	}
}

func TestRecorder_StickyErrors(t *testing.T) {
	boom := errors.New("disk full")

	tests := []struct {
		name string
		run  func(e *filmlook.Engine, rec *Recorder) error
		want error
	}{
		{"out of order", func(_ *filmlook.Engine, rec *Recorder) error {
			if err := rec.AppendImage(grayImage(4, 4, 10), time.Second); err != nil {
				return err
			}
			return rec.AppendImage(grayImage(4, 4, 10), 0)
		}, ErrOutOfOrder},
		{"writer failure", func(_ *filmlook.Engine, rec *Recorder) error {
			if err := rec.AppendImage(grayImage(4, 4, 10), 0); err != nil {
				return err
			}
			return rec.AppendImage(grayImage(4, 4, 10), time.Second)
		}, boom},
		{"engine closed", func(e *filmlook.Engine, rec *Recorder) error {
			e.Close()
			return rec.AppendImage(grayImage(4, 4, 10), 0)
		}, filmlook.ErrEngineClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			p, _ := preset.Lookup("neutral")
			w := &failingWriter{failAt: 1, err: boom}
			rec := NewRecorder(e, p, w)

			if err := tt.run(e, rec); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if err := rec.AppendImage(grayImage(4, 4, 10), time.Hour); !errors.Is(err, tt.want) {
				t.Errorf("later Append = %v, want sticky %v", err, tt.want)
			}
			if err := rec.Close(); !errors.Is(err, tt.want) {
				t.Errorf("Close = %v, want %v", err, tt.want)
			}
			if err := rec.AppendImage(grayImage(4, 4, 10), time.Hour); !errors.Is(err, ErrClosed) {
				t.Errorf("Append after Close = %v, want ErrClosed", err)
			}
		})
	}
}

func TestRecorder_EqualTimestampsAllowed(t *testing.T) {
	e := newEngine(t)
	p, _ := preset.Lookup("neutral")
	rec := NewRecorder(e, p, &MemoryWriter{})
	for i := 0; i < 2; i++ {
		if err := rec.AppendImage(grayImage(2, 2, 50), time.Second); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWriterConfig(t *testing.T) {
	tests := []struct {
		cfg     WriterConfig
		wantErr bool
	}{
		{WriterConfig{Width: 4, Height: 4}, false},
		{WriterConfig{Width: 4, Height: 4, FPS: 24, Quality: 100}, false},
		{WriterConfig{Width: 0, Height: 4}, true},
		{WriterConfig{Width: 4, Height: 4, Quality: 101}, true},
		{WriterConfig{Width: 4, Height: 4, FPS: -1}, true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
	}
	if r := (WriterConfig{}).Rate(); r != 30 {
		t.Errorf("default Rate = %d, want 30", r)
	}

	cfg := WriterConfig{Width: 4, Height: 4}
	if err := cfg.CheckFrame(Frame{Image: grayImage(4, 3, 0)}); !errors.Is(err, ErrFrameSize) {
		t.Errorf("CheckFrame(4x3) = %v, want ErrFrameSize", err)
	}
}

func TestMemoryWriter_CopiesFrames(t *testing.T) {
	w := &MemoryWriter{}
	img := grayImage(2, 2, 7)
	if err := w.WriteFrame(Frame{Image: img}); err != nil {
		t.Fatal(err)
	}
	img.Pix[0] = 99
	if w.Frames()[0].Image.Pix[0] != 7 {
		t.Error("MemoryWriter kept a reference to the caller's image")
	}
	_ = w.Close()
	if err := w.WriteFrame(Frame{Image: img}); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("WriteFrame after Close = %v, want ErrWriterClosed", err)
	}
}
