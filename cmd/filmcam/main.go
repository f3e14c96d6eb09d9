// Command filmcam applies film-look presets to still images and image
// sequences.
//
// Usage:
//
//	filmcam presets
//	filmcam apply -preset portra-400 -o out.jpg in.png
//	filmcam thumbs -o thumbs/ in.png
//	filmcam record -preset camcorder -writer y4m -o clip.y4m f001.png f002.png ...
//	filmcam preview -duration 2s -o last.jpg f001.png f002.png ...
//
// Settings come from an optional config file (-config) and FILMLOOK_*
// environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/filmlook"
	"github.com/gogpu/filmlook/capture"
	"github.com/gogpu/filmlook/internal/config"
	"github.com/gogpu/filmlook/preset"
	"github.com/gogpu/filmlook/preview"
	"github.com/gogpu/filmlook/recording"
	_ "github.com/gogpu/filmlook/recording/writers/mjpeg"
	_ "github.com/gogpu/filmlook/recording/writers/y4m"
	"github.com/gogpu/filmlook/surface"
)

var errUsage = errors.New("usage: filmcam <presets|apply|thumbs|record|preview> [flags] [files]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "filmcam:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "presets":
		return listPresets(stdout)
	case "apply", "thumbs", "record", "preview":
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath = fs.String("config", "", "config file (yaml, toml or json)")
		name    = fs.String("preset", "", "preset ID or name (overrides config)")
		out     = fs.String("o", "", "output file or directory")
		preview = fs.Bool("preview", false, "apply: render at gallery fidelity and thumbnail size")
		writer  = fs.String("writer", "y4m", "record: video writer ("+strings.Join(recording.Writers(), ", ")+")")
		fps     = fs.Int("fps", 0, "record, preview: frame rate (defaults to config)")
		target  = fs.String("target", "", "preview: surface target ("+strings.Join(surface.Targets(), ", ")+"), best available when empty")
		dur     = fs.Duration("duration", 2*time.Second, "preview: how long to run the live loop")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" || fs.NArg() == 0 {
		return fmt.Errorf("%w: %s needs -o and at least one input", errUsage, cmd)
	}

	cfg, err := config.Load(ctx, *cfgPath)
	if err != nil {
		return err
	}
	filmlook.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	defer filmlook.SetLogger(nil)

	key := cfg.Preset
	if *name != "" {
		key = *name
	}
	p, err := preset.Lookup(key)
	if err != nil {
		return err
	}

	e := cfg.OpenEngine()
	defer e.Close()
	if err := e.Err(); err != nil {
		return err
	}

	switch cmd {
	case "apply":
		return apply(e, p, fs.Arg(0), *out, cfg.JPEGQuality, *preview)
	case "thumbs":
		return thumbs(ctx, e, fs.Arg(0), *out, cfg.JPEGQuality)
	}

	rate := *fps
	if rate == 0 {
		rate = cfg.PreviewFPS
	}
	if rate < 0 {
		return fmt.Errorf("%w: negative -fps %d", errUsage, rate)
	}
	if cmd == "record" {
		return record(ctx, e, p, fs.Args(), *out, *writer, rate, cfg.JPEGQuality)
	}
	return livePreview(ctx, e, p, fs.Args(), *out, *target, rate, *dur, cfg.JPEGQuality, stdout)
}

func listPresets(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY")
	for _, p := range preset.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.Category)
	}
	return tw.Flush()
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func writeJPEG(path string, img image.Image, quality int) error {
	data, err := capture.EncodeJPEG(img, quality)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func apply(e *filmlook.Engine, p preset.Preset, in, out string, quality int, preview bool) error {
	img, err := decode(in)
	if err != nil {
		return err
	}
	render := e.ApplyFilter
	if preview {
		render = e.ApplyFilterPreview
	}
	res, err := render(img, p)
	if err != nil {
		return err
	}
	for _, d := range e.Diagnostics() {
		filmlook.Logger().Warn("filmcam: diagnostic", "detail", d.String())
	}
	return writeJPEG(out, res, quality)
}

func thumbs(ctx context.Context, e *filmlook.Engine, in, dir string, quality int) error {
	img, err := decode(in)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	presets := preset.All()
	imgs, err := capture.Thumbnails(ctx, e, img, presets, 0)
	if err != nil {
		return err
	}
	for i, p := range presets {
		if err := writeJPEG(filepath.Join(dir, p.ID+".jpg"), imgs[i], quality); err != nil {
			return err
		}
	}
	return nil
}

func record(ctx context.Context, e *filmlook.Engine, p preset.Preset, inputs []string, out, writer string, fps, quality int) error {
	first, err := decode(inputs[0])
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	size := first.Bounds().Size()
	w, err := recording.NewWriter(writer, f, recording.WriterConfig{
		Width: size.X, Height: size.Y, FPS: fps, Quality: quality,
	})
	if err != nil {
		return err
	}
	rec := recording.NewRecorder(e, p, w)
	frame := time.Second / time.Duration(fps)
	for i, path := range inputs {
		if err := ctx.Err(); err != nil {
			rec.Close()
			return err
		}
		img := first
		if i > 0 {
			if img, err = decode(path); err != nil {
				rec.Close()
				return err
			}
		}
		if err := rec.AppendImage(img, time.Duration(i)*frame); err != nil {
			rec.Close()
			return err
		}
	}
	if err := rec.Close(); err != nil {
		return err
	}
	return f.Close()
}

// livePreview feeds the inputs as a camera stream into a preview loop on a
// registered surface target, then saves the last presented frame when the
// target can snapshot.
func livePreview(ctx context.Context, e *filmlook.Engine, p preset.Preset, inputs []string, out, target string,
	fps int, dur time.Duration, quality int, stdout io.Writer,
) error {
	frames := make([]image.Image, len(inputs))
	for i, path := range inputs {
		img, err := decode(path)
		if err != nil {
			return err
		}
		frames[i] = img
	}

	size := frames[0].Bounds().Size()
	opts := surface.Options{Width: size.X, Height: size.Y}
	var surf surface.Surface
	var err error
	if target == "" {
		surf, err = surface.Open(e.Device(), opts)
	} else {
		surf, err = surface.OpenTarget(target, e.Device(), opts)
	}
	if err != nil {
		return err
	}
	defer surf.Close()

	loop := preview.New(e, surf, p, preview.WithFPS(fps))
	defer loop.Close()

	ctx, cancel := context.WithTimeout(ctx, dur)
	defer cancel()

	feedErr := make(chan error, 1)
	go func() { feedErr <- feed(ctx, e, loop, frames, fps) }()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err := <-feedErr; err != nil {
		return err
	}

	st := loop.Stats()
	fmt.Fprintf(stdout, "delivered %d, rendered %d, dropped %d, busy %d, failed %d\n",
		st.Delivered, st.Rendered, st.Dropped, st.Busy, st.Failed)

	snap, ok := surf.(interface{ Snapshot() (*image.RGBA, error) })
	if !ok {
		return nil
	}
	img, err := snap.Snapshot()
	if err != nil {
		return err
	}
	return writeJPEG(out, img, quality)
}

// feed delivers the frames in turn at fps until ctx is done. Each upload is
// released by the loop once it is no longer needed.
func feed(ctx context.Context, e *filmlook.Engine, loop *preview.Loop, frames []image.Image, fps int) error {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for i := 0; ; i++ {
		tex, err := e.ImageToTexture(frames[i%len(frames)])
		if err != nil {
			return err
		}
		loop.Deliver(tex, func() { e.ReleaseTexture(tex) })

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
