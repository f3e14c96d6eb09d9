package capture

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/filmlook"
	"github.com/gogpu/filmlook/preset"
)

// Thumbnails renders a gallery preview of img for every preset, at most
// limit at a time. Zero limit means GOMAXPROCS. Results are in preset order.
// The first failure cancels the renders not yet started.
func Thumbnails(ctx context.Context, e *filmlook.Engine, img image.Image, presets []preset.Preset, limit int) ([]*image.RGBA, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	out := make([]*image.RGBA, len(presets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range presets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			thumb, err := e.ApplyFilterPreview(img, p)
			if err != nil {
				return fmt.Errorf("capture: thumbnail %s: %w", p.ID, err)
			}
			out[i] = thumb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
