package filmlook

import (
	"io/fs"
	"os"
)

// Option configures an Engine.
//
// Example:
//
//	e := filmlook.NewHost(
//	    filmlook.WithLUTDir("/usr/share/filmlook/luts"),
//	    filmlook.WithThumbnailSize(320),
//	)
type Option func(*options)

type options struct {
	lutFS           fs.FS
	workers         int
	validateShaders bool
	thumbnailSize   int
	diagLimit       int
}

// Defaults.
const (
	DefaultThumbnailSize    = 512
	DefaultDiagnosticsLimit = 256
)

func defaultOptions() options {
	return options{
		thumbnailSize: DefaultThumbnailSize,
		diagLimit:     DefaultDiagnosticsLimit,
	}
}

// WithLUTDir reads lookup tables from a directory.
func WithLUTDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.lutFS = os.DirFS(dir)
		}
	}
}

// WithLUTFS reads lookup tables from fsys, for example an embed.FS.
func WithLUTFS(fsys fs.FS) Option {
	return func(o *options) {
		o.lutFS = fsys
	}
}

// WithWorkers sets the number of row workers of an engine-owned host
// device. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.workers = n
		}
	}
}

// WithShaderValidation makes an engine-owned host device compile every
// program's WGSL during startup.
func WithShaderValidation(enabled bool) Option {
	return func(o *options) {
		o.validateShaders = enabled
	}
}

// WithThumbnailSize bounds the longer edge of gallery previews.
func WithThumbnailSize(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.thumbnailSize = px
		}
	}
}

// WithDiagnosticsLimit bounds the number of retained diagnostics. Older
// entries are dropped first.
func WithDiagnosticsLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.diagLimit = n
		}
	}
}
