package filmlook

import "github.com/gogpu/filmlook/internal/uniform"

// Tier selects which passes run and at what fidelity.
type Tier uint8

const (
	// LivePreview is the frame-budget subset rendered to the viewfinder.
	LivePreview Tier = iota

	// GalleryPreview runs only grading and vignette for thumbnails.
	GalleryPreview

	// Capture is the full graph for stills and recorded video.
	Capture
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case LivePreview:
		return "live"
	case GalleryPreview:
		return "gallery"
	case Capture:
		return "capture"
	default:
		return "unknown"
	}
}

// Live preview clamps blur radii to keep the single-pass bloom inside the
// frame budget.
const liveBlurRadius = 8

func (t Tier) fidelity() uniform.Fidelity {
	switch t {
	case LivePreview:
		return uniform.Fidelity{MaxBlurRadius: liveBlurRadius, ScratchScale: 0.5}
	default:
		return uniform.Fidelity{ScratchScale: 0.5}
	}
}
