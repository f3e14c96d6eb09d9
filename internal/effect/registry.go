package effect

import (
	"sort"

	"github.com/gogpu/filmlook/gpu"
)

// Program names.
const (
	LensDistortion    = "lens_distortion"
	ColorGrading      = "color_grading"
	BlackWhite        = "black_white"
	Flash             = "flash"
	CCDBloom          = "ccd_bloom"
	BloomThreshold    = "bloom_threshold"
	BlurH             = "blur_h"
	BlurV             = "blur_v"
	BloomComposite    = "bloom_composite"
	BloomSimple       = "bloom_simple"
	Vignette          = "vignette"
	HalationThreshold = "halation_threshold"
	HalationComposite = "halation_composite"
	Grain             = "grain"
	LightLeak         = "light_leak"
	DateStamp         = "date_stamp"
	Overlays          = "overlays"
	VHS               = "vhs"
	Digicam           = "digicam"
	FilmStrip         = "film_strip"
	InstantFrame      = "instant_frame"
)

type entry struct {
	body     string
	kernel   gpu.HostKernel
	critical bool
}

var registry = map[string]entry{
	LensDistortion:    {body: lensDistortionWGSL, kernel: lensDistortionKernel},
	ColorGrading:      {body: colorGradingWGSL, kernel: colorGradingKernel, critical: true},
	BlackWhite:        {body: blackWhiteWGSL, kernel: blackWhiteKernel},
	Flash:             {body: flashWGSL, kernel: flashKernel},
	CCDBloom:          {body: ccdBloomWGSL, kernel: ccdBloomKernel},
	BloomThreshold:    {body: bloomThresholdWGSL, kernel: bloomThresholdKernel, critical: true},
	BlurH:             {body: blurHWGSL, kernel: blurHKernel, critical: true},
	BlurV:             {body: blurVWGSL, kernel: blurVKernel, critical: true},
	BloomComposite:    {body: bloomCompositeWGSL, kernel: bloomCompositeKernel, critical: true},
	BloomSimple:       {body: bloomSimpleWGSL, kernel: bloomSimpleKernel, critical: true},
	Vignette:          {body: vignetteWGSL, kernel: vignetteKernel, critical: true},
	HalationThreshold: {body: halationThresholdWGSL, kernel: halationThresholdKernel},
	HalationComposite: {body: halationCompositeWGSL, kernel: halationCompositeKernel},
	Grain:             {body: grainWGSL, kernel: grainKernel, critical: true},
	LightLeak:         {body: lightLeakWGSL, kernel: lightLeakKernel},
	DateStamp:         {body: dateStampWGSL, kernel: dateStampKernel},
	Overlays:          {body: overlaysWGSL, kernel: overlaysKernel},
	VHS:               {body: vhsWGSL, kernel: vhsKernel},
	Digicam:           {body: digicamWGSL, kernel: digicamKernel},
	FilmStrip:         {body: filmStripWGSL, kernel: filmStripKernel},
	InstantFrame:      {body: instantFrameWGSL, kernel: instantFrameKernel, critical: true},
}

// Names returns every program name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Critical reports whether the engine cannot run without the program.
func Critical(name string) bool {
	return registry[name].critical
}

// Source returns the program source for name.
func Source(name string) (gpu.ProgramSource, bool) {
	e, ok := registry[name]
	if !ok {
		return gpu.ProgramSource{}, false
	}
	return gpu.ProgramSource{Name: name, WGSL: preludeWGSL + e.body, Host: e.kernel}, true
}

// Sources returns every program source, sorted by name.
func Sources() []gpu.ProgramSource {
	names := Names()
	out := make([]gpu.ProgramSource, len(names))
	for i, name := range names {
		out[i], _ = Source(name)
	}
	return out
}
