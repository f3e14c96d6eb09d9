package effect

import _ "embed"

// Embedded WGSL sources. Every program is the prelude followed by its body.

//go:embed shaders/prelude.wgsl
var preludeWGSL string

//go:embed shaders/lens_distortion.wgsl
var lensDistortionWGSL string

//go:embed shaders/color_grading.wgsl
var colorGradingWGSL string

//go:embed shaders/black_white.wgsl
var blackWhiteWGSL string

//go:embed shaders/flash.wgsl
var flashWGSL string

//go:embed shaders/ccd_bloom.wgsl
var ccdBloomWGSL string

//go:embed shaders/bloom_threshold.wgsl
var bloomThresholdWGSL string

//go:embed shaders/blur_h.wgsl
var blurHWGSL string

//go:embed shaders/blur_v.wgsl
var blurVWGSL string

//go:embed shaders/bloom_composite.wgsl
var bloomCompositeWGSL string

//go:embed shaders/bloom_simple.wgsl
var bloomSimpleWGSL string

//go:embed shaders/vignette.wgsl
var vignetteWGSL string

//go:embed shaders/halation_threshold.wgsl
var halationThresholdWGSL string

//go:embed shaders/halation_composite.wgsl
var halationCompositeWGSL string

//go:embed shaders/grain.wgsl
var grainWGSL string

//go:embed shaders/light_leak.wgsl
var lightLeakWGSL string

//go:embed shaders/date_stamp.wgsl
var dateStampWGSL string

//go:embed shaders/overlays.wgsl
var overlaysWGSL string

//go:embed shaders/vhs.wgsl
var vhsWGSL string

//go:embed shaders/digicam.wgsl
var digicamWGSL string

//go:embed shaders/film_strip.wgsl
var filmStripWGSL string

//go:embed shaders/instant_frame.wgsl
var instantFrameWGSL string
