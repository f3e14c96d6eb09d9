// Package preset defines film looks and the static catalog they are served from.
//
// A Preset is a plain value: one configuration struct per effect plus an
// optional lookup table reference. Presets handed out by the catalog are
// deep copies, so callers may modify them freely without affecting the
// catalog or other callers.
package preset

// Category groups presets in pickers.
type Category string

// Preset categories.
const (
	CategoryFilm       Category = "film"
	CategoryBlackWhite Category = "bw"
	CategoryInstant    Category = "instant"
	CategoryDisposable Category = "disposable"
	CategoryVideo      Category = "video"
	CategoryDigital    Category = "digital"
)

// MaxSelectiveColors is the number of selective color slots the grading
// program accepts.
const MaxSelectiveColors = 8

// Preset is a named film look.
type Preset struct {
	ID       string   `validate:"required,lowercase"`
	Name     string   `validate:"required"`
	Category Category `validate:"required,oneof=film bw instant disposable video digital"`

	// LUT is the lookup table file name, empty for none.
	LUT string
	// LUTIntensity blends the LUT result with the graded color.
	LUTIntensity float32 `validate:"gte=0,lte=1"`

	ColorGrading   ColorGrading
	LensDistortion LensDistortion
	BlackWhite     BlackWhite
	Flash          Flash
	CCDBloom       CCDBloom
	Bloom          Bloom
	Vignette       Vignette
	Halation       Halation
	Grain          Grain
	LightLeak      LightLeak
	DateStamp      DateStamp
	Overlays       Overlays
	VHS            VHS
	Digicam        Digicam
	FilmStrip      FilmStrip
	InstantFrame   InstantFrame
}

// Clone returns a deep copy of p.
func (p Preset) Clone() Preset {
	if p.ColorGrading.Selective != nil {
		p.ColorGrading.Selective = append([]SelectiveColor(nil), p.ColorGrading.Selective...)
	}
	return p
}

// RGB is a linear color with components in [0, 1].
type RGB struct {
	R float32 `validate:"gte=0,lte=1"`
	G float32 `validate:"gte=0,lte=1"`
	B float32 `validate:"gte=0,lte=1"`
}

// ColorGrading always runs. The zero value is neutral.
type ColorGrading struct {
	Exposure    float32 `validate:"gte=-4,lte=4"` // stops
	Contrast    float32 `validate:"gte=-1,lte=1"`
	Highlights  float32 `validate:"gte=-1,lte=1"`
	Shadows     float32 `validate:"gte=-1,lte=1"`
	Whites      float32 `validate:"gte=-1,lte=1"`
	Blacks      float32 `validate:"gte=-1,lte=1"`
	Saturation  float32 `validate:"gte=-1,lte=1"`
	Vibrance    float32 `validate:"gte=-1,lte=1"`
	Temperature float32 `validate:"gte=-1,lte=1"`
	Tint        float32 `validate:"gte=-1,lte=1"`
	Fade        float32 `validate:"gte=0,lte=1"`
	Clarity     float32 `validate:"gte=-1,lte=1"`

	SplitTone SplitTone
	Selective []SelectiveColor `validate:"max=8,dive"`
}

// SplitTone tints shadows and highlights separately.
type SplitTone struct {
	ShadowsHue        float32 `validate:"gte=0,lte=1"`
	ShadowsSat        float32 `validate:"gte=0,lte=1"`
	HighlightsHue     float32 `validate:"gte=0,lte=1"`
	HighlightsSat     float32 `validate:"gte=0,lte=1"`
	Balance           float32 `validate:"gte=-1,lte=1"`
	MidtoneProtection float32 `validate:"gte=0,lte=1"`
}

// SelectiveColor adjusts one hue band.
type SelectiveColor struct {
	Hue      float32 `validate:"gte=0,lte=1"`
	Range    float32 `validate:"gt=0,lte=0.5"`
	SatAdj   float32 `validate:"gte=-1,lte=1"`
	LumAdj   float32 `validate:"gte=-1,lte=1"`
	HueShift float32 `validate:"gte=-0.1,lte=0.1"`
}

// LensDistortion is a radial warp with chromatic aberration.
type LensDistortion struct {
	Enabled    bool
	K1         float32 `validate:"gte=-1,lte=1"`
	K2         float32 `validate:"gte=-1,lte=1"`
	CAStrength float32 `validate:"gte=0,lte=0.05"`
	Scale      float32 `validate:"gte=0,lte=2"` // zero means 1
}

// BlackWhite converts to monochrome with a channel mix and toning.
type BlackWhite struct {
	Enabled    bool
	RedMix     float32 `validate:"gte=-2,lte=2"`
	GreenMix   float32 `validate:"gte=-2,lte=2"`
	BlueMix    float32 `validate:"gte=-2,lte=2"`
	Contrast   float32 `validate:"gte=-1,lte=1"`
	Tone       RGB
	ToneAmount float32 `validate:"gte=0,lte=1"`
}

// Flash adds a warm radial light and lifts shadows.
type Flash struct {
	Enabled    bool
	Intensity  float32 `validate:"gte=0,lte=2"`
	Radius     float32 `validate:"gte=0,lte=2"` // zero means 1
	CenterX    float32 `validate:"gte=0,lte=1"`
	CenterY    float32 `validate:"gte=0,lte=1"`
	Warmth     float32 `validate:"gte=0,lte=1"`
	ShadowLift float32 `validate:"gte=0,lte=1"`
}

// CCDBloom smears highlights vertically like an overexposed CCD sensor.
type CCDBloom struct {
	Enabled   bool
	Intensity float32 `validate:"gte=0,lte=2"`
	Threshold float32 `validate:"gte=0,lte=1"`
	Length    float32 `validate:"gte=0,lte=0.5"` // fraction of height
	Fringe    float32 `validate:"gte=0,lte=1"`
}

// Bloom is a soft glow around highlights.
type Bloom struct {
	Enabled   bool
	Intensity float32 `validate:"gte=0,lte=2"`
	Threshold float32 `validate:"gte=0,lte=1"`
	Radius    float32 `validate:"gte=0,lte=64"` // texels at full resolution
	Softness  float32 `validate:"gte=0,lte=1"`
	Tint      RGB
}

// Vignette darkens toward the corners.
type Vignette struct {
	Enabled   bool
	Intensity float32 `validate:"gte=0,lte=1"`
	Roundness float32 `validate:"gte=0,lte=1"`
	Feather   float32 `validate:"gte=0,lte=1"`
	Midpoint  float32 `validate:"gte=0,lte=1"`
}

// Halation is the red glow of light scattering off the film base.
type Halation struct {
	Enabled   bool
	Intensity float32 `validate:"gte=0,lte=2"`
	Threshold float32 `validate:"gte=0,lte=1"`
	Radius    float32 `validate:"gte=0,lte=64"`
	Softness  float32 `validate:"gte=0,lte=1"`
	Color     RGB
}

// Grain is per-channel procedural film grain.
type Grain struct {
	Enabled   bool
	Intensity float32 `validate:"gte=0,lte=1"`
	Size      float32 `validate:"gte=0,lte=8"` // texels, zero means 1
	Softness  float32 `validate:"gte=0,lte=1"`
	Channel   RGB
	// Chroma offsets the noise per channel; zero gives monochrome grain.
	Chroma float32 `validate:"gte=0,lte=1"`
}

// LightLeak is a positioned warm glow.
type LightLeak struct {
	Enabled   bool
	Intensity float32 `validate:"gte=0,lte=1"`
	X         float32 `validate:"gte=-0.5,lte=1.5"`
	Y         float32 `validate:"gte=-0.5,lte=1.5"`
	Radius    float32 `validate:"gte=0,lte=2"` // zero means 0.5
	Color     RGB
}

// DateStamp burns a seven-segment date into the corner.
type DateStamp struct {
	Enabled bool
	// Text is drawn with digits, spaces, apostrophes, dashes, colons and dots.
	Text    string  `validate:"max=16,segments"`
	Scale   float32 `validate:"gte=0,lte=0.2"` // glyph height as fraction of image height, zero means 0.04
	Color   RGB
	Opacity float32 `validate:"gte=0,lte=1"`
}

// Overlays adds procedural dust and scratches.
type Overlays struct {
	Enabled   bool
	Dust      float32 `validate:"gte=0,lte=1"`
	Scratches float32 `validate:"gte=0,lte=1"`
	Opacity   float32 `validate:"gte=0,lte=1"`
}

// VHS simulates tape playback.
type VHS struct {
	Enabled   bool
	Scanlines float32 `validate:"gte=0,lte=1"`
	Bleed     float32 `validate:"gte=0,lte=1"`
	Wobble    float32 `validate:"gte=0,lte=1"`
	Noise     float32 `validate:"gte=0,lte=1"`
}

// Digicam simulates an early consumer digital camera.
type Digicam struct {
	Enabled     bool
	Noise       float32 `validate:"gte=0,lte=1"`
	Compression float32 `validate:"gte=0,lte=1"`
	Sharpen     float32 `validate:"gte=0,lte=2"`
}

// FilmStrip frames the image as a 35mm negative.
type FilmStrip struct {
	Enabled bool
	Border  float32 `validate:"gte=0,lte=0.3"` // fraction of height per edge
	Color   RGB
	// Text is the rebate marking, same alphabet as DateStamp.
	Text      string `validate:"max=16,segments"`
	TextColor RGB
}

// InstantFrame composites an instant-film border. Widths are fractions of
// the image size.
type InstantFrame struct {
	Enabled         bool
	Top             float32 `validate:"gte=0,lte=0.4"`
	Left            float32 `validate:"gte=0,lte=0.4"`
	Right           float32 `validate:"gte=0,lte=0.4"`
	Bottom          float32 `validate:"gte=0,lte=0.4"`
	Color           RGB
	EdgeFade        float32 `validate:"gte=0,lte=1"`
	CornerDarkening float32 `validate:"gte=0,lte=1"`
}
