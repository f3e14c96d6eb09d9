package uniform

import (
	"github.com/gogpu/filmlook/internal/segment"
	"github.com/gogpu/filmlook/preset"
)

// Fidelity carries the per-tier parameter adjustments.
type Fidelity struct {
	// MaxBlurRadius clamps bloom and halation radii, in full-resolution
	// texels. Zero means unclamped.
	MaxBlurRadius float32

	// ScratchScale is the size of blur scratch textures relative to the
	// frame. Zero means 1.
	ScratchScale float32
}

// BlurRadius applies the radius clamp.
func (f Fidelity) BlurRadius(r float32) float32 {
	if f.MaxBlurRadius > 0 && r > f.MaxBlurRadius {
		return f.MaxBlurRadius
	}
	return r
}

// Scale returns the effective scratch scale.
func (f Fidelity) Scale() float32 {
	if f.ScratchScale <= 0 || f.ScratchScale > 1 {
		return 1
	}
	return f.ScratchScale
}

// ScratchSize returns the scratch texture size for a w×h frame.
func (f Fidelity) ScratchSize(w, h int) (int, int) {
	s := f.Scale()
	return max(1, int(float32(w)*s+0.5)), max(1, int(float32(h)*s+0.5))
}

// LensDistortion feeds lens_distortion.
type LensDistortion struct {
	Frame
	K1, K2     float32 // 8, 9
	CAStrength float32 // 10
	Scale      float32 // 11
}

// NewLensDistortion builds the lens distortion block.
func NewLensDistortion(f Frame, c preset.LensDistortion) LensDistortion {
	scale := c.Scale
	if scale == 0 {
		scale = 1
	}
	return LensDistortion{Frame: f, K1: c.K1, K2: c.K2, CAStrength: c.CAStrength, Scale: scale}
}

// Selective is one selective color slot.
type Selective struct {
	Hue, Range, SatAdj, LumAdj, HueShift float32
}

// ColorGrading feeds color_grading. Selective slot i starts at float 32+5i.
type ColorGrading struct {
	Frame
	Exposure, Contrast                   float32 // 8, 9
	Highlights, Shadows, Whites, Blacks  float32 // 10..13
	Saturation, Vibrance                 float32 // 14, 15
	Temperature, Tint                    float32 // 16, 17
	Fade, Clarity                        float32 // 18, 19
	ShadowsHue, ShadowsSat               float32 // 20, 21
	HighlightsHue, HighlightsSat         float32 // 22, 23
	SplitBalance, MidtoneProtection      float32 // 24, 25
	LUTIntensity, UseLUT, SelectiveCount float32 // 26..28
	_                                    [3]float32
	Selective                            [preset.MaxSelectiveColors]Selective
}

// NewColorGrading builds the grading block. lutSize is zero when no LUT is
// bound; the LUT edge length travels in Frame.AuxW.
func NewColorGrading(f Frame, c preset.ColorGrading, lutIntensity float32, lutSize int) ColorGrading {
	b := ColorGrading{
		Frame:    f,
		Exposure: c.Exposure, Contrast: c.Contrast,
		Highlights: c.Highlights, Shadows: c.Shadows, Whites: c.Whites, Blacks: c.Blacks,
		Saturation: c.Saturation, Vibrance: c.Vibrance,
		Temperature: c.Temperature, Tint: c.Tint,
		Fade: c.Fade, Clarity: c.Clarity,
		ShadowsHue: c.SplitTone.ShadowsHue, ShadowsSat: c.SplitTone.ShadowsSat,
		HighlightsHue: c.SplitTone.HighlightsHue, HighlightsSat: c.SplitTone.HighlightsSat,
		SplitBalance: c.SplitTone.Balance, MidtoneProtection: c.SplitTone.MidtoneProtection,
	}
	if lutSize > 0 && lutIntensity > 0 {
		b.UseLUT = 1
		b.LUTIntensity = lutIntensity
		b.AuxW, b.AuxH = float32(lutSize), float32(lutSize)
	}
	n := min(len(c.Selective), preset.MaxSelectiveColors)
	b.SelectiveCount = float32(n)
	for i := 0; i < n; i++ {
		s := c.Selective[i]
		b.Selective[i] = Selective{Hue: s.Hue, Range: s.Range, SatAdj: s.SatAdj, LumAdj: s.LumAdj, HueShift: s.HueShift}
	}
	return b
}

// BlackWhite feeds black_white.
type BlackWhite struct {
	Frame
	RedMix, GreenMix, BlueMix float32 // 8..10
	Contrast                  float32 // 11
	ToneR, ToneG, ToneB       float32 // 12..14
	ToneAmount                float32 // 15
}

// NewBlackWhite builds the black and white block. An all-zero mix falls
// back to Rec. 709 luma weights.
func NewBlackWhite(f Frame, c preset.BlackWhite) BlackWhite {
	r, g, b := c.RedMix, c.GreenMix, c.BlueMix
	if r == 0 && g == 0 && b == 0 {
		r, g, b = 0.2126, 0.7152, 0.0722
	}
	return BlackWhite{
		Frame: f, RedMix: r, GreenMix: g, BlueMix: b, Contrast: c.Contrast,
		ToneR: c.Tone.R, ToneG: c.Tone.G, ToneB: c.Tone.B, ToneAmount: c.ToneAmount,
	}
}

// Flash feeds flash.
type Flash struct {
	Frame
	Intensity, Radius  float32 // 8, 9
	CenterX, CenterY   float32 // 10, 11
	Warmth, ShadowLift float32 // 12, 13
}

// NewFlash builds the flash block.
func NewFlash(f Frame, c preset.Flash) Flash {
	radius := c.Radius
	if radius == 0 {
		radius = 1
	}
	return Flash{Frame: f, Intensity: c.Intensity, Radius: radius, CenterX: c.CenterX, CenterY: c.CenterY, Warmth: c.Warmth, ShadowLift: c.ShadowLift}
}

// CCDBloom feeds ccd_bloom.
type CCDBloom struct {
	Frame
	Intensity, Threshold float32 // 8, 9
	Length, Fringe       float32 // 10, 11
}

// NewCCDBloom builds the CCD bloom block.
func NewCCDBloom(f Frame, c preset.CCDBloom) CCDBloom {
	return CCDBloom{Frame: f, Intensity: c.Intensity, Threshold: c.Threshold, Length: c.Length, Fringe: c.Fringe}
}

// Threshold feeds bloom_threshold and halation_threshold. The output is
// the scratch texture, so OutW/OutH differ from SrcW/SrcH.
type Threshold struct {
	Frame
	Threshold, Softness float32 // 8, 9
	TintR, TintG, TintB float32 // 10..12
}

// NewBloomThreshold builds the bloom threshold block.
func NewBloomThreshold(f Frame, c preset.Bloom) Threshold {
	return Threshold{Frame: f, Threshold: c.Threshold, Softness: c.Softness, TintR: c.Tint.R, TintG: c.Tint.G, TintB: c.Tint.B}
}

// NewHalationThreshold builds the halation threshold block.
func NewHalationThreshold(f Frame, c preset.Halation) Threshold {
	return Threshold{Frame: f, Threshold: c.Threshold, Softness: c.Softness, TintR: c.Color.R, TintG: c.Color.G, TintB: c.Color.B}
}

// Blur feeds blur_h and blur_v. Radius is in scratch texels.
type Blur struct {
	Frame
	Radius float32 // 8
	Sigma  float32 // 9
}

// NewBlur builds a blur block from a full-resolution radius.
func NewBlur(f Frame, radius float32, fid Fidelity) Blur {
	r := fid.BlurRadius(radius) * fid.Scale()
	if r < 0 {
		r = 0
	}
	return Blur{Frame: f, Radius: r, Sigma: r / 3}
}

// Composite feeds bloom_composite and halation_composite.
type Composite struct {
	Frame
	Intensity           float32 // 8
	TintR, TintG, TintB float32 // 9..11
}

// NewBloomComposite builds the bloom composite block.
func NewBloomComposite(f Frame, c preset.Bloom) Composite {
	return Composite{Frame: f, Intensity: c.Intensity, TintR: 1, TintG: 1, TintB: 1}
}

// NewHalationComposite builds the halation composite block.
func NewHalationComposite(f Frame, c preset.Halation) Composite {
	return Composite{Frame: f, Intensity: c.Intensity, TintR: c.Color.R, TintG: c.Color.G, TintB: c.Color.B}
}

// BloomSimple feeds bloom_simple, the single-pass live bloom.
type BloomSimple struct {
	Frame
	Intensity, Threshold float32 // 8, 9
	Radius, Softness     float32 // 10, 11
	TintR, TintG, TintB  float32 // 12..14
}

// NewBloomSimple builds the single-pass bloom block with the radius clamped.
func NewBloomSimple(f Frame, c preset.Bloom, fid Fidelity) BloomSimple {
	return BloomSimple{
		Frame: f, Intensity: c.Intensity, Threshold: c.Threshold,
		Radius: fid.BlurRadius(c.Radius), Softness: c.Softness,
		TintR: c.Tint.R, TintG: c.Tint.G, TintB: c.Tint.B,
	}
}

// Vignette feeds vignette.
type Vignette struct {
	Frame
	Intensity, Roundness float32 // 8, 9
	Feather, Midpoint    float32 // 10, 11
}

// NewVignette builds the vignette block.
func NewVignette(f Frame, c preset.Vignette) Vignette {
	return Vignette{Frame: f, Intensity: c.Intensity, Roundness: c.Roundness, Feather: c.Feather, Midpoint: c.Midpoint}
}

// Grain feeds grain.
type Grain struct {
	Frame
	Intensity, Size, Softness    float32 // 8..10
	ChannelR, ChannelG, ChannelB float32 // 11..13
	Chroma                       float32 // 14
}

// NewGrain builds the grain block.
func NewGrain(f Frame, c preset.Grain) Grain {
	size := c.Size
	if size < 1 {
		size = 1
	}
	return Grain{
		Frame: f, Intensity: c.Intensity, Size: size, Softness: c.Softness,
		ChannelR: c.Channel.R, ChannelG: c.Channel.G, ChannelB: c.Channel.B, Chroma: c.Chroma,
	}
}

// LightLeak feeds light_leak.
type LightLeak struct {
	Frame
	Intensity, X, Y, Radius float32 // 8..11
	R, G, B                 float32 // 12..14
}

// NewLightLeak builds the light leak block.
func NewLightLeak(f Frame, c preset.LightLeak) LightLeak {
	radius := c.Radius
	if radius == 0 {
		radius = 0.5
	}
	return LightLeak{Frame: f, Intensity: c.Intensity, X: c.X, Y: c.Y, Radius: radius, R: c.Color.R, G: c.Color.G, B: c.Color.B}
}

// Stamp feeds date_stamp. Glyph masks start at float 16.
type Stamp struct {
	Frame
	Scale   float32 // 8
	R, G, B float32 // 9..11
	Opacity float32 // 12
	Count   float32 // 13
	_       [2]float32
	Glyphs  [segment.MaxGlyphs]float32
}

// NewStamp builds the date stamp block. Text was validated with the preset;
// characters without a glyph render blank.
func NewStamp(f Frame, c preset.DateStamp) Stamp {
	scale := c.Scale
	if scale == 0 {
		scale = 0.04
	}
	b := Stamp{Frame: f, Scale: scale, R: c.Color.R, G: c.Color.G, B: c.Color.B, Opacity: c.Opacity}
	b.Count = glyphs(c.Text, &b.Glyphs)
	return b
}

func glyphs(text string, dst *[segment.MaxGlyphs]float32) float32 {
	n := 0
	for _, r := range text {
		if n == segment.MaxGlyphs {
			break
		}
		m, _ := segment.Mask(r)
		dst[n] = float32(m)
		n++
	}
	return float32(n)
}

// Overlays feeds overlays.
type Overlays struct {
	Frame
	Dust, Scratches, Opacity float32 // 8..10
}

// NewOverlays builds the dust and scratch block.
func NewOverlays(f Frame, c preset.Overlays) Overlays {
	return Overlays{Frame: f, Dust: c.Dust, Scratches: c.Scratches, Opacity: c.Opacity}
}

// VHS feeds vhs.
type VHS struct {
	Frame
	Scanlines, Bleed, Wobble, Noise float32 // 8..11
}

// NewVHS builds the VHS block.
func NewVHS(f Frame, c preset.VHS) VHS {
	return VHS{Frame: f, Scanlines: c.Scanlines, Bleed: c.Bleed, Wobble: c.Wobble, Noise: c.Noise}
}

// Digicam feeds digicam.
type Digicam struct {
	Frame
	Noise, Compression, Sharpen float32 // 8..10
}

// NewDigicam builds the digicam block.
func NewDigicam(f Frame, c preset.Digicam) Digicam {
	return Digicam{Frame: f, Noise: c.Noise, Compression: c.Compression, Sharpen: c.Sharpen}
}

// FilmStrip feeds film_strip. Glyph masks start at float 16.
type FilmStrip struct {
	Frame
	Border              float32 // 8
	R, G, B             float32 // 9..11
	TextR, TextG, TextB float32 // 12..14
	Count               float32 // 15
	Glyphs              [segment.MaxGlyphs]float32
}

// NewFilmStrip builds the film strip block.
func NewFilmStrip(f Frame, c preset.FilmStrip) FilmStrip {
	b := FilmStrip{
		Frame: f, Border: c.Border,
		R: c.Color.R, G: c.Color.G, B: c.Color.B,
		TextR: c.TextColor.R, TextG: c.TextColor.G, TextB: c.TextColor.B,
	}
	b.Count = glyphs(c.Text, &b.Glyphs)
	return b
}

// InstantFrame feeds instant_frame.
type InstantFrame struct {
	Frame
	Top, Left, Right, Bottom float32 // 8..11
	R, G, B                  float32 // 12..14
	EdgeFade                 float32 // 15
	CornerDarkening          float32 // 16
}

// NewInstantFrame builds the instant frame block.
func NewInstantFrame(f Frame, c preset.InstantFrame) InstantFrame {
	return InstantFrame{
		Frame: f, Top: c.Top, Left: c.Left, Right: c.Right, Bottom: c.Bottom,
		R: c.Color.R, G: c.Color.G, B: c.Color.B,
		EdgeFade: c.EdgeFade, CornerDarkening: c.CornerDarkening,
	}
}
