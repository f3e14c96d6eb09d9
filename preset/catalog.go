package preset

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/cases"
)

// ErrNotFound is returned when no preset matches a lookup.
var ErrNotFound = errors.New("preset: not found")

// catalog is the static preset list. It is validated at init and never
// handed out directly.
var catalog = []Preset{
	{
		ID: "neutral", Name: "Neutral", Category: CategoryDigital,
	},
	{
		ID: "portra-400", Name: "Portra 400", Category: CategoryFilm,
		ColorGrading: ColorGrading{
			Exposure: 0.1, Contrast: -0.05, Highlights: -0.2, Shadows: 0.15,
			Saturation: -0.1, Vibrance: 0.15, Temperature: 0.08, Fade: 0.04,
			SplitTone: SplitTone{ShadowsHue: 0.55, ShadowsSat: 0.08, HighlightsHue: 0.08, HighlightsSat: 0.1, MidtoneProtection: 0.5},
			Selective: []SelectiveColor{
				{Hue: 0.05, Range: 0.08, SatAdj: -0.1, LumAdj: 0.05},
				{Hue: 0.33, Range: 0.1, SatAdj: -0.2, HueShift: 0.02},
			},
		},
		Bloom:    Bloom{Enabled: true, Intensity: 0.15, Threshold: 0.8, Radius: 12, Softness: 0.5, Tint: RGB{1, 0.95, 0.9}},
		Vignette: Vignette{Enabled: true, Intensity: 0.2, Roundness: 0.8, Feather: 0.6, Midpoint: 0.6},
		Grain:    Grain{Enabled: true, Intensity: 0.06, Size: 1.2, Softness: 0.4, Channel: RGB{1, 0.9, 1}, Chroma: 0.2},
	},
	{
		ID: "gold-200", Name: "Gold 200", Category: CategoryFilm,
		LUT: "gold200.cube", LUTIntensity: 0.8,
		ColorGrading: ColorGrading{
			Exposure: 0.15, Contrast: 0.1, Saturation: 0.1, Temperature: 0.15, Tint: 0.03,
			SplitTone: SplitTone{HighlightsHue: 0.1, HighlightsSat: 0.15, Balance: 0.2},
		},
		Vignette:  Vignette{Enabled: true, Intensity: 0.3, Roundness: 1, Feather: 0.5, Midpoint: 0.5},
		Grain:     Grain{Enabled: true, Intensity: 0.08, Size: 1.5, Softness: 0.3, Channel: RGB{1, 1, 1}, Chroma: 0.3},
		LightLeak: LightLeak{Enabled: true, Intensity: 0.25, X: 1.05, Y: 0.1, Radius: 0.6, Color: RGB{1, 0.5, 0.2}},
	},
	{
		ID: "cinestill-800t", Name: "CineStill 800T", Category: CategoryFilm,
		ColorGrading: ColorGrading{
			Contrast: 0.1, Highlights: -0.1, Temperature: -0.25, Tint: 0.05, Clarity: 0.1,
			SplitTone: SplitTone{ShadowsHue: 0.5, ShadowsSat: 0.2, HighlightsHue: 0.05, HighlightsSat: 0.1},
		},
		Halation: Halation{Enabled: true, Intensity: 0.6, Threshold: 0.7, Radius: 16, Softness: 0.6, Color: RGB{1, 0.25, 0.1}},
		Bloom:    Bloom{Enabled: true, Intensity: 0.2, Threshold: 0.85, Radius: 20, Softness: 0.7, Tint: RGB{1, 1, 1}},
		Vignette: Vignette{Enabled: true, Intensity: 0.25, Roundness: 0.9, Feather: 0.5, Midpoint: 0.55},
		Grain:    Grain{Enabled: true, Intensity: 0.1, Size: 1.6, Softness: 0.3, Channel: RGB{1, 1, 1}, Chroma: 0.4},
	},
	{
		ID: "hp5", Name: "HP5 Plus", Category: CategoryBlackWhite,
		ColorGrading: ColorGrading{Contrast: 0.2, Shadows: -0.05, Blacks: -0.1},
		BlackWhite:   BlackWhite{Enabled: true, RedMix: 0.4, GreenMix: 0.45, BlueMix: 0.15, Contrast: 0.15},
		Vignette:     Vignette{Enabled: true, Intensity: 0.35, Roundness: 1, Feather: 0.5, Midpoint: 0.5},
		Grain:        Grain{Enabled: true, Intensity: 0.14, Size: 1.8, Softness: 0.2, Channel: RGB{1, 1, 1}},
		Overlays:     Overlays{Enabled: true, Dust: 0.3, Scratches: 0.2, Opacity: 0.5},
	},
	{
		ID: "sepia", Name: "Sepia", Category: CategoryBlackWhite,
		ColorGrading: ColorGrading{Fade: 0.1},
		BlackWhite: BlackWhite{
			Enabled: true, RedMix: 0.3, GreenMix: 0.59, BlueMix: 0.11,
			Tone: RGB{0.44, 0.26, 0.08}, ToneAmount: 0.6,
		},
		Vignette: Vignette{Enabled: true, Intensity: 0.4, Roundness: 1, Feather: 0.7, Midpoint: 0.45},
		Grain:    Grain{Enabled: true, Intensity: 0.08, Size: 1.4, Softness: 0.5, Channel: RGB{1, 1, 1}},
		Overlays: Overlays{Enabled: true, Dust: 0.6, Scratches: 0.5, Opacity: 0.6},
	},
	{
		ID: "instant-600", Name: "Instant 600", Category: CategoryInstant,
		ColorGrading: ColorGrading{
			Exposure: 0.2, Contrast: -0.15, Saturation: -0.15, Temperature: 0.1, Fade: 0.12,
			SplitTone: SplitTone{ShadowsHue: 0.6, ShadowsSat: 0.12, HighlightsHue: 0.12, HighlightsSat: 0.08},
		},
		Vignette: Vignette{Enabled: true, Intensity: 0.3, Roundness: 0.6, Feather: 0.6, Midpoint: 0.5},
		Grain:    Grain{Enabled: true, Intensity: 0.05, Size: 1, Softness: 0.6, Channel: RGB{1, 1, 1}},
		InstantFrame: InstantFrame{
			Enabled: true, Top: 0.06, Left: 0.06, Right: 0.06, Bottom: 0.22,
			Color: RGB{0.96, 0.95, 0.92}, EdgeFade: 0.3, CornerDarkening: 0.15,
		},
	},
	{
		ID: "disposable", Name: "Disposable", Category: CategoryDisposable,
		ColorGrading: ColorGrading{
			Exposure: 0.1, Contrast: 0.15, Saturation: 0.15, Temperature: 0.12, Tint: -0.05,
		},
		LensDistortion: LensDistortion{Enabled: true, K1: 0.08, K2: 0.02, CAStrength: 0.004, Scale: 0.95},
		Flash:          Flash{Enabled: true, Intensity: 0.5, Radius: 0.8, CenterX: 0.5, CenterY: 0.45, Warmth: 0.4, ShadowLift: 0.1},
		Bloom:          Bloom{Enabled: true, Intensity: 0.2, Threshold: 0.75, Radius: 10, Softness: 0.5, Tint: RGB{1, 0.9, 0.8}},
		Vignette:       Vignette{Enabled: true, Intensity: 0.5, Roundness: 1, Feather: 0.4, Midpoint: 0.45},
		Grain:          Grain{Enabled: true, Intensity: 0.12, Size: 1.5, Softness: 0.3, Channel: RGB{1, 1, 1}, Chroma: 0.5},
		LightLeak:      LightLeak{Enabled: true, Intensity: 0.3, X: -0.05, Y: 0.8, Radius: 0.5, Color: RGB{1, 0.35, 0.1}},
		DateStamp:      DateStamp{Enabled: true, Text: "'98 10 16", Scale: 0.04, Color: RGB{1, 0.55, 0.1}, Opacity: 0.9},
	},
	{
		ID: "camcorder", Name: "Camcorder", Category: CategoryVideo,
		ColorGrading: ColorGrading{Contrast: -0.1, Saturation: 0.2, Temperature: -0.05, Fade: 0.05},
		CCDBloom:     CCDBloom{Enabled: true, Intensity: 0.4, Threshold: 0.85, Length: 0.15, Fringe: 0.3},
		Vignette:     Vignette{Enabled: true, Intensity: 0.15, Roundness: 0.5, Feather: 0.8, Midpoint: 0.6},
		Grain:        Grain{Enabled: true, Intensity: 0.04, Size: 1, Softness: 0.8, Channel: RGB{1, 1, 1}},
		DateStamp:    DateStamp{Enabled: true, Text: "12:04 10-16-97", Scale: 0.035, Color: RGB{0.95, 0.95, 0.95}, Opacity: 0.85},
		VHS:          VHS{Enabled: true, Scanlines: 0.3, Bleed: 0.5, Wobble: 0.3, Noise: 0.2},
	},
	{
		ID: "digicam-2003", Name: "Digicam 2003", Category: CategoryDigital,
		ColorGrading: ColorGrading{Exposure: 0.05, Contrast: 0.2, Saturation: 0.25, Temperature: -0.08, Clarity: 0.2},
		CCDBloom:     CCDBloom{Enabled: true, Intensity: 0.3, Threshold: 0.9, Length: 0.1, Fringe: 0.5},
		Vignette:     Vignette{Enabled: true, Intensity: 0.1, Roundness: 0.3, Feather: 0.9, Midpoint: 0.7},
		Grain:        Grain{Enabled: true, Intensity: 0.03, Size: 1, Softness: 0.5, Channel: RGB{0.8, 1, 1}},
		DateStamp:    DateStamp{Enabled: true, Text: "2003.10.16", Scale: 0.03, Color: RGB{1, 0.6, 0.1}, Opacity: 1},
		Digicam:      Digicam{Enabled: true, Noise: 0.3, Compression: 0.4, Sharpen: 0.6},
	},
	{
		ID: "negative-35", Name: "35mm Strip", Category: CategoryFilm,
		ColorGrading: ColorGrading{Contrast: 0.05, Saturation: -0.05, Temperature: 0.05, Fade: 0.06},
		Halation:     Halation{Enabled: true, Intensity: 0.3, Threshold: 0.8, Radius: 10, Softness: 0.5, Color: RGB{1, 0.3, 0.1}},
		Vignette:     Vignette{Enabled: true, Intensity: 0.2, Roundness: 1, Feather: 0.5, Midpoint: 0.55},
		Grain:        Grain{Enabled: true, Intensity: 0.07, Size: 1.3, Softness: 0.4, Channel: RGB{1, 1, 1}, Chroma: 0.2},
		FilmStrip: FilmStrip{
			Enabled: true, Border: 0.12, Color: RGB{0.06, 0.04, 0.03},
			Text: "24 25 26", TextColor: RGB{1, 0.6, 0.15},
		},
	},
}

// foldKey folds key for case-insensitive matching. Casers are stateful,
// so each call gets its own.
func foldKey(key string) string { return cases.Fold().String(key) }

// byKey indexes catalog entries by case-folded ID and name.
var byKey = map[string]int{}

func init() {
	for i, p := range catalog {
		if err := p.Validate(); err != nil {
			panic(fmt.Sprintf("preset: invalid catalog entry: %v", err))
		}
		for _, k := range []string{p.ID, p.Name} {
			k = foldKey(k)
			if j, dup := byKey[k]; dup && j != i {
				panic(fmt.Sprintf("preset: duplicate key %q", k))
			}
			byKey[k] = i
		}
	}
}

// All returns copies of every catalog preset in catalog order.
func All() []Preset {
	out := make([]Preset, len(catalog))
	for i, p := range catalog {
		out[i] = p.Clone()
	}
	return out
}

// IDs returns the sorted preset IDs.
func IDs() []string {
	ids := make([]string, len(catalog))
	for i, p := range catalog {
		ids[i] = p.ID
	}
	sort.Strings(ids)
	return ids
}

// Lookup returns a copy of the preset whose ID or name matches key,
// ignoring case.
func Lookup(key string) (Preset, error) {
	i, ok := byKey[foldKey(key)]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return catalog[i].Clone(), nil
}

// ByCategory returns copies of the presets in category c.
func ByCategory(c Category) []Preset {
	var out []Preset
	for _, p := range catalog {
		if p.Category == c {
			out = append(out, p.Clone())
		}
	}
	return out
}
