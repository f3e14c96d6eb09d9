package filmlook

import (
	"github.com/gogpu/filmlook/internal/effect"
	"github.com/gogpu/filmlook/internal/uniform"
	"github.com/gogpu/filmlook/preset"
)

// effectKind tags a step of the pass graph.
type effectKind uint8

const (
	kindLensDistortion effectKind = iota
	kindColorGrading
	kindBlackWhite
	kindFlash
	kindCCDBloom
	kindBloom
	kindBloomSimple
	kindVignette
	kindHalation
	kindGrain
	kindLightLeak
	kindDateStamp
	kindOverlays
	kindVHS
	kindDigicam
	kindFilmStrip
	kindInstantFrame
)

var kindNames = [...]string{
	kindLensDistortion: "lens distortion",
	kindColorGrading:   "color grading",
	kindBlackWhite:     "black and white",
	kindFlash:          "flash",
	kindCCDBloom:       "ccd bloom",
	kindBloom:          "bloom",
	kindBloomSimple:    "simple bloom",
	kindVignette:       "vignette",
	kindHalation:       "halation",
	kindGrain:          "grain",
	kindLightLeak:      "light leak",
	kindDateStamp:      "date stamp",
	kindOverlays:       "overlays",
	kindVHS:            "vhs",
	kindDigicam:        "digicam",
	kindFilmStrip:      "film strip",
	kindInstantFrame:   "instant frame",
}

func (k effectKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// slot names a texture binding resolved by the interpreter.
type slot uint8

const (
	slotCurrent  slot = iota // active ping-pong buffer, the step's input
	slotNext                 // the other ping-pong buffer
	slotScratchA             // step-local scratch textures
	slotScratchB
	slotLUT
)

// pass is one program invocation inside a step.
type pass struct {
	program string
	block   any
	inputs  []slot
	output  slot
}

// step is one effect of the graph. Exactly its last pass writes slotNext,
// after which the ping-pong buffers swap roles.
type step struct {
	kind    effectKind
	passes  []pass
	scratch int
}

// programs lists the program names the step needs.
func (s step) programs() []string {
	names := make([]string, len(s.passes))
	for i, p := range s.passes {
		names[i] = p.program
	}
	return names
}

// frameInfo is what buildGraph needs to know about the execution.
type frameInfo struct {
	width, height int
	seed, time    float32

	// lutSize is the edge of the bound LUT, zero for none.
	lutSize int
}

func single(kind effectKind, program string, block any) step {
	return step{kind: kind, passes: []pass{{
		program: program,
		block:   block,
		inputs:  []slot{slotCurrent},
		output:  slotNext,
	}}}
}

// separable builds threshold, h-blur, v-blur and composite at scratch
// resolution.
func separable(kind effectKind, fi frameInfo, fid uniform.Fidelity, threshold, composite string,
	tb uniform.Threshold, radius float32, cb uniform.Composite,
) step {
	sw, sh := fid.ScratchSize(fi.width, fi.height)
	tb.Frame = tb.Frame.WithOut(sw, sh)
	blur := uniform.NewBlur(uniform.NewFrame(sw, sh, fi.seed, fi.time), radius, fid)
	cb.Frame = cb.Frame.WithAux(sw, sh)
	return step{kind: kind, scratch: 2, passes: []pass{
		{program: threshold, block: tb, inputs: []slot{slotCurrent}, output: slotScratchA},
		{program: effect.BlurH, block: blur, inputs: []slot{slotScratchA}, output: slotScratchB},
		{program: effect.BlurV, block: blur, inputs: []slot{slotScratchB}, output: slotScratchA},
		{program: composite, block: cb, inputs: []slot{slotCurrent, slotScratchA}, output: slotNext},
	}}
}

// buildGraph returns the ordered steps for p at tier. Disabled effects are
// left out; color grading is always present.
func buildGraph(p *preset.Preset, tier Tier, fi frameInfo) []step {
	f := uniform.NewFrame(fi.width, fi.height, fi.seed, fi.time)
	fid := tier.fidelity()
	var steps []step

	if tier == Capture && p.LensDistortion.Enabled {
		steps = append(steps, single(kindLensDistortion, effect.LensDistortion, uniform.NewLensDistortion(f, p.LensDistortion)))
	}

	grading := single(kindColorGrading, effect.ColorGrading,
		uniform.NewColorGrading(f, p.ColorGrading, p.LUTIntensity, fi.lutSize))
	if fi.lutSize > 0 && p.LUTIntensity > 0 {
		grading.passes[0].inputs = []slot{slotCurrent, slotLUT}
	}
	steps = append(steps, grading)

	if tier == GalleryPreview {
		if p.Vignette.Enabled {
			steps = append(steps, single(kindVignette, effect.Vignette, uniform.NewVignette(f, p.Vignette)))
		}
		return steps
	}

	if p.BlackWhite.Enabled {
		steps = append(steps, single(kindBlackWhite, effect.BlackWhite, uniform.NewBlackWhite(f, p.BlackWhite)))
	}
	if p.Flash.Enabled {
		steps = append(steps, single(kindFlash, effect.Flash, uniform.NewFlash(f, p.Flash)))
	}
	if p.CCDBloom.Enabled {
		steps = append(steps, single(kindCCDBloom, effect.CCDBloom, uniform.NewCCDBloom(f, p.CCDBloom)))
	}
	if p.Bloom.Enabled {
		if tier == Capture {
			steps = append(steps, separable(kindBloom, fi, fid, effect.BloomThreshold, effect.BloomComposite,
				uniform.NewBloomThreshold(f, p.Bloom), p.Bloom.Radius, uniform.NewBloomComposite(f, p.Bloom)))
		} else {
			steps = append(steps, single(kindBloomSimple, effect.BloomSimple, uniform.NewBloomSimple(f, p.Bloom, fid)))
		}
	}
	if p.Vignette.Enabled {
		steps = append(steps, single(kindVignette, effect.Vignette, uniform.NewVignette(f, p.Vignette)))
	}
	if tier == Capture && p.Halation.Enabled {
		steps = append(steps, separable(kindHalation, fi, fid, effect.HalationThreshold, effect.HalationComposite,
			uniform.NewHalationThreshold(f, p.Halation), p.Halation.Radius, uniform.NewHalationComposite(f, p.Halation)))
	}
	if p.Grain.Enabled {
		steps = append(steps, single(kindGrain, effect.Grain, uniform.NewGrain(f, p.Grain)))
	}
	if p.LightLeak.Enabled {
		steps = append(steps, single(kindLightLeak, effect.LightLeak, uniform.NewLightLeak(f, p.LightLeak)))
	}
	if p.DateStamp.Enabled {
		steps = append(steps, single(kindDateStamp, effect.DateStamp, uniform.NewStamp(f, p.DateStamp)))
	}
	if p.Overlays.Enabled {
		steps = append(steps, single(kindOverlays, effect.Overlays, uniform.NewOverlays(f, p.Overlays)))
	}
	if tier == Capture {
		if p.VHS.Enabled {
			steps = append(steps, single(kindVHS, effect.VHS, uniform.NewVHS(f, p.VHS)))
		}
		if p.Digicam.Enabled {
			steps = append(steps, single(kindDigicam, effect.Digicam, uniform.NewDigicam(f, p.Digicam)))
		}
		if p.FilmStrip.Enabled {
			steps = append(steps, single(kindFilmStrip, effect.FilmStrip, uniform.NewFilmStrip(f, p.FilmStrip)))
		}
	}
	if p.InstantFrame.Enabled {
		steps = append(steps, single(kindInstantFrame, effect.InstantFrame, uniform.NewInstantFrame(f, p.InstantFrame)))
	}
	return steps
}

// passCount returns the number of passes the graph encodes, including the
// final copy.
func passCount(steps []step) int {
	n := 1
	for _, s := range steps {
		n += len(s.passes)
	}
	return n
}
