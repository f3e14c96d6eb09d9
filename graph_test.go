package filmlook

import (
	"testing"

	"github.com/gogpu/filmlook/internal/effect"
	"github.com/gogpu/filmlook/preset"
)

func kinds(steps []step) []effectKind {
	out := make([]effectKind, len(steps))
	for i, s := range steps {
		out[i] = s.kind
	}
	return out
}

func TestBuildGraph_Order(t *testing.T) {
	p := everything()
	fi := frameInfo{width: 64, height: 48}

	tests := []struct {
		tier Tier
		want []effectKind
	}{
		{Capture, []effectKind{
			kindLensDistortion, kindColorGrading, kindBlackWhite, kindFlash, kindCCDBloom,
			kindBloom, kindVignette, kindHalation, kindGrain, kindLightLeak, kindDateStamp,
			kindOverlays, kindVHS, kindDigicam, kindFilmStrip, kindInstantFrame,
		}},
		{LivePreview, []effectKind{
			kindColorGrading, kindBlackWhite, kindFlash, kindCCDBloom, kindBloomSimple,
			kindVignette, kindGrain, kindLightLeak, kindDateStamp, kindOverlays, kindInstantFrame,
		}},
		{GalleryPreview, []effectKind{kindColorGrading, kindVignette}},
	}
	for _, tt := range tests {
		t.Run(tt.tier.String(), func(t *testing.T) {
			got := kinds(buildGraph(&p, tt.tier, fi))
			if len(got) != len(tt.want) {
				t.Fatalf("steps = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("step %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildGraph_DisabledEffectsNeverRun(t *testing.T) {
	p, _ := preset.Lookup("neutral")
	for _, tier := range []Tier{LivePreview, GalleryPreview, Capture} {
		steps := buildGraph(&p, tier, frameInfo{width: 8, height: 8})
		if len(steps) != 1 || steps[0].kind != kindColorGrading {
			t.Errorf("%s: steps = %v, want grading only", tier, kinds(steps))
		}
		if n := passCount(steps); n != 2 {
			t.Errorf("%s: passCount = %d, want 2", tier, n)
		}
	}
}

func TestBuildGraph_SlotDiscipline(t *testing.T) {
	p := everything()
	for _, tier := range []Tier{LivePreview, GalleryPreview, Capture} {
		for _, s := range buildGraph(&p, tier, frameInfo{width: 40, height: 30, lutSize: 17}) {
			for i, ps := range s.passes {
				last := i == len(s.passes)-1
				if (ps.output == slotNext) != last {
					t.Errorf("%s %s pass %d writes %d; only the last pass may write next", tier, s.kind, i, ps.output)
				}
				for _, in := range ps.inputs {
					if in == ps.output {
						t.Errorf("%s %s pass %d reads its own output", tier, s.kind, i)
					}
					if in == slotNext {
						t.Errorf("%s %s pass %d reads the next buffer", tier, s.kind, i)
					}
				}
			}
			if s.scratch == 0 {
				for _, ps := range s.passes {
					if ps.output == slotScratchA || ps.output == slotScratchB {
						t.Errorf("%s %s writes scratch without leasing it", tier, s.kind)
					}
				}
			}
		}
	}
}

func TestBuildGraph_LUTBinding(t *testing.T) {
	p, _ := preset.Lookup("gold-200")

	bound := buildGraph(&p, Capture, frameInfo{width: 8, height: 8, lutSize: 33})
	if in := bound[0].passes[0].inputs; len(in) != 2 || in[1] != slotLUT {
		t.Errorf("grading inputs = %v, want current and LUT", in)
	}

	unbound := buildGraph(&p, Capture, frameInfo{width: 8, height: 8})
	if in := unbound[0].passes[0].inputs; len(in) != 1 {
		t.Errorf("grading inputs without LUT = %v, want current only", in)
	}

	p.LUTIntensity = 0
	zero := buildGraph(&p, Capture, frameInfo{width: 8, height: 8, lutSize: 33})
	if in := zero[0].passes[0].inputs; len(in) != 1 {
		t.Errorf("grading inputs at zero intensity = %v, want current only", in)
	}
}

func TestBuildGraph_Separable(t *testing.T) {
	p, _ := preset.Lookup("portra-400")
	steps := buildGraph(&p, Capture, frameInfo{width: 100, height: 50})

	var bloom *step
	for i := range steps {
		if steps[i].kind == kindBloom {
			bloom = &steps[i]
		}
	}
	if bloom == nil {
		t.Fatal("no bloom step at Capture")
	}
	want := []string{effect.BloomThreshold, effect.BlurH, effect.BlurV, effect.BloomComposite}
	got := bloom.programs()
	if len(got) != len(want) {
		t.Fatalf("programs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("program %d = %s, want %s", i, got[i], want[i])
		}
	}
	if bloom.scratch != 2 {
		t.Errorf("scratch = %d, want 2", bloom.scratch)
	}
}

func TestPassCount_Ordering(t *testing.T) {
	fi := frameInfo{width: 64, height: 64}
	for _, p := range append(preset.All(), everything()) {
		g := passCount(buildGraph(&p, GalleryPreview, fi))
		l := passCount(buildGraph(&p, LivePreview, fi))
		c := passCount(buildGraph(&p, Capture, fi))
		if !(2 <= g && g <= l && l <= c) {
			t.Errorf("%s: gallery %d, live %d, capture %d", p.ID, g, l, c)
		}
	}
}

func TestTier_String(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{LivePreview, "live"},
		{GalleryPreview, "gallery"},
		{Capture, "capture"},
		{Tier(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.tier.String(); got != tt.want {
			t.Errorf("Tier(%d).String() = %q, want %q", tt.tier, got, tt.want)
		}
	}
	if f := LivePreview.fidelity(); f.MaxBlurRadius != liveBlurRadius {
		t.Errorf("live MaxBlurRadius = %v, want %d", f.MaxBlurRadius, liveBlurRadius)
	}
}
