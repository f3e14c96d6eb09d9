package filmlook

import (
	"fmt"
	"sync"

	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/internal/texpool"
	"github.com/gogpu/filmlook/internal/uniform"
	"github.com/gogpu/filmlook/preset"
)

// Result reports what an execution encoded.
type Result struct {
	Tier Tier

	// Passes is the number of executed passes, including the final copy.
	Passes int

	// Skipped lists the effects left out because a program or scratch
	// texture was unavailable.
	Skipped []string
}

// submitMode selects how the work unit is committed.
type submitMode uint8

const (
	// submitAsync commits and returns. Leases are recycled and onDone runs
	// from the completion handler.
	submitAsync submitMode = iota

	// submitSync blocks until the work completes and returns its error.
	submitSync
)

// job is one execution of the pass graph.
type job struct {
	src, dst gpu.Texture
	preset   *preset.Preset
	tier     Tier
	seed     float32
	time     float32
	mode     submitMode

	// onDone runs after the GPU finished, with the execution error.
	onDone func(error)
}

// execute runs the pass graph for j. It is the only interpreter of steps.
func (e *Engine) execute(j job) (Result, error) {
	res := Result{Tier: j.tier}
	if err := e.Err(); err != nil {
		return res, err
	}
	if j.src == nil || j.dst == nil {
		return res, ErrNilTexture
	}
	w, h := j.src.Width(), j.src.Height()
	if j.dst.Width() != w || j.dst.Height() != h {
		return res, fmt.Errorf("%w: source %dx%d, destination %dx%d", ErrSizeMismatch, w, h, j.dst.Width(), j.dst.Height())
	}

	fi := frameInfo{width: w, height: h, seed: j.seed, time: j.time}
	var lref *lutRef
	var lut gpu.Texture
	if j.preset.LUT != "" && j.preset.LUTIntensity > 0 {
		if lref = e.acquireLUT(j.preset.LUT); lref != nil {
			lut = lref.tex
			fi.lutSize = lut.Width()
		}
	}
	steps := buildGraph(j.preset, j.tier, fi)

	// Everything held for this execution is released exactly once, from
	// the completion handler or from the failing exit path.
	var leases texpool.Leases
	var once sync.Once
	release := func() {
		once.Do(func() {
			leases.Release()
			lref.release()
		})
	}

	ping, err := e.pool.Lease(w, h, gpu.FormatRGBA32F, gpu.UsagePrivate)
	if err != nil {
		release()
		return res, fmt.Errorf("filmlook: lease ping-pong buffer: %w", err)
	}
	leases = append(leases, ping)
	pong, err := e.pool.Lease(w, h, gpu.FormatRGBA32F, gpu.UsagePrivate)
	if err != nil {
		release()
		return res, fmt.Errorf("filmlook: lease ping-pong buffer: %w", err)
	}
	leases = append(leases, pong)

	unit, err := e.dev.NewWorkUnit(fmt.Sprintf("%s %dx%d", j.tier, w, h))
	if err != nil {
		release()
		return res, fmt.Errorf("filmlook: new work unit: %w", err)
	}

	// Failures after this point also drop the encoded passes.
	abort := func() {
		unit.Discard()
		release()
	}

	// The source is read by the first step and never written.
	current, next := j.src, ping.Texture()
	spare := pong.Texture()
	sw, sh := j.tier.fidelity().ScratchSize(w, h)

	for _, s := range steps {
		progs, ok := e.stepPrograms(s)
		if !ok {
			res.Skipped = append(res.Skipped, s.kind.String())
			continue
		}
		scratch, err := e.leaseScratch(s, sw, sh)
		if err != nil {
			e.diagnose(Diagnostic{Stage: StageRender, Effect: s.kind.String(), Err: err})
			res.Skipped = append(res.Skipped, s.kind.String())
			continue
		}
		leases = append(leases, scratch...)

		bind := func(sl slot) gpu.Texture {
			switch sl {
			case slotCurrent:
				return current
			case slotNext:
				return next
			case slotScratchA:
				return scratch[0].Texture()
			case slotScratchB:
				return scratch[1].Texture()
			default:
				return lut
			}
		}

		passes := make([]gpu.Pass, len(s.passes))
		for i, p := range s.passes {
			params, err := uniform.Encode(p.block)
			if err != nil {
				// Encoding failures are programming errors in a block layout.
				abort()
				return res, fmt.Errorf("filmlook: %s: %w", p.program, err)
			}
			inputs := make([]gpu.Texture, len(p.inputs))
			for k, in := range p.inputs {
				inputs[k] = bind(in)
			}
			passes[i] = gpu.Pass{Program: progs[i], Params: params, Inputs: inputs, Output: bind(p.output)}
		}
		for _, p := range passes {
			if err := unit.Dispatch(p); err != nil {
				abort()
				return res, fmt.Errorf("filmlook: dispatch %s: %w", s.kind, err)
			}
		}
		res.Passes += len(passes)
		slogger().Debug("filmlook: encoded step", "effect", s.kind.String(), "passes", len(passes), "tier", j.tier.String())

		current, next = next, current
		if next == j.src {
			next = spare
		}
	}

	if err := unit.Copy(j.dst, current); err != nil {
		abort()
		return res, fmt.Errorf("filmlook: final copy: %w", err)
	}
	res.Passes++

	tier, onDone := j.tier, j.onDone
	unit.AddCompletedHandler(func(err error) {
		release()
		if err != nil && j.mode == submitAsync {
			slogger().Warn("filmlook: async render failed", "tier", tier.String(), "err", err)
		}
		if onDone != nil {
			onDone(err)
		}
	})

	if j.mode == submitAsync {
		if err := unit.Commit(); err != nil {
			release()
			return res, fmt.Errorf("filmlook: commit: %w", err)
		}
		return res, nil
	}
	if err := unit.CommitAndWait(); err != nil {
		// A failed submit never runs the handler.
		release()
		return res, fmt.Errorf("filmlook: %s render: %w", j.tier, err)
	}
	return res, nil
}

// stepPrograms resolves the compiled programs of a step. A missing program
// records a diagnostic.
func (e *Engine) stepPrograms(s step) ([]gpu.Program, bool) {
	names := s.programs()
	progs := make([]gpu.Program, len(names))
	for i, name := range names {
		p, ok := e.programs[name]
		if !ok {
			e.diagnose(Diagnostic{Stage: StageRender, Effect: s.kind.String(), Program: name, Err: ErrProgramMissing})
			return nil, false
		}
		progs[i] = p
	}
	return progs, true
}

// leaseScratch leases the scratch textures of a step. On failure nothing
// stays leased.
func (e *Engine) leaseScratch(s step, w, h int) (texpool.Leases, error) {
	if s.scratch == 0 {
		return nil, nil
	}
	var out texpool.Leases
	for i := 0; i < s.scratch; i++ {
		l, err := e.pool.Lease(w, h, gpu.FormatRGBA32F, gpu.UsagePrivate)
		if err != nil {
			out.Release()
			return nil, fmt.Errorf("%w: %w", ErrScratchUnavailable, err)
		}
		out = append(out, l)
	}
	return out, nil
}
