package filmlook

import (
	"fmt"
	"time"
)

// Stage tells where a diagnostic was recorded.
type Stage string

// Diagnostic stages.
const (
	StageCompile Stage = "compile"
	StageLUT     Stage = "lut"
	StageRender  Stage = "render"
)

// Diagnostic records a tolerated failure: a program that did not compile,
// a lookup table that did not load, or an effect skipped during a render.
type Diagnostic struct {
	Time    time.Time
	Stage   Stage
	Effect  string // render stage only
	Program string
	LUT     string // lut stage only
	Err     error
}

func (d Diagnostic) String() string {
	subject := d.Program
	switch {
	case d.LUT != "":
		subject = d.LUT
	case d.Effect != "":
		subject = d.Effect
		if d.Program != "" {
			subject += " (" + d.Program + ")"
		}
	}
	return fmt.Sprintf("%s %s: %v", d.Stage, subject, d.Err)
}

// diagnose records d and logs it.
func (e *Engine) diagnose(d Diagnostic) {
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	slogger().Warn("filmlook: "+string(d.Stage)+" diagnostic",
		"effect", d.Effect, "program", d.Program, "lut", d.LUT, "err", d.Err)

	e.diagMu.Lock()
	defer e.diagMu.Unlock()
	if len(e.diags) >= e.opts.diagLimit {
		n := copy(e.diags, e.diags[1:])
		e.diags = e.diags[:n]
	}
	e.diags = append(e.diags, d)
}

// Diagnostics returns the retained diagnostics, oldest first.
func (e *Engine) Diagnostics() []Diagnostic {
	e.diagMu.Lock()
	defer e.diagMu.Unlock()
	return append([]Diagnostic(nil), e.diags...)
}
