package filmlook

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/filmlook/gpu"
	"github.com/gogpu/filmlook/internal/lut"
)

// lutRef is a cache entry. A failed load is cached too, so a broken file
// is reported once rather than on every frame.
//
// Executions hold a reference while their work is in flight; a texture
// cleared from the cache is destroyed when the last reference goes.
type lutRef struct {
	dev     gpu.Device
	tex     gpu.Texture
	err     error
	refs    atomic.Int32
	retired atomic.Bool
	gone    atomic.Bool
}

func (r *lutRef) release() {
	if r == nil || r.tex == nil {
		return
	}
	if r.refs.Add(-1) == 0 && r.retired.Load() {
		r.destroy()
	}
}

func (r *lutRef) retire() {
	if r.tex == nil {
		return
	}
	r.retired.Store(true)
	if r.refs.Load() == 0 {
		r.destroy()
	}
}

func (r *lutRef) destroy() {
	if r.gone.CompareAndSwap(false, true) {
		r.dev.DestroyTexture(r.tex)
	}
}

// LUT returns the cached lookup table texture for name, loading it on the
// first request. ok is false when the table could not be loaded; the
// failure is recorded as a diagnostic once.
func (e *Engine) LUT(name string) (tex gpu.Texture, ok bool) {
	ref := e.acquireLUT(name)
	if ref == nil {
		return nil, false
	}
	defer ref.release()
	return ref.tex, true
}

// acquireLUT returns a referenced cache entry, or nil when the table is
// unavailable. Concurrent misses for the same name load once.
func (e *Engine) acquireLUT(name string) *lutRef {
	if e.dev == nil {
		return nil
	}
	if ref, found := e.lookupLUT(name); found {
		return ref
	}
	_, _, _ = e.lutGroup.Do(name, func() (any, error) {
		e.lutMu.Lock()
		_, ok := e.luts[name]
		e.lutMu.Unlock()
		if !ok {
			ref := e.loadLUT(name)
			e.lutMu.Lock()
			e.luts[name] = ref
			e.lutMu.Unlock()
		}
		return nil, nil
	})
	ref, _ := e.lookupLUT(name)
	return ref
}

// lookupLUT reports whether name is cached and returns its entry with a
// reference taken under the lock, so a concurrent ClearLUTCache cannot
// destroy the texture first. The entry is nil for a cached failure.
func (e *Engine) lookupLUT(name string) (*lutRef, bool) {
	e.lutMu.Lock()
	defer e.lutMu.Unlock()
	ref, ok := e.luts[name]
	if !ok {
		return nil, false
	}
	if ref.tex == nil {
		return nil, true
	}
	ref.refs.Add(1)
	return ref, true
}

func (e *Engine) loadLUT(name string) *lutRef {
	ref := &lutRef{dev: e.dev}
	if e.opts.lutFS == nil {
		ref.err = ErrNoLUTSource
	} else if table, err := lut.Load(e.opts.lutFS, name); err != nil {
		ref.err = err
	} else if ref.tex, err = lut.Build(e.dev, table, "lut:"+name); err != nil {
		ref.err = fmt.Errorf("build: %w", err)
	}
	if ref.err != nil {
		e.diagnose(Diagnostic{Stage: StageLUT, LUT: name, Err: ref.err})
		return ref
	}
	slogger().Debug("filmlook: loaded LUT", "name", name, "size", ref.tex.Width())
	return ref
}

// ClearLUTCache drops every cached table, including cached failures.
// Textures still bound by in-flight work are destroyed when it completes.
func (e *Engine) ClearLUTCache() {
	e.lutMu.Lock()
	old := e.luts
	e.luts = make(map[string]*lutRef)
	e.lutMu.Unlock()

	for _, ref := range old {
		ref.retire()
	}
}

// LUTCacheLen returns the number of cached entries, failures included.
func (e *Engine) LUTCacheLen() int {
	e.lutMu.Lock()
	defer e.lutMu.Unlock()
	return len(e.luts)
}
