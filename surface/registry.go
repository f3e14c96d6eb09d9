// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/filmlook/gpu"
)

// Registry errors.
var (
	// ErrUnknownTarget is returned for target names nobody registered.
	ErrUnknownTarget = errors.New("surface: unknown target")

	// ErrTargetUnavailable is returned when no registered target can run
	// on this system.
	ErrTargetUnavailable = errors.New("surface: target unavailable")
)

// OffscreenPriority is the priority of the built-in offscreen target.
// Window-system layers register above it.
const OffscreenPriority = 10

// Factory creates a surface on dev.
type Factory func(dev gpu.Device, opts Options) (Surface, error)

type target struct {
	name      string
	priority  int
	factory   Factory
	available func() bool
}

var (
	targetsMu sync.RWMutex
	targets   = make(map[string]target)
)

// Register makes a presentation target available under name. available
// reports whether the target can run on this system; nil means always.
// Register panics if factory is nil or name is already registered.
func Register(name string, priority int, factory Factory, available func() bool) {
	if factory == nil {
		panic("surface: Register factory is nil")
	}
	if available == nil {
		available = func() bool { return true }
	}
	targetsMu.Lock()
	defer targetsMu.Unlock()
	if _, dup := targets[name]; dup {
		panic("surface: Register called twice for " + name)
	}
	targets[name] = target{name: name, priority: priority, factory: factory, available: available}
}

// Unregister removes a target. Mainly for tests.
func Unregister(name string) {
	targetsMu.Lock()
	defer targetsMu.Unlock()
	delete(targets, name)
}

// Targets returns the targets available on this system, highest priority
// first, ties by name.
func Targets() []string {
	ts := available()
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.name
	}
	return names
}

func available() []target {
	targetsMu.RLock()
	defer targetsMu.RUnlock()
	var ts []target
	for _, t := range targets {
		if t.available() {
			ts = append(ts, t)
		}
	}
	slices.SortFunc(ts, func(a, b target) int {
		if c := cmp.Compare(b.priority, a.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	return ts
}

// Open creates a surface on the best available target. A target whose
// factory fails is skipped; the last failure is returned when none works.
func Open(dev gpu.Device, opts Options) (Surface, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	ts := available()
	if len(ts) == 0 {
		return nil, ErrTargetUnavailable
	}
	var errs []error
	for _, t := range ts {
		s, err := t.factory(dev, opts)
		if err == nil {
			return s, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
	}
	return nil, errors.Join(errs...)
}

// OpenTarget creates a surface on the named target.
func OpenTarget(name string, dev gpu.Device, opts Options) (Surface, error) {
	targetsMu.RLock()
	t, ok := targets[name]
	targetsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	if !t.available() {
		return nil, fmt.Errorf("%w: %q", ErrTargetUnavailable, name)
	}
	return t.factory(dev, opts)
}

func init() {
	Register("offscreen", OffscreenPriority, func(dev gpu.Device, opts Options) (Surface, error) {
		return NewOffscreen(dev, opts)
	}, nil)
}
