// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/filmlook/gpu"
)

func offscreenFactory(dev gpu.Device, opts Options) (Surface, error) {
	return NewOffscreen(dev, opts)
}

// register adds a target for the duration of the test.
func register(t *testing.T, name string, priority int, f Factory, available func() bool) {
	t.Helper()
	Register(name, priority, f, available)
	t.Cleanup(func() { Unregister(name) })
}

func newHost(t *testing.T) *gpu.HostDevice {
	t.Helper()
	dev := gpu.NewHostDevice(gpu.HostOptions{Workers: 1})
	t.Cleanup(dev.Close)
	return dev
}

func TestTargets_PriorityOrder(t *testing.T) {
	register(t, "window-b", 100, offscreenFactory, nil)
	register(t, "window-a", 100, offscreenFactory, nil)
	register(t, "headless-only", 200, offscreenFactory, func() bool { return false })

	got := Targets()
	want := []string{"window-a", "window-b", "offscreen"}
	if len(got) < 3 || !slices.Equal(got[:3], want) {
		t.Errorf("Targets() = %v, want prefix %v", got, want)
	}
	if slices.Contains(got, "headless-only") {
		t.Error("unavailable target listed")
	}
}

func TestOpen_FallsBack(t *testing.T) {
	dev := newHost(t)
	errBroken := errors.New("broken")
	register(t, "broken", 500, func(gpu.Device, Options) (Surface, error) { return nil, errBroken }, nil)

	s, err := Open(dev, Options{Width: 16, Height: 9})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*Offscreen); !ok {
		t.Errorf("Open returned %T, want the offscreen fallback", s)
	}
	if s.Width() != 16 || s.Height() != 9 {
		t.Errorf("surface is %dx%d", s.Width(), s.Height())
	}
}

func TestOpen_Errors(t *testing.T) {
	dev := newHost(t)

	if _, err := Open(dev, Options{Width: 0, Height: 4}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("zero width: err = %v, want ErrInvalidSize", err)
	}
	if _, err := OpenTarget("missing", dev, Options{Width: 4, Height: 4}); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("missing target: err = %v, want ErrUnknownTarget", err)
	}
	register(t, "off", 1, offscreenFactory, func() bool { return false })
	if _, err := OpenTarget("off", dev, Options{Width: 4, Height: 4}); !errors.Is(err, ErrTargetUnavailable) {
		t.Errorf("unavailable target: err = %v, want ErrTargetUnavailable", err)
	}
}

func TestRegister_Panics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"nil factory", func() { Register("nil-factory", 1, nil, nil) }},
		{"duplicate", func() { Register("offscreen", 1, offscreenFactory, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Register did not panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestOpenTarget_Offscreen(t *testing.T) {
	dev := newHost(t)
	s, err := OpenTarget("offscreen", dev, Options{Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("OpenTarget: %v", err)
	}
	_ = s.Close()
}
