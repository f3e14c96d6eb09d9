// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides presentable render targets for live preview.
//
// A Surface hands out Drawables, one per frame. The renderer writes the
// final image of a frame into the drawable's texture and presents it once
// the GPU has finished; a drawable that cannot be rendered is discarded.
// Surfaces keep a small ring of drawables, so a producer that outruns the
// display gets ErrNoDrawable and drops the frame instead of blocking.
//
// # Targets
//
// Window-system layers register themselves as targets with a priority:
//
//	surface.Register("metal-layer", 100, factory, available)
//
//	s, err := surface.Open(dev, surface.Options{Width: 1920, Height: 1080})
//
// The built-in "offscreen" target renders into device textures and keeps
// the last presented frame for Snapshot.
package surface
