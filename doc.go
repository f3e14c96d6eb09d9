// Package filmlook renders analog film and video looks on images and
// camera frames.
//
// An Engine compiles the effect programs once, owns a texture pool and a
// lookup-table cache, and runs a preset's effects as an ordered pass graph
// at one of three quality tiers:
//
//   - Capture runs every enabled effect at full fidelity and blocks until
//     the result is ready. It backs ApplyFilter and recording.
//   - LivePreview runs a frame-budget subset and never blocks the caller.
//     The drawable is presented from the GPU completion handler.
//   - GalleryPreview runs grading and vignette only, on a downscaled image.
//
// Effects that cannot run (a program that failed to compile, a scratch
// texture that could not be allocated, a lookup table that did not load)
// are skipped and recorded as diagnostics. An engine whose critical
// programs failed is unusable and fails every render call instead of
// returning undefined pixels.
//
// # Quick Start
//
//	e := filmlook.NewHost(filmlook.WithLUTDir("luts"))
//	defer e.Close()
//
//	p, _ := preset.Lookup("portra-400")
//	out, err := e.ApplyFilter(img, p)
//
// # Devices
//
// NewHost runs effects on the CPU in row bands. Open prefers a hardware
// adapter through gogpu/wgpu and falls back to the host device. New accepts
// any gpu.Device, including one sharing a device with a host application.
package filmlook
