// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu is the device layer used by the filmlook render engine.
//
// A [Device] owns textures and compiled programs and accepts work units:
// ordered batches of passes that execute on the device queue in the order
// they were encoded. Work units are either committed asynchronously, with
// completion reported through handlers, or committed and waited on.
//
// Two devices are provided:
//
//   - [HostDevice]: a CPU executor. Programs run as host kernels over row
//     bands on a worker pool. Always available, deterministic, used by tests.
//   - [HALDevice]: a gogpu/wgpu hal compute backend (Vulkan). Programs run as
//     WGSL compute shaders compiled to SPIR-V with naga. Excluded with the
//     nogpu build tag.
//
// # Textures
//
// Textures are described by a [TextureDescriptor]. Its [TextureDescriptor.Key]
// is the canonical string the texture pool uses to match reusable textures.
// Intermediate buffers use [FormatRGBA32F], lookup tables [FormatRGBA16F],
// presentable and readback targets [FormatBGRA8].
//
// # Thread Safety
//
// Devices are safe for concurrent use. A WorkUnit must be encoded from a
// single goroutine and committed exactly once.
package gpu
