// Package effect holds the effect programs of the filter graph.
//
// Each program has a WGSL compute shader, assembled from a shared prelude
// and a per-program body, and a host kernel with the same semantics for
// gpu.HostDevice. Programs read their parameters from the blocks in
// internal/uniform and sample their inputs with clamp-to-edge addressing.
//
// Noise is a pure function of texel position, seed and program, so output
// does not depend on how rows are scheduled.
package effect
