// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

package gpu

// OpenHALDevice is unavailable in nogpu builds.
func OpenHALDevice() (Device, error) {
	return nil, ErrNoGPU
}
