// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
)

// ErrEmptyShader is returned for programs without WGSL source.
var ErrEmptyShader = errors.New("gpu: empty shader source")

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(wgslSource string) ([]uint32, error) {
	if strings.TrimSpace(wgslSource) == "" {
		return nil, ErrEmptyShader
	}
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// ValidateWGSL reports whether the source compiles.
func ValidateWGSL(wgslSource string) error {
	_, err := CompileSPIRV(wgslSource)
	return err
}
