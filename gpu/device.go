// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "errors"

// Device and work unit errors.
var (
	// ErrDeviceClosed is returned when using a closed device.
	ErrDeviceClosed = errors.New("gpu: device closed")

	// ErrNoGPU is returned when no hardware adapter can be opened.
	ErrNoGPU = errors.New("gpu: no compatible GPU found")

	// ErrProgramUnavailable is returned when a program cannot be compiled
	// for this device.
	ErrProgramUnavailable = errors.New("gpu: program unavailable")

	// ErrReadWriteHazard is returned when a pass reads the texture it writes.
	ErrReadWriteHazard = errors.New("gpu: pass reads its own output")

	// ErrAlreadyCommitted is returned when a work unit is committed twice
	// or encoded after commit.
	ErrAlreadyCommitted = errors.New("gpu: work unit already committed")
)

// RowFunc computes output rows [y0, y1) of a pass.
// Row bands of one pass may run concurrently.
type RowFunc func(y0, y1 int)

// HostKernel prepares a pass for CPU execution. It decodes params once and
// returns the function computing output rows. dst is never one of srcs.
type HostKernel func(params []byte, dst *HostTexture, srcs []*HostTexture) (RowFunc, error)

// ProgramSource is the device-independent description of an effect program.
type ProgramSource struct {
	// Name identifies the program, e.g. "color_grading".
	Name string

	// WGSL is the compute shader body used by hardware devices.
	WGSL string

	// Host is the kernel used by the host device.
	Host HostKernel
}

// Program is a compiled effect program.
type Program interface {
	Name() string
}

// Pass is one encoded program invocation writing a single output texture.
type Pass struct {
	Program Program

	// Params is the marshaled parameter block the program consumes.
	Params []byte

	// Inputs are bound in order. Inputs[0] is the primary image.
	Inputs []Texture

	Output Texture
}

// WorkUnit is an ordered batch of passes submitted together.
// Passes execute in encoding order.
type WorkUnit interface {
	// Dispatch encodes one program pass.
	Dispatch(p Pass) error

	// Copy encodes a full-texture copy, converting formats when they differ.
	Copy(dst, src Texture) error

	// AddCompletedHandler registers fn to run once the unit has executed.
	// fn receives the execution error, if any. Handlers run on the device
	// queue and must not block.
	AddCompletedHandler(fn func(error))

	// Commit submits the unit and returns immediately.
	Commit() error

	// CommitAndWait submits the unit and blocks until it has executed,
	// returning the execution error.
	CommitAndWait() error

	// Discard abandons an uncommitted unit and frees whatever it encoded.
	// Handlers do not run. Discard after Commit is a no-op.
	Discard()
}

// Device owns textures and programs and executes work units.
type Device interface {
	// Name identifies the device in logs and diagnostics.
	Name() string

	// CompileProgram compiles src for this device.
	CompileProgram(src ProgramSource) (Program, error)

	// CreateTexture allocates a texture. Contents are zeroed.
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// DestroyTexture releases a texture. Destroying twice is a no-op.
	DestroyTexture(t Texture)

	// WriteTexture uploads tightly packed texels in the texture's format.
	WriteTexture(t Texture, data []byte) error

	// ReadTexture returns the texture's texels tightly packed in its format.
	// Callers must ensure no submitted work still writes t.
	ReadTexture(t Texture) ([]byte, error)

	// NewWorkUnit starts a new batch of passes.
	NewWorkUnit(label string) (WorkUnit, error)

	// Close releases device resources. Submitted work is drained first.
	Close()
}

// checkHazard rejects passes whose output is also an input.
func checkHazard(p Pass) error {
	for _, in := range p.Inputs {
		if in == p.Output {
			return ErrReadWriteHazard
		}
	}
	return nil
}
