// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Binding contract shared by every effect program on hardware devices:
//
//	@group(0) @binding(0) uniform   array<vec4<f32>, 64>  parameters
//	@group(0) @binding(1) storage   array<vec4<f32>>      primary input
//	@group(0) @binding(2) storage   array<u32>            auxiliary input (raw words)
//	@group(0) @binding(3) storage   array<vec4<f32>>      output
const (
	// UniformBlockSize is the size of the parameter binding in bytes.
	UniformBlockSize = 1024

	// maxIdleUniforms bounds the parameter buffers kept for reuse.
	maxIdleUniforms = 64

	workgroupSize = 8
)

// ErrUnsupportedCopy is returned for format conversions the device cannot encode.
var ErrUnsupportedCopy = errors.New("gpu: unsupported copy")

// blitShaderSource converts RGBA32F texels into packed 8-bit texels.
// u[0] = (width, height, swapRB, 0).
const blitShaderSource = `
@group(0) @binding(0) var<uniform> u: array<vec4<f32>, 64>;
@group(0) @binding(1) var<storage, read> src0: array<vec4<f32>>;
@group(0) @binding(2) var<storage, read> src1: array<u32>;
@group(0) @binding(3) var<storage, read_write> dst: array<u32>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let w = u32(u[0].x);
    let h = u32(u[0].y);
    if (gid.x >= w || gid.y >= h) {
        return;
    }
    let i = gid.y * w + gid.x;
    var c = clamp(src0[i], vec4<f32>(0.0), vec4<f32>(1.0));
    if (u[0].z > 0.5) {
        c = c.bgra;
    }
    dst[i] = pack4x8unorm(c);
}
`

// HALDevice runs effect programs as compute shaders through gogpu/wgpu hal.
//
// Textures are storage buffers: RGBA32F as vec4<f32>, RGBA16F as packed
// half pairs, 8-bit formats as packed u32. Readback goes through a
// MapRead staging buffer.
type HALDevice struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	blit       *halProgram
	empty      hal.Buffer

	// Parameter buffers of retired work units, reused by later passes.
	umu            sync.Mutex
	uniforms       []hal.Buffer
	uniformsClosed bool

	externalDevice bool // true when using a shared device (don't destroy on Close)
	closed         bool
	adapterName    string
}

var _ Device = (*HALDevice)(nil)

// OpenHALDevice opens the first discrete or integrated Vulkan adapter.
func OpenHALDevice() (*HALDevice, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters", ErrNoGPU)
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", ErrNoGPU, err)
	}
	d := &HALDevice{
		instance:    instance,
		device:      openDev.Device,
		queue:       openDev.Queue,
		adapterName: selected.Info.Name,
	}
	if err := d.init(); err != nil {
		d.Close()
		return nil, err
	}
	slogger().Info("gpu: hal device ready", "adapter", d.adapterName)
	return d, nil
}

// NewHALDevice wraps an already opened hal device and queue.
// The caller keeps ownership: Close does not destroy them.
func NewHALDevice(device hal.Device, queue hal.Queue) (*HALDevice, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", ErrNoGPU)
	}
	d := &HALDevice{device: device, queue: queue, externalDevice: true, adapterName: "external"}
	if err := d.init(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// NewHALDeviceFromProvider adopts the device of a host application. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func NewHALDeviceFromProvider(provider gpucontext.DeviceProvider) (*HALDevice, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrNoGPU)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNoGPU)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNoGPU)
	}
	return NewHALDevice(device, queue)
}

func (d *HALDevice) init() error {
	storage := func(binding uint32, kind gputypes.BufferBindingType) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: kind},
		}
	}
	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "filmlook_pass_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storage(0, gputypes.BufferBindingTypeUniform),
			storage(1, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(2, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(3, gputypes.BufferBindingTypeStorage),
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	d.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "filmlook_pass_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout

	d.empty, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "filmlook_empty", Size: 16,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create empty buffer: %w", err)
	}

	blit, err := d.compile("blit", blitShaderSource)
	if err != nil {
		return err
	}
	d.blit = blit
	return nil
}

// Name returns "hal:<adapter>".
func (d *HALDevice) Name() string { return "hal:" + d.adapterName }

type halProgram struct {
	name     string
	module   hal.ShaderModule
	pipeline hal.ComputePipeline
}

func (p *halProgram) Name() string { return p.name }

// CompileProgram compiles the program's WGSL into a compute pipeline.
func (d *HALDevice) CompileProgram(src ProgramSource) (Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	p, err := d.compile(src.Name, src.WGSL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProgramUnavailable, src.Name, err)
	}
	return p, nil
}

func (d *HALDevice) compile(name, source string) (*halProgram, error) {
	spirv, err := CompileSPIRV(source)
	if err != nil {
		return nil, err
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  name,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}
	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: name + "_pipeline", Layout: d.pipeLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		d.device.DestroyShaderModule(module)
		return nil, fmt.Errorf("create compute pipeline: %w", err)
	}
	return &halProgram{name: name, module: module, pipeline: pipeline}, nil
}

type halTexture struct {
	desc     TextureDescriptor
	dev      *HALDevice
	buf      hal.Buffer
	size     uint64
	released atomic.Bool
}

func (t *halTexture) Descriptor() TextureDescriptor { return t.desc }
func (t *halTexture) Width() int                    { return t.desc.Width }
func (t *halTexture) Height() int                   { return t.desc.Height }

// CreateTexture allocates a storage buffer sized for the texture.
func (d *HALDevice) CreateTexture(desc TextureDescriptor) (Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	size := desc.SizeBytes()
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label, Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture buffer %s: %w", desc.Key(), err)
	}
	return &halTexture{desc: desc, dev: d, buf: buf, size: size}, nil
}

// DestroyTexture releases the texture's buffer.
func (d *HALDevice) DestroyTexture(t Texture) {
	ht, ok := t.(*halTexture)
	if !ok || ht.dev != d {
		return
	}
	if ht.released.CompareAndSwap(false, true) {
		d.mu.Lock()
		defer d.mu.Unlock()
		// Buffers die with the device.
		if d.device != nil {
			d.device.DestroyBuffer(ht.buf)
		}
	}
}

func (d *HALDevice) own(t Texture) (*halTexture, error) {
	ht, ok := t.(*halTexture)
	if !ok || ht.dev != d {
		return nil, ErrForeignTexture
	}
	if ht.released.Load() {
		return nil, ErrTextureReleased
	}
	return ht, nil
}

// WriteTexture uploads packed texels through the queue.
func (d *HALDevice) WriteTexture(t Texture, data []byte) error {
	ht, err := d.own(t)
	if err != nil {
		return err
	}
	if uint64(len(data)) != ht.size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrDataSize, len(data), ht.size)
	}
	d.queue.WriteBuffer(ht.buf, 0, data)
	return nil
}

// ReadTexture copies the texture into a staging buffer and reads it back.
func (d *HALDevice) ReadTexture(t Texture) ([]byte, error) {
	ht, err := d.own(t)
	if err != nil {
		return nil, err
	}
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "filmlook_staging", Size: ht.size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	u := &halWorkUnit{dev: d, label: "readback"}
	u.encode = append(u.encode, func(enc hal.CommandEncoder) {
		enc.CopyBufferToBuffer(ht.buf, staging, []hal.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: ht.size}})
	})
	if err := u.CommitAndWait(); err != nil {
		return nil, err
	}
	out := make([]byte, ht.size)
	if err := d.queue.ReadBuffer(staging, 0, out); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return out, nil
}

// NewWorkUnit starts a work unit.
func (d *HALDevice) NewWorkUnit(label string) (WorkUnit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	return &halWorkUnit{dev: d, label: label}, nil
}

// Close destroys pipelines and, unless the device is shared, the device.
func (d *HALDevice) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.device == nil {
		return
	}
	d.umu.Lock()
	for _, b := range d.uniforms {
		d.device.DestroyBuffer(b)
	}
	d.uniforms, d.uniformsClosed = nil, true
	d.umu.Unlock()
	if d.blit != nil {
		d.device.DestroyComputePipeline(d.blit.pipeline)
		d.device.DestroyShaderModule(d.blit.module)
	}
	if d.empty != nil {
		d.device.DestroyBuffer(d.empty)
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
	}
	if !d.externalDevice {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
}

type halWorkUnit struct {
	dev       *HALDevice
	label     string
	encode    []func(enc hal.CommandEncoder)
	buffers   []hal.Buffer
	groups    []hal.BindGroup
	handlers  []func(error)
	committed bool
}

func (u *halWorkUnit) bind(prog *halProgram, params []byte, out *halTexture, inputs []*halTexture) error {
	d := u.dev
	block := make([]byte, UniformBlockSize)
	copy(block, params)
	ub, err := d.takeUniform()
	if err != nil {
		return err
	}
	u.buffers = append(u.buffers, ub)
	d.queue.WriteBuffer(ub, 0, block)

	resource := func(slot int) gputypes.BufferBinding {
		if slot < len(inputs) {
			return gputypes.BufferBinding{Buffer: inputs[slot].buf.NativeHandle(), Offset: 0, Size: inputs[slot].size}
		}
		return gputypes.BufferBinding{Buffer: d.empty.NativeHandle(), Offset: 0, Size: 16}
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: prog.name + "_bind", Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: UniformBlockSize}},
			{Binding: 1, Resource: resource(0)},
			{Binding: 2, Resource: resource(1)},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: out.buf.NativeHandle(), Offset: 0, Size: out.size}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	u.groups = append(u.groups, bg)

	//nolint:gosec // G115: texture dimensions always fit uint32
	w, h := uint32(out.desc.Width), uint32(out.desc.Height)
	u.encode = append(u.encode, func(enc hal.CommandEncoder) {
		pass := enc.BeginComputePass(&hal.ComputePassDescriptor{Label: prog.name})
		pass.SetPipeline(prog.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch((w+workgroupSize-1)/workgroupSize, (h+workgroupSize-1)/workgroupSize, 1)
		pass.End()
	})
	return nil
}

func (u *halWorkUnit) Dispatch(p Pass) error {
	if u.committed {
		return ErrAlreadyCommitted
	}
	if err := checkHazard(p); err != nil {
		return fmt.Errorf("%s: %w", p.Program.Name(), err)
	}
	prog, ok := p.Program.(*halProgram)
	if !ok {
		return fmt.Errorf("%w: %s was not compiled for this device", ErrProgramUnavailable, p.Program.Name())
	}
	out, err := u.dev.own(p.Output)
	if err != nil {
		return err
	}
	inputs := make([]*halTexture, len(p.Inputs))
	for i, in := range p.Inputs {
		if inputs[i], err = u.dev.own(in); err != nil {
			return err
		}
	}
	return u.bind(prog, p.Params, out, inputs)
}

func (u *halWorkUnit) Copy(dst, src Texture) error {
	if u.committed {
		return ErrAlreadyCommitted
	}
	if dst == src {
		return ErrReadWriteHazard
	}
	d, err := u.dev.own(dst)
	if err != nil {
		return err
	}
	s, err := u.dev.own(src)
	if err != nil {
		return err
	}
	if d.desc.Width != s.desc.Width || d.desc.Height != s.desc.Height {
		return fmt.Errorf("%w: copy %dx%d into %dx%d", ErrDataSize, s.desc.Width, s.desc.Height, d.desc.Width, d.desc.Height)
	}
	if d.desc.Format == s.desc.Format {
		u.encode = append(u.encode, func(enc hal.CommandEncoder) {
			enc.CopyBufferToBuffer(s.buf, d.buf, []hal.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: d.size}})
		})
		return nil
	}
	if s.desc.Format != FormatRGBA32F || (d.desc.Format != FormatBGRA8 && d.desc.Format != FormatRGBA8) {
		return fmt.Errorf("%w: %s to %s", ErrUnsupportedCopy, s.desc.Format, d.desc.Format)
	}
	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:], math.Float32bits(float32(d.desc.Width)))
	binary.LittleEndian.PutUint32(params[4:], math.Float32bits(float32(d.desc.Height)))
	if d.desc.Format == FormatBGRA8 {
		binary.LittleEndian.PutUint32(params[8:], math.Float32bits(1))
	}
	return u.bind(u.dev.blit, params, d, []*halTexture{s})
}

func (u *halWorkUnit) AddCompletedHandler(fn func(error)) {
	if fn != nil {
		u.handlers = append(u.handlers, fn)
	}
}

// submit encodes and submits the unit, returning the fence to wait on.
func (u *halWorkUnit) submit() (hal.Fence, hal.CommandBuffer, error) {
	if u.committed {
		return nil, nil, ErrAlreadyCommitted
	}
	u.committed = true
	d := u.dev

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: u.label})
	if err != nil {
		return nil, nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(u.label); err != nil {
		return nil, nil, fmt.Errorf("begin encoding: %w", err)
	}
	for _, enc := range u.encode {
		enc(encoder)
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, nil, fmt.Errorf("end encoding: %w", err)
	}
	fence, err := d.device.CreateFence()
	if err != nil {
		d.device.FreeCommandBuffer(cmdBuf)
		return nil, nil, fmt.Errorf("create fence: %w", err)
	}
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		d.device.DestroyFence(fence)
		d.device.FreeCommandBuffer(cmdBuf)
		return nil, nil, fmt.Errorf("submit: %w", err)
	}
	return fence, cmdBuf, nil
}

// wait blocks until the fence signals. There is no overall timeout: the
// loop only bounds each individual wait call.
func (u *halWorkUnit) wait(fence hal.Fence, cmdBuf hal.CommandBuffer) error {
	d := u.dev
	defer func() {
		d.device.DestroyFence(fence)
		d.device.FreeCommandBuffer(cmdBuf)
		u.release()
	}()
	for {
		ok, err := d.device.Wait(fence, 1, time.Second)
		if err != nil {
			return fmt.Errorf("wait for GPU: %w", err)
		}
		if ok {
			return nil
		}
	}
}

func (u *halWorkUnit) release() {
	for _, bg := range u.groups {
		u.dev.device.DestroyBindGroup(bg)
	}
	for _, b := range u.buffers {
		u.dev.putUniform(b)
	}
	u.groups, u.buffers = nil, nil
}

// takeUniform returns an idle parameter buffer or creates one.
func (d *HALDevice) takeUniform() (hal.Buffer, error) {
	d.umu.Lock()
	if n := len(d.uniforms); n > 0 {
		b := d.uniforms[n-1]
		d.uniforms = d.uniforms[:n-1]
		d.umu.Unlock()
		return b, nil
	}
	d.umu.Unlock()
	b, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "params", Size: UniformBlockSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	return b, nil
}

// putUniform keeps b for reuse, destroying it when the idle list is full.
func (d *HALDevice) putUniform(b hal.Buffer) {
	d.umu.Lock()
	defer d.umu.Unlock()
	if d.uniformsClosed {
		return
	}
	if len(d.uniforms) < maxIdleUniforms {
		d.uniforms = append(d.uniforms, b)
		return
	}
	d.device.DestroyBuffer(b)
}

// IdleUniforms returns the number of parameter buffers waiting for reuse.
func (d *HALDevice) IdleUniforms() int {
	d.umu.Lock()
	defer d.umu.Unlock()
	return len(d.uniforms)
}

func (u *halWorkUnit) Discard() {
	if u.committed {
		return
	}
	u.committed = true
	u.release()
}

func (u *halWorkUnit) finish(err error) error {
	if err != nil {
		err = fmt.Errorf("gpu: work unit %q: %w", u.label, err)
	}
	for _, fn := range u.handlers {
		fn(err)
	}
	return err
}

func (u *halWorkUnit) Commit() error {
	if u.committed {
		return ErrAlreadyCommitted
	}
	fence, cmdBuf, err := u.submit()
	if err != nil {
		// Nothing executed; handlers only run for submitted units.
		u.release()
		return fmt.Errorf("gpu: work unit %q: %w", u.label, err)
	}
	go func() {
		if err := u.finish(u.wait(fence, cmdBuf)); err != nil {
			slogger().Warn("gpu: async work unit failed", "label", u.label, "err", err)
		}
	}()
	return nil
}

func (u *halWorkUnit) CommitAndWait() error {
	if u.committed {
		return ErrAlreadyCommitted
	}
	fence, cmdBuf, err := u.submit()
	if err != nil {
		u.release()
		return fmt.Errorf("gpu: work unit %q: %w", u.label, err)
	}
	return u.finish(u.wait(fence, cmdBuf))
}
