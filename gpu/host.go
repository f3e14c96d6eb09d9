// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/filmlook/internal/parallel"
)

// HostOptions configures a HostDevice.
type HostOptions struct {
	// Workers is the number of row-band workers. Zero means GOMAXPROCS.
	Workers int

	// ValidateShaders compiles each program's WGSL with naga during
	// CompileProgram, so shader regressions surface even without a GPU.
	ValidateShaders bool

	// QueueDepth bounds the number of committed but unexecuted work units.
	// Commit blocks when the queue is full. Zero means 16.
	QueueDepth int
}

// HostDevice executes work units on the CPU.
//
// A single queue goroutine executes committed work units in submission
// order, like a hardware command queue. Each pass is split into row bands
// that run on a worker pool.
//
// HostDevice is safe for concurrent use.
type HostDevice struct {
	opts    HostOptions
	workers *parallel.WorkerPool

	mu      sync.Mutex // guards closed and senders
	closed  bool
	stop    chan struct{}
	senders sync.WaitGroup
	queue   chan *hostWorkUnit
	wg      sync.WaitGroup

	live atomic.Int64
}

var _ Device = (*HostDevice)(nil)

// NewHostDevice creates a host device and starts its queue.
func NewHostDevice(opts HostOptions) *HostDevice {
	depth := opts.QueueDepth
	if depth <= 0 {
		depth = 16
	}
	d := &HostDevice{
		opts:    opts,
		workers: parallel.NewWorkerPool(opts.Workers),
		queue:   make(chan *hostWorkUnit, depth),
		stop:    make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	slogger().Info("gpu: host device ready", "workers", d.workers.Workers(), "validate", opts.ValidateShaders)
	return d
}

// Name returns "host".
func (d *HostDevice) Name() string { return "host" }

// LiveTextures returns the number of created and not yet destroyed textures.
func (d *HostDevice) LiveTextures() int { return int(d.live.Load()) }

type hostProgram struct {
	name   string
	kernel HostKernel
}

func (p *hostProgram) Name() string { return p.name }

// CompileProgram binds the program's host kernel.
func (d *HostDevice) CompileProgram(src ProgramSource) (Program, error) {
	if src.Host == nil {
		return nil, fmt.Errorf("%w: %s has no host kernel", ErrProgramUnavailable, src.Name)
	}
	if d.opts.ValidateShaders {
		if err := ValidateWGSL(src.WGSL); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrProgramUnavailable, src.Name, err)
		}
	}
	return &hostProgram{name: src.Name, kernel: src.Host}, nil
}

// CreateTexture allocates a zeroed host texture.
func (d *HostDevice) CreateTexture(desc TextureDescriptor) (Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if d.isClosed() {
		return nil, ErrDeviceClosed
	}
	d.live.Add(1)
	return newHostTexture(d, desc), nil
}

// DestroyTexture releases a host texture's storage.
func (d *HostDevice) DestroyTexture(t Texture) {
	ht, ok := t.(*HostTexture)
	if !ok || ht.dev != d {
		return
	}
	if ht.released.CompareAndSwap(false, true) {
		ht.F32, ht.F16, ht.U8 = nil, nil, nil
		d.live.Add(-1)
	}
}

func (d *HostDevice) own(t Texture) (*HostTexture, error) {
	ht, ok := t.(*HostTexture)
	if !ok || (ht.dev != nil && ht.dev != d) {
		return nil, ErrForeignTexture
	}
	if ht.released.Load() {
		return nil, ErrTextureReleased
	}
	return ht, nil
}

// WriteTexture uploads packed texels.
func (d *HostDevice) WriteTexture(t Texture, data []byte) error {
	ht, err := d.own(t)
	if err != nil {
		return err
	}
	return ht.SetBytes(data)
}

// ReadTexture returns packed texels.
func (d *HostDevice) ReadTexture(t Texture) ([]byte, error) {
	ht, err := d.own(t)
	if err != nil {
		return nil, err
	}
	return ht.Bytes(), nil
}

// NewWorkUnit starts a work unit.
func (d *HostDevice) NewWorkUnit(label string) (WorkUnit, error) {
	if d.isClosed() {
		return nil, ErrDeviceClosed
	}
	return &hostWorkUnit{dev: d, label: label, done: make(chan struct{})}, nil
}

// Close executes the units already queued and stops the workers. Commits
// still waiting for queue space fail with ErrDeviceClosed.
func (d *HostDevice) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.stop)
	d.mu.Unlock()

	d.senders.Wait()
	close(d.queue)
	d.wg.Wait()
	d.workers.Close()
}

func (d *HostDevice) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// submit blocks while the queue is full, without holding d.mu, so
// completion handlers may keep using the device.
func (d *HostDevice) submit(u *hostWorkUnit) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDeviceClosed
	}
	d.senders.Add(1)
	d.mu.Unlock()
	defer d.senders.Done()

	select {
	case d.queue <- u:
		return nil
	case <-d.stop:
		return ErrDeviceClosed
	}
}

func (d *HostDevice) run() {
	defer d.wg.Done()
	for u := range d.queue {
		u.execute()
	}
}

type hostWorkUnit struct {
	dev      *HostDevice
	label    string
	cmds     []func() error
	handlers []func(error)

	committed bool
	done      chan struct{}
	err       error
}

func (u *hostWorkUnit) Dispatch(p Pass) error {
	if u.committed {
		return ErrAlreadyCommitted
	}
	if err := checkHazard(p); err != nil {
		return fmt.Errorf("%s: %w", p.Program.Name(), err)
	}
	prog, ok := p.Program.(*hostProgram)
	if !ok {
		return fmt.Errorf("%w: %s was not compiled for the host device", ErrProgramUnavailable, p.Program.Name())
	}
	dst, err := u.dev.own(p.Output)
	if err != nil {
		return err
	}
	srcs := make([]*HostTexture, len(p.Inputs))
	for i, in := range p.Inputs {
		if srcs[i], err = u.dev.own(in); err != nil {
			return err
		}
	}
	params := p.Params
	u.cmds = append(u.cmds, func() error {
		rows, err := prog.kernel(params, dst, srcs)
		if err != nil {
			return fmt.Errorf("%s: %w", prog.name, err)
		}
		u.dev.workers.RunRows(dst.Height(), rows)
		return nil
	})
	return nil
}

func (u *hostWorkUnit) Copy(dst, src Texture) error {
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
	if err := d.checkCopy(s); err != nil {
		return err
	}
	u.cmds = append(u.cmds, func() error {
		u.dev.workers.RunRows(d.Height(), func(y0, y1 int) { d.copyRows(s, y0, y1) })
		return nil
	})
	return nil
}

func (u *hostWorkUnit) AddCompletedHandler(fn func(error)) {
	if fn != nil {
		u.handlers = append(u.handlers, fn)
	}
}

func (u *hostWorkUnit) Commit() error {
	if u.committed {
		return ErrAlreadyCommitted
	}
	u.committed = true
	return u.dev.submit(u)
}

func (u *hostWorkUnit) CommitAndWait() error {
	if err := u.Commit(); err != nil {
		return err
	}
	<-u.done
	return u.err
}

func (u *hostWorkUnit) Discard() {
	if u.committed {
		return
	}
	u.committed = true
	u.cmds, u.handlers = nil, nil
}

func (u *hostWorkUnit) execute() {
	for _, cmd := range u.cmds {
		if err := cmd(); err != nil {
			u.err = fmt.Errorf("gpu: work unit %q: %w", u.label, err)
			break
		}
	}
	for _, fn := range u.handlers {
		fn(u.err)
	}
	close(u.done)
}
