package gpu

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fillKernel writes params[0] into every channel of every output texel.
func fillKernel(params []byte, dst *HostTexture, _ []*HostTexture) (RowFunc, error) {
	if len(params) < 4 {
		return nil, errors.New("missing value")
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(params))
	return func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < dst.Width(); x++ {
				dst.Store(x, y, [4]float32{v, v, v, 1})
			}
		}
	}, nil
}

// invertKernel writes 1 - src.
func invertKernel(_ []byte, dst *HostTexture, srcs []*HostTexture) (RowFunc, error) {
	src := srcs[0]
	return func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < dst.Width(); x++ {
				c := src.Load(x, y)
				dst.Store(x, y, [4]float32{1 - c[0], 1 - c[1], 1 - c[2], c[3]})
			}
		}
	}, nil
}

func f32Params(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func newTestDevice(t *testing.T) *HostDevice {
	t.Helper()
	d := NewHostDevice(HostOptions{Workers: 4})
	t.Cleanup(d.Close)
	return d
}

func mustProgram(t *testing.T, d Device, name string, k HostKernel) Program {
	t.Helper()
	p, err := d.CompileProgram(ProgramSource{Name: name, Host: k})
	if err != nil {
		t.Fatalf("CompileProgram(%s): %v", name, err)
	}
	return p
}

func mustTexture(t *testing.T, d Device, desc TextureDescriptor) Texture {
	t.Helper()
	tex, err := d.CreateTexture(desc)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	return tex
}

func TestHostDevice_PassesRunInOrder(t *testing.T) {
	d := newTestDevice(t)
	fill := mustProgram(t, d, "fill", fillKernel)
	invert := mustProgram(t, d, "invert", invertKernel)

	a := mustTexture(t, d, Desc2D(40, 37, FormatRGBA32F, UsagePrivate))
	b := mustTexture(t, d, Desc2D(40, 37, FormatRGBA32F, UsagePrivate))
	out := mustTexture(t, d, Desc2D(40, 37, FormatBGRA8, UsageReadback))

	u, err := d.NewWorkUnit("order")
	if err != nil {
		t.Fatal(err)
	}
	if err := u.Dispatch(Pass{Program: fill, Params: f32Params(0.25), Output: a}); err != nil {
		t.Fatal(err)
	}
	if err := u.Dispatch(Pass{Program: invert, Inputs: []Texture{a}, Output: b}); err != nil {
		t.Fatal(err)
	}
	if err := u.Copy(out, b); err != nil {
		t.Fatal(err)
	}
	if err := u.CommitAndWait(); err != nil {
		t.Fatalf("CommitAndWait: %v", err)
	}

	data, err := d.ReadTexture(out)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(data); i += 4 {
		if data[i] != 191 || data[i+1] != 191 || data[i+2] != 191 || data[i+3] != 255 {
			t.Fatalf("texel %d = %v, want [191 191 191 255]", i/4, data[i:i+4])
		}
	}
}

func TestHostDevice_ReadWriteHazard(t *testing.T) {
	d := newTestDevice(t)
	invert := mustProgram(t, d, "invert", invertKernel)
	a := mustTexture(t, d, Desc2D(4, 4, FormatRGBA32F, UsagePrivate))

	u, _ := d.NewWorkUnit("hazard")
	if err := u.Dispatch(Pass{Program: invert, Inputs: []Texture{a}, Output: a}); !errors.Is(err, ErrReadWriteHazard) {
		t.Errorf("Dispatch(a -> a) error = %v, want ErrReadWriteHazard", err)
	}
	if err := u.Copy(a, a); !errors.Is(err, ErrReadWriteHazard) {
		t.Errorf("Copy(a, a) error = %v, want ErrReadWriteHazard", err)
	}
}

func TestHostDevice_KernelErrorReachesHandlers(t *testing.T) {
	d := newTestDevice(t)
	fill := mustProgram(t, d, "fill", fillKernel)
	a := mustTexture(t, d, Desc2D(4, 4, FormatRGBA32F, UsagePrivate))

	u, _ := d.NewWorkUnit("broken")
	if err := u.Dispatch(Pass{Program: fill, Output: a}); err != nil {
		t.Fatal(err)
	}
	var handlerErr atomic.Value
	u.AddCompletedHandler(func(err error) { handlerErr.Store(err) })
	err := u.CommitAndWait()
	if err == nil {
		t.Fatal("CommitAndWait succeeded with a failing kernel")
	}
	if got, _ := handlerErr.Load().(error); got == nil || got.Error() != err.Error() {
		t.Errorf("handler error = %v, want %v", got, err)
	}
}

func TestHostDevice_CommitAsync(t *testing.T) {
	d := newTestDevice(t)
	fill := mustProgram(t, d, "fill", fillKernel)
	a := mustTexture(t, d, Desc2D(8, 8, FormatRGBA32F, UsagePrivate))

	done := make(chan error, 1)
	u, _ := d.NewWorkUnit("async")
	if err := u.Dispatch(Pass{Program: fill, Params: f32Params(1), Output: a}); err != nil {
		t.Fatal(err)
	}
	u.AddCompletedHandler(func(err error) { done <- err })
	if err := u.Commit(); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Fatalf("async unit failed: %v", err)
	}
	if err := u.Commit(); !errors.Is(err, ErrAlreadyCommitted) {
		t.Errorf("second Commit error = %v, want ErrAlreadyCommitted", err)
	}
	if err := u.Dispatch(Pass{Program: fill, Params: f32Params(1), Output: a}); !errors.Is(err, ErrAlreadyCommitted) {
		t.Errorf("Dispatch after Commit error = %v, want ErrAlreadyCommitted", err)
	}
}

func TestHostDevice_Discard(t *testing.T) {
	d := newTestDevice(t)
	fill := mustProgram(t, d, "fill", fillKernel)
	a := mustTexture(t, d, Desc2D(4, 4, FormatRGBA32F, UsagePrivate))

	u, _ := d.NewWorkUnit("abandoned")
	if err := u.Dispatch(Pass{Program: fill, Params: f32Params(1), Output: a}); err != nil {
		t.Fatal(err)
	}
	ran := false
	u.AddCompletedHandler(func(error) { ran = true })
	u.Discard()
	u.Discard()

	if err := u.CommitAndWait(); !errors.Is(err, ErrAlreadyCommitted) {
		t.Errorf("CommitAndWait after Discard error = %v, want ErrAlreadyCommitted", err)
	}
	if ran {
		t.Error("handler ran for a discarded unit")
	}
	if c := a.(*HostTexture).Load(0, 0); c != ([4]float32{}) {
		t.Errorf("texel = %v, discarded pass must not execute", c)
	}
}

func TestHostDevice_TextureAccounting(t *testing.T) {
	d := newTestDevice(t)
	a := mustTexture(t, d, Desc2D(4, 4, FormatRGBA8, UsagePrivate))
	b := mustTexture(t, d, Desc2D(4, 4, FormatRGBA8, UsagePrivate))
	if n := d.LiveTextures(); n != 2 {
		t.Errorf("LiveTextures = %d, want 2", n)
	}
	d.DestroyTexture(a)
	d.DestroyTexture(a)
	if n := d.LiveTextures(); n != 1 {
		t.Errorf("LiveTextures after double destroy = %d, want 1", n)
	}
	if _, err := d.ReadTexture(a); !errors.Is(err, ErrTextureReleased) {
		t.Errorf("ReadTexture(destroyed) error = %v, want ErrTextureReleased", err)
	}

	other := NewHostDevice(HostOptions{Workers: 1})
	defer other.Close()
	if _, err := other.ReadTexture(b); !errors.Is(err, ErrForeignTexture) {
		t.Errorf("ReadTexture(foreign) error = %v, want ErrForeignTexture", err)
	}
}

func TestHostDevice_CompileWithoutKernel(t *testing.T) {
	d := newTestDevice(t)
	if _, err := d.CompileProgram(ProgramSource{Name: "gpu_only", WGSL: "fn main() {}"}); !errors.Is(err, ErrProgramUnavailable) {
		t.Errorf("CompileProgram without kernel error = %v, want ErrProgramUnavailable", err)
	}
}

func TestHostDevice_Closed(t *testing.T) {
	d := NewHostDevice(HostOptions{Workers: 1})
	d.Close()
	d.Close()
	if _, err := d.CreateTexture(Desc2D(1, 1, FormatRGBA8, UsagePrivate)); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("CreateTexture after Close error = %v, want ErrDeviceClosed", err)
	}
	if _, err := d.NewWorkUnit("x"); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("NewWorkUnit after Close error = %v, want ErrDeviceClosed", err)
	}
}

// stalledDevice returns a device with a queue of depth one whose queue
// goroutine is blocked inside a kernel until gate is closed, and whose
// queue already holds a second unit.
func stalledDevice(t *testing.T) (d *HostDevice, gate chan struct{}, fill Program, out Texture) {
	t.Helper()
	d = NewHostDevice(HostOptions{Workers: 1, QueueDepth: 1})
	gate = make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	block := mustProgram(t, d, "block", func(_ []byte, _ *HostTexture, _ []*HostTexture) (RowFunc, error) {
		return func(int, int) {
			once.Do(func() { close(started) })
			<-gate
		}, nil
	})
	fill = mustProgram(t, d, "fill", fillKernel)
	out = mustTexture(t, d, Desc2D(4, 4, FormatRGBA32F, UsagePrivate))

	for i, p := range []Program{block, fill} {
		u, _ := d.NewWorkUnit("stall")
		if err := u.Dispatch(Pass{Program: p, Params: f32Params(1), Output: out}); err != nil {
			t.Fatal(err)
		}
		if err := u.Commit(); err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			<-started
		}
	}
	return d, gate, fill, out
}

func TestHostDevice_FullQueueDoesNotBlockDevice(t *testing.T) {
	d, gate, fill, out := stalledDevice(t)
	defer d.Close()

	committed := make(chan error, 1)
	u, _ := d.NewWorkUnit("waiting")
	if err := u.Dispatch(Pass{Program: fill, Params: f32Params(0.5), Output: out}); err != nil {
		t.Fatal(err)
	}
	go func() { committed <- u.Commit() }()
	time.Sleep(20 * time.Millisecond) // let the commit block on the full queue

	created := make(chan error, 1)
	go func() {
		tex, err := d.CreateTexture(Desc2D(2, 2, FormatRGBA8, UsagePrivate))
		if err == nil {
			d.DestroyTexture(tex)
		}
		created <- err
	}()
	select {
	case err := <-created:
		if err != nil {
			t.Errorf("CreateTexture: %v", err)
		}
	case <-time.After(2 * time.Second):
		close(gate)
		t.Fatal("CreateTexture blocked behind a commit waiting for queue space")
	}

	close(gate)
	if err := <-committed; err != nil {
		t.Errorf("blocked Commit error = %v, want nil once the queue drains", err)
	}
}

func TestHostDevice_CloseFailsBlockedCommit(t *testing.T) {
	d, gate, fill, out := stalledDevice(t)

	committed := make(chan error, 1)
	u, _ := d.NewWorkUnit("waiting")
	if err := u.Dispatch(Pass{Program: fill, Params: f32Params(0.5), Output: out}); err != nil {
		t.Fatal(err)
	}
	go func() { committed <- u.Commit() }()
	time.Sleep(20 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()
	if err := <-committed; !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("Commit during Close error = %v, want ErrDeviceClosed", err)
	}
	close(gate)
	<-closed
}
