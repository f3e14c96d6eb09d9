// Package parallel runs host kernels across CPU cores.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// MinBandRows is the smallest row band handed to a worker. Smaller bands
// cost more in scheduling than they gain in parallelism.
const MinBandRows = 16

// WorkerPool is a fixed set of goroutines executing row bands.
//
// Each worker owns a queue; work is distributed round-robin and idle
// workers steal from busy ones so uneven bands (e.g. a date stamp touching
// only the bottom rows) do not serialize a pass.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case work := <-own:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case work := <-own:
				work()
			}
		}
	}
}

func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll runs every work item and waits for all of them.
// On a closed pool the items run on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() {
		for _, fn := range work {
			fn()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		wrapped := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.workQueues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	wg.Wait()
}

// RunRows splits [0, height) into bands and runs fn over them in parallel,
// returning when every band is done.
func (p *WorkerPool) RunRows(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	bands := Bands(height, p.workers)
	if len(bands) == 1 {
		fn(0, height)
		return
	}
	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { fn(b[0], b[1]) }
	}
	p.ExecuteAll(work)
}

// Bands partitions [0, height) into at most 2*workers contiguous ranges of at
// least MinBandRows rows (except possibly when height itself is smaller).
func Bands(height, workers int) [][2]int {
	if height <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	n := workers * 2
	if maxBands := (height + MinBandRows - 1) / MinBandRows; n > maxBands {
		n = maxBands
	}
	if n < 1 {
		n = 1
	}
	bands := make([][2]int, 0, n)
	step := height / n
	rem := height % n
	y := 0
	for i := 0; i < n; i++ {
		h := step
		if i < rem {
			h++
		}
		bands = append(bands, [2]int{y, y + h})
		y += h
	}
	return bands
}

// Close stops the workers after draining queued work.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
