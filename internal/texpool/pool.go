// Package texpool provides a descriptor-keyed texture pool.
//
// Textures are created on the first miss for a descriptor and returned to
// the pool by Recycle once the GPU work using them has completed. The pool
// never evicts on its own: it grows to the peak concurrent need per
// descriptor and stays there until Purge.
package texpool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/gogpu/filmlook/gpu"
)

// ErrPoolClosed is returned when acquiring from a closed pool.
var ErrPoolClosed = errors.New("texpool: pool closed")

// Allocator creates and destroys textures. gpu.Device satisfies it.
type Allocator interface {
	CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error)
	DestroyTexture(t gpu.Texture)
}

// Stats is a snapshot of pool state.
type Stats struct {
	// Allocations is the number of textures ever created by the pool.
	Allocations uint64

	// Reuses is the number of acquires served from the free list.
	Reuses uint64

	// Free is the number of idle textures.
	Free int

	// InUse is the number of acquired, not yet recycled textures.
	InUse int

	// Bytes is the storage held by free and in-use textures.
	Bytes uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("TexturePool[%d in use, %d free, %s, %d allocations, %d reuses]",
		s.InUse, s.Free, humanize.Bytes(s.Bytes), s.Allocations, s.Reuses)
}

// Pool is a thread-safe texture pool.
//
// The mutex covers map bookkeeping only. Texture creation and destruction
// happen outside of it.
type Pool struct {
	alloc Allocator

	mu     sync.Mutex
	free   map[string][]gpu.Texture
	inUse  map[gpu.Texture]string
	bytes  uint64
	closed bool

	allocations atomic.Uint64
	reuses      atomic.Uint64
}

// New creates an empty pool allocating from alloc.
func New(alloc Allocator) *Pool {
	return &Pool{
		alloc: alloc,
		free:  make(map[string][]gpu.Texture),
		inUse: make(map[gpu.Texture]string),
	}
}

// Acquire returns a free texture matching the descriptor exactly or
// allocates a new one.
func (p *Pool) Acquire(width, height int, format gpu.Format, usage gpu.Usage) (gpu.Texture, error) {
	return p.AcquireDesc(gpu.Desc2D(width, height, format, usage))
}

// AcquireDesc is Acquire for a full descriptor. The label does not take
// part in matching.
func (p *Pool) AcquireDesc(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	key := desc.Key()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if bucket := p.free[key]; len(bucket) > 0 {
		tex := bucket[len(bucket)-1]
		bucket[len(bucket)-1] = nil
		p.free[key] = bucket[:len(bucket)-1]
		p.inUse[tex] = key
		p.mu.Unlock()
		p.reuses.Add(1)
		return tex, nil
	}
	p.mu.Unlock()

	if desc.Label == "" {
		desc.Label = "pool:" + key
	}
	tex, err := p.alloc.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("texpool: allocate %s: %w", key, err)
	}
	p.allocations.Add(1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.alloc.DestroyTexture(tex)
		return nil, ErrPoolClosed
	}
	p.inUse[tex] = key
	p.bytes += desc.SizeBytes()
	p.mu.Unlock()
	return tex, nil
}

// Recycle returns an acquired texture to the free list. Recycling a texture
// the pool does not know, or one that is already free, is a no-op.
func (p *Pool) Recycle(tex gpu.Texture) {
	if tex == nil {
		return
	}
	p.mu.Lock()
	key, ok := p.inUse[tex]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(p.inUse, tex)
	if !p.closed {
		p.free[key] = append(p.free[key], tex)
		p.mu.Unlock()
		return
	}
	p.bytes -= tex.Descriptor().SizeBytes()
	p.mu.Unlock()
	p.alloc.DestroyTexture(tex)
}

// Purge destroys every free texture and returns how many were destroyed.
// In-use textures are unaffected.
func (p *Pool) Purge() int {
	p.mu.Lock()
	var victims []gpu.Texture
	for key, bucket := range p.free {
		victims = append(victims, bucket...)
		delete(p.free, key)
	}
	for _, tex := range victims {
		p.bytes -= tex.Descriptor().SizeBytes()
	}
	p.mu.Unlock()

	for _, tex := range victims {
		p.alloc.DestroyTexture(tex)
	}
	return len(victims)
}

// Stats returns a snapshot of the pool state.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	free := 0
	for _, bucket := range p.free {
		free += len(bucket)
	}
	return Stats{
		Allocations: p.allocations.Load(),
		Reuses:      p.reuses.Load(),
		Free:        free,
		InUse:       len(p.inUse),
		Bytes:       p.bytes,
	}
}

// Close purges free textures and makes further acquires fail. Textures
// still in use are destroyed when they are recycled.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.Purge()
}
