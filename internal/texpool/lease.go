package texpool

import (
	"sync/atomic"

	"github.com/gogpu/filmlook/gpu"
)

// Lease is a borrowed pool texture with an explicit recycle obligation.
// Release is idempotent, so it can be deferred on every exit path and also
// called early from a GPU completion handler.
type Lease struct {
	pool     *Pool
	tex      gpu.Texture
	released atomic.Bool
}

// Lease acquires a texture wrapped in a Lease.
func (p *Pool) Lease(width, height int, format gpu.Format, usage gpu.Usage) (*Lease, error) {
	tex, err := p.Acquire(width, height, format, usage)
	if err != nil {
		return nil, err
	}
	return &Lease{pool: p, tex: tex}, nil
}

// Texture returns the leased texture.
func (l *Lease) Texture() gpu.Texture { return l.tex }

// Release recycles the texture. Only the first call has an effect.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	if l.released.CompareAndSwap(false, true) {
		l.pool.Recycle(l.tex)
	}
}

// Leases is a set of leases released together.
type Leases []*Lease

// Release releases every lease in the set.
func (ls Leases) Release() {
	for _, l := range ls {
		l.Release()
	}
}
