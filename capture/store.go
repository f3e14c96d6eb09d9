package capture

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
)

// ErrNotStored is returned when a store has no entry for an ID.
var ErrNotStored = errors.New("capture: not in store")

// GalleryStore keeps encoded stills. Implementations must be safe for
// concurrent use.
type GalleryStore interface {
	Save(ctx context.Context, id string, jpeg []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
}

// MemoryStore is an in-memory GalleryStore.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
	bytes uint64
}

var _ GalleryStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

// Save stores a copy of jpeg under id, replacing any previous entry.
func (s *MemoryStore) Save(ctx context.Context, id string, jpeg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data := append([]byte(nil), jpeg...)
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.items[id]; ok {
		s.bytes -= uint64(len(old))
	}
	s.items[id] = data
	s.bytes += uint64(len(data))
	return nil
}

// Load returns a copy of the entry for id.
func (s *MemoryStore) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotStored, id)
	}
	return append([]byte(nil), data...), nil
}

// IDs returns the stored IDs, sorted.
func (s *MemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// String returns a human-readable summary.
func (s *MemoryStore) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("MemoryStore[%d stills, %s]", len(s.items), humanize.Bytes(s.bytes))
}
