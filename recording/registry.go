package recording

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// WriterFactory creates a writer producing a stream on out.
// Factories are registered via Register() and called by NewWriter().
type WriterFactory func(out io.Writer, cfg WriterConfig) (VideoWriter, error)

// Registry state - protected by mutex for thread-safe access.
var (
	registryMu sync.RWMutex
	writers    = make(map[string]WriterFactory)
)

// Register registers a writer factory with the given name.
// This function is typically called from init() in writer packages:
//
//	func init() {
//	    recording.Register("y4m", New)
//	}
//
// Register panics if factory is nil or a writer with the same name is
// already registered, so duplicate registrations are caught during
// program initialization.
func Register(name string, factory WriterFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("recording: Register factory is nil")
	}
	if _, dup := writers[name]; dup {
		panic("recording: Register called twice for " + name)
	}
	writers[name] = factory
}

// Unregister removes a writer from the registry.
// This is primarily useful for testing. Unknown names are a no-op.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(writers, name)
}

// NewWriter creates a writer by name after validating cfg.
// The error for an unknown name hints at a forgotten import.
func NewWriter(name string, out io.Writer, cfg WriterConfig) (VideoWriter, error) {
	registryMu.RLock()
	factory, ok := writers[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("recording: unknown writer %q (forgotten import?)", name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return factory(out, cfg)
}

// Writers returns a sorted list of registered writer names.
func Writers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(writers))
	for name := range writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a writer with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := writers[name]
	return ok
}
