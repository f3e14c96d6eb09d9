package filmlook

import "sync"

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns a process-wide engine on a host device, created on first
// use. It is never closed.
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = NewHost()
	})
	return defaultEngine
}
