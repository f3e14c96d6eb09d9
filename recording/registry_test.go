package recording

import (
	"io"
	"strings"
	"testing"
)

// resetRegistry clears all registered writers for test isolation.
func resetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	writers = make(map[string]WriterFactory)
}

func memoryFactory(io.Writer, WriterConfig) (VideoWriter, error) { return &MemoryWriter{}, nil }

func TestRegisterAndNewWriter(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	Register("memory", memoryFactory)
	w, err := NewWriter("memory", io.Discard, WriterConfig{Width: 2, Height: 2})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, ok := w.(*MemoryWriter); !ok {
		t.Errorf("NewWriter returned %T, want *MemoryWriter", w)
	}
	if !IsRegistered("memory") {
		t.Error("IsRegistered(memory) = false")
	}
}

func TestNewWriter_Errors(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	_, err := NewWriter("unknown", io.Discard, WriterConfig{Width: 2, Height: 2})
	if err == nil || !strings.Contains(err.Error(), "forgotten import") {
		t.Errorf("NewWriter(unknown) = %v, want forgotten import hint", err)
	}

	Register("memory", memoryFactory)
	if _, err := NewWriter("memory", io.Discard, WriterConfig{}); err == nil {
		t.Error("NewWriter accepted a zero-size config")
	}
}

func TestRegisterPanics(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	tests := []struct {
		name string
		fn   func()
	}{
		{"nil factory", func() { Register("nil", nil) }},
		{"duplicate", func() {
			Register("dup", memoryFactory)
			Register("dup", memoryFactory)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestWriters_SortedAndUnregister(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		Register(name, memoryFactory)
	}
	got := Writers()
	want := []string{"alpha", "mid", "zeta"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Writers() = %v, want %v", got, want)
	}

	Unregister("mid")
	Unregister("missing")
	if IsRegistered("mid") || len(Writers()) != 2 {
		t.Errorf("after Unregister: %v", Writers())
	}
}
