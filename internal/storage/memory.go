package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrWriteRejected is what a MemoryBackend with FailWrites returns.
var ErrWriteRejected = errors.New("memory backend: write rejected")

// MemoryBackend is an in-process Backend. Useful for tests and for
// ephemeral stores that must not touch disk.
type MemoryBackend struct {
	mu    sync.Mutex
	items map[string]string

	// FailWrites makes Set and Remove return ErrWriteRejected.
	FailWrites bool
	// Reads counts Get calls.
	Reads int
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[string]string)}
}

func (m *MemoryBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrWriteRejected
	}
	if m.items == nil {
		m.items = make(map[string]string)
	}
	m.items[key] = value
	return nil
}

func (m *MemoryBackend) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrWriteRejected
	}
	delete(m.items, key)
	return nil
}
