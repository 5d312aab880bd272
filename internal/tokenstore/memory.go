package tokenstore

import (
	"context"
	"sync"
)

// MemoryBackend keeps the token in process memory.
type MemoryBackend struct {
	name string

	mu    sync.Mutex
	token string
}

// NewMemory returns an empty in-memory backend.
func NewMemory(name string) *MemoryBackend {
	return &MemoryBackend{name: name}
}

func (m *MemoryBackend) Name() string { return m.name }

func (m *MemoryBackend) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoToken
	}
	return m.token, nil
}

func (m *MemoryBackend) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}
