package store

import (
	"context"
	"slices"
	"sync"
)

// Memory is a process-local Store. It backs tests and the "memory" backend.
type Memory struct {
	mu     sync.RWMutex
	logs   map[string][][]byte
	values map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		logs:   make(map[string][][]byte),
		values: make(map[string][]byte),
	}
}

func (m *Memory) Append(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[key] = append(m.logs[key], slices.Clone(value))
	return nil
}

func (m *Memory) ListAll(_ context.Context, key string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log := m.logs[key]
	out := make([][]byte, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- {
		out = append(out, slices.Clone(log[i]))
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = slices.Clone(value)
	return nil
}

// Len returns the number of entries in the log at key.
func (m *Memory) Len(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs[key])
}

func (m *Memory) Close() error { return nil }
