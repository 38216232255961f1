package storage

import (
	"context"
	"fmt"
	"sync"
)

// Memory 是进程内存储，适合测试与一次性运行。
type Memory struct {
	mu     sync.RWMutex
	images map[string][]byte
	loads  int
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{images: map[string][]byte{}}
}

// Save stores a copy of data under a new identifier.
func (m *Memory) Save(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := NewID()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[id] = append([]byte(nil), data...)
	return id, nil
}

// Load returns the image stored under id.
func (m *Memory) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	data, ok := m.images[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return data, nil
}

// Lookups 返回通过校验后实际访问存储的次数。
func (m *Memory) Lookups() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}
