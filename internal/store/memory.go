package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

// Memory is a KV held in process memory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, ns, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[ns]
	if !ok {
		bucket = make(map[string][]byte)
		m.data[ns] = bucket
	}
	bucket[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Get(_ context.Context, ns, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[ns][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", kerrors.ErrNotFound, ns, key)
	}
	return append([]byte(nil), value...), nil
}

func (m *Memory) Delete(_ context.Context, ns, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[ns], key)
	return nil
}

func (m *Memory) Keys(_ context.Context, ns string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data[ns]))
	for k := range m.data[ns] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Drop(_ context.Context, ns string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, ns)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
