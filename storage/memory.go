package storage

import (
	"bytes"
	"context"
	"sync"
)

// MemoryStorage provides an in-memory Storage backend. It is the default for
// harness runs: workload state does not need to survive a node restart.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStorage) CompareAndSwap(ctx context.Context, key string, from, to []byte) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data[key]
	if !ok {
		return ErrKeyNotFound
	}
	if !bytes.Equal(cur, from) {
		return ErrCASMismatch
	}
	m.data[key] = append([]byte(nil), to...)
	return nil
}

func (m *MemoryStorage) Delete(ctx context.Context, keys ...string) (int, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	cnt := 0
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			cnt++
		}
	}
	return cnt, nil
}

func (m *MemoryStorage) Keys(ctx context.Context) ([]string, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]string, 0, len(m.data))
	for k := range m.data {
		res = append(res, k)
	}
	return res, nil
}
