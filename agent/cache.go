package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
)

// Cache is a key/value backend for session snapshots.
type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MemoryCache keeps values JSON-encoded; a stored snapshot never shares maps
// or slices with the live conversation.
type MemoryCache[S any] struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryCache[S any]() *MemoryCache[S] {
	return &MemoryCache[S]{m: map[string][]byte{}}
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	data, err := sonic.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	m.mu.Lock()
	m.m[key] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	var val S
	m.mu.RLock()
	data, ok := m.m[key]
	m.mu.RUnlock()
	if !ok {
		return val, false, nil
	}
	if err := sonic.Unmarshal(data, &val); err != nil {
		return val, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return val, true, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.m[key]
	m.mu.RUnlock()
	return ok, nil
}
