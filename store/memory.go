package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var _ Bucket = (*MemoryBucket)(nil)

// MemoryBucket implements Bucket in memory.
// It's primarily intended for testing purposes.
type MemoryBucket struct {
	name    string
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryBucket creates an empty MemoryBucket
func NewMemoryBucket(name string) *MemoryBucket {
	return &MemoryBucket{
		name:    name,
		objects: make(map[string][]byte),
	}
}

// Name returns the bucket name
func (m *MemoryBucket) Name() string {
	return m.name
}

// List returns keys under prefix in lexical order, like S3
func (m *MemoryBucket) List(ctx context.Context, prefix string, limit int32) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	if limit > 0 && len(keys) > int(limit) {
		keys = keys[:limit]
	}
	return keys, nil
}

// Get returns a copy of the stored content
func (m *MemoryBucket) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", m.name, key, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Put stores a copy of data
func (m *MemoryBucket) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}
