package mocks

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockCache is an in-memory cache.Interface for testing. Entries never
// expire; tests assert on keys and invalidation calls, not on TTL.
type MockCache struct {
	mu   sync.Mutex
	data map[string][]byte

	// For tracking calls in tests
	SetCalls          []string
	DeletePrefixCalls []string
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte)}
}

func (m *MockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *MockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.SetCalls = append(m.SetCalls, key)
	return nil
}

func (m *MockCache) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletePrefixCalls = append(m.DeletePrefixCalls, prefix)
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}
