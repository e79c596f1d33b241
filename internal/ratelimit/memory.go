package ratelimit

import (
	"context"
	"sync"
	"time"
)

type MemoryLimiterStore struct {
	windows sync.Map
}

func NewMemoryLimiterStore() *MemoryLimiterStore {
	return &MemoryLimiterStore{}
}

type windowEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (m *MemoryLimiterStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	val, _ := m.windows.LoadOrStore(key, &windowEntry{})
	entry := val.(*windowEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++

	return entry.count <= limit, nil
}
