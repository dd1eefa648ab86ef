package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Memory is the default in-process cache backend. Single-key operations are
// atomic under the mutex; no multi-key transactions are needed since the two
// key families are never mutated jointly.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	nowFunc func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		nowFunc: time.Now,
	}
}

// Get returns the cached value iff present and unexpired. Expired entries
// behave as absent; they are reaped lazily by Set.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || e.expired(m.nowFunc()) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key, overwriting any prior entry, with expiry
// now + ttl.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
	m.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

// Invalidate removes the entry if present; a no-op if absent.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// InvalidateAll removes every entry under both key families.
func (m *Memory) InvalidateAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.entries {
		if k == ProjectsKey || strings.HasPrefix(k, DailyLogPrefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Close releases nothing for the in-memory backend.
func (m *Memory) Close() error {
	return nil
}
