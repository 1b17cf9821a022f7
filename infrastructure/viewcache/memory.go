// Package viewcache decides which article reads count as views.
package viewcache

import (
	"context"
	"sync"
	"time"
)

type viewKey struct {
	article string
	client  string
}

// Memory keeps the last accepted view per (article, client) in process memory.
// An entry is live while now-ts < window; every call evicts expired entries first.
type Memory struct {
	window time.Duration

	mu      sync.Mutex
	entries map[viewKey]time.Time
}

func NewMemory(window time.Duration) *Memory {
	return &Memory{
		window:  window,
		entries: make(map[viewKey]time.Time),
	}
}

func (m *Memory) ShouldCountView(ctx context.Context, articleKey, clientKey string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictLocked(now)

	key := viewKey{article: articleKey, client: clientKey}
	if _, ok := m.entries[key]; ok {
		return false
	}
	m.entries[key] = now
	return true
}

func (m *Memory) Sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictLocked(now)
}

// Len reports the number of entries currently held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) evictLocked(now time.Time) {
	for key, ts := range m.entries {
		if now.Sub(ts) >= m.window {
			delete(m.entries, key)
		}
	}
}
