package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mango-db/mango/internal/core"
)

// Memory is an in-process DocumentCache. Entries expire lazily: a stale
// entry is dropped when read, and writes sweep opportunistically once the
// map grows past the sweep threshold.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	doc       core.Document
	expiresAt time.Time
}

const sweepThreshold = 4096

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (core.Document, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, core.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, core.ErrCacheMiss
	}

	// Copy so callers cannot mutate the cached document.
	doc := make(core.Document, len(entry.doc))
	for k, v := range entry.doc {
		doc[k] = v
	}
	return doc, nil
}

func (m *Memory) Set(_ context.Context, key string, doc core.Document, ttl time.Duration) error {
	stored := make(core.Document, len(doc))
	for k, v := range doc {
		stored[k] = v
	}
	entry := memoryEntry{doc: stored}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	if len(m.entries) > sweepThreshold {
		now := time.Now()
		for k, e := range m.entries {
			if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
				delete(m.entries, k)
			}
		}
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}
