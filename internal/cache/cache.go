// Package cache provides the response cache used by the market and
// insight clients. Two backends exist: an in-process TTL map for
// single-instance deployments and tests, and Redis for deployments
// where several gateway instances share one upstream quota.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Cache is the backend-agnostic interface. Values are JSON strings;
// callers own serialization.
type Cache interface {
	// Get returns the cached value. The bool reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores a value with the given TTL. A zero TTL means the
	// entry never expires.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Key builds a consistent cache key from a prefix and identifier,
// e.g. Key("market_data", "usd_100") → "market_data:usd_100".
func Key(prefix, id string) string {
	return prefix + ":" + strings.ToLower(id)
}

// --- In-memory backend ---

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// Memory is a thread-safe in-process cache with per-entry TTL.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// Cleanup removes expired entries. Can be called periodically.
func (m *Memory) Cleanup() {
	now := time.Now()
	m.mu.Lock()
	for k, v := range m.entries {
		if !v.expiresAt.IsZero() && now.After(v.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
}
