package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Cache stores JSON encoded values grouped in namespaces. A namespace can be
// dropped at once when the data behind it changes.
//
// Every namespace has a version that Invalidate advances. Readers take the
// version before loading and hand it to Set, so a value loaded before an
// invalidation is never served after it.
type Cache interface {
	Version(ctx context.Context, namespace string) (int64, error)
	Get(ctx context.Context, namespace, key string, out any) (bool, error)
	Set(ctx context.Context, namespace, key string, version int64, value any) error
	Invalidate(ctx context.Context, namespace string) error
}

// Noop never stores anything. Used when Redis is not configured.
type Noop struct{}

func (Noop) Version(context.Context, string) (int64, error)         { return 0, nil }
func (Noop) Get(context.Context, string, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, string, int64, any) error  { return nil }
func (Noop) Invalidate(context.Context, string) error               { return nil }

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a process local Cache with the same JSON semantics as Redis.
type Memory struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]map[string]memoryEntry
	versions map[string]int64
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, entries: map[string]map[string]memoryEntry{}, versions: map[string]int64{}}
}

func (m *Memory) Version(_ context.Context, namespace string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[cleanNamespace(namespace)], nil
}

func (m *Memory) Get(_ context.Context, namespace, key string, out any) (bool, error) {
	namespace = cleanNamespace(namespace)
	m.mu.Lock()
	entry, ok := m.entries[namespace][key]
	if ok && m.ttl > 0 && !m.now().Before(entry.expiresAt) {
		delete(m.entries[namespace], key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.value, out); err != nil {
		return false, err
	}
	return true, nil
}

// Set drops the value when namespace moved past version.
func (m *Memory) Set(_ context.Context, namespace, key string, version int64, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	namespace = cleanNamespace(namespace)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions[namespace] != version {
		return nil
	}
	if m.entries[namespace] == nil {
		m.entries[namespace] = map[string]memoryEntry{}
	}
	m.entries[namespace][key] = memoryEntry{value: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, namespace string) error {
	namespace = cleanNamespace(namespace)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, namespace)
	m.versions[namespace]++
	return nil
}

func cleanNamespace(ns string) string {
	return strings.Trim(strings.TrimSpace(ns), ":")
}
