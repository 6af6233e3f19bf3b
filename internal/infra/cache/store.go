package cache

import (
	"context"
	"sync"
	"time"
)

// Entry 是缓存中的一条记录；Value 是编码后的 JSON。
type Entry struct {
	Value     []byte    `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store 是缓存的底层存储。
//
// Load 未命中返回 (Entry{}, false, nil)；err 只表示存储本身不可用。
// Store 不判断新鲜度，新鲜度由 Cache 依据 FetchedAt 决定。
type Store interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	// Save 覆盖写入；ttl 只是给支持过期的存储的提示。
	Save(ctx context.Context, key string, e Entry, ttl time.Duration) error
}

// MemoryStore 是进程内存储；不做主动淘汰，过期条目在重算时被原地覆盖。
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, e Entry, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	return nil
}

// Len 返回当前条目数（包括已过期但尚未被覆盖的条目）。
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
