package kv

import "sync"

// MemoryStore is an in-process Store used for isolated ledger instances
// in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]map[string][]byte),
	}
}

func (m *MemoryStore) Get(bucket, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.buckets[bucket]
	if !ok {
		return nil, false, nil
	}
	v, ok := b[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryStore) Put(bucket, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		m.buckets[bucket] = b
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	b[key] = stored
	return nil
}

func (m *MemoryStore) Delete(bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.buckets[bucket]; ok {
		delete(b, key)
	}
	return nil
}

func (m *MemoryStore) List(bucket string) ([]Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.buckets[bucket]
	if !ok {
		return nil, nil
	}
	pairs := make([]Pair, 0, len(b))
	for k, v := range b {
		out := make([]byte, len(v))
		copy(out, v)
		pairs = append(pairs, Pair{Key: k, Value: out})
	}
	return pairs, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
