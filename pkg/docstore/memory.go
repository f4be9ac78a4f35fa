package docstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps documents in process memory. Payloads are copied on the
// way in and out.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (data []byte, hit bool, err error) {
	start := time.Now()
	defer func() { observeRead(ctx, BackendMemory, start, hit, err) }()
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(d), true, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) (err error) {
	start := time.Now()
	defer func() { observeWrite(ctx, BackendMemory, start, len(data), err) }()
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = slices.Clone(data)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := slices.Sorted(maps.Keys(s.docs))
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
