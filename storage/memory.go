package storage

import (
	"encoding/json"
	"sync"
)

// MemStore is an in-memory Store, used in tests in place of the file store.
type MemStore struct {
	mu          sync.Mutex
	collections map[string][]byte

	// FailWrites makes every Save report failure, for exercising the
	// degraded-persistence paths.
	FailWrites bool
}

func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string][]byte)}
}

func (s *MemStore) Load(collection string, out any) {
	s.mu.Lock()
	data, ok := s.collections[collection]
	s.mu.Unlock()
	if !ok {
		return
	}
	_ = decode(data, out)
}

func (s *MemStore) Save(collection string, v any) bool {
	if s.FailWrites {
		return false
	}
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	s.mu.Lock()
	s.collections[collection] = data
	s.mu.Unlock()
	return true
}
