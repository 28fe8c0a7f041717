package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore keeps keys in a map. Used for tests and for stores assembled
// in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	// Failing keys return this error instead of their value
	failing map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}, failing: map[string]error{}}
}

func (s *MemoryStore) Locator() string {
	return "memory://"
}

// Put stores raw bytes at key
func (s *MemoryStore) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[JoinKey(key)] = data
}

// PutJSON marshals v and stores it at key
func (s *MemoryStore) PutJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Put(key, data)
	return nil
}

// Fail makes every Get of key return err
func (s *MemoryStore) Fail(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[JoinKey(key)] = err
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key = JoinKey(key)
	if err, ok := s.failing[key]; ok {
		return nil, err
	}
	data, ok := s.data[key]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	return data, nil
}
