package storage

import (
	"context"
	"sync"
)

type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values: make(map[string]map[string]string),
	}
}

func (s *MemoryStorage) Get(ctx context.Context, namespace, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ns, exists := s.values[namespace]; exists {
		if v, ok := ns[key]; ok {
			return v, nil
		}
	}
	return "", ErrNotFound
}

func (s *MemoryStorage) Set(ctx context.Context, namespace, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, exists := s.values[namespace]
	if !exists {
		ns = make(map[string]string)
		s.values[namespace] = ns
	}
	ns[key] = value
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ns, exists := s.values[namespace]; exists {
		delete(ns, key)
		if len(ns) == 0 {
			delete(s.values, namespace)
		}
	}
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
