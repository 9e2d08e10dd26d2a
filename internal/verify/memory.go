package verify

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	code      string
	expiresAt time.Time
}

type memoryStore struct {
	mu    sync.Mutex
	codes map[string]memoryEntry
}

// NewMemoryStore — хранилище кодов в памяти для тестов и локального запуска.
func NewMemoryStore() CodeStore {
	return &memoryStore{codes: make(map[string]memoryEntry)}
}

func (s *memoryStore) Save(_ context.Context, phone, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[phone] = memoryEntry{code: code, expiresAt: time.Now().Add(ttl)}

	return nil
}

func (s *memoryStore) Consume(_ context.Context, phone, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.codes[phone]
	if !ok || time.Now().After(e.expiresAt) {
		delete(s.codes, phone)
		return false, nil
	}

	if !equalCodes(e.code, code) {
		return false, nil
	}

	delete(s.codes, phone)

	return true, nil
}

func (s *memoryStore) Close() error { return nil }
