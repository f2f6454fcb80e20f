package memory

import (
	"context"
	"sync"
)

// CookieStore is an in-memory backend.SessionStore.
type CookieStore struct {
	mu    sync.RWMutex
	value string
}

func NewCookieStore(initial string) *CookieStore {
	return &CookieStore{value: initial}
}

func (s *CookieStore) Load(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, nil
}

func (s *CookieStore) Save(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	return nil
}

func (s *CookieStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = ""
	return nil
}
