package storage

import (
	"context"
	"errors"
	"io"
	"sync"
)

// StubStorage keeps objects in memory. Used for development without a bucket and in tests.
type StubStorage struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string][]byte
}

func NewStubStorage() *StubStorage {
	return &StubStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string][]byte),
	}
}

func (s *StubStorage) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return s.BaseURL + "/" + key, nil
}

func (s *StubStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Object returns the stored bytes for key.
func (s *StubStorage) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}
