package media

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps images in process memory. Used for local runs and tests.
type MemoryStore struct {
	objects map[string]Image
	mu      sync.RWMutex
	locator
}

// NewMemoryStore creates a MemoryStore whose URLs start with publicURL.
func NewMemoryStore(publicURL, folder string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]Image),
		locator: locator{publicURL: publicURL, folder: folder},
	}
}

// Upload stores img and returns its URL.
func (s *MemoryStore) Upload(_ context.Context, img Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.newKey(img)
	s.objects[key] = img
	return s.urlFor(key), nil
}

// Delete removes the object under key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("failed to delete image %s: %w", key, ErrObjectNotFound)
	}
	delete(s.objects, key)
	return nil
}

// KeyFromURL maps a URL produced by Upload back to its key.
func (s *MemoryStore) KeyFromURL(rawURL string) (string, bool) {
	return s.keyFromURL(rawURL)
}

// Has reports whether an object is stored under key.
func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
