package inflight

import "sync"

// Set tracks keys that are currently being processed. It exists to reject
// duplicate pipeline runs for the same source URL: the check-and-insert is
// atomic, so at most one caller holds any given key at a time.
type Set struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewSet creates an empty in-flight set.
func NewSet() *Set {
	return &Set{
		keys: make(map[string]struct{}),
	}
}

// TryAcquire inserts key into the set. It returns false if the key is
// already held, in which case the caller must not proceed.
func (s *Set) TryAcquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[key]; exists {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Release removes key from the set. Releasing a key that is not held is a
// no-op, so it is safe to defer unconditionally.
func (s *Set) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}

// Contains reports whether key is currently held.
func (s *Set) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.keys[key]
	return exists
}

// Len returns the number of keys currently held.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
