// Package store holds the in-memory subtitle handles produced by a search
// so the download step can reuse them. A handle cannot be rebuilt from its
// composite id alone, which is why the mapping must live in-process for the
// lifetime of the TTL window.
package store

import (
	"sync"
	"time"

	"github.com/baoueb/subserver/internal/apperrors"
	"github.com/baoueb/subserver/internal/subliminal"
)

// DefaultTTL is how long a search result stays downloadable.
const DefaultTTL = 1800 * time.Second

// Entry pairs a subtitle handle with its absolute expiry time.
type Entry struct {
	Subtitle  *subliminal.Subtitle
	ExpiresAt time.Time
}

// Store is a mutex-guarded map from composite id to Entry. Expiry is lazy:
// an expired entry is removed on the lookup that finds it, never swept in
// the background. Put is last-writer-wins, so the same id reappearing in a
// later search silently replaces the old handle. There is no size bound
// beyond TTL expiry.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a Store with the given TTL. A non-positive ttl falls back to
// DefaultTTL.
func New(ttl time.Duration) *Store {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock creates a Store with an injectable clock, used by tests to
// plant already-expired entries without sleeping.
func NewWithClock(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     now,
	}
}

// Put registers a subtitle handle under its composite id, overwriting any
// prior entry with the same id, and returns the id.
func (s *Store) Put(sub *subliminal.Subtitle) string {
	key := sub.Key()

	s.mu.Lock()
	s.entries[key] = Entry{
		Subtitle:  sub,
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()

	return key
}

// Get returns the handle stored under id. An absent id yields *ErrNotFound;
// an entry whose expiry has passed is deleted and yields *ErrEntryExpired,
// so a repeat lookup of the same id reports absent.
func (s *Store) Get(id string) (*subliminal.Subtitle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("subtitle", id)
	}
	if !entry.ExpiresAt.After(s.now()) {
		delete(s.entries, id)
		return nil, &apperrors.ErrEntryExpired{ID: id}
	}
	return entry.Subtitle, nil
}

// Delete removes the entry for id, if any.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Len returns the number of entries currently held, including entries whose
// expiry has passed but which no lookup has touched yet.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
