package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/parley/pkg/interview"
)

type entry struct {
	data    []byte
	expires time.Time
}

// Store implements ports.StateStore in memory. Snapshots are held in their
// serialized form so callers get the same isolation as a real backend.
// Safe for concurrent use.
type Store struct {
	entries map[string]entry
	mu      sync.RWMutex
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the expiration clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	store := &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Put stores a context snapshot and returns its key.
func (s *Store) Put(ctx context.Context, ic *interview.Context) (string, error) {
	parts, err := interview.EncodeParts(ic)
	if err != nil {
		return "", err
	}
	expires := ic.State.DateExpires

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(parts.ContextKey, parts.Context, expires)
	s.store(parts.StateKey, parts.State, expires)
	return parts.StateKey, nil
}

// store writes an entry, keeping the later expiration when the key is
// already present.
func (s *Store) store(key string, data []byte, expires time.Time) {
	if cur, ok := s.entries[key]; ok && cur.expires.After(expires) {
		return
	}
	s.entries[key] = entry{data: data, expires: expires}
}

// Get retrieves a context snapshot by key.
func (s *Store) Get(ctx context.Context, key string) (*interview.Context, error) {
	stateData, err := s.load(key)
	if err != nil {
		return nil, err
	}
	contextKey, err := interview.ContextKeyFromState(stateData)
	if err != nil {
		return nil, err
	}
	contextData, err := s.load(contextKey)
	if err != nil {
		return nil, err
	}
	return interview.DecodeParts(stateData, contextData)
}

func (s *Store) load(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expires) {
		return nil, interview.ErrInterviewNotFound
	}
	return e.data, nil
}

// Sweep drops expired entries. Callers run it periodically; Get already
// ignores expired entries, so skipping it only costs memory.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
