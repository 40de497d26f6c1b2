// Package file implements a state store on the local filesystem. It is
// meant for development and single-process deployments; use the redis
// adapter when several instances share state.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/interview"
)

// envelope wraps a stored part with its expiration.
type envelope struct {
	Expires time.Time `json:"expires"`
	Data    []byte    `json:"data"`
}

// Store implements ports.StateStore using one file per snapshot part.
// Keys are base64url, so they are safe as file names.
type Store struct {
	basePath string
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the expiration clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a file store rooted at basePath. If basePath is empty it
// defaults to ".parley/interviews".
func NewStore(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".parley", "interviews")
	}
	store := &Store{basePath: basePath, now: time.Now}
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
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to ensure store directory: %w", err)
	}

	expires := ic.State.DateExpires
	if err := s.write(parts.ContextKey, parts.Context, expires); err != nil {
		return "", err
	}
	if err := s.write(parts.StateKey, parts.State, expires); err != nil {
		return "", err
	}
	return parts.StateKey, nil
}

// write stores one part, keeping the later expiration when the key is
// already present. The write goes through a temp file and rename so readers
// never see a partial file.
func (s *Store) write(key string, data []byte, expires time.Time) error {
	path := s.path(key)
	if cur, err := s.read(path); err == nil && cur.Expires.After(expires) {
		return nil
	}

	encoded, err := json.Marshal(envelope{Expires: expires, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot part: %w", err)
	}

	tmp, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot part: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store snapshot part: %w", err)
	}
	return nil
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
	if !validKey(key) {
		return nil, interview.ErrInterviewNotFound
	}
	env, err := s.read(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interview.ErrInterviewNotFound
		}
		return nil, err
	}
	if !s.now().Before(env.Expires) {
		return nil, interview.ErrInterviewNotFound
	}
	return env.Data, nil
}

func (s *Store) read(path string) (envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return envelope{}, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("corrupt snapshot file %s: %w", filepath.Base(path), err)
	}
	return env, nil
}

// Sweep removes expired snapshot files and returns how many were dropped.
func (s *Store) Sweep() (int, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	now := s.now()
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.basePath, e.Name())
		env, err := s.read(path)
		if err != nil {
			continue
		}
		if now.Before(env.Expires) {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.basePath, key+".json")
}

// validKey rejects keys that could escape the store directory. Real keys
// are base64url.
func validKey(key string) bool {
	if key == "" {
		return false
	}
	return !strings.ContainsAny(key, "/\\.")
}
