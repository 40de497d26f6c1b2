package redis

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/parley/pkg/interview"
)

// DefaultPrefix namespaces all interview keys.
const DefaultPrefix = "parley.interview."

// Store implements ports.StateStore using Redis. Both parts of a snapshot
// are written NX with an absolute expiration: a snapshot never changes
// under its key, and re-storing a shared context part only pushes its
// expiration out.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix for snapshots.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Put stores a context snapshot and returns its key.
func (s *Store) Put(ctx context.Context, ic *interview.Context) (string, error) {
	parts, err := interview.EncodeParts(ic)
	if err != nil {
		return "", err
	}
	exp := ic.State.DateExpires

	contextKey := s.key(parts.ContextKey)
	set := s.client.SetArgs(ctx, contextKey, parts.Context, backend.SetArgs{
		Mode:     "NX",
		ExpireAt: exp,
	})
	switch err := set.Err(); {
	case errors.Is(err, backend.Nil):
		// already stored; push the expiration out if ours is later
		gt := s.client.Do(ctx, "expireat", contextKey, exp.Unix(), "gt")
		if err := gt.Err(); err != nil && !errors.Is(err, backend.Nil) {
			return "", fmt.Errorf("refreshing context expiration: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("storing context part: %w", err)
	}

	set = s.client.SetArgs(ctx, s.key(parts.StateKey), parts.State, backend.SetArgs{
		Mode:     "NX",
		ExpireAt: exp,
	})
	if err := set.Err(); err != nil && !errors.Is(err, backend.Nil) {
		return "", fmt.Errorf("storing state part: %w", err)
	}
	return parts.StateKey, nil
}

// Get retrieves a context snapshot by key.
func (s *Store) Get(ctx context.Context, key string) (*interview.Context, error) {
	stateData, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	contextKey, err := interview.ContextKeyFromState(stateData)
	if err != nil {
		return nil, err
	}
	contextData, err := s.get(ctx, contextKey)
	if err != nil {
		return nil, err
	}
	return interview.DecodeParts(stateData, contextData)
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, interview.ErrInterviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
