package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/interview"
	"github.com/aretw0/parley/pkg/ports"
)

func TestRedisStore_Contract(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client)
	ports.RunStateStoreContract(t, store)
}

func TestRedisStore_Expiration(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client)
	ctx := context.Background()

	key, err := store.Put(ctx, storeContext(t))
	require.NoError(t, err)

	_, err = store.Get(ctx, key)
	require.NoError(t, err)

	// interviews expire an hour after starting
	mr.FastForward(interview.DefaultExpiration + time.Minute)

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, interview.ErrInterviewNotFound)
}

func TestRedisStore_SharedContextOutlivesEarlierSnapshot(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client)
	ctx := context.Background()

	ic := storeContext(t)
	_, err = store.Put(ctx, ic)
	require.NoError(t, err)

	// a later snapshot of the same run shares the context part and
	// extends its expiration
	later := ic.State
	later.DateExpires = later.DateExpires.Add(30 * time.Minute)
	laterKey, err := store.Put(ctx, ic.WithState(later.WithData(map[string]any{"name": "x"})))
	require.NoError(t, err)

	mr.FastForward(interview.DefaultExpiration + time.Minute)

	_, err = store.Get(ctx, laterKey)
	assert.NoError(t, err, "later snapshot should still resolve its context part")
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	key, err := store.Put(ctx, storeContext(t))
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:"+key), "expected key with custom prefix to exist")

	_, err = store.Get(ctx, key)
	assert.NoError(t, err)
}

func storeContext(t *testing.T) *interview.Context {
	t.Helper()

	tmpl, err := input.DecodeQuestionTemplate(map[string]any{
		"id":    "name",
		"title": "Your name",
		"fields": []any{
			map[string]any{"type": "text", "set": "name", "label": "Name"},
		},
	})
	require.NoError(t, err)

	steps, err := interview.DecodeSteps([]any{
		map[string]any{"ask": "name"},
	})
	require.NoError(t, err)

	state := interview.NewState("", map[string]any{"event": "example"}, nil)
	questions := map[string]*input.QuestionTemplate{"name": tmpl}
	return interview.NewContext(questions, []string{"name"}, steps, state, nil)
}
