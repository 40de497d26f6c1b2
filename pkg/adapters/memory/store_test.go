package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/interview"
	"github.com/aretw0/parley/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_Expiration(t *testing.T) {
	now := time.Now()
	clock := now
	store := memory.NewStore(memory.WithClock(func() time.Time { return clock }))

	key, err := store.Put(context.Background(), testContext(t))
	require.NoError(t, err)

	_, err = store.Get(context.Background(), key)
	require.NoError(t, err)

	clock = now.Add(interview.DefaultExpiration + time.Minute)
	_, err = store.Get(context.Background(), key)
	assert.ErrorIs(t, err, interview.ErrInterviewNotFound)

	assert.Equal(t, 2, store.Sweep(), "state and context entries should be swept")
}

func testContext(t *testing.T) *interview.Context {
	t.Helper()

	tmpl, err := input.DecodeQuestionTemplate(map[string]any{
		"id":    "email",
		"title": "Contact",
		"fields": []any{
			map[string]any{"type": "text", "set": "email", "format": "email"},
		},
	})
	require.NoError(t, err)

	steps, err := interview.DecodeSteps([]any{
		map[string]any{"ensure": "email"},
	})
	require.NoError(t, err)

	state := interview.NewState("", nil, nil)
	questions := map[string]*input.QuestionTemplate{"email": tmpl}
	return interview.NewContext(questions, []string{"email"}, steps, state, nil)
}
