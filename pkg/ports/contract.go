package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/interview"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore
// implementation adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()

	t.Run("Put and Get", func(t *testing.T) {
		ic := contractContext(t)

		key, err := store.Put(ctx, ic)
		require.NoError(t, err, "Put should not return error")
		require.NotEmpty(t, key)

		loaded, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, ic.State.Target, loaded.State.Target)
		assert.Equal(t, ic.State.Context, loaded.State.Context)
		assert.Equal(t, ic.State.Data, loaded.State.Data)
		assert.Len(t, loaded.Questions, len(ic.Questions))
		assert.Len(t, loaded.Steps, len(ic.Steps))
	})

	t.Run("Content addressed", func(t *testing.T) {
		ic := contractContext(t)

		key1, err := store.Put(ctx, ic)
		require.NoError(t, err)
		key2, err := store.Put(ctx, ic)
		require.NoError(t, err)
		assert.Equal(t, key1, key2, "identical snapshots should share a key")

		updated := ic.WithState(ic.State.WithData(map[string]any{"name": "updated"}))
		key3, err := store.Put(ctx, updated)
		require.NoError(t, err)
		assert.NotEqual(t, key1, key3, "a changed snapshot should get a new key")
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "bm90LWEtcmVhbC1rZXk")
		assert.ErrorIs(t, err, interview.ErrInterviewNotFound)
	})
}

// contractContext builds a minimal but realistic context for the suite.
func contractContext(t *testing.T) *interview.Context {
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
		map[string]any{"exit": "Done", "when": "name"},
	})
	require.NoError(t, err)

	state := interview.NewState(
		"https://example.net/target",
		map[string]any{"event": "example-event"},
		nil,
	)
	questions := map[string]*input.QuestionTemplate{"name": tmpl}
	return interview.NewContext(questions, []string{"name"}, steps, state, nil)
}
