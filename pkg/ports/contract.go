package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	conversationID := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Set and Get", func(t *testing.T) {
		err := store.SetState(ctx, conversationID, "main")
		require.NoError(t, err, "SetState should not return error")

		state, err := store.GetState(ctx, conversationID)
		require.NoError(t, err, "GetState should not return error")
		assert.Equal(t, "main", state)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.SetState(ctx, conversationID, "main"))
		require.NoError(t, store.SetState(ctx, conversationID, "ask_name"))

		state, err := store.GetState(ctx, conversationID)
		require.NoError(t, err)
		assert.Equal(t, "ask_name", state)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.GetState(ctx, "non-existent-"+conversationID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.SetState(ctx, conversationID, "main"))

		err := store.ClearState(ctx, conversationID)
		require.NoError(t, err, "ClearState should not return error")

		_, err = store.GetState(ctx, conversationID)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "GetState after ClearState should return ErrStateNotFound")
	})

	t.Run("Clear Non-Existent", func(t *testing.T) {
		assert.NoError(t, store.ClearState(ctx, "never-seen-"+conversationID))
	})

	t.Run("Isolation", func(t *testing.T) {
		id1 := conversationID + "-1"
		id2 := conversationID + "-2"
		require.NoError(t, store.SetState(ctx, id1, "main"))
		require.NoError(t, store.SetState(ctx, id2, "echo"))
		defer func() {
			_ = store.ClearState(ctx, id1)
			_ = store.ClearState(ctx, id2)
		}()

		s1, err := store.GetState(ctx, id1)
		require.NoError(t, err)
		s2, err := store.GetState(ctx, id2)
		require.NoError(t, err)
		assert.Equal(t, "main", s1)
		assert.Equal(t, "echo", s2)
	})

	lister, ok := store.(Lister)
	if !ok {
		return
	}

	t.Run("List", func(t *testing.T) {
		id1 := conversationID + "-list-1"
		id2 := conversationID + "-list-2"
		_ = store.SetState(ctx, id1, "main")
		_ = store.SetState(ctx, id2, "main")
		defer func() {
			_ = store.ClearState(ctx, id1)
			_ = store.ClearState(ctx, id2)
		}()

		ids, err := lister.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
