package file_test

import (
	"context"
	"os"
	"testing"

	"github.com/aretw0/botflow/pkg/adapters/file"
	"github.com/aretw0/botflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_UnsafeConversationIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()
	ids := []string{"../escape", "chat:-1001234", "a/b\\c"}

	for _, id := range ids {
		require.NoError(t, store.SetState(ctx, id, "menu"))
	}
	for _, id := range ids {
		got, err := store.GetState(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "menu", got)
	}

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, listed)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.SetState(ctx, "c1", "main"))
	require.NoError(t, store.SetState(ctx, "c1", "menu"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_ListMissingDirectory(t *testing.T) {
	store := file.New(t.TempDir() + "/missing")
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_EmptyID(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()
	assert.Error(t, store.SetState(ctx, "", "main"))
	_, err := store.GetState(ctx, "")
	assert.Error(t, err)
}
