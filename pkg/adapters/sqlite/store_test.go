package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/botflow/pkg/adapters/sqlite"
	"github.com/aretw0/botflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, openStore(t, filepath.Join(t.TempDir(), "botflow.db")))
}

func TestSQLiteStore_InMemory(t *testing.T) {
	ports.RunStateStoreContract(t, openStore(t, ":memory:"))
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "botflow.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SetState(ctx, "c1", "menu"))
	require.NoError(t, store.Close())

	reopened := openStore(t, path)
	got, err := reopened.GetState(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "menu", got)
}

func TestSQLiteStore_OpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}
