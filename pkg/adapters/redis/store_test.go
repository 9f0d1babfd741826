package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/botflow/pkg/adapters/redis"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunStateStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	id := "conversation-ttl"

	require.NoError(t, store.SetState(ctx, id, "main"))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	mr.FastForward(2 * time.Second)

	_, err = store.GetState(ctx, id)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	// The index is pruned against wall clock time, which miniredis cannot fast forward.
	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.SetState(ctx, "c1", "menu"))

	assert.True(t, mr.Exists("custom:app:conv:c1"), "expected key with custom prefix")
	assert.True(t, mr.Exists("custom:app:index"), "expected index with custom prefix")
	got, err := mr.Get("custom:app:conv:c1")
	require.NoError(t, err)
	assert.Equal(t, "menu", got)

	require.NoError(t, store.ClearState(ctx, "c1"))
	assert.False(t, mr.Exists("custom:app:conv:c1"))
}

func TestRedisStore_ReservedLookingIDs(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.SetState(ctx, "index", "main"))
	require.NoError(t, store.SetState(ctx, "alice", "menu"))

	got, err := store.GetState(ctx, "index")
	require.NoError(t, err)
	assert.Equal(t, "main", got)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"index", "alice"}, ids)

	require.NoError(t, store.ClearState(ctx, "index"))
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids)
}

func TestRedisStore_BackendError(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	mr.SetError("LOADING")

	_, err := store.GetState(context.Background(), "c1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrStateNotFound, "backend failures must not look like a missing conversation")
}

func TestRedisStore_Ping(t *testing.T) {
	_, client := newClient(t)
	assert.NoError(t, redis.NewFromClient(client).Ping(context.Background()))
}
