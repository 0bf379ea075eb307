package kvstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"finzapp/internal/store"
	"finzapp/internal/store/kvstore"
	"finzapp/internal/store/storetest"
)

// Each subtest gets its own miniredis instance.
func newStore(t *testing.T) store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := kvstore.New(rdb)
	require.NoError(t, s.Init(context.Background()))
	return s
}

func TestKVStoreContract(t *testing.T) {
	storetest.Run(t, newStore)
}

// Ids must keep advancing across restarts against the same server.
func TestSequencesSurviveReconnect(t *testing.T) {
	mr := miniredis.RunT(t)

	first := kvstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, first.Init(context.Background()))
	u1, err := first.CreateUser(context.Background(), "Ana", "García", "ana@test.local", "clave123")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := kvstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, second.Init(context.Background()))
	defer second.Close()
	u2, err := second.CreateUser(context.Background(), "Luis", "Pérez", "luis@test.local", "clave123")
	require.NoError(t, err)
	require.Greater(t, u2.ID, u1.ID)
}
