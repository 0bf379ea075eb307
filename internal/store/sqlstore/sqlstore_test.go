package sqlstore_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"

	"finzapp/internal/store"
	"finzapp/internal/store/sqlstore"
	"finzapp/internal/store/storetest"
)

// Each subtest gets its own in-memory database.
func newStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlstore.New(sqlite.Open(":memory:"))
	require.NoError(t, err)
	return s
}

func TestSQLStoreContract(t *testing.T) {
	storetest.Run(t, newStore)
}

// Init must be safe to run against an already migrated database.
func TestInitIdempotent(t *testing.T) {
	s, err := sqlstore.New(sqlite.Open(":memory:"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.Init(context.Background()))
}
