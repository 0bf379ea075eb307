// Package storetest holds the behavioral contract suite both storage
// adapters must pass. New adapters register a factory and inherit every
// check, balance bookkeeping included.
package storetest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finzapp/internal/domain"
	"finzapp/internal/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var userSeq atomic.Uint64

// seedUser registers a throwaway user and returns it.
func seedUser(t *testing.T, s store.Store) *domain.User {
	t.Helper()
	correo := fmt.Sprintf("user%d@test.local", userSeq.Add(1))
	user, err := s.CreateUser(context.Background(), "Ana", "García", correo, "secret123")
	require.NoError(t, err)
	return user
}

// seedWallet creates a wallet for the given user.
func seedWallet(t *testing.T, s store.Store, userID uint, nombre string) *domain.Wallet {
	t.Helper()
	wallet, err := s.CreateWallet(context.Background(), userID, nombre, "")
	require.NoError(t, err)
	return wallet
}

// Run executes the full contract suite against the adapter produced by
// the factory.
func Run(t *testing.T, newStore Factory) {
	t.Run("RegisterAndLogin", func(t *testing.T) { testRegisterAndLogin(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("UpdateUser", func(t *testing.T) { testUpdateUser(t, newStore(t)) })
	t.Run("WalletDefaults", func(t *testing.T) { testWalletDefaults(t, newStore(t)) })
	t.Run("RenameWallet", func(t *testing.T) { testRenameWallet(t, newStore(t)) })
	t.Run("DeleteWalletIdempotent", func(t *testing.T) { testDeleteWalletIdempotent(t, newStore(t)) })
	t.Run("BalanceLifecycle", func(t *testing.T) { testBalanceLifecycle(t, newStore(t)) })
	t.Run("UpdateMovesBalanceOnce", func(t *testing.T) { testUpdateMovesBalanceOnce(t, newStore(t)) })
	t.Run("RecentListingCap", func(t *testing.T) { testRecentListingCap(t, newStore(t)) })
	t.Run("ListingOrder", func(t *testing.T) { testListingOrder(t, newStore(t)) })
	t.Run("MissingWallet", func(t *testing.T) { testMissingWallet(t, newStore(t)) })
	t.Run("ResetUserData", func(t *testing.T) { testResetUserData(t, newStore(t)) })
	t.Run("Statistics", func(t *testing.T) { testStatistics(t, newStore(t)) })
}

func testRegisterAndLogin(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "Luis", "Pérez", "luis@test.local", "clave123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.FechaRegistro.IsZero())

	got, err := s.Login(ctx, "luis@test.local", "clave123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// Wrong password and unknown email both read as bad credentials
	_, err = s.Login(ctx, "luis@test.local", "wrong")
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody@test.local", "clave123")
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)

	// Password comparison is exact, case included
	_, err = s.Login(ctx, "luis@test.local", "CLAVE123")
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "Ana", "García", "ana@test.local", "clave123")
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, "Otra", "Persona", "ana@test.local", "otracosa")
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	// A different casing is a different email
	_, err = s.CreateUser(ctx, "Otra", "Persona", "Ana@test.local", "otracosa")
	assert.NoError(t, err)
}

func testUpdateUser(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()
	user := seedUser(t, s)

	updated, err := s.UpdateUser(ctx, user.ID, "Nuevo", "Nombre")
	require.NoError(t, err)
	assert.Equal(t, "Nuevo", updated.Nombre)
	assert.Equal(t, "Nombre", updated.Apellido)
	assert.Equal(t, user.Correo, updated.Correo)

	_, err = s.UpdateUser(ctx, 99999, "X", "Y")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testWalletDefaults(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()
	user := seedUser(t, s)

	wallet, err := s.CreateWallet(ctx, user.ID, "Ahorros", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultColor, wallet.Color)
	assert.True(t, wallet.Saldo.IsZero())
	assert.False(t, wallet.FechaCreacion.IsZero())

	custom, err := s.CreateWallet(ctx, user.ID, "Viajes", "#FF5722")
	require.NoError(t, err)
	assert.Equal(t, "#FF5722", custom.Color)

	wallets, err := s.ListWallets(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, wallets, 2)
}

func testRenameWallet(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()
	user := seedUser(t, s)
	wallet := seedWallet(t, s, user.ID, "Ahorros")

	_, err := s.CreateTransaction(ctx, wallet.ID, domain.TypeIncome, "salario", dec("100"), "", time.Now())
	require.NoError(t, err)

	require.NoError(t, s.RenameWallet(ctx, wallet.ID, "Fondo"))
	got, err := s.GetWallet(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fondo", got.Nombre)
	// Renaming never touches the saldo
	assert.True(t, got.Saldo.Equal(dec("100")))

	assert.ErrorIs(t, s.RenameWallet(ctx, 99999, "X"), store.ErrNotFound)
}

func testDeleteWalletIdempotent(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()
	user := seedUser(t, s)
	wallet := seedWallet(t, s, user.ID, "Ahorros")
	other := seedWallet(t, s, user.ID, "Viajes")

	tx, err := s.CreateTransaction(ctx, wallet.ID, domain.TypeIncome, "salario", dec("50"), "", time.Now())
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, other.ID, domain.TypeIncome, "salario", dec("20"), "", time.Now())
	require.NoError(t, err)

	require.NoError(t, s.DeleteWallet(ctx, wallet.ID))
	_, err = s.GetWallet(ctx, wallet.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Second delete of the same id still succeeds
	require.NoError(t, s.DeleteWallet(ctx, wallet.ID))
	require.NoError(t, s.DeleteWallet(ctx, 99999))

	// The other wallet is untouched
	kept, err := s.GetWallet(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, kept.Saldo.Equal(dec("20")))
}

// The canonical lifecycle: +50 income, -30 expense, -45 expense, then
// delete the first expense. The saldo may go negative and must track
// every step exactly.
func testBalanceLifecycle(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()
	user := seedUser(t, s)
	wallet := seedWallet(t, s, user.ID, "Ahorros")

	saldo := func() decimal.Decimal {
		got, err := s.GetWallet(ctx, wallet.ID)
		require.NoError(t, err)
		return got.Saldo
	}

	_, err := s.CreateTransaction(ctx, wallet.ID, domain.TypeIncome, "salario", dec("50"), "", time.Now())
	require.NoError(t, err)
	assert.True(t, saldo().Equal(dec("50")), "saldo after income: %s", saldo())

	gasto1, err := s.CreateTransaction(ctx, wallet.ID, domain.TypeExpense, "comida", dec("30"), "", time.Now())
	require.NoError(t, err)
	assert.True(t, saldo().Equal(dec("20")), "saldo after first expense: %s", saldo())

	_, err = s.CreateTransaction(ctx, wallet.ID, domain.TypeExpense, "transporte", dec("45"), "", time.Now())
	require.NoError(t, err)
	assert.True(t, saldo().Equal(dec("-25")), "saldo may go negative: %s", saldo())

	require.NoError(t, s.DeleteTransaction(ctx, gasto1.ID))
	assert.True(t, saldo().Equal(dec("5")), "saldo after reversal: %s", saldo())

	_, err = s.GetTransaction(ctx, gasto1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// Updating a movement reverts the old effect and applies the new one in
// a single combined step: a 100 income rewritten to a 40 expense moves
// the saldo by -140.
func testUpdateMovesBalanceOnce(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()
	user := seedUser(t, s)
	wallet := seedWallet(t, s, user.ID, "Ahorros")

	tx, err := s.CreateTransaction(ctx, wallet.ID, domain.TypeIncome, "salario", dec("100"), "", time.Now())
	require.NoError(t, err)

	require.NoError(t, s.UpdateTransaction(ctx, tx.ID, domain.TypeExpense, "comida", dec("40"), "cena"))

	got, err := s.GetWallet(ctx, wallet.ID)
	require.NoError(t, err)
	assert.True(t, got.Saldo.Equal(dec("-40")), "saldo after rewrite: %s", got.Saldo)

	updated, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TypeExpense, updated.Tipo)
	assert.Equal(t, "comida", updated.Categoria)
	assert.Equal(t, "cena", updated.Descripcion)
	assert.True(t, updated.Monto.Equal(dec("40")))

	assert.ErrorIs(t, s.UpdateTransaction(ctx, 99999, domain.TypeIncome, "x", dec("1"), ""), store.ErrNotFound)
}

func testRecentListingCap(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()
	user := seedUser(t, s)
	wallet := seedWallet(t, s, user.ID, "Ahorros")

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < store.RecentLimit+5; i++ {
		_, err := s.CreateTransaction(ctx, wallet.ID, domain.TypeIncome, "salario", dec("1"), "", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	recent, err := s.ListTransactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, recent, store.RecentLimit)
	// Newest first; the five oldest fall off
	assert.True(t, recent[0].Fecha.After(recent[len(recent)-1].Fecha))
	for _, tx := range recent {
		assert.Equal(t, "Ahorros", tx.BilleteraNombre)
	}

	// The per-wallet listing has no cap
	all, err := s.ListTransactionsByWallet(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Len(t, all, store.RecentLimit+5)
}

func testListingOrder(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()
	user := seedUser(t, s)
	wallet := seedWallet(t, s, user.ID, "Ahorros")

	day1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	a, err := s.CreateTransaction(ctx, wallet.ID, domain.TypeIncome, "a", dec("1"), "", day2)
	require.NoError(t, err)
	b, err := s.CreateTransaction(ctx, wallet.ID, domain.TypeIncome, "b", dec("1"), "", day1)
	require.NoError(t, err)
	c, err := s.CreateTransaction(ctx, wallet.ID, domain.TypeIncome, "c", dec("1"), "", day2)
	require.NoError(t, err)

	txs, err := s.ListTransactionsByWallet(ctx, wallet.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	// fecha descending, id ascending inside the same fecha
	assert.Equal(t, []uint{a.ID, c.ID, b.ID}, []uint{txs[0].ID, txs[1].ID, txs[2].ID})
}

func testMissingWallet(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	_, err := s.CreateTransaction(ctx, 99999, domain.TypeIncome, "x", dec("1"), "", time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetWallet(ctx, 99999)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeleteTransaction(ctx, 99999), store.ErrNotFound)
}

func testResetUserData(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()
	user := seedUser(t, s)
	other := seedUser(t, s)

	w1 := seedWallet(t, s, user.ID, "Ahorros")
	w2 := seedWallet(t, s, user.ID, "Viajes")
	keep := seedWallet(t, s, other.ID, "Intacta")

	_, err := s.CreateTransaction(ctx, w1.ID, domain.TypeIncome, "salario", dec("10"), "", time.Now())
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, w2.ID, domain.TypeExpense, "comida", dec("5"), "", time.Now())
	require.NoError(t, err)
	kept, err := s.CreateTransaction(ctx, keep.ID, domain.TypeIncome, "salario", dec("7"), "", time.Now())
	require.NoError(t, err)

	require.NoError(t, s.ResetUserData(ctx, user.ID))

	wallets, err := s.ListWallets(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, wallets)
	txs, err := s.ListTransactions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)

	// The account itself survives a reset
	_, err = s.GetUser(ctx, user.ID)
	assert.NoError(t, err)

	// Other users are untouched
	_, err = s.GetTransaction(ctx, kept.ID)
	assert.NoError(t, err)
	keptWallet, err := s.GetWallet(ctx, keep.ID)
	require.NoError(t, err)
	assert.True(t, keptWallet.Saldo.Equal(dec("7")))
}

func testStatistics(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()
	user := seedUser(t, s)

	// A user with no data still gets zero-valued aggregates
	empty, err := s.Statistics(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalBilleteras)
	assert.Zero(t, empty.TotalTransacciones)
	assert.True(t, empty.TotalIngresos.IsZero())
	assert.True(t, empty.TotalGastos.IsZero())
	assert.True(t, empty.SaldoTotal.IsZero())

	w1 := seedWallet(t, s, user.ID, "Ahorros")
	w2 := seedWallet(t, s, user.ID, "Viajes")
	_, err = s.CreateTransaction(ctx, w1.ID, domain.TypeIncome, "salario", dec("100.50"), "", time.Now())
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, w1.ID, domain.TypeExpense, "comida", dec("30.25"), "", time.Now())
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, w2.ID, domain.TypeExpense, "transporte", dec("10"), "", time.Now())
	require.NoError(t, err)

	stats, err := s.Statistics(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBilleteras)
	assert.Equal(t, int64(3), stats.TotalTransacciones)
	assert.True(t, stats.TotalIngresos.Equal(dec("100.50")), "ingresos: %s", stats.TotalIngresos)
	assert.True(t, stats.TotalGastos.Equal(dec("40.25")), "gastos: %s", stats.TotalGastos)
	assert.True(t, stats.SaldoTotal.Equal(dec("60.25")), "saldo total: %s", stats.SaldoTotal)
}
