// Package store defines the storage contract shared by the relational and
// key-value backends. Both adapters must produce identical observable
// behavior; the storetest suite holds them to it.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finzapp/internal/domain"
)

// RecentLimit caps the dashboard recency listing. The cap is deliberate
// and not configurable by the caller.
const RecentLimit = 20

// Store is the narrow contract both storage adapters implement.
//
// Every mutation of a transaction keeps the owning wallet's cached saldo
// equal to the signed sum of its transactions: create applies the signed
// delta, update reverts the old movement and applies the new one in a
// single combined write, delete applies the reversing delta. Wallet
// deletes and user resets bulk-delete rows without per-row bookkeeping
// because the balance field disappears in the same operation.
type Store interface {
	// Init idempotently ensures the three collections exist. It is safe
	// to call repeatedly and never destroys existing data.
	Init(ctx context.Context) error

	// CreateUser registers a user. Fails with ErrDuplicateEmail when the
	// correo is already present (exact, case-sensitive match).
	CreateUser(ctx context.Context, nombre, apellido, correo, contrasena string) (*domain.User, error)

	// Login succeeds only on an exact match of correo and contrasena and
	// fails with ErrInvalidCredentials otherwise. Comparison is plaintext,
	// preserved behavior of the system this replaces.
	Login(ctx context.Context, correo, contrasena string) (*domain.User, error)

	// GetUser fetches a user by id, ErrNotFound when absent.
	GetUser(ctx context.Context, id uint) (*domain.User, error)

	// UpdateUser changes the profile names and returns the refreshed
	// record, ErrNotFound when absent.
	UpdateUser(ctx context.Context, id uint, nombre, apellido string) (*domain.User, error)

	// ListWallets returns the user's wallets ordered by creation
	// timestamp descending (id ascending on equal timestamps).
	ListWallets(ctx context.Context, userID uint) ([]domain.Wallet, error)

	// GetWallet fetches a wallet by id, ErrNotFound when absent.
	GetWallet(ctx context.Context, id uint) (*domain.Wallet, error)

	// CreateWallet creates a wallet with saldo 0 regardless of caller
	// input. An empty color takes domain.DefaultColor.
	CreateWallet(ctx context.Context, userID uint, nombre, color string) (*domain.Wallet, error)

	// RenameWallet changes the display name only, ErrNotFound when the id
	// does not exist. The saldo is never touched.
	RenameWallet(ctx context.Context, id uint, nombre string) error

	// DeleteWallet deletes the wallet's transactions and then the wallet.
	// Deleting a non-existent id succeeds without altering other data.
	DeleteWallet(ctx context.Context, id uint) error

	// ListTransactions returns the user's most recent transactions joined
	// with the wallet name, ordered fecha descending (id ascending on
	// ties), capped at RecentLimit.
	ListTransactions(ctx context.Context, userID uint) ([]domain.Transaction, error)

	// ListTransactionsByWallet is the cap-free variant for one wallet,
	// same ordering.
	ListTransactionsByWallet(ctx context.Context, walletID uint) ([]domain.Transaction, error)

	// GetTransaction fetches a transaction by id, ErrNotFound when absent.
	GetTransaction(ctx context.Context, id uint) (*domain.Transaction, error)

	// CreateTransaction inserts the row and applies the signed delta to
	// the wallet saldo atomically. A zero fecha defaults to now. Fails
	// with ErrNotFound when the wallet does not exist.
	CreateTransaction(ctx context.Context, walletID uint, tipo domain.TransactionType, categoria string, monto decimal.Decimal, descripcion string, fecha time.Time) (*domain.Transaction, error)

	// UpdateTransaction rewrites tipo, categoria, monto and descripcion
	// and moves the wallet saldo by revert+apply in one combined write.
	UpdateTransaction(ctx context.Context, id uint, tipo domain.TransactionType, categoria string, monto decimal.Decimal, descripcion string) error

	// DeleteTransaction applies the reversing delta and removes the row.
	DeleteTransaction(ctx context.Context, id uint) error

	// ResetUserData deletes all of the user's transactions and wallets.
	// The user record itself survives.
	ResetUserData(ctx context.Context, userID uint) error

	// Statistics computes the aggregate dashboard view. All sums are
	// zero-valued when the user has no data.
	Statistics(ctx context.Context, userID uint) (*domain.Statistics, error)

	// Close releases the underlying connection.
	Close() error
}
