// Package kvstore implements the storage contract on a flat key-value
// store (Redis) for environments without an embedded SQL engine. Entities
// live as JSON values under per-id keys, with id sets as indexes and INCR
// counters as id generators. There are no native foreign keys, so cascades
// are performed manually; multi-key mutations are grouped in MULTI/EXEC
// pipelines so the transaction row and the wallet balance always land
// together.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"finzapp/internal/domain"
	"finzapp/internal/store"
)

// Ensure KVStore implements store.Store
var _ store.Store = (*KVStore)(nil)

// Key layout. Collection names mirror the relational tables.
const (
	seqUserKey        = "finz:seq:usuarios"
	seqWalletKey      = "finz:seq:billeteras"
	seqTransactionKey = "finz:seq:transacciones"
	emailIndexKey     = "finz:correos" // hash correo -> user id
)

func userKey(id uint) string        { return "finz:usuario:" + strconv.FormatUint(uint64(id), 10) }
func walletKey(id uint) string      { return "finz:billetera:" + strconv.FormatUint(uint64(id), 10) }
func transactionKey(id uint) string { return "finz:transaccion:" + strconv.FormatUint(uint64(id), 10) }
func userWalletsKey(userID uint) string {
	return userKey(userID) + ":billeteras"
}
func walletTransactionsKey(walletID uint) string {
	return walletKey(walletID) + ":transacciones"
}

// KVStore implements store.Store on a Redis client.
type KVStore struct {
	rdb *redis.Client
}

// New wraps a Redis client.
func New(rdb *redis.Client) *KVStore {
	return &KVStore{rdb: rdb}
}

// Init verifies connectivity. Redis collections are created lazily, so
// there is nothing to set up and nothing existing is ever touched.
func (s *KVStore) Init(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *KVStore) Close() error { return s.rdb.Close() }

// getJSON retrieves a key and unmarshals it into dest. The bool reports
// whether the key existed.
func (s *KVStore) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return true, nil
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return string(b), nil
}

// nextID generates the next integer identifier for a collection.
func (s *KVStore) nextID(ctx context.Context, seqKey string) (uint, error) {
	id, err := s.rdb.Incr(ctx, seqKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return uint(id), nil
}

// CreateUser registers a user, rejecting an already-registered correo.
func (s *KVStore) CreateUser(ctx context.Context, nombre, apellido, correo, contrasena string) (*domain.User, error) {
	exists, err := s.rdb.HExists(ctx, emailIndexKey, correo).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	if exists {
		return nil, store.ErrDuplicateEmail
	}
	id, err := s.nextID(ctx, seqUserKey)
	if err != nil {
		return nil, err
	}
	user := domain.User{
		ID:            id,
		Nombre:        nombre,
		Apellido:      apellido,
		Correo:        correo,
		Contrasena:    contrasena,
		FechaRegistro: time.Now(),
	}
	blob, err := marshalUser(&user)
	if err != nil {
		return nil, err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, userKey(id), blob, 0)
		pipe.HSet(ctx, emailIndexKey, correo, strconv.FormatUint(uint64(id), 10))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return &user, nil
}

// storedUser carries the password alongside the public fields. The domain
// model hides contraseña from JSON, so the KV representation needs its own
// envelope to persist it.
type storedUser struct {
	domain.User
	Contrasena string `json:"contraseña"`
}

func marshalUser(u *domain.User) (string, error) {
	return marshal(storedUser{User: *u, Contrasena: u.Contrasena})
}

func (s *KVStore) getUser(ctx context.Context, id uint) (*domain.User, bool, error) {
	var su storedUser
	found, err := s.getJSON(ctx, userKey(id), &su)
	if err != nil || !found {
		return nil, found, err
	}
	user := su.User
	user.Contrasena = su.Contrasena
	return &user, true, nil
}

// Login resolves the correo through the email index and compares the
// stored password verbatim.
func (s *KVStore) Login(ctx context.Context, correo, contrasena string) (*domain.User, error) {
	idStr, err := s.rdb.HGet(ctx, emailIndexKey, correo).Result()
	if err == redis.Nil {
		return nil, store.ErrInvalidCredentials
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	id, _ := strconv.ParseUint(idStr, 10, 64)
	user, found, err := s.getUser(ctx, uint(id))
	if err != nil {
		return nil, err
	}
	// Plaintext comparison, preserved behavior.
	if !found || user.Contrasena != contrasena {
		return nil, store.ErrInvalidCredentials
	}
	return user, nil
}

// GetUser fetches a user by id.
func (s *KVStore) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	user, found, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, store.ErrNotFound
	}
	return user, nil
}

// UpdateUser changes the profile names and returns the refreshed record.
func (s *KVStore) UpdateUser(ctx context.Context, id uint, nombre, apellido string) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Nombre = nombre
	user.Apellido = apellido
	blob, err := marshalUser(user)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, userKey(id), blob, 0).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return user, nil
}

// ListWallets returns the user's wallets, newest first.
func (s *KVStore) ListWallets(ctx context.Context, userID uint) ([]domain.Wallet, error) {
	ids, err := s.rdb.SMembers(ctx, userWalletsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	wallets := make([]domain.Wallet, 0, len(ids))
	for _, idStr := range ids {
		id, _ := strconv.ParseUint(idStr, 10, 64)
		var w domain.Wallet
		found, err := s.getJSON(ctx, walletKey(uint(id)), &w)
		if err != nil {
			return nil, err
		}
		if found {
			wallets = append(wallets, w)
		}
	}
	sortWallets(wallets)
	return wallets, nil
}

// GetWallet fetches a wallet by id.
func (s *KVStore) GetWallet(ctx context.Context, id uint) (*domain.Wallet, error) {
	var w domain.Wallet
	found, err := s.getJSON(ctx, walletKey(id), &w)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, store.ErrNotFound
	}
	return &w, nil
}

// CreateWallet creates a wallet with saldo 0 regardless of caller input.
func (s *KVStore) CreateWallet(ctx context.Context, userID uint, nombre, color string) (*domain.Wallet, error) {
	if color == "" {
		color = domain.DefaultColor
	}
	id, err := s.nextID(ctx, seqWalletKey)
	if err != nil {
		return nil, err
	}
	wallet := domain.Wallet{
		ID:            id,
		UsuarioID:     userID,
		Nombre:        nombre,
		Saldo:         decimal.Zero,
		Color:         color,
		FechaCreacion: time.Now(),
	}
	blob, err := marshal(wallet)
	if err != nil {
		return nil, err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, walletKey(id), blob, 0)
		pipe.SAdd(ctx, userWalletsKey(userID), strconv.FormatUint(uint64(id), 10))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return &wallet, nil
}

// RenameWallet changes the display name only.
func (s *KVStore) RenameWallet(ctx context.Context, id uint, nombre string) error {
	wallet, err := s.GetWallet(ctx, id)
	if err != nil {
		return err
	}
	wallet.Nombre = nombre
	return s.putWallet(ctx, wallet)
}

func (s *KVStore) putWallet(ctx context.Context, w *domain.Wallet) error {
	blob, err := marshal(w)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, walletKey(w.ID), blob, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return nil
}

// DeleteWallet removes the wallet's transactions and then the wallet,
// all in one pipeline. Missing ids are a no-op success.
func (s *KVStore) DeleteWallet(ctx context.Context, id uint) error {
	wallet, err := s.GetWallet(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	txIDs, err := s.rdb.SMembers(ctx, walletTransactionsKey(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, txID := range txIDs {
			n, _ := strconv.ParseUint(txID, 10, 64)
			pipe.Del(ctx, transactionKey(uint(n)))
		}
		pipe.Del(ctx, walletTransactionsKey(id))
		pipe.SRem(ctx, userWalletsKey(wallet.UsuarioID), strconv.FormatUint(uint64(id), 10))
		pipe.Del(ctx, walletKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return nil
}

// walletTransactions loads every transaction of one wallet, unsorted.
func (s *KVStore) walletTransactions(ctx context.Context, walletID uint) ([]domain.Transaction, error) {
	ids, err := s.rdb.SMembers(ctx, walletTransactionsKey(walletID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	txs := make([]domain.Transaction, 0, len(ids))
	for _, idStr := range ids {
		id, _ := strconv.ParseUint(idStr, 10, 64)
		var t domain.Transaction
		found, err := s.getJSON(ctx, transactionKey(uint(id)), &t)
		if err != nil {
			return nil, err
		}
		if found {
			txs = append(txs, t)
		}
	}
	return txs, nil
}

// ListTransactions returns the user's most recent transactions across all
// wallets, joined with the wallet name and capped at store.RecentLimit.
func (s *KVStore) ListTransactions(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	wallets, err := s.ListWallets(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(wallets))
	var txs []domain.Transaction
	for _, w := range wallets {
		names[w.ID] = w.Nombre
		list, err := s.walletTransactions(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		txs = append(txs, list...)
	}
	sortTransactions(txs)
	if len(txs) > store.RecentLimit {
		txs = txs[:store.RecentLimit]
	}
	for i := range txs {
		txs[i].BilleteraNombre = names[txs[i].BilleteraID]
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}

// ListTransactionsByWallet is the cap-free variant for one wallet.
func (s *KVStore) ListTransactionsByWallet(ctx context.Context, walletID uint) ([]domain.Transaction, error) {
	wallet, err := s.GetWallet(ctx, walletID)
	if errors.Is(err, store.ErrNotFound) {
		return []domain.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}
	txs, err := s.walletTransactions(ctx, walletID)
	if err != nil {
		return nil, err
	}
	sortTransactions(txs)
	for i := range txs {
		txs[i].BilleteraNombre = wallet.Nombre
	}
	return txs, nil
}

// GetTransaction fetches a transaction by id.
func (s *KVStore) GetTransaction(ctx context.Context, id uint) (*domain.Transaction, error) {
	var t domain.Transaction
	found, err := s.getJSON(ctx, transactionKey(id), &t)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

// CreateTransaction writes the row, the index entry and the updated
// wallet balance in one MULTI/EXEC batch.
func (s *KVStore) CreateTransaction(ctx context.Context, walletID uint, tipo domain.TransactionType, categoria string, monto decimal.Decimal, descripcion string, fecha time.Time) (*domain.Transaction, error) {
	wallet, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if fecha.IsZero() {
		fecha = time.Now()
	}
	id, err := s.nextID(ctx, seqTransactionKey)
	if err != nil {
		return nil, err
	}
	t := domain.Transaction{
		ID:          id,
		BilleteraID: walletID,
		Tipo:        tipo,
		Categoria:   categoria,
		Monto:       monto,
		Descripcion: descripcion,
		Fecha:       fecha,
	}
	wallet.Saldo = wallet.Saldo.Add(t.Signed())
	txBlob, err := marshal(t)
	if err != nil {
		return nil, err
	}
	walletBlob, err := marshal(wallet)
	if err != nil {
		return nil, err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, transactionKey(id), txBlob, 0)
		pipe.SAdd(ctx, walletTransactionsKey(walletID), strconv.FormatUint(uint64(id), 10))
		pipe.Set(ctx, walletKey(walletID), walletBlob, 0)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return &t, nil
}

// UpdateTransaction rewrites the mutable fields and moves the wallet
// saldo by revert+apply combined into one write.
func (s *KVStore) UpdateTransaction(ctx context.Context, id uint, tipo domain.TransactionType, categoria string, monto decimal.Decimal, descripcion string) error {
	old, err := s.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	wallet, err := s.GetWallet(ctx, old.BilleteraID)
	if err != nil {
		return err
	}
	updated := *old
	updated.Tipo = tipo
	updated.Categoria = categoria
	updated.Monto = monto
	updated.Descripcion = descripcion
	// revert + apply as one combined delta.
	wallet.Saldo = wallet.Saldo.Add(old.Signed().Neg().Add(updated.Signed()))
	txBlob, err := marshal(updated)
	if err != nil {
		return err
	}
	walletBlob, err := marshal(wallet)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, transactionKey(id), txBlob, 0)
		pipe.Set(ctx, walletKey(wallet.ID), walletBlob, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return nil
}

// DeleteTransaction applies the reversing delta and removes the row.
func (s *KVStore) DeleteTransaction(ctx context.Context, id uint) error {
	t, err := s.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	wallet, err := s.GetWallet(ctx, t.BilleteraID)
	if err != nil {
		return err
	}
	wallet.Saldo = wallet.Saldo.Add(t.Signed().Neg())
	walletBlob, err := marshal(wallet)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, transactionKey(id))
		pipe.SRem(ctx, walletTransactionsKey(wallet.ID), strconv.FormatUint(uint64(id), 10))
		pipe.Set(ctx, walletKey(wallet.ID), walletBlob, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return nil
}

// ResetUserData bulk-deletes the user's transactions and wallets. No
// per-row balance reversal: the wallets go with their saldos.
func (s *KVStore) ResetUserData(ctx context.Context, userID uint) error {
	wallets, err := s.ListWallets(ctx, userID)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range wallets {
			txIDs, err := s.rdb.SMembers(ctx, walletTransactionsKey(w.ID)).Result()
			if err != nil {
				return err
			}
			for _, txID := range txIDs {
				n, _ := strconv.ParseUint(txID, 10, 64)
				pipe.Del(ctx, transactionKey(uint(n)))
			}
			pipe.Del(ctx, walletTransactionsKey(w.ID))
			pipe.Del(ctx, walletKey(w.ID))
		}
		pipe.Del(ctx, userWalletsKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return nil
}

// Statistics sums the user's data in one pass. SaldoTotal reflects the
// cached wallet balances, not a recomputation from history.
func (s *KVStore) Statistics(ctx context.Context, userID uint) (*domain.Statistics, error) {
	wallets, err := s.ListWallets(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := domain.NewStatistics()
	stats.TotalBilleteras = int64(len(wallets))
	for _, w := range wallets {
		stats.SaldoTotal = stats.SaldoTotal.Add(w.Saldo)
		txs, err := s.walletTransactions(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		stats.TotalTransacciones += int64(len(txs))
		for _, t := range txs {
			if t.Tipo == domain.TypeIncome {
				stats.TotalIngresos = stats.TotalIngresos.Add(t.Monto)
			} else {
				stats.TotalGastos = stats.TotalGastos.Add(t.Monto)
			}
		}
	}
	return stats, nil
}

// sortWallets orders by creation timestamp descending, id ascending on
// equal timestamps.
func sortWallets(wallets []domain.Wallet) {
	sort.SliceStable(wallets, func(i, j int) bool {
		if wallets[i].FechaCreacion.Equal(wallets[j].FechaCreacion) {
			return wallets[i].ID < wallets[j].ID
		}
		return wallets[i].FechaCreacion.After(wallets[j].FechaCreacion)
	})
}

// sortTransactions orders by fecha descending, id ascending on equal
// timestamps, matching the relational ORDER BY.
func sortTransactions(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Fecha.Equal(txs[j].Fecha) {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].Fecha.After(txs[j].Fecha)
	})
}
