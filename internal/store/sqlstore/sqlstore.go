// Package sqlstore implements the storage contract on a relational engine
// through GORM. The embedded on-device engine is SQLite; the backup API
// server runs the same adapter on MySQL.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finzapp/internal/domain"
	"finzapp/internal/store"
)

// Ensure SQLStore implements store.Store
var _ store.Store = (*SQLStore)(nil)

// SQLStore implements store.Store on a *gorm.DB.
type SQLStore struct {
	db *gorm.DB
}

// New opens a database for the given dialector and runs Init.
func New(dialector gorm.Dialector) (*SQLStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	s := &SQLStore{db: db}
	if err := s.Init(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an already-open GORM connection. Init is left to the
// caller (the migrate command owns the schema in server deployments).
func NewWithDB(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// DB exposes the underlying connection for migration tooling.
func (s *SQLStore) DB() *gorm.DB { return s.db }

// Init ensures the three tables exist. AutoMigrate is idempotent and
// never drops existing data.
func (s *SQLStore) Init(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(&domain.User{}, &domain.Wallet{}, &domain.Transaction{})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return nil
}

// Close closes the underlying sql.DB.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser registers a user, rejecting an already-registered correo.
func (s *SQLStore) CreateUser(ctx context.Context, nombre, apellido, correo, contrasena string) (*domain.User, error) {
	db := s.db.WithContext(ctx)
	var existing domain.User
	err := db.Where("correo = ?", correo).First(&existing).Error
	if err == nil {
		return nil, store.ErrDuplicateEmail
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	user := domain.User{Nombre: nombre, Apellido: apellido, Correo: correo, Contrasena: contrasena}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return &user, nil
}

// Login fetches by correo and compares the stored password verbatim.
func (s *SQLStore) Login(ctx context.Context, correo, contrasena string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("correo = ?", correo).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	// Plaintext comparison, preserved behavior.
	if user.Contrasena != contrasena {
		return nil, store.ErrInvalidCredentials
	}
	return &user, nil
}

// GetUser fetches a user by id.
func (s *SQLStore) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return &user, nil
}

// UpdateUser changes the profile names and returns the refreshed record.
func (s *SQLStore) UpdateUser(ctx context.Context, id uint, nombre, apellido string) (*domain.User, error) {
	db := s.db.WithContext(ctx)
	res := db.Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"nombre": nombre, "apellido": apellido})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetUser(ctx, id)
}

// ListWallets returns the user's wallets, newest first. The result is
// never nil so empty lists serialize as [] like the key-value adapter's.
func (s *SQLStore) ListWallets(ctx context.Context, userID uint) ([]domain.Wallet, error) {
	wallets := []domain.Wallet{}
	err := s.db.WithContext(ctx).
		Where("usuario_id = ?", userID).
		Order("fecha_creacion DESC, id ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return wallets, nil
}

// GetWallet fetches a wallet by id.
func (s *SQLStore) GetWallet(ctx context.Context, id uint) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := s.db.WithContext(ctx).First(&wallet, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return &wallet, nil
}

// CreateWallet creates a wallet with saldo 0 regardless of caller input.
func (s *SQLStore) CreateWallet(ctx context.Context, userID uint, nombre, color string) (*domain.Wallet, error) {
	if color == "" {
		color = domain.DefaultColor
	}
	wallet := domain.Wallet{UsuarioID: userID, Nombre: nombre, Saldo: decimal.Zero, Color: color}
	if err := s.db.WithContext(ctx).Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return &wallet, nil
}

// RenameWallet changes the display name only.
func (s *SQLStore) RenameWallet(ctx context.Context, id uint, nombre string) error {
	res := s.db.WithContext(ctx).Model(&domain.Wallet{}).Where("id = ?", id).Update("nombre", nombre)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteWallet removes the wallet's transactions and then the wallet.
// Balance bookkeeping is skipped: the saldo disappears with the row.
// Missing ids are a no-op success.
func (s *SQLStore) DeleteWallet(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("billetera_id = ?", id).Delete(&domain.Transaction{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Wallet{}).Error
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return nil
}

// ListTransactions returns the user's most recent transactions across all
// wallets, joined with the wallet name and capped at store.RecentLimit.
func (s *SQLStore) ListTransactions(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	db := s.db.WithContext(ctx)
	wallets, err := s.ListWallets(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return []domain.Transaction{}, nil
	}
	ids := make([]uint, 0, len(wallets))
	names := make(map[uint]string, len(wallets))
	for _, w := range wallets {
		ids = append(ids, w.ID)
		names[w.ID] = w.Nombre
	}
	txs := []domain.Transaction{}
	err = db.Where("billetera_id IN ?", ids).
		Order("fecha DESC, id ASC").
		Limit(store.RecentLimit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	for i := range txs {
		txs[i].BilleteraNombre = names[txs[i].BilleteraID]
	}
	return txs, nil
}

// ListTransactionsByWallet is the cap-free variant for one wallet.
func (s *SQLStore) ListTransactionsByWallet(ctx context.Context, walletID uint) ([]domain.Transaction, error) {
	wallet, err := s.GetWallet(ctx, walletID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []domain.Transaction{}, nil
		}
		return nil, err
	}
	txs := []domain.Transaction{}
	err = s.db.WithContext(ctx).
		Where("billetera_id = ?", walletID).
		Order("fecha DESC, id ASC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	for i := range txs {
		txs[i].BilleteraNombre = wallet.Nombre
	}
	return txs, nil
}

// GetTransaction fetches a transaction by id.
func (s *SQLStore) GetTransaction(ctx context.Context, id uint) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return &t, nil
}

// applyDelta moves a wallet saldo inside tx. The arithmetic happens in Go
// on decimals so repeated add/subtract cycles cannot drift, and the write
// stays inside the surrounding database transaction.
func applyDelta(tx *gorm.DB, walletID uint, delta decimal.Decimal) error {
	var wallet domain.Wallet
	if err := tx.First(&wallet, walletID).Error; err != nil {
		return err
	}
	return tx.Model(&domain.Wallet{}).Where("id = ?", walletID).
		Update("saldo", wallet.Saldo.Add(delta)).Error
}

// CreateTransaction inserts the row and applies the signed delta to the
// wallet saldo, both inside one database transaction.
func (s *SQLStore) CreateTransaction(ctx context.Context, walletID uint, tipo domain.TransactionType, categoria string, monto decimal.Decimal, descripcion string, fecha time.Time) (*domain.Transaction, error) {
	if fecha.IsZero() {
		fecha = time.Now()
	}
	t := domain.Transaction{
		BilleteraID: walletID,
		Tipo:        tipo,
		Categoria:   categoria,
		Monto:       monto,
		Descripcion: descripcion,
		Fecha:       fecha,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wallet domain.Wallet
		if err := tx.First(&wallet, walletID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		return applyDelta(tx, walletID, t.Signed())
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return &t, nil
}

// UpdateTransaction rewrites the mutable fields and moves the saldo by
// revert+apply combined into a single wallet write, preserving the
// original's numeric behavior.
func (s *SQLStore) UpdateTransaction(ctx context.Context, id uint, tipo domain.TransactionType, categoria string, monto decimal.Decimal, descripcion string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old domain.Transaction
		if err := tx.First(&old, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		updated := old
		updated.Tipo = tipo
		updated.Categoria = categoria
		updated.Monto = monto
		updated.Descripcion = descripcion
		err := tx.Model(&domain.Transaction{}).Where("id = ?", id).Updates(map[string]any{
			"tipo":        tipo,
			"categoria":   categoria,
			"monto":       monto,
			"descripcion": descripcion,
		}).Error
		if err != nil {
			return err
		}
		// revert + apply as one combined delta.
		delta := old.Signed().Neg().Add(updated.Signed())
		return applyDelta(tx, old.BilleteraID, delta)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return nil
}

// DeleteTransaction applies the reversing delta and removes the row.
func (s *SQLStore) DeleteTransaction(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t domain.Transaction
		if err := tx.First(&t, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		if err := applyDelta(tx, t.BilleteraID, t.Signed().Neg()); err != nil {
			return err
		}
		return tx.Delete(&domain.Transaction{}, id).Error
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return nil
}

// ResetUserData bulk-deletes the user's transactions and wallets. No
// per-row balance reversal: the wallets go with their saldos.
func (s *SQLStore) ResetUserData(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&domain.Wallet{}).Where("usuario_id = ?", userID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Where("billetera_id IN ?", ids).Delete(&domain.Transaction{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("usuario_id = ?", userID).Delete(&domain.Wallet{}).Error
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	return nil
}

// Statistics sums the user's data in one pass. SaldoTotal reflects the
// cached wallet balances, not a recomputation from history.
func (s *SQLStore) Statistics(ctx context.Context, userID uint) (*domain.Statistics, error) {
	wallets, err := s.ListWallets(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := domain.NewStatistics()
	stats.TotalBilleteras = int64(len(wallets))
	if len(wallets) == 0 {
		return stats, nil
	}
	ids := make([]uint, 0, len(wallets))
	for _, w := range wallets {
		ids = append(ids, w.ID)
		stats.SaldoTotal = stats.SaldoTotal.Add(w.Saldo)
	}
	var txs []domain.Transaction
	err = s.db.WithContext(ctx).Where("billetera_id IN ?", ids).Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}
	stats.TotalTransacciones = int64(len(txs))
	for _, t := range txs {
		if t.Tipo == domain.TypeIncome {
			stats.TotalIngresos = stats.TotalIngresos.Add(t.Monto)
		} else {
			stats.TotalGastos = stats.TotalGastos.Add(t.Monto)
		}
	}
	return stats, nil
}
