// Package export implements the portable dataset protocol: assembling a
// versioned JSON document from a user's full dataset, validating incoming
// documents, and merging them back in append or replace mode.
package export

import (
	"context"
	"time"

	"finzapp/internal/domain"
	"finzapp/internal/store"
)

// Version is the only document version this protocol reads or writes.
// Any other value, including a newer one, is rejected outright.
const Version = "1.0.0"

// UserInfo is the exported user block. The password is never part of a
// document.
type UserInfo struct {
	ID            uint      `json:"id"`
	Nombre        string    `json:"nombre"`
	Apellido      string    `json:"apellido"`
	Correo        string    `json:"correo"`
	FechaRegistro time.Time `json:"fecha_registro"`
}

// Document is the portable snapshot of one user's full dataset.
type Document struct {
	Version          string               `json:"version"`
	FechaExportacion time.Time            `json:"fechaExportacion"`
	Usuario          UserInfo             `json:"usuario"`
	Billeteras       []domain.Wallet      `json:"billeteras"`
	Transacciones    []domain.Transaction `json:"transacciones"`
}

// Export assembles the document for one user. Transactions carry the
// owning wallet's name. Fails with store.ErrNotFound for an unknown user.
func Export(ctx context.Context, s store.Store, userID uint) (*Document, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	wallets, err := s.ListWallets(ctx, userID)
	if err != nil {
		return nil, err
	}
	transactions := []domain.Transaction{}
	for _, w := range wallets {
		txs, err := s.ListTransactionsByWallet(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txs...)
	}
	return &Document{
		Version:          Version,
		FechaExportacion: time.Now(),
		Usuario: UserInfo{
			ID:            user.ID,
			Nombre:        user.Nombre,
			Apellido:      user.Apellido,
			Correo:        user.Correo,
			FechaRegistro: user.FechaRegistro,
		},
		Billeteras:    wallets,
		Transacciones: transactions,
	}, nil
}
