package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the stored transaction kind.
type TransactionType string

// Transaction types. The sign of a movement is carried by the type,
// the stored amount is always positive.
const (
	TypeIncome  TransactionType = "ingreso"
	TypeExpense TransactionType = "gasto"
)

// Valid reports whether t is one of the two known types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction Model (table transacciones)
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                                                // Primary key
	BilleteraID uint            `gorm:"column:billetera_id;not null;index" json:"billetera_id"`                              // Foreign key to Wallet
	Tipo        TransactionType `gorm:"column:tipo;type:varchar(10);not null;check:tipo IN ('ingreso','gasto')" json:"tipo"` // ingreso or gasto
	Categoria   string          `gorm:"column:categoria;not null" json:"categoria"`                                          // Free-form category label
	Monto       decimal.Decimal `gorm:"column:monto;type:decimal(14,2);not null" json:"monto"`                               // Strictly positive amount
	Descripcion string          `gorm:"column:descripcion" json:"descripcion"`                                               // Optional free text
	Fecha       time.Time       `gorm:"column:fecha" json:"fecha"`                                                           // Defaults to creation time

	// Wallet display name on joined listings; not persisted.
	BilleteraNombre string `gorm:"-" json:"billetera_nombre,omitempty"`
}

// TableName keeps the original schema name
func (Transaction) TableName() string { return "transacciones" }

// Signed returns the amount with the sign implied by the type:
// positive for ingreso, negative for gasto.
func (t Transaction) Signed() decimal.Decimal {
	if t.Tipo == TypeIncome {
		return t.Monto
	}
	return t.Monto.Neg()
}
