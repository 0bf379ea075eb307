package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultColor is the color tag assigned to wallets created without one.
const DefaultColor = "#9C27B0"

// Wallet Model (table billeteras)
type Wallet struct {
	ID            uint            `gorm:"primaryKey" json:"id"`                                            // Primary key
	UsuarioID     uint            `gorm:"column:usuario_id;not null;index" json:"usuario_id"`              // Foreign key to User
	Nombre        string          `gorm:"column:nombre;not null" json:"nombre"`                            // Display name
	Saldo         decimal.Decimal `gorm:"column:saldo;type:decimal(14,2);not null;default:0" json:"saldo"` // Cached running balance
	Color         string          `gorm:"column:color;default:'#9C27B0'" json:"color"`                     // Color tag
	FechaCreacion time.Time       `gorm:"column:fecha_creacion;autoCreateTime" json:"fecha_creacion"`      // Creation timestamp
}

// TableName keeps the original schema name
func (Wallet) TableName() string { return "billeteras" }
