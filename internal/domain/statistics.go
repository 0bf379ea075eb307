package domain

import "github.com/shopspring/decimal"

// Statistics is the aggregate dashboard view for one user. All sums are
// zero-valued (never null) when the user has no data. SaldoTotal sums the
// cached wallet balances, it is not recomputed from transaction history.
type Statistics struct {
	TotalBilleteras    int64           `json:"totalBilleteras"`
	TotalTransacciones int64           `json:"totalTransacciones"`
	TotalIngresos      decimal.Decimal `json:"totalIngresos"`
	TotalGastos        decimal.Decimal `json:"totalGastos"`
	SaldoTotal         decimal.Decimal `json:"saldoTotal"`
}

// NewStatistics returns a zero-valued Statistics with initialized decimals.
func NewStatistics() *Statistics {
	return &Statistics{
		TotalIngresos: decimal.Zero,
		TotalGastos:   decimal.Zero,
		SaldoTotal:    decimal.Zero,
	}
}
