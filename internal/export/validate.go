package export

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"finzapp/internal/domain"
)

// Validation is advisory and partial: every wallet entry is checked, but
// only the first sampleSize transactions are inspected. Large malformed
// files past the sample are accepted here and surface at import time; the
// sampling is deliberate and must not be upgraded to a full scan.
const (
	sampleSize = 5
	maxReasons = 10
)

type rawDocument struct {
	Version          *string           `json:"version"`
	FechaExportacion json.RawMessage   `json:"fechaExportacion"`
	Usuario          json.RawMessage   `json:"usuario"`
	Billeteras       []json.RawMessage `json:"billeteras"`
	Transacciones    []json.RawMessage `json:"transacciones"`
}

type rawWallet struct {
	Nombre *string          `json:"nombre"`
	Saldo  *decimal.Decimal `json:"saldo"`
}

type rawTransaction struct {
	Tipo  *string          `json:"tipo"`
	Monto *decimal.Decimal `json:"monto"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// Validate checks an incoming document and returns whether it is
// acceptable plus a bounded list of human-readable reasons when not.
func Validate(raw []byte) (bool, []string) {
	var reasons []string
	add := func(reason string) {
		if len(reasons) < maxReasons {
			reasons = append(reasons, reason)
		}
	}

	var doc rawDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, []string{"document is not valid JSON"}
	}

	if doc.Version == nil {
		add("missing version field")
	} else if *doc.Version != Version {
		add(fmt.Sprintf("unsupported version %q, expected %q", *doc.Version, Version))
	}
	if !present(doc.FechaExportacion) {
		add("missing fechaExportacion field")
	}
	if !present(doc.Usuario) {
		add("missing usuario block")
	}

	if doc.Billeteras == nil {
		add("missing billeteras array")
	}
	for i, entry := range doc.Billeteras {
		if len(reasons) >= maxReasons {
			break
		}
		var w rawWallet
		if err := json.Unmarshal(entry, &w); err != nil {
			add(fmt.Sprintf("billetera %d is malformed", i))
			continue
		}
		if w.Nombre == nil || *w.Nombre == "" {
			add(fmt.Sprintf("billetera %d has no nombre", i))
		}
		if w.Saldo == nil {
			add(fmt.Sprintf("billetera %d has no saldo", i))
		}
	}

	if doc.Transacciones == nil {
		add("missing transacciones array")
	}
	// Sample only the head of the list.
	for i, entry := range doc.Transacciones {
		if i >= sampleSize || len(reasons) >= maxReasons {
			break
		}
		var t rawTransaction
		if err := json.Unmarshal(entry, &t); err != nil {
			add(fmt.Sprintf("transaccion %d is malformed", i))
			continue
		}
		if t.Tipo == nil || !domain.TransactionType(*t.Tipo).Valid() {
			add(fmt.Sprintf("transaccion %d has an unknown tipo", i))
		}
		if t.Monto == nil {
			add(fmt.Sprintf("transaccion %d has a non-numeric monto", i))
		}
	}

	return len(reasons) == 0, reasons
}
