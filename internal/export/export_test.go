package export_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finzapp/internal/domain"
	"finzapp/internal/export"
	"finzapp/internal/store"
	"finzapp/internal/store/sqlstore"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlstore.New(sqlite.Open(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// seed creates a user with two wallets and three transactions.
func seed(t *testing.T, s store.Store) *domain.User {
	t.Helper()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, "Ana", "García", "ana@test.local", "clave123")
	require.NoError(t, err)
	w1, err := s.CreateWallet(ctx, user.ID, "Ahorros", "")
	require.NoError(t, err)
	w2, err := s.CreateWallet(ctx, user.ID, "Viajes", "#FF5722")
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, w1.ID, domain.TypeIncome, "salario", dec("100"), "", time.Now())
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, w1.ID, domain.TypeExpense, "comida", dec("30"), "almuerzo", time.Now())
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, w2.ID, domain.TypeIncome, "regalo", dec("25"), "", time.Now())
	require.NoError(t, err)
	return user
}

func TestExportDocument(t *testing.T) {
	s := newStore(t)
	user := seed(t, s)

	doc, err := export.Export(context.Background(), s, user.ID)
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", doc.Version)
	assert.False(t, doc.FechaExportacion.IsZero())
	assert.Equal(t, "ana@test.local", doc.Usuario.Correo)
	assert.Len(t, doc.Billeteras, 2)
	assert.Len(t, doc.Transacciones, 3)
	for _, tx := range doc.Transacciones {
		assert.NotEmpty(t, tx.BilleteraNombre)
	}

	// The password never leaks into the serialized document
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "clave123")
	assert.NotContains(t, string(raw), "contraseña")

	_, err = export.Export(context.Background(), s, 99999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// A freshly exported document must validate cleanly.
func TestExportRoundTripValidates(t *testing.T) {
	s := newStore(t)
	user := seed(t, s)

	doc, err := export.Export(context.Background(), s, user.ID)
	require.NoError(t, err)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	valid, reasons := export.Validate(raw)
	assert.True(t, valid, "reasons: %v", reasons)
	assert.Empty(t, reasons)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		reason string
	}{
		{"NotJSON", "{not json", "document is not valid JSON"},
		{"MissingVersion", `{"fechaExportacion":"2025-01-01T00:00:00Z","usuario":{},"billeteras":[],"transacciones":[]}`, "missing version field"},
		{"NewerVersion", `{"version":"2.0.0","fechaExportacion":"2025-01-01T00:00:00Z","usuario":{},"billeteras":[],"transacciones":[]}`, `unsupported version "2.0.0"`},
		{"MissingUsuario", `{"version":"1.0.0","fechaExportacion":"2025-01-01T00:00:00Z","billeteras":[],"transacciones":[]}`, "missing usuario block"},
		{"MissingBilleteras", `{"version":"1.0.0","fechaExportacion":"2025-01-01T00:00:00Z","usuario":{},"transacciones":[]}`, "missing billeteras array"},
		{"WalletWithoutName", `{"version":"1.0.0","fechaExportacion":"2025-01-01T00:00:00Z","usuario":{},"billeteras":[{"saldo":1}],"transacciones":[]}`, "billetera 0 has no nombre"},
		{"UnknownTipo", `{"version":"1.0.0","fechaExportacion":"2025-01-01T00:00:00Z","usuario":{},"billeteras":[],"transacciones":[{"tipo":"transfer","monto":5}]}`, "transaccion 0 has an unknown tipo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			valid, reasons := export.Validate([]byte(tc.raw))
			assert.False(t, valid)
			require.NotEmpty(t, reasons)
			found := false
			for _, r := range reasons {
				if strings.Contains(r, tc.reason) {
					found = true
				}
			}
			assert.True(t, found, "want reason containing %q, got %v", tc.reason, reasons)
		})
	}
}

// Only the first five transactions are inspected; a malformed sixth
// entry slips through validation and surfaces at import time.
func TestValidateSamplesTransactionHead(t *testing.T) {
	goodTx := `{"tipo":"ingreso","monto":1}`
	txs := []string{goodTx, goodTx, goodTx, goodTx, goodTx, `{"tipo":"bogus","monto":"x"}`}
	raw := fmt.Sprintf(
		`{"version":"1.0.0","fechaExportacion":"2025-01-01T00:00:00Z","usuario":{},"billeteras":[],"transacciones":[%s]}`,
		strings.Join(txs, ","),
	)
	valid, reasons := export.Validate([]byte(raw))
	assert.True(t, valid, "reasons: %v", reasons)

	// Move the malformed entry into the sampled head and it is caught
	txs[4], txs[5] = txs[5], txs[4]
	raw = fmt.Sprintf(
		`{"version":"1.0.0","fechaExportacion":"2025-01-01T00:00:00Z","usuario":{},"billeteras":[],"transacciones":[%s]}`,
		strings.Join(txs, ","),
	)
	valid, _ = export.Validate([]byte(raw))
	assert.False(t, valid)
}

func TestValidateReasonsBounded(t *testing.T) {
	// 30 broken wallets produce at most 10 reasons
	wallets := strings.TrimSuffix(strings.Repeat(`{"color":"#fff"},`, 30), ",")
	raw := fmt.Sprintf(
		`{"version":"1.0.0","fechaExportacion":"2025-01-01T00:00:00Z","usuario":{},"billeteras":[%s],"transacciones":[]}`,
		wallets,
	)
	valid, reasons := export.Validate([]byte(raw))
	assert.False(t, valid)
	assert.Len(t, reasons, 10)
}

// The documented partial-import case: a document holding two wallets
// plus transactions pointing at a third, absent wallet imports the two
// wallets and only their transactions.
func TestImportSkipsOrphans(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	user, err := s.CreateUser(ctx, "Luis", "Pérez", "luis@test.local", "clave123")
	require.NoError(t, err)

	doc := &export.Document{
		Version:          export.Version,
		FechaExportacion: time.Now(),
		Billeteras: []domain.Wallet{
			{ID: 1, Nombre: "Ahorros", Color: "#FF5722"},
			{ID: 2, Nombre: "Viajes"},
		},
		Transacciones: []domain.Transaction{
			{BilleteraID: 1, Tipo: domain.TypeIncome, Categoria: "salario", Monto: dec("100"), Fecha: time.Now()},
			{BilleteraID: 2, Tipo: domain.TypeExpense, Categoria: "comida", Monto: dec("40"), Fecha: time.Now()},
			{BilleteraID: 7, Tipo: domain.TypeIncome, Categoria: "fantasma", Monto: dec("999"), Fecha: time.Now()},
		},
	}

	result, err := export.Import(ctx, s, user.ID, doc, export.ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Billeteras)
	assert.Equal(t, 2, result.Transacciones)

	// Balances replayed through the store, not copied from the document
	wallets, err := s.ListWallets(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	total := decimal.Zero
	for _, w := range wallets {
		total = total.Add(w.Saldo)
	}
	assert.True(t, total.Equal(dec("60")), "total: %s", total)
}

func TestImportReplaceMode(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	user := seed(t, s)

	doc := &export.Document{
		Version:          export.Version,
		FechaExportacion: time.Now(),
		Billeteras:       []domain.Wallet{{ID: 1, Nombre: "Única"}},
		Transacciones: []domain.Transaction{
			{BilleteraID: 1, Tipo: domain.TypeIncome, Categoria: "salario", Monto: dec("5"), Fecha: time.Now()},
		},
	}

	result, err := export.Import(ctx, s, user.ID, doc, export.ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Billeteras)
	assert.Equal(t, 1, result.Transacciones)

	wallets, err := s.ListWallets(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "Única", wallets[0].Nombre)
}

func TestImportRejectsBadInput(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	user := seed(t, s)

	_, err := export.Import(ctx, s, user.ID, nil, export.ModeAppend)
	assert.ErrorIs(t, err, store.ErrInvalidDocument)

	_, err = export.Import(ctx, s, user.ID, &export.Document{Version: "2.0.0"}, export.ModeAppend)
	assert.ErrorIs(t, err, store.ErrInvalidDocument)

	_, err = export.Import(ctx, s, user.ID, &export.Document{Version: export.Version}, export.Mode("merge"))
	assert.ErrorIs(t, err, store.ErrInvalidDocument)

	// Nothing was destroyed by the rejected calls
	wallets, err := s.ListWallets(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, wallets, 2)
}

func TestWriteCSVSections(t *testing.T) {
	s := newStore(t)
	user := seed(t, s)

	doc, err := export.Export(context.Background(), s, user.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(doc, &buf))
	out := buf.String()

	assert.Contains(t, out, "usuario\n")
	assert.Contains(t, out, "billeteras\n")
	assert.Contains(t, out, "transacciones\n")
	assert.Contains(t, out, "ana@test.local")
	assert.Contains(t, out, "Ahorros")
	assert.Contains(t, out, "ingreso")
}
