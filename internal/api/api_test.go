package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finzapp/internal/api"
	"finzapp/internal/store"
	"finzapp/internal/store/sqlstore"
)

const testSecret = "test-secret"

func newRouter(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, err := sqlstore.New(sqlite.Open(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return api.NewRouter(s, nil, testSecret), s
}

// do performs a JSON request and decodes the JSON response body.
func do(t *testing.T, r *gin.Engine, method, path, token string, body any) (int, map[string]json.RawMessage) {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := map[string]json.RawMessage{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w.Code, resp
}

// registerAndLogin creates an account and returns a valid token.
func registerAndLogin(t *testing.T, r *gin.Engine, correo string) string {
	t.Helper()
	code, _ := do(t, r, http.MethodPost, "/usuarios/registro", "", gin.H{
		"nombre": "Ana", "apellido": "García", "correo": correo, "contraseña": "clave123",
	})
	require.Equal(t, http.StatusCreated, code)

	code, resp := do(t, r, http.MethodPost, "/usuarios/login", "", gin.H{
		"correo": correo, "contraseña": "clave123",
	})
	require.Equal(t, http.StatusOK, code)
	var token string
	require.NoError(t, json.Unmarshal(resp["token"], &token))
	require.NotEmpty(t, token)
	return token
}

// saldoTotal fetches the aggregate saldo from the statistics endpoint.
func saldoTotal(t *testing.T, r *gin.Engine, token string) decimal.Decimal {
	t.Helper()
	code, resp := do(t, r, http.MethodGet, "/estadisticas", token, nil)
	require.Equal(t, http.StatusOK, code)
	var total decimal.Decimal
	require.NoError(t, json.Unmarshal(resp["saldoTotal"], &total))
	return total
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newRouter(t)

	code, _ := do(t, r, http.MethodPost, "/usuarios/registro", "", gin.H{
		"nombre": "Ana", "apellido": "García", "correo": "not-an-email", "contraseña": "clave123",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodPost, "/usuarios/registro", "", gin.H{
		"nombre": "Ana", "apellido": "García", "correo": "ana@test.local", "contraseña": "corta",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDuplicateEmailRegistration(t *testing.T) {
	r, _ := newRouter(t)
	registerAndLogin(t, r, "ana@test.local")

	code, resp := do(t, r, http.MethodPost, "/usuarios/registro", "", gin.H{
		"nombre": "Otra", "apellido": "Persona", "correo": "ana@test.local", "contraseña": "otracosa",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(resp["error"]), "already registered")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, _ := newRouter(t)
	registerAndLogin(t, r, "ana@test.local")

	code, _ := do(t, r, http.MethodPost, "/usuarios/login", "", gin.H{
		"correo": "ana@test.local", "contraseña": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, _ := newRouter(t)

	code, _ := do(t, r, http.MethodGet, "/billeteras", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = do(t, r, http.MethodGet, "/billeteras", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestWalletAndTransactionFlow(t *testing.T) {
	r, _ := newRouter(t)
	token := registerAndLogin(t, r, "ana@test.local")

	// Create a wallet
	code, resp := do(t, r, http.MethodPost, "/billeteras", token, gin.H{"nombre": "Ahorros"})
	require.Equal(t, http.StatusCreated, code)
	var wallet struct {
		ID    uint   `json:"id"`
		Color string `json:"color"`
	}
	require.NoError(t, json.Unmarshal(resp["billetera"], &wallet))
	assert.Equal(t, "#9C27B0", wallet.Color)

	// Record an income and an expense
	code, _ = do(t, r, http.MethodPost, "/transacciones", token, gin.H{
		"billetera_id": wallet.ID, "tipo": "ingreso", "categoria": "salario", "monto": 100,
	})
	require.Equal(t, http.StatusCreated, code)
	code, resp = do(t, r, http.MethodPost, "/transacciones", token, gin.H{
		"billetera_id": wallet.ID, "tipo": "gasto", "categoria": "comida", "monto": 30,
	})
	require.Equal(t, http.StatusCreated, code)
	var tx struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp["transaccion"], &tx))

	// Listing carries the wallet name and the saldo tracks both movements
	code, resp = do(t, r, http.MethodGet, "/transacciones", token, nil)
	require.Equal(t, http.StatusOK, code)
	var txs []struct {
		BilleteraNombre string `json:"billetera_nombre"`
	}
	require.NoError(t, json.Unmarshal(resp["transacciones"], &txs))
	require.Len(t, txs, 2)
	assert.Equal(t, "Ahorros", txs[0].BilleteraNombre)

	assert.True(t, saldoTotal(t, r, token).Equal(decimal.NewFromInt(70)))

	// Rewrite the expense, then delete it
	code, _ = do(t, r, http.MethodPut, fmt.Sprintf("/transacciones/%d", tx.ID), token, gin.H{
		"tipo": "gasto", "categoria": "comida", "monto": 50,
	})
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/transacciones/%d", tx.ID), token, nil)
	require.Equal(t, http.StatusOK, code)

	assert.True(t, saldoTotal(t, r, token).Equal(decimal.NewFromInt(100)))

	// Deleting the wallet twice reports success both times
	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/billeteras/%d", wallet.ID), token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/billeteras/%d", wallet.ID), token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestTransactionValidation(t *testing.T) {
	r, _ := newRouter(t)
	token := registerAndLogin(t, r, "ana@test.local")

	code, resp := do(t, r, http.MethodPost, "/billeteras", token, gin.H{"nombre": "Ahorros"})
	require.Equal(t, http.StatusCreated, code)
	var wallet struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp["billetera"], &wallet))

	// Unknown tipo
	code, _ = do(t, r, http.MethodPost, "/transacciones", token, gin.H{
		"billetera_id": wallet.ID, "tipo": "transfer", "categoria": "x", "monto": 10,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	// Non-positive monto
	code, _ = do(t, r, http.MethodPost, "/transacciones", token, gin.H{
		"billetera_id": wallet.ID, "tipo": "ingreso", "categoria": "x", "monto": 0,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	// Missing wallet
	code, _ = do(t, r, http.MethodPost, "/transacciones", token, gin.H{
		"billetera_id": 99999, "tipo": "ingreso", "categoria": "x", "monto": 10,
	})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWalletOwnershipIsolation(t *testing.T) {
	r, _ := newRouter(t)
	tokenAna := registerAndLogin(t, r, "ana@test.local")
	tokenLuis := registerAndLogin(t, r, "luis@test.local")

	code, resp := do(t, r, http.MethodPost, "/billeteras", tokenAna, gin.H{"nombre": "Ahorros"})
	require.Equal(t, http.StatusCreated, code)
	var wallet struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp["billetera"], &wallet))

	// Another user's wallet reads as not found
	code, _ = do(t, r, http.MethodPut, fmt.Sprintf("/billeteras/%d", wallet.ID), tokenLuis, gin.H{"nombre": "Robada"})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, r, http.MethodGet, fmt.Sprintf("/billeteras/%d/transacciones", wallet.ID), tokenLuis, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/billeteras/%d", wallet.ID), tokenLuis, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSyncFlow(t *testing.T) {
	r, _ := newRouter(t)
	token := registerAndLogin(t, r, "ana@test.local")

	code, resp := do(t, r, http.MethodPost, "/billeteras", token, gin.H{"nombre": "Ahorros"})
	require.Equal(t, http.StatusCreated, code)
	var wallet struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp["billetera"], &wallet))
	code, _ = do(t, r, http.MethodPost, "/transacciones", token, gin.H{
		"billetera_id": wallet.ID, "tipo": "ingreso", "categoria": "salario", "monto": 100,
	})
	require.Equal(t, http.StatusCreated, code)

	// Download the full document
	req := httptest.NewRequest(http.MethodGet, "/sync/download/ana@test.local", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	exported := w.Body.Bytes()

	// Someone else's correo is forbidden
	req = httptest.NewRequest(http.MethodGet, "/sync/download/luis@test.local", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// CSV variant
	req = httptest.NewRequest(http.MethodGet, "/sync/download/ana@test.local?format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "Ahorros")

	// Upload the document back; the dataset is replaced, not doubled
	req = httptest.NewRequest(http.MethodPost, "/sync/upload", bytes.NewReader(exported))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	code, resp = do(t, r, http.MethodGet, "/billeteras", token, nil)
	require.Equal(t, http.StatusOK, code)
	var wallets []json.RawMessage
	require.NoError(t, json.Unmarshal(resp["billeteras"], &wallets))
	assert.Len(t, wallets, 1)

	// A structurally broken document is rejected with reasons
	code, resp = do(t, r, http.MethodPost, "/sync/upload", token, gin.H{"version": "2.0.0"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, resp["reasons"])

	// Full reset leaves an empty account behind
	code, _ = do(t, r, http.MethodDelete, "/datos", token, nil)
	require.Equal(t, http.StatusOK, code)
	code, resp = do(t, r, http.MethodGet, "/billeteras", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp["billeteras"], &wallets))
	assert.Empty(t, wallets)
}

func TestUpdateProfile(t *testing.T) {
	r, _ := newRouter(t)
	token := registerAndLogin(t, r, "ana@test.local")

	code, resp := do(t, r, http.MethodPut, "/usuarios/perfil", token, gin.H{
		"nombre": "Nuevo", "apellido": "Nombre",
	})
	require.Equal(t, http.StatusOK, code)
	var user struct {
		Nombre string `json:"nombre"`
	}
	require.NoError(t, json.Unmarshal(resp["usuario"], &user))
	assert.Equal(t, "Nuevo", user.Nombre)
}
