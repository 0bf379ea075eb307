package api

import (
	"net/http" // HTTP status codes
	"time"     // Transaction dates

	"finzapp/internal/domain" // Domain models
	"finzapp/internal/store"  // Storage contract
	"finzapp/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Logging library
)

// CreateTransactionRequest carries a new movement
type CreateTransactionRequest struct {
	BilleteraID uint            `json:"billetera_id" binding:"required"` // Owning wallet
	Tipo        string          `json:"tipo" binding:"required"`         // "ingreso" or "gasto"
	Categoria   string          `json:"categoria" binding:"required"`    // Category label
	Monto       decimal.Decimal `json:"monto"`                           // Positive amount
	Descripcion string          `json:"descripcion"`                     // Optional free text
	Fecha       time.Time       `json:"fecha"`                           // Optional, defaults to now
}

// UpdateTransactionRequest carries a movement rewrite
type UpdateTransactionRequest struct {
	Tipo        string          `json:"tipo" binding:"required"`      // "ingreso" or "gasto"
	Categoria   string          `json:"categoria" binding:"required"` // Category label
	Monto       decimal.Decimal `json:"monto"`                        // Positive amount
	Descripcion string          `json:"descripcion"`                  // Optional free text
}

// ListTransactionsHandler returns the caller's most recent movements,
// capped at store.RecentLimit
func ListTransactionsHandler(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		txs, err := s.ListTransactions(c.Request.Context(), userID)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transacciones": txs})
	}
}

// ListWalletTransactionsHandler returns every movement of one wallet
func ListWalletTransactionsHandler(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		walletID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if _, ok := ownedWallet(c, s, userID, walletID); !ok {
			return
		}
		txs, err := s.ListTransactionsByWallet(c.Request.Context(), walletID)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transacciones": txs})
	}
}

// CreateTransactionHandler records a movement and moves the wallet saldo
func CreateTransactionHandler(s store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req CreateTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		tipo := domain.TransactionType(req.Tipo)
		if !tipo.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tipo must be 'ingreso' or 'gasto'"})
			return
		}
		if !req.Monto.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "monto must be positive"})
			return
		}
		if _, ok := ownedWallet(c, s, userID, req.BilleteraID); !ok {
			return
		}
		tx, err := s.CreateTransaction(c.Request.Context(), req.BilleteraID, tipo, req.Categoria, req.Monto, req.Descripcion, req.Fecha)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		utils.InvalidateUserCache(c.Request.Context(), rdb, userID)
		logrus.WithFields(logrus.Fields{
			"user_id":      userID,
			"billetera_id": req.BilleteraID,
			"tipo":         string(tipo),
			"monto":        req.Monto.String(),
		}).Info("Transaction recorded")
		c.JSON(http.StatusCreated, gin.H{"message": "Transaction created", "transaccion": tx})
	}
}

// ownedTransaction loads a transaction and checks the wallet chain up to
// the caller
func ownedTransaction(c *gin.Context, s store.Store, userID, txID uint) (*domain.Transaction, bool) {
	tx, err := s.GetTransaction(c.Request.Context(), txID)
	if err != nil {
		respondStoreError(c, err)
		return nil, false
	}
	if _, ok := ownedWallet(c, s, userID, tx.BilleteraID); !ok {
		return nil, false
	}
	return tx, true
}

// UpdateTransactionHandler rewrites a movement; the wallet saldo follows
// in the same write
func UpdateTransactionHandler(s store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		txID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		var req UpdateTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		tipo := domain.TransactionType(req.Tipo)
		if !tipo.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tipo must be 'ingreso' or 'gasto'"})
			return
		}
		if !req.Monto.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "monto must be positive"})
			return
		}
		if _, ok := ownedTransaction(c, s, userID, txID); !ok {
			return
		}
		if err := s.UpdateTransaction(c.Request.Context(), txID, tipo, req.Categoria, req.Monto, req.Descripcion); err != nil {
			respondStoreError(c, err)
			return
		}
		utils.InvalidateUserCache(c.Request.Context(), rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Transaction updated"})
	}
}

// DeleteTransactionHandler removes a movement and reverts its saldo effect
func DeleteTransactionHandler(s store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		txID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if _, ok := ownedTransaction(c, s, userID, txID); !ok {
			return
		}
		if err := s.DeleteTransaction(c.Request.Context(), txID); err != nil {
			respondStoreError(c, err)
			return
		}
		utils.InvalidateUserCache(c.Request.Context(), rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
	}
}

// StatisticsHandler returns the aggregate dashboard view, cached for 60
// seconds
func StatisticsHandler(s store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		cacheKey := utils.StatsCacheKey(userID)
		if rdb != nil {
			var cached domain.Statistics
			if hit, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && hit {
				c.JSON(http.StatusOK, cached)
				return
			}
		}
		stats, err := s.Statistics(ctx, userID)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		if rdb != nil {
			if err := utils.SetCache(ctx, rdb, cacheKey, stats, cacheTTL); err != nil {
				logrus.WithField("error", err.Error()).Warn("Failed to cache statistics")
			}
		}
		c.JSON(http.StatusOK, stats)
	}
}
