package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Path parameter parsing
	"time"     // Cache TTL

	"finzapp/internal/domain" // Domain models
	"finzapp/internal/store"  // Storage contract
	"finzapp/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

const cacheTTL = 60 * time.Second // TTL for the per-user read caches

// CreateWalletRequest carries a new wallet
type CreateWalletRequest struct {
	Nombre string `json:"nombre" binding:"required"` // Wallet name
	Color  string `json:"color"`                     // Optional hex color
}

// RenameWalletRequest carries a wallet rename
type RenameWalletRequest struct {
	Nombre string `json:"nombre" binding:"required"` // New wallet name
}

// parseIDParam parses a numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// ownedWallet loads a wallet and checks it belongs to the caller.
// A wallet owned by someone else reads as not found.
func ownedWallet(c *gin.Context, s store.Store, userID, walletID uint) (*domain.Wallet, bool) {
	wallet, err := s.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		respondStoreError(c, err)
		return nil, false
	}
	if wallet.UsuarioID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return nil, false
	}
	return wallet, true
}

// ListWalletsHandler lists the caller's wallets, cached for 60 seconds
func ListWalletsHandler(s store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		cacheKey := utils.WalletsCacheKey(userID)
		// Try the cache first
		if rdb != nil {
			var cached []domain.Wallet
			if hit, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && hit {
				c.JSON(http.StatusOK, gin.H{"billeteras": cached})
				return
			}
		}
		wallets, err := s.ListWallets(ctx, userID)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		// Cache the result; a miss here is not fatal
		if rdb != nil {
			if err := utils.SetCache(ctx, rdb, cacheKey, wallets, cacheTTL); err != nil {
				logrus.WithField("error", err.Error()).Warn("Failed to cache wallets")
			}
		}
		c.JSON(http.StatusOK, gin.H{"billeteras": wallets})
	}
}

// CreateWalletHandler creates a wallet for the caller
func CreateWalletHandler(s store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req CreateWalletRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		wallet, err := s.CreateWallet(c.Request.Context(), userID, req.Nombre, req.Color)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		utils.InvalidateUserCache(c.Request.Context(), rdb, userID)
		c.JSON(http.StatusCreated, gin.H{"message": "Wallet created", "billetera": wallet})
	}
}

// RenameWalletHandler renames one of the caller's wallets
func RenameWalletHandler(s store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		walletID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		var req RenameWalletRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		wallet, ok := ownedWallet(c, s, userID, walletID)
		if !ok {
			return
		}
		if err := s.RenameWallet(c.Request.Context(), walletID, req.Nombre); err != nil {
			respondStoreError(c, err)
			return
		}
		wallet.Nombre = req.Nombre
		utils.InvalidateUserCache(c.Request.Context(), rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Wallet renamed", "billetera": wallet})
	}
}

// DeleteWalletHandler deletes a wallet and its transactions.
// Deleting a wallet that is already gone still reports success.
func DeleteWalletHandler(s store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		walletID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		// Ownership check only applies when the wallet still exists
		if wallet, err := s.GetWallet(c.Request.Context(), walletID); err == nil && wallet.UsuarioID != userID {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		if err := s.DeleteWallet(c.Request.Context(), walletID); err != nil {
			respondStoreError(c, err)
			return
		}
		utils.InvalidateUserCache(c.Request.Context(), rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Wallet deleted"})
	}
}
