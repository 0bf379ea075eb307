package api

import (
	"finzapp/internal/middleware" // JWT middleware
	"finzapp/internal/store"      // Storage contract

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// NewRouter wires every endpoint onto a Gin engine. A nil Redis client
// disables the read caches without disabling any route.
func NewRouter(s store.Store, rdb *redis.Client, jwtSecret string) *gin.Engine {
	r := gin.Default() // Gin router instance

	// Auth routes
	r.POST("/usuarios/registro", RegisterHandler(s))      // Registration endpoint
	r.POST("/usuarios/login", LoginHandler(s, jwtSecret)) // Login endpoint

	// Everything below requires a valid token
	auth := r.Group("")
	auth.Use(middleware.JWTAuthMiddleware(jwtSecret))

	// Profile
	auth.PUT("/usuarios/perfil", UpdateProfileHandler(s)) // Profile update endpoint

	// Wallet routes
	auth.GET("/billeteras", ListWalletsHandler(s, rdb))                         // List wallets endpoint
	auth.POST("/billeteras", CreateWalletHandler(s, rdb))                       // Create wallet endpoint
	auth.PUT("/billeteras/:id", RenameWalletHandler(s, rdb))                    // Rename wallet endpoint
	auth.DELETE("/billeteras/:id", DeleteWalletHandler(s, rdb))                 // Delete wallet endpoint
	auth.GET("/billeteras/:id/transacciones", ListWalletTransactionsHandler(s)) // Per-wallet history endpoint

	// Transaction routes
	auth.GET("/transacciones", ListTransactionsHandler(s))              // Recent transactions endpoint
	auth.POST("/transacciones", CreateTransactionHandler(s, rdb))       // Create transaction endpoint
	auth.PUT("/transacciones/:id", UpdateTransactionHandler(s, rdb))    // Update transaction endpoint
	auth.DELETE("/transacciones/:id", DeleteTransactionHandler(s, rdb)) // Delete transaction endpoint

	// Aggregates
	auth.GET("/estadisticas", StatisticsHandler(s, rdb)) // Statistics endpoint

	// Sync routes
	auth.POST("/sync/upload", UploadHandler(s, rdb))       // Replace dataset endpoint
	auth.GET("/sync/download/:correo", DownloadHandler(s)) // Export dataset endpoint
	auth.DELETE("/datos", ResetHandler(s, rdb))            // Reset endpoint

	return r
}
