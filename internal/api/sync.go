package api

import (
	"bytes"         // CSV buffering
	"encoding/json" // Document decoding
	"io"            // Request body reading
	"net/http"      // HTTP status codes

	"finzapp/internal/export" // Portable dataset protocol
	"finzapp/internal/store"  // Storage contract
	"finzapp/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// UploadHandler replaces the caller's dataset with an uploaded document.
// The document is validated structurally before anything is touched.
func UploadHandler(s store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		valid, reasons := export.Validate(raw)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document", "reasons": reasons})
			return
		}
		var doc export.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document"})
			return
		}
		result, err := export.Import(c.Request.Context(), s, userID, &doc, export.ModeReplace)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		utils.InvalidateUserCache(c.Request.Context(), rdb, userID)
		logrus.WithFields(logrus.Fields{
			"user_id":       userID,
			"billeteras":    result.Billeteras,
			"transacciones": result.Transacciones,
		}).Info("Sync upload applied")
		c.JSON(http.StatusOK, gin.H{"message": "Data synchronized", "resultado": result})
	}
}

// DownloadHandler exports the dataset of the user named in the path. The
// correo must match the authenticated token; anyone else's is forbidden.
// With ?format=csv the document is flattened instead of returned as JSON.
func DownloadHandler(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		correo := c.Param("correo")
		tokenCorreo, exists := c.Get("correo")
		if !exists || tokenCorreo.(string) != correo {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		doc, err := export.Export(c.Request.Context(), s, userID)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		if c.Query("format") == "csv" {
			var buf bytes.Buffer
			if err := export.WriteCSV(doc, &buf); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
				return
			}
			c.Header("Content-Disposition", `attachment; filename="finzapp_export.csv"`)
			c.Data(http.StatusOK, "text/csv", buf.Bytes())
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

// ResetHandler wipes the caller's wallets and transactions. The account
// itself stays.
func ResetHandler(s store.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		if err := s.ResetUserData(c.Request.Context(), userID); err != nil {
			respondStoreError(c, err)
			return
		}
		utils.InvalidateUserCache(c.Request.Context(), rdb, userID)
		logrus.WithField("user_id", userID).Info("User data reset")
		c.JSON(http.StatusOK, gin.H{"message": "All data deleted"})
	}
}
