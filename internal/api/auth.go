package api

import (
	"net/http" // HTTP status codes
	"regexp"   // Email format check

	"finzapp/internal/store" // Storage contract
	"finzapp/internal/utils" // Utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRequest carries a new user registration
type RegisterRequest struct {
	Nombre     string `json:"nombre" binding:"required"`     // Given name
	Apellido   string `json:"apellido" binding:"required"`   // Family name
	Correo     string `json:"correo" binding:"required"`     // Email address
	Contrasena string `json:"contraseña" binding:"required"` // Plaintext password, stored verbatim
}

// LoginRequest carries login credentials
type LoginRequest struct {
	Correo     string `json:"correo" binding:"required"`     // Email address
	Contrasena string `json:"contraseña" binding:"required"` // Plaintext password
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// isValidEmail checks the email shape before hitting storage
func isValidEmail(correo string) bool {
	return emailPattern.MatchString(correo)
}

// RegisterHandler registers a new user
func RegisterHandler(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Validate email shape
		if !isValidEmail(req.Correo) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
			return
		}
		// Validate password length (matches the mobile client rule)
		if len(req.Contrasena) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
			return
		}
		// Passwords are stored and compared in plain text on purpose:
		// this mirrors the on-device stores byte for byte.
		user, err := s.CreateUser(c.Request.Context(), req.Nombre, req.Apellido, req.Correo, req.Contrasena)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "usuario": user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(s store.Store, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := s.Login(c.Request.Context(), req.Correo, req.Contrasena)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Correo, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return the token and the user record
		c.JSON(http.StatusOK, gin.H{"token": token, "usuario": user})
	}
}

// UpdateProfileRequest carries a profile-name update
type UpdateProfileRequest struct {
	Nombre   string `json:"nombre" binding:"required"`   // New given name
	Apellido string `json:"apellido" binding:"required"` // New family name
}

// UpdateProfileHandler updates the authenticated user's names
func UpdateProfileHandler(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := s.UpdateUser(c.Request.Context(), userID, req.Nombre, req.Apellido)
		if err != nil {
			respondStoreError(c, err)
			return
		}
		// Return the refreshed record
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "usuario": user})
	}
}
