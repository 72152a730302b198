package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/joyehuang/atypica-bet/internal/auth"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	adminPassword string
}

func NewAuthHandler(adminPassword string) *AuthHandler {
	return &AuthHandler{adminPassword: adminPassword}
}

// Login exchanges the admin password for a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.adminPassword)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, err := auth.GenerateToken("admin")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}
