package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/models"
	"github.com/impactys/foodgram/pkg/foodgram/validation"
)

// Handler handles token requests
type Handler struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	validation.Setup()
	return &Handler{db: db, log: log}
}

// LoginRequest represents the token login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries the issued token
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// Login exchanges email and password for a token
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validation.FromBindError(err)})
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validation.Single(validation.NonFieldErrors, "Unable to log in with provided credentials.")})
		return
	}

	if !CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validation.Single(validation.NonFieldErrors, "Unable to log in with provided credentials.")})
		return
	}

	token, err := GenerateToken(user.ID, user.Email)
	if err != nil {
		h.log.Error("failed to generate token", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AuthToken: token})
}

// Logout handles logout (client-side token invalidation)
func (h *Handler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/token/login", h.Login)
	rg.POST("/token/logout", AuthMiddleware(), h.Logout)
}
