package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyEmail is the key for email in gin context
	ContextKeyEmail = "email"
)

// Viewer is the caller on whose behalf a request is rendered.
// The zero value is the anonymous caller.
type Viewer struct {
	UserID uint
}

// Anonymous reports whether the caller is not authenticated.
func (v Viewer) Anonymous() bool {
	return v.UserID == 0
}

// extractToken reads "Bearer <token>" or "Token <token>". present is false
// when no Authorization header was sent, valid is false for other schemes.
func extractToken(c *gin.Context) (token string, present bool, valid bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", true, false
	}
	switch strings.ToLower(parts[0]) {
	case "bearer", "token":
		return strings.TrimSpace(parts[1]), true, true
	}
	return "", true, false
}

func authenticate(c *gin.Context, required bool) bool {
	tokenString, present, wellFormed := extractToken(c)
	if !present {
		if required {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return false
		}
		return true
	}
	if !wellFormed {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
		return false
	}

	claims, err := ValidateToken(tokenString)
	if err != nil {
		if err == ErrExpiredToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
		} else {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		}
		return false
	}

	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyEmail, claims.Email)
	return true
}

// AuthMiddleware validates JWT tokens and sets user info in context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c, true) {
			c.Next()
		}
	}
}

// OptionalAuthMiddleware lets anonymous requests through but still rejects
// a malformed or invalid token.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c, false) {
			c.Next()
		}
	}
}

// RequireUser rejects anonymous callers. It is meant for single routes inside
// a group that uses OptionalAuthMiddleware.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
			return
		}
		c.Next()
	}
}

// GetUserID returns the user ID from the gin context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetViewer returns the caller of the request, anonymous if unauthenticated.
func GetViewer(c *gin.Context) Viewer {
	userID, _ := GetUserID(c)
	return Viewer{UserID: userID}
}
