package apierror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/logging"
	"github.com/impactys/foodgram/pkg/foodgram/validation"
)

// Error is an error with an HTTP status and a client facing message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an Error.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Common errors for reuse.
var (
	ErrUnauthorized = New(http.StatusUnauthorized, "Authentication credentials were not provided")
	ErrForbidden    = New(http.StatusForbidden, "You do not have permission to perform this action")
	ErrNotFound     = New(http.StatusNotFound, "Not found")
)

// NotFound returns a 404 error naming the missing resource.
func NotFound(resource string) *Error {
	return New(http.StatusNotFound, resource+" not found")
}

// OrNotFound turns gorm.ErrRecordNotFound into NotFound(resource) and
// returns any other error unchanged.
func OrNotFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(resource)
	}
	return err
}

// IsConstraintViolation reports whether err comes from a unique, foreign key
// or check constraint enforced by the database.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrForeignKeyViolated) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "violates check constraint") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "violates foreign key constraint")
}

// Respond writes err as a JSON response and aborts the request.
//
//	validation.Errors          -> 400 {"errors": {...}}
//	*Error                     -> its status, {"error": message}
//	gorm.ErrRecordNotFound     -> 404
//	constraint violations      -> 400 {"error": "integrity error"}
//	anything else              -> 500, logged
func Respond(c *gin.Context, logger *zap.Logger, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": verrs})
		return
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr.Message})
		return
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": ErrNotFound.Message})
		return
	}

	if IsConstraintViolation(err) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Integrity error: the request conflicts with existing data"})
		return
	}

	if logger != nil {
		logging.RequestLogger(c, logger).Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
