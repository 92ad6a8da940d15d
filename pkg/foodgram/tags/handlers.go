package tags

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/apierror"
	"github.com/impactys/foodgram/pkg/foodgram/models"
	"github.com/impactys/foodgram/pkg/foodgram/projection"
)

// Handler handles tag-related requests
type Handler struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewHandler creates a new tags handler
func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{db: db, log: log}
}

// List returns all tags ordered by name
func (h *Handler) List(c *gin.Context) {
	var tags []models.Tag
	if err := h.db.Order("name ASC").Find(&tags).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, projection.Tags(tags))
}

// Get returns a single tag
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apierror.Respond(c, h.log, apierror.NotFound("Tag"))
		return
	}

	var tag models.Tag
	if err := h.db.First(&tag, id).Error; err != nil {
		apierror.Respond(c, h.log, apierror.OrNotFound(err, "Tag"))
		return
	}

	c.JSON(http.StatusOK, projection.Tag(tag))
}

// RegisterRoutes registers tag routes. Tags are read-only over HTTP; they
// are managed with the loaddata command.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tags", h.List)
	rg.GET("/tags/:id", h.Get)
}
