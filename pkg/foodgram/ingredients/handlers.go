package ingredients

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/apierror"
	"github.com/impactys/foodgram/pkg/foodgram/models"
	"github.com/impactys/foodgram/pkg/foodgram/projection"
)

// Handler serves the ingredient catalogue
type Handler struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewHandler creates a new ingredients handler
func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{db: db, log: log}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// NamePrefix restricts q to ingredients whose name starts with prefix,
// ignoring case for any script. LIKE wildcards in prefix match literally.
func NamePrefix(q *gorm.DB, prefix string) *gorm.DB {
	if prefix == "" {
		return q
	}
	pattern := likeEscaper.Replace(strings.ToLower(prefix)) + "%"
	return q.Where(`ingredients.name_lower LIKE ? ESCAPE '\'`, pattern)
}

// List returns ingredients, optionally filtered by ?name= prefix
func (h *Handler) List(c *gin.Context) {
	var ingredients []models.Ingredient
	q := NamePrefix(h.db.Model(&models.Ingredient{}), strings.TrimSpace(c.Query("name")))
	if err := q.Order("ingredients.name ASC").Order("ingredients.id ASC").Find(&ingredients).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, projection.Ingredients(ingredients))
}

// Get returns a single ingredient
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apierror.Respond(c, h.log, apierror.NotFound("Ingredient"))
		return
	}

	var ingredient models.Ingredient
	if err := h.db.First(&ingredient, id).Error; err != nil {
		apierror.Respond(c, h.log, apierror.OrNotFound(err, "Ingredient"))
		return
	}

	c.JSON(http.StatusOK, projection.Ingredient(ingredient))
}

// RegisterRoutes registers ingredient routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ingredients", h.List)
	rg.GET("/ingredients/:id", h.Get)
}
