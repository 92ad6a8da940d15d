package recipes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/apierror"
	"github.com/impactys/foodgram/pkg/foodgram/auth"
	"github.com/impactys/foodgram/pkg/foodgram/media"
	"github.com/impactys/foodgram/pkg/foodgram/models"
	"github.com/impactys/foodgram/pkg/foodgram/pagination"
	"github.com/impactys/foodgram/pkg/foodgram/projection"
	"github.com/impactys/foodgram/pkg/foodgram/validation"
)

// Handler handles recipe-related requests
type Handler struct {
	db        *gorm.DB
	log       *zap.Logger
	render    *projection.Renderer
	paginator pagination.Paginator
	media     *media.Store
}

// NewHandler creates a new recipes handler
func NewHandler(db *gorm.DB, log *zap.Logger, render *projection.Renderer, paginator pagination.Paginator, store *media.Store) *Handler {
	validation.Setup()
	return &Handler{db: db, log: log, render: render, paginator: paginator, media: store}
}

func parseRecipeID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apierror.NotFound("Recipe")
	}
	return uint(id), nil
}

// findRecipe loads the recipe named by the :id path parameter.
func (h *Handler) findRecipe(c *gin.Context) (models.Recipe, error) {
	var recipe models.Recipe
	id, err := parseRecipeID(c)
	if err != nil {
		return recipe, err
	}
	if err := h.db.First(&recipe, id).Error; err != nil {
		return recipe, apierror.OrNotFound(err, "Recipe")
	}
	return recipe, nil
}

// respondRecipe re-reads the recipe and writes its read projection.
func (h *Handler) respondRecipe(c *gin.Context, status int, id uint) {
	var recipe models.Recipe
	if err := projection.PreloadRecipe(h.db).First(&recipe, id).Error; err != nil {
		apierror.Respond(c, h.log, apierror.OrNotFound(err, "Recipe"))
		return
	}
	resp, err := h.render.Recipe(auth.GetViewer(c), recipe)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(status, resp)
}

// List returns a filtered page of recipes
// @Summary List recipes
// @Tags recipes
// @Produce json
// @Param tags query []string false "Tag slugs, any of"
// @Param author query int false "Author ID"
// @Param is_favorited query string false "1 or 0"
// @Param is_in_shopping_cart query string false "1 or 0"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} pagination.Page[projection.RecipeResponse]
// @Router /recipes [get]
func (h *Handler) List(c *gin.Context) {
	viewer := auth.GetViewer(c)

	filter, err := ParseFilter(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	if err := filter.CheckTags(h.db); err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	params, err := h.paginator.Parse(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	query := filter.Apply(h.db.Model(&models.Recipe{}), viewer).Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	var recipes []models.Recipe
	if err := projection.PreloadRecipe(params.Apply(query.Order(models.RecipeOrder))).Find(&recipes).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	results, err := h.render.Recipes(viewer, recipes)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(h.paginator, c, params, count, results))
}

// Get returns a single recipe
// @Summary Get a recipe
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} projection.RecipeResponse
// @Failure 404 {object} map[string]string "Recipe not found"
// @Router /recipes/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := parseRecipeID(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, id)
}

// Create creates a recipe authored by the caller
// @Summary Create a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Param request body RecipeWriteRequest true "Recipe"
// @Success 201 {object} projection.RecipeResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Security BearerAuth
// @Router /recipes [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	recipe := models.Recipe{AuthorID: userID}
	h.write(c, &recipe, true)
}

// Update changes the fields present in the body. Only the author may
// update a recipe.
// @Summary Update a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param request body RecipeWriteRequest true "Fields to change"
// @Success 200 {object} projection.RecipeResponse
// @Failure 403 {object} map[string]string "Not the author"
// @Security BearerAuth
// @Router /recipes/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	recipe, err := h.findRecipe(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	if userID, _ := auth.GetUserID(c); recipe.AuthorID != userID {
		apierror.Respond(c, h.log, apierror.ErrForbidden)
		return
	}
	h.write(c, &recipe, false)
}

func (h *Handler) write(c *gin.Context, recipe *models.Recipe, create bool) {
	var req RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, h.log, validation.FromBindError(err))
		return
	}
	if err := req.Validate(create).Err(); err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	refs, err := req.resolve(h.db)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	var imageRef string
	if req.Image != nil {
		imageRef, err = h.media.SaveBase64(*req.Image)
		if err != nil {
			if errors.Is(err, media.ErrInvalidImage) || errors.Is(err, media.ErrNotImage) {
				err = validation.Single("image", "Upload a valid image.")
			}
			apierror.Respond(c, h.log, err)
			return
		}
	}
	oldImage := recipe.Image

	err = h.db.Transaction(func(tx *gorm.DB) error {
		return req.apply(tx, recipe, refs, imageRef)
	})
	if err != nil {
		h.removeImage(imageRef)
		apierror.Respond(c, h.log, err)
		return
	}
	if imageRef != "" && oldImage != "" && oldImage != imageRef {
		h.removeImage(oldImage)
	}

	status := http.StatusOK
	if create {
		status = http.StatusCreated
		h.log.Info("recipe created", zap.Uint("recipe_id", recipe.ID), zap.Uint("author_id", recipe.AuthorID))
	}
	h.respondRecipe(c, status, recipe.ID)
}

func (h *Handler) removeImage(ref string) {
	if ref == "" {
		return
	}
	if err := h.media.Delete(ref); err != nil {
		h.log.Warn("failed to remove image", zap.String("image", ref), zap.Error(err))
	}
}

// Delete deletes a recipe. Only the author may delete it.
// @Summary Delete a recipe
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 403 {object} map[string]string "Not the author"
// @Security BearerAuth
// @Router /recipes/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	recipe, err := h.findRecipe(c)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	if userID, _ := auth.GetUserID(c); recipe.AuthorID != userID {
		apierror.Respond(c, h.log, apierror.ErrForbidden)
		return
	}

	if err := h.db.Delete(&recipe).Error; err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	h.removeImage(recipe.Image)

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers recipe routes. The group is expected to run
// auth.OptionalAuthMiddleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	recipes := rg.Group("/recipes")
	recipes.GET("", h.List)
	recipes.POST("", auth.RequireUser(), h.Create)
	recipes.GET("/download_shopping_cart", auth.RequireUser(), h.DownloadShoppingCart)
	recipes.GET("/:id", h.Get)
	recipes.PATCH("/:id", auth.RequireUser(), h.Update)
	recipes.PUT("/:id", auth.RequireUser(), h.Update)
	recipes.DELETE("/:id", auth.RequireUser(), h.Delete)

	recipes.POST("/:id/favorite", auth.RequireUser(), h.AddRelation(models.RelationFavorites))
	recipes.DELETE("/:id/favorite", auth.RequireUser(), h.RemoveRelation(models.RelationFavorites))
	recipes.POST("/:id/shopping_cart", auth.RequireUser(), h.AddRelation(models.RelationShoppingCart))
	recipes.DELETE("/:id/shopping_cart", auth.RequireUser(), h.RemoveRelation(models.RelationShoppingCart))
}
