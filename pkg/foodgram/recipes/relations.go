package recipes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/impactys/foodgram/pkg/foodgram/apierror"
	"github.com/impactys/foodgram/pkg/foodgram/auth"
	"github.com/impactys/foodgram/pkg/foodgram/models"
	"github.com/impactys/foodgram/pkg/foodgram/validation"
)

// AddRelation returns a handler that puts the recipe into the caller's
// favorites or shopping cart and responds with the short recipe.
func (h *Handler) AddRelation(rel models.UserRecipeRelation) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := auth.GetUserID(c)
		recipe, err := h.findRecipe(c)
		if err != nil {
			apierror.Respond(c, h.log, err)
			return
		}

		duplicate := validation.Single(validation.NonFieldErrors, fmt.Sprintf("Recipe is already in %s.", rel))

		var existing int64
		if err := h.db.Model(rel.Model()).
			Where("user_id = ? AND recipe_id = ?", userID, recipe.ID).
			Count(&existing).Error; err != nil {
			apierror.Respond(c, h.log, err)
			return
		}
		if existing > 0 {
			apierror.Respond(c, h.log, duplicate)
			return
		}

		if err := h.db.Create(rel.NewRow(userID, recipe.ID)).Error; err != nil {
			if apierror.IsConstraintViolation(err) {
				err = duplicate
			}
			apierror.Respond(c, h.log, err)
			return
		}

		c.JSON(http.StatusCreated, h.render.ShortRecipe(recipe))
	}
}

// RemoveRelation returns a handler that takes the recipe out of the
// caller's favorites or shopping cart.
func (h *Handler) RemoveRelation(rel models.UserRecipeRelation) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := auth.GetUserID(c)
		recipe, err := h.findRecipe(c)
		if err != nil {
			apierror.Respond(c, h.log, err)
			return
		}

		result := h.db.Where("user_id = ? AND recipe_id = ?", userID, recipe.ID).Delete(rel.Model())
		if result.Error != nil {
			apierror.Respond(c, h.log, result.Error)
			return
		}
		if result.RowsAffected == 0 {
			apierror.Respond(c, h.log, validation.Single(validation.NonFieldErrors, fmt.Sprintf("Recipe is not in %s.", rel)))
			return
		}

		c.Status(http.StatusNoContent)
	}
}
