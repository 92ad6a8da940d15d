package recipes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/apierror"
	"github.com/impactys/foodgram/pkg/foodgram/auth"
)

// ShoppingListFilename is the attachment name of the downloaded list.
const ShoppingListFilename = "shopping_list.txt"

// ShoppingItem is one line of the shopping list.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Total           int64
}

// BuildShoppingList sums ingredient amounts over every recipe in the user's
// cart, one item per ingredient, ordered by name.
func BuildShoppingList(db *gorm.DB, userID uint) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := db.Table("recipe_ingredient_amounts").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredient_amounts.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredient_amounts.ingredient_id").
		Joins("JOIN carts ON carts.recipe_id = recipe_ingredient_amounts.recipe_id").
		Where("carts.user_id = ?", userID).
		Group("ingredients.id, ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC, ingredients.measurement_unit ASC").
		Scan(&items).Error
	return items, err
}

// RenderShoppingList formats items as "name (unit) - total" lines.
func RenderShoppingList(items []ShoppingItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s) - %d\n", item.Name, item.MeasurementUnit, item.Total)
	}
	return b.String()
}

// DownloadShoppingCart sends the caller's shopping list as a text file
// @Summary Download shopping list
// @Tags recipes
// @Produce plain
// @Success 200 {string} string "shopping_list.txt"
// @Security BearerAuth
// @Router /recipes/download_shopping_cart [get]
func (h *Handler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	items, err := BuildShoppingList(h.db, userID)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ShoppingListFilename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(RenderShoppingList(items)))
}
