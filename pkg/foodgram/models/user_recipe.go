package models

import "time"

// FavoriteRecipe marks a recipe as a favorite of a user.
type FavoriteRecipe struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index" json:"recipe_id"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

// Cart puts a recipe into a user's shopping cart.
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index" json:"recipe_id"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserRecipeRelation selects one of the (user, recipe) join tables.
type UserRecipeRelation int

const (
	RelationFavorites UserRecipeRelation = iota
	RelationShoppingCart
)

// Table returns the table backing the relation.
func (r UserRecipeRelation) Table() string {
	switch r {
	case RelationFavorites:
		return "favorite_recipes"
	case RelationShoppingCart:
		return "carts"
	}
	panic("models: unknown user recipe relation")
}

// NewRow builds the join row to insert for the relation.
func (r UserRecipeRelation) NewRow(userID, recipeID uint) interface{} {
	switch r {
	case RelationFavorites:
		return &FavoriteRecipe{UserID: userID, RecipeID: recipeID}
	case RelationShoppingCart:
		return &Cart{UserID: userID, RecipeID: recipeID}
	}
	panic("models: unknown user recipe relation")
}

// Model returns an empty model value usable with db.Model / db.Delete.
func (r UserRecipeRelation) Model() interface{} {
	return r.NewRow(0, 0)
}

func (r UserRecipeRelation) String() string {
	switch r {
	case RelationFavorites:
		return "favorites"
	case RelationShoppingCart:
		return "shopping cart"
	}
	return "unknown"
}
