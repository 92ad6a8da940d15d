package models

import "time"

// Bounds enforced both by request validation and by CHECK constraints.
const (
	MinCookingTime = 1
	MaxCookingTime = 32000
	MinAmount      = 1
	MaxAmount      = 32000
)

// RecipeOrder is the default listing order: newest first, then by name.
const RecipeOrder = "recipes.pub_date DESC, recipes.name ASC"

// Recipe is authored by exactly one user and deleted together with them.
type Recipe struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	PubDate     time.Time `gorm:"autoCreateTime;index" json:"pub_date"`
	UpdatedAt   time.Time `json:"updated_at"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Image       string    `gorm:"not null" json:"image"` // reference returned by the media store
	Text        string    `gorm:"type:text;not null" json:"text"`
	CookingTime int       `gorm:"not null;check:chk_recipe_cooking_time,cooking_time >= 1 AND cooking_time <= 32000" json:"cooking_time"`

	// Relationships
	Author      User                     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Tags        []Tag                    `gorm:"many2many:recipe_tags;" json:"tags,omitempty"`
	Ingredients []RecipeIngredientAmount `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`
}

// RecipeTag is the join row between recipes and tags.
type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey"`
	TagID    uint `gorm:"primaryKey"`

	Recipe Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Tag    Tag    `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

// RecipeIngredientAmount carries the quantity of one ingredient in one recipe.
// An ingredient appears at most once per recipe.
type RecipeIngredientAmount struct {
	ID           uint `gorm:"primarykey" json:"id"`
	RecipeID     uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Amount       int  `gorm:"not null;check:chk_amount_range,amount >= 1 AND amount <= 32000" json:"amount"`

	// Relationships
	Recipe     Recipe     `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
	Ingredient Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"ingredient,omitempty"`
}
