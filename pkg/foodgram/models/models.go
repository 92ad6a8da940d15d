package models

import (
	"strings"

	"gorm.io/gorm"
)

// AllModels returns all models for migration.
// Referenced tables come before the tables pointing at them.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeTag{},
		&RecipeIngredientAmount{},
		&FavoriteRecipe{},
		&Cart{},
		&Subscription{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Recipe{}, "Tags", &RecipeTag{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return err
	}
	return backfillIngredientNameLower(db)
}

// backfillIngredientNameLower fills name_lower for rows written before the
// column existed.
func backfillIngredientNameLower(db *gorm.DB) error {
	var pending []Ingredient
	if err := db.Where("name_lower = ? AND name <> ?", "", "").Find(&pending).Error; err != nil {
		return err
	}
	for _, ing := range pending {
		err := db.Model(&Ingredient{}).Where("id = ?", ing.ID).
			UpdateColumn("name_lower", strings.ToLower(ing.Name)).Error
		if err != nil {
			return err
		}
	}
	return nil
}
