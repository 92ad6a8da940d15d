// Package testutil holds fixtures shared by the handler test suites.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/impactys/foodgram/pkg/foodgram/auth"
	"github.com/impactys/foodgram/pkg/foodgram/models"
)

var dbCounter atomic.Int64

// SetupTestDB opens a migrated in-memory database private to the test.
// The named shared cache keeps every pooled connection on the same data.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbCounter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql db: %v", err)
	}
	// One connection: the in-memory database lives as long as it does and
	// sqlite never reports a shared-cache table lock.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	return db
}

// CreateUser inserts a user with password "password123".
func CreateUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    strings.ToUpper(username[:1]) + username[1:],
		LastName:     "Tester",
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateTag inserts a tag whose slug is the lowercased name.
func CreateTag(t *testing.T, db *gorm.DB, name, color string) models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, Color: color, Slug: strings.ToLower(name)}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("Failed to create test tag: %v", err)
	}
	return tag
}

// CreateIngredient inserts a catalogue ingredient.
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("Failed to create test ingredient: %v", err)
	}
	return ingredient
}

// RecipeAmount is an ingredient id with its amount for CreateRecipe.
type RecipeAmount struct {
	IngredientID uint
	Amount       int
}

// CreateRecipe inserts a recipe with its tags and ingredient amounts.
func CreateRecipe(t *testing.T, db *gorm.DB, author models.User, name string, tags []models.Tag, amounts ...RecipeAmount) models.Recipe {
	t.Helper()
	recipe := models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "recipes/images/" + strings.ReplaceAll(strings.ToLower(name), " ", "-") + ".png",
		Text:        "How to cook " + name,
		CookingTime: 30,
		Tags:        tags,
	}
	if err := db.Create(&recipe).Error; err != nil {
		t.Fatalf("Failed to create test recipe: %v", err)
	}
	for _, a := range amounts {
		row := models.RecipeIngredientAmount{RecipeID: recipe.ID, IngredientID: a.IngredientID, Amount: a.Amount}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("Failed to create recipe ingredient: %v", err)
		}
	}
	return recipe
}

// AuthHeader returns a bearer Authorization header value for user.
func AuthHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.Email)
	return "Bearer " + token
}
