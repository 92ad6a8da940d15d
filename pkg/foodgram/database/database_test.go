package database

import (
	"path/filepath"
	"testing"

	"github.com/impactys/foodgram/pkg/foodgram/config"
	"github.com/impactys/foodgram/pkg/foodgram/models"
)

func TestSQLiteDSN(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"foodgram.db", "foodgram.db?_foreign_keys=on"},
		{"file::memory:?cache=shared", "file::memory:?cache=shared&_foreign_keys=on"},
		{"foodgram.db?_foreign_keys=off", "foodgram.db?_foreign_keys=off"},
	}
	for _, tt := range cases {
		if got := SQLiteDSN(tt.in); got != tt.want {
			t.Errorf("SQLiteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatal("Expected error for unknown driver")
	}
	if _, err := Open(config.DatabaseConfig{Driver: "sqlite"}); err == nil {
		t.Fatal("Expected error for empty DSN")
	}
}

func TestConnectMigratesSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "foodgram.db")
	if err := Connect(config.DatabaseConfig{Driver: "sqlite", DSN: dsn, MaxOpenConns: 1}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { Close() })

	for _, model := range []interface{}{&models.Recipe{}, &models.RecipeIngredientAmount{}, &models.Subscription{}} {
		if !GetDB().Migrator().HasTable(model) {
			t.Errorf("Expected table for %T", model)
		}
	}
	if !GetDB().Migrator().HasTable("recipe_tags") {
		t.Error("Expected recipe_tags join table")
	}

	var fk int
	GetDB().Raw("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Errorf("Expected foreign keys enabled, got %d", fk)
	}
}
