// Package seed loads reference data (tags and the ingredient catalogue)
// from YAML or JSON files.
package seed

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/impactys/foodgram/pkg/foodgram/models"
	"github.com/impactys/foodgram/pkg/foodgram/validation"
)

const batchSize = 500

// TagRecord is a tag entry of a seed file. Slug is generated from Name when
// empty.
type TagRecord struct {
	Name  string `yaml:"name" json:"name" validate:"required,max=200"`
	Color string `yaml:"color" json:"color" validate:"required,len=7,hexcolor"`
	Slug  string `yaml:"slug" json:"slug" validate:"omitempty,max=200"`
}

// IngredientRecord is an ingredient entry of a seed file.
type IngredientRecord struct {
	Name            string `yaml:"name" json:"name" validate:"required,max=200"`
	MeasurementUnit string `yaml:"measurement_unit" json:"measurement_unit" validate:"required,max=200"`
}

// File is the content of a seed file:
//
//	tags:
//	  - {name: Breakfast, color: "#E26C2D", slug: breakfast}
//	ingredients:
//	  - {name: salt, measurement_unit: g}
//
// A top level list is read as ingredients only, which is the format of the
// published ingredient catalogue.
type File struct {
	Tags        []TagRecord        `yaml:"tags"`
	Ingredients []IngredientRecord `yaml:"ingredients"`
}

// Result reports what a load did.
type Result struct {
	TagsImported        int64
	IngredientsImported int64
	Skipped             int
	Errors              []string
}

// Parse decodes a seed document. JSON is accepted since it is valid YAML.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err == nil {
		return f, nil
	}

	var ingredients []IngredientRecord
	if err := yaml.Unmarshal(data, &ingredients); err != nil {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	return File{Ingredients: ingredients}, nil
}

// ReadFile reads and parses the seed file at path.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Parse(data)
}

// Loader inserts seed data, skipping rows that already exist.
type Loader struct {
	db       *gorm.DB
	log      *zap.Logger
	validate *validator.Validate
}

// NewLoader creates a Loader.
func NewLoader(db *gorm.DB, log *zap.Logger) *Loader {
	return &Loader{db: db, log: log, validate: validation.New()}
}

// Load validates every record, drops invalid ones into Result.Errors and
// inserts the rest in one transaction. Rows conflicting with existing data
// are left untouched.
func (l *Loader) Load(f File) (Result, error) {
	var res Result

	tags := make([]models.Tag, 0, len(f.Tags))
	for i, rec := range f.Tags {
		rec.Name = strings.TrimSpace(rec.Name)
		rec.Color = strings.ToUpper(strings.TrimSpace(rec.Color))
		rec.Slug = strings.TrimSpace(rec.Slug)
		if rec.Slug == "" {
			rec.Slug = slug.Make(rec.Name)
		}
		if err := l.validate.Struct(rec); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("tag %d (%q): %v", i, rec.Name, validation.FromBindError(err)))
			continue
		}
		if !slug.IsSlug(rec.Slug) {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("tag %d (%q): invalid slug %q", i, rec.Name, rec.Slug))
			continue
		}
		tags = append(tags, models.Tag{Name: rec.Name, Color: rec.Color, Slug: rec.Slug})
	}

	ingredients := make([]models.Ingredient, 0, len(f.Ingredients))
	for i, rec := range f.Ingredients {
		rec.Name = strings.TrimSpace(rec.Name)
		rec.MeasurementUnit = strings.TrimSpace(rec.MeasurementUnit)
		if err := l.validate.Struct(rec); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("ingredient %d (%q): %v", i, rec.Name, validation.FromBindError(err)))
			continue
		}
		ingredients = append(ingredients, models.Ingredient{Name: rec.Name, MeasurementUnit: rec.MeasurementUnit})
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		if len(tags) > 0 {
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&tags, batchSize)
			if result.Error != nil {
				return fmt.Errorf("insert tags: %w", result.Error)
			}
			res.TagsImported = result.RowsAffected
		}
		if len(ingredients) > 0 {
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ingredients, batchSize)
			if result.Error != nil {
				return fmt.Errorf("insert ingredients: %w", result.Error)
			}
			res.IngredientsImported = result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	l.log.Info("seed data loaded",
		zap.Int64("tags", res.TagsImported),
		zap.Int64("ingredients", res.IngredientsImported),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}
