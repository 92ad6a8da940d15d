package models

import (
	"strings"

	"gorm.io/gorm"
)

// Tag categorizes recipes. Tags are reference data loaded out of band.
type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Color string `gorm:"size:7;uniqueIndex;not null" json:"color"` // HEX, e.g. "#E26C2D"
	Slug  string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}

// Ingredient is a catalogue entry with its measurement unit.
type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:200;not null;index;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
	// NameLower is Name folded with Unicode case rules; sqlite's LOWER and
	// LIKE only fold ASCII.
	NameLower string `gorm:"size:200;not null;default:'';index" json:"-"`
}

// BeforeSave keeps NameLower in step with Name.
func (i *Ingredient) BeforeSave(tx *gorm.DB) error {
	i.NameLower = strings.ToLower(i.Name)
	return nil
}
