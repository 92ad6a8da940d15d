package recipes

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/impactys/foodgram/pkg/foodgram/models"
	"github.com/impactys/foodgram/pkg/foodgram/validation"
)

// RecipeWriteRequest is the body of create and update requests. A nil field
// was absent from the body: create requires every field, update changes only
// the fields that are present.
type RecipeWriteRequest struct {
	Ingredients *[]validation.IngredientAmount `json:"ingredients"`
	Tags        *[]uint                        `json:"tags"`
	Image       *string                        `json:"image"`
	Name        *string                        `json:"name" binding:"omitempty,max=200"`
	Text        *string                        `json:"text"`
	CookingTime *int                           `json:"cooking_time"`
}

// Validate runs the recipe rules. Existence of referenced rows is checked
// separately by resolve.
func (r RecipeWriteRequest) Validate(create bool) validation.Errors {
	errs := validation.Errors{}

	if create {
		required := map[string]bool{
			"ingredients":  r.Ingredients == nil,
			"tags":         r.Tags == nil,
			"image":        r.Image == nil,
			"name":         r.Name == nil,
			"text":         r.Text == nil,
			"cooking_time": r.CookingTime == nil,
		}
		for field, missing := range required {
			if missing {
				errs.Add(field, validation.MsgRequired)
			}
		}
	}

	if r.Ingredients != nil {
		errs.Merge(validation.ValidateIngredients(*r.Ingredients))
	}
	if r.Tags != nil {
		errs.Merge(validation.ValidateTags(*r.Tags))
	}
	if r.CookingTime != nil {
		errs.Merge(validation.ValidateCookingTime(*r.CookingTime))
	}
	for field, value := range map[string]*string{"image": r.Image, "name": r.Name, "text": r.Text} {
		if value != nil && strings.TrimSpace(*value) == "" {
			errs.Add(field, "This field may not be blank.")
		}
	}
	return errs
}

// resolved holds the rows referenced by a write request.
type resolved struct {
	tags []models.Tag
}

// resolve loads the referenced tags and checks that every referenced
// ingredient exists.
func (r RecipeWriteRequest) resolve(db *gorm.DB) (resolved, error) {
	var out resolved
	errs := validation.Errors{}

	if r.Tags != nil {
		if err := db.Where("id IN ?", *r.Tags).Find(&out.tags).Error; err != nil {
			return out, err
		}
		found := make(map[uint]bool, len(out.tags))
		for _, t := range out.tags {
			found[t.ID] = true
		}
		for _, id := range *r.Tags {
			if !found[id] {
				errs.Add("tags", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
			}
		}
	}

	if r.Ingredients != nil {
		ids := make([]uint, len(*r.Ingredients))
		for i, item := range *r.Ingredients {
			ids[i] = item.ID
		}
		var existing []uint
		if err := db.Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
			return out, err
		}
		found := make(map[uint]bool, len(existing))
		for _, id := range existing {
			found[id] = true
		}
		for _, id := range ids {
			if !found[id] {
				errs.Add("ingredients", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
			}
		}
	}

	return out, errs.Err()
}

// apply writes the request onto recipe inside tx. recipe.ID is zero for a
// new recipe. imageRef replaces the image when non-empty.
func (r RecipeWriteRequest) apply(tx *gorm.DB, recipe *models.Recipe, refs resolved, imageRef string) error {
	if recipe.ID == 0 {
		recipe.Name = *r.Name
		recipe.Text = *r.Text
		recipe.CookingTime = *r.CookingTime
		recipe.Image = imageRef
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
	} else {
		updates := map[string]interface{}{}
		if r.Name != nil {
			updates["name"] = *r.Name
		}
		if r.Text != nil {
			updates["text"] = *r.Text
		}
		if r.CookingTime != nil {
			updates["cooking_time"] = *r.CookingTime
		}
		if imageRef != "" {
			updates["image"] = imageRef
		}
		if len(updates) > 0 {
			if err := tx.Model(recipe).Omit(clause.Associations).Updates(updates).Error; err != nil {
				return err
			}
		}
	}

	if r.Tags != nil {
		if err := tx.Model(recipe).Association("Tags").Replace(refs.tags); err != nil {
			return err
		}
	}

	if r.Ingredients != nil {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredientAmount{}).Error; err != nil {
			return err
		}
		rows := make([]models.RecipeIngredientAmount, len(*r.Ingredients))
		for i, item := range *r.Ingredients {
			rows[i] = models.RecipeIngredientAmount{
				RecipeID:     recipe.ID,
				IngredientID: item.ID,
				Amount:       item.Amount,
			}
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}
