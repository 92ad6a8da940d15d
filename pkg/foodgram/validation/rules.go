package validation

import (
	"fmt"

	"github.com/impactys/foodgram/pkg/foodgram/models"
)

// Messages returned by the recipe and subscription rules.
const (
	MsgNoIngredients      = "Cannot create a recipe without ingredients."
	MsgIngredientRepeated = "This ingredient has already been added."
	MsgNoTags             = "Choose at least one tag."
	MsgTagRepeated        = "This tag has already been selected."
	MsgSubscribeTwice     = "You cannot subscribe to the same author twice."
	MsgSubscribeSelf      = "You cannot subscribe to yourself."
	MsgRequired           = "This field is required."
)

// IngredientAmount is one {id, amount} entry of a recipe write payload.
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// ValidateIngredients rejects an empty list, out of range amounts and
// repeated ingredients. Repeats are detected by ingredient id alone, so two
// entries for the same ingredient fail even when their amounts differ.
func ValidateIngredients(items []IngredientAmount) Errors {
	errs := Errors{}
	if len(items) == 0 {
		errs.Add("ingredients", MsgNoIngredients)
		return errs
	}

	seen := make(map[uint]struct{}, len(items))
	for _, item := range items {
		if item.ID == 0 {
			errs.Add("ingredients", "Ingredient id is required.")
			continue
		}
		if item.Amount < models.MinAmount || item.Amount > models.MaxAmount {
			errs.Add("ingredients", fmt.Sprintf("Amount must be between %d and %d.",
				models.MinAmount, models.MaxAmount))
		}
		if _, ok := seen[item.ID]; ok {
			errs.Add("ingredients", MsgIngredientRepeated)
			continue
		}
		seen[item.ID] = struct{}{}
	}
	return errs
}

// ValidateTags rejects an empty list and repeated tag ids.
func ValidateTags(ids []uint) Errors {
	errs := Errors{}
	if len(ids) == 0 {
		errs.Add("tags", MsgNoTags)
		return errs
	}

	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			errs.Add("tags", MsgTagRepeated)
			return errs
		}
		seen[id] = struct{}{}
	}
	return errs
}

// ValidateCookingTime checks the cooking time bounds.
func ValidateCookingTime(minutes int) Errors {
	if minutes < models.MinCookingTime || minutes > models.MaxCookingTime {
		return Single("cooking_time", fmt.Sprintf("Cooking time must be between %d and %d.",
			models.MinCookingTime, models.MaxCookingTime))
	}
	return Errors{}
}

// ValidateSubscription runs the subscription rules. The duplicate check runs
// before the self check.
func ValidateSubscription(alreadySubscribed bool, userID, authorID uint) error {
	if alreadySubscribed {
		return Single(NonFieldErrors, MsgSubscribeTwice)
	}
	if userID == authorID {
		return Single(NonFieldErrors, MsgSubscribeSelf)
	}
	return nil
}
