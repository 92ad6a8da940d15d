package recipes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/auth"
	"github.com/impactys/foodgram/pkg/foodgram/models"
	"github.com/impactys/foodgram/pkg/foodgram/validation"
)

// Filter holds the recipe list query parameters.
type Filter struct {
	TagSlugs         []string
	AuthorID         *uint
	IsFavorited      *bool
	IsInShoppingCart *bool
}

// ParseFilter reads the filter from the query string:
//
//	tags=<slug>              repeatable, any of the slugs
//	author=<id>
//	is_favorited=1|0
//	is_in_shopping_cart=1|0
func ParseFilter(c *gin.Context) (Filter, error) {
	var f Filter
	errs := validation.Errors{}

	for _, slug := range c.QueryArray("tags") {
		if slug = strings.TrimSpace(slug); slug != "" {
			f.TagSlugs = append(f.TagSlugs, slug)
		}
	}

	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			errs.Add("author", "Select a valid author id.")
		} else {
			author := uint(id)
			f.AuthorID = &author
		}
	}

	f.IsFavorited = parseBool(c, "is_favorited", errs)
	f.IsInShoppingCart = parseBool(c, "is_in_shopping_cart", errs)

	return f, errs.Err()
}

func parseBool(c *gin.Context, key string, errs validation.Errors) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		errs.Add(key, "Enter a valid boolean: 1, 0, true or false.")
		return nil
	}
	return &v
}

// CheckTags reports every tag slug that names no tag.
func (f Filter) CheckTags(db *gorm.DB) error {
	if len(f.TagSlugs) == 0 {
		return nil
	}
	var known []string
	if err := db.Model(&models.Tag{}).Where("slug IN ?", f.TagSlugs).Pluck("slug", &known).Error; err != nil {
		return err
	}
	found := make(map[string]bool, len(known))
	for _, slug := range known {
		found[slug] = true
	}
	errs := validation.Errors{}
	for _, slug := range f.TagSlugs {
		if !found[slug] {
			errs.Add("tags", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", slug))
			found[slug] = true
		}
	}
	return errs.Err()
}

// Apply narrows q, a query over recipes, to the filter. The relation flags
// only take effect for an authenticated viewer.
func (f Filter) Apply(q *gorm.DB, viewer auth.Viewer) *gorm.DB {
	if len(f.TagSlugs) > 0 {
		q = q.Where(`recipes.id IN (
			SELECT recipe_tags.recipe_id FROM recipe_tags
			JOIN tags ON tags.id = recipe_tags.tag_id
			WHERE tags.slug IN ?)`, f.TagSlugs)
	}
	if f.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *f.AuthorID)
	}
	if !viewer.Anonymous() {
		q = relationFilter(q, models.RelationFavorites, f.IsFavorited, viewer.UserID)
		q = relationFilter(q, models.RelationShoppingCart, f.IsInShoppingCart, viewer.UserID)
	}
	return q
}

func relationFilter(q *gorm.DB, rel models.UserRecipeRelation, want *bool, userID uint) *gorm.DB {
	if want == nil {
		return q
	}
	op := "IN"
	if !*want {
		op = "NOT IN"
	}
	return q.Where(fmt.Sprintf("recipes.id %s (SELECT recipe_id FROM %s WHERE user_id = ?)", op, rel.Table()), userID)
}
