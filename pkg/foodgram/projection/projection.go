// Package projection renders domain models into API response bodies.
//
// Caller relative fields (is_subscribed, is_favorited, is_in_shopping_cart)
// are computed for an explicit auth.Viewer; the anonymous viewer always gets
// false. List renderers look up each relation once for the whole slice.
package projection

import (
	"gorm.io/gorm"

	"github.com/impactys/foodgram/pkg/foodgram/auth"
	"github.com/impactys/foodgram/pkg/foodgram/media"
	"github.com/impactys/foodgram/pkg/foodgram/models"
)

// UserResponse represents a user in API responses
type UserResponse struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// IngredientResponse represents a catalogue ingredient
type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// RecipeIngredientResponse is an ingredient with its amount in a recipe
type RecipeIngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full read representation of a recipe
type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// RecipeShortResponse is used in favorites, cart and subscription bodies
type RecipeShortResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionResponse is a followed author with a preview of their recipes
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

// Tag converts a tag model.
func Tag(t models.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

// Tags converts a slice of tag models, never returning nil.
func Tags(tags []models.Tag) []TagResponse {
	out := make([]TagResponse, len(tags))
	for i, t := range tags {
		out[i] = Tag(t)
	}
	return out
}

// Ingredient converts an ingredient model.
func Ingredient(i models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

// Ingredients converts a slice of ingredient models, never returning nil.
func Ingredients(ingredients []models.Ingredient) []IngredientResponse {
	out := make([]IngredientResponse, len(ingredients))
	for i, ing := range ingredients {
		out[i] = Ingredient(ing)
	}
	return out
}

// PreloadRecipe loads everything RecipeResponse needs.
func PreloadRecipe(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredient_amounts.id ASC") }).
		Preload("Ingredients.Ingredient")
}

// Renderer builds responses that depend on the viewer or on media URLs.
type Renderer struct {
	db    *gorm.DB
	media *media.Store
}

// NewRenderer creates a Renderer. store may be nil, in which case image
// references are returned as stored.
func NewRenderer(db *gorm.DB, store *media.Store) *Renderer {
	return &Renderer{db: db, media: store}
}

func (r *Renderer) imageURL(ref string) string {
	if r.media == nil {
		return ref
	}
	return r.media.URL(ref)
}

func user(u models.User, subscribed bool) UserResponse {
	return UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// User renders one user for viewer.
func (r *Renderer) User(viewer auth.Viewer, u models.User) (UserResponse, error) {
	out, err := r.Users(viewer, []models.User{u})
	if err != nil {
		return UserResponse{}, err
	}
	return out[0], nil
}

// Users renders users for viewer.
func (r *Renderer) Users(viewer auth.Viewer, users []models.User) ([]UserResponse, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := r.subscribedTo(viewer, ids)
	if err != nil {
		return nil, err
	}

	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = user(u, subscribed[u.ID])
	}
	return out, nil
}

// ShortRecipe renders the short recipe form.
func (r *Renderer) ShortRecipe(recipe models.Recipe) RecipeShortResponse {
	return RecipeShortResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       r.imageURL(recipe.Image),
		CookingTime: recipe.CookingTime,
	}
}

// Recipe renders one recipe loaded with PreloadRecipe.
func (r *Renderer) Recipe(viewer auth.Viewer, recipe models.Recipe) (RecipeResponse, error) {
	out, err := r.Recipes(viewer, []models.Recipe{recipe})
	if err != nil {
		return RecipeResponse{}, err
	}
	return out[0], nil
}

// Recipes renders recipes loaded with PreloadRecipe.
func (r *Renderer) Recipes(viewer auth.Viewer, recipes []models.Recipe) ([]RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, rec := range recipes {
		recipeIDs[i] = rec.ID
		authorIDs[i] = rec.AuthorID
	}

	favorited, err := r.related(viewer, models.RelationFavorites, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := r.related(viewer, models.RelationShoppingCart, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := r.subscribedTo(viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]RecipeResponse, len(recipes))
	for i, rec := range recipes {
		ingredients := make([]RecipeIngredientResponse, len(rec.Ingredients))
		for j, amount := range rec.Ingredients {
			ingredients[j] = RecipeIngredientResponse{
				ID:              amount.IngredientID,
				Name:            amount.Ingredient.Name,
				MeasurementUnit: amount.Ingredient.MeasurementUnit,
				Amount:          amount.Amount,
			}
		}
		out[i] = RecipeResponse{
			ID:               rec.ID,
			Tags:             Tags(rec.Tags),
			Author:           user(rec.Author, subscribed[rec.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[rec.ID],
			IsInShoppingCart: inCart[rec.ID],
			Name:             rec.Name,
			Image:            r.imageURL(rec.Image),
			Text:             rec.Text,
			CookingTime:      rec.CookingTime,
		}
	}
	return out, nil
}

// Subscriptions renders followed authors with up to recipesLimit of their
// newest recipes each. A non positive limit includes every recipe.
func (r *Renderer) Subscriptions(viewer auth.Viewer, authors []models.User, recipesLimit int) ([]SubscriptionResponse, error) {
	users, err := r.Users(viewer, authors)
	if err != nil {
		return nil, err
	}
	out := make([]SubscriptionResponse, len(authors))
	if len(authors) == 0 {
		return out, nil
	}

	ids := make([]uint, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}

	type authorCount struct {
		AuthorID uint
		Count    int64
	}
	var counts []authorCount
	if err := r.db.Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS count").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	countByAuthor := make(map[uint]int64, len(counts))
	for _, ac := range counts {
		countByAuthor[ac.AuthorID] = ac.Count
	}

	var recipes []models.Recipe
	if err := r.db.Where("author_id IN ?", ids).Order(models.RecipeOrder).Find(&recipes).Error; err != nil {
		return nil, err
	}
	byAuthor := make(map[uint][]RecipeShortResponse, len(authors))
	for _, rec := range recipes {
		if recipesLimit > 0 && len(byAuthor[rec.AuthorID]) >= recipesLimit {
			continue
		}
		byAuthor[rec.AuthorID] = append(byAuthor[rec.AuthorID], r.ShortRecipe(rec))
	}

	for i, a := range authors {
		short := byAuthor[a.ID]
		if short == nil {
			short = []RecipeShortResponse{}
		}
		out[i] = SubscriptionResponse{
			UserResponse: users[i],
			Recipes:      short,
			RecipesCount: countByAuthor[a.ID],
		}
	}
	return out, nil
}

// subscribedTo returns which of authorIDs the viewer follows.
func (r *Renderer) subscribedTo(viewer auth.Viewer, authorIDs []uint) (map[uint]bool, error) {
	set := map[uint]bool{}
	if viewer.Anonymous() || len(authorIDs) == 0 {
		return set, nil
	}
	var ids []uint
	if err := r.db.Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", viewer.UserID, authorIDs).
		Pluck("author_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// related returns which of recipeIDs the viewer has in rel.
func (r *Renderer) related(viewer auth.Viewer, rel models.UserRecipeRelation, recipeIDs []uint) (map[uint]bool, error) {
	set := map[uint]bool{}
	if viewer.Anonymous() || len(recipeIDs) == 0 {
		return set, nil
	}
	var ids []uint
	if err := r.db.Model(rel.Model()).
		Where("user_id = ? AND recipe_id IN ?", viewer.UserID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
