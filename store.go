package weft

import (
	"context"
	"time"
)

// StoredRecipe is a persisted schema recipe. Recipes and strategies are
// the only artifacts cached across runs; both must round-trip losslessly
// through their stored form.
type StoredRecipe struct {
	ID        string       `json:"id"`
	SiteURL   string       `json:"siteUrl"`
	Recipe    SchemaRecipe `json:"recipe"`
	CreatedAt time.Time    `json:"createdAt"`
}

// StoredStrategy is a persisted scraping strategy.
type StoredStrategy struct {
	ID        string           `json:"id"`
	SiteURL   string           `json:"siteUrl"`
	Strategy  ScrapingStrategy `json:"strategy"`
	CreatedAt time.Time        `json:"createdAt"`
}

// RecipeFilter narrows FindRecipes results.
type RecipeFilter struct {
	ID      *string `json:"id"`
	Name    *string `json:"name"`
	SiteURL *string `json:"siteUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RecipeService persists schema recipes.
type RecipeService interface {
	// CreateRecipe validates and stores a recipe.
	CreateRecipe(ctx context.Context, sr *StoredRecipe) error

	// FindRecipeByID retrieves a stored recipe by ID.
	// Returns ENOTFOUND if it does not exist.
	FindRecipeByID(ctx context.Context, id string) (*StoredRecipe, error)

	// FindRecipes retrieves stored recipes matching the filter, newest
	// first.
	FindRecipes(ctx context.Context, filter RecipeFilter) ([]*StoredRecipe, error)

	// DeleteRecipe permanently removes a stored recipe.
	// Returns ENOTFOUND if it does not exist.
	DeleteRecipe(ctx context.Context, id string) error
}

// StrategyService persists scraping strategies.
type StrategyService interface {
	// CreateStrategy validates and stores a strategy.
	CreateStrategy(ctx context.Context, ss *StoredStrategy) error

	// FindStrategyBySite retrieves the newest stored strategy for a
	// site. Returns ENOTFOUND if none exists.
	FindStrategyBySite(ctx context.Context, siteURL string) (*StoredStrategy, error)

	// DeleteStrategy permanently removes a stored strategy.
	// Returns ENOTFOUND if it does not exist.
	DeleteStrategy(ctx context.Context, id string) error
}
