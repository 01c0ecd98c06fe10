package mock

import (
	"context"

	"github.com/weftlabs/weft"
)

var _ weft.RecipeService = (*RecipeService)(nil)

// RecipeService is a mock implementation of weft.RecipeService.
type RecipeService struct {
	CreateRecipeFn   func(ctx context.Context, sr *weft.StoredRecipe) error
	FindRecipeByIDFn func(ctx context.Context, id string) (*weft.StoredRecipe, error)
	FindRecipesFn    func(ctx context.Context, filter weft.RecipeFilter) ([]*weft.StoredRecipe, error)
	DeleteRecipeFn   func(ctx context.Context, id string) error
}

func (s *RecipeService) CreateRecipe(ctx context.Context, sr *weft.StoredRecipe) error {
	return s.CreateRecipeFn(ctx, sr)
}

func (s *RecipeService) FindRecipeByID(ctx context.Context, id string) (*weft.StoredRecipe, error) {
	return s.FindRecipeByIDFn(ctx, id)
}

func (s *RecipeService) FindRecipes(ctx context.Context, filter weft.RecipeFilter) ([]*weft.StoredRecipe, error) {
	return s.FindRecipesFn(ctx, filter)
}

func (s *RecipeService) DeleteRecipe(ctx context.Context, id string) error {
	return s.DeleteRecipeFn(ctx, id)
}

var _ weft.StrategyService = (*StrategyService)(nil)

// StrategyService is a mock implementation of weft.StrategyService.
type StrategyService struct {
	CreateStrategyFn     func(ctx context.Context, ss *weft.StoredStrategy) error
	FindStrategyBySiteFn func(ctx context.Context, siteURL string) (*weft.StoredStrategy, error)
	DeleteStrategyFn     func(ctx context.Context, id string) error
}

func (s *StrategyService) CreateStrategy(ctx context.Context, ss *weft.StoredStrategy) error {
	return s.CreateStrategyFn(ctx, ss)
}

func (s *StrategyService) FindStrategyBySite(ctx context.Context, siteURL string) (*weft.StoredStrategy, error) {
	return s.FindStrategyBySiteFn(ctx, siteURL)
}

func (s *StrategyService) DeleteStrategy(ctx context.Context, id string) error {
	return s.DeleteStrategyFn(ctx, id)
}
