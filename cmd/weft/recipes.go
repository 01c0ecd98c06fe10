package main

import (
	"fmt"

	"github.com/weftlabs/weft"
)

// Run executes the recipes command.
func (c *RecipesCmd) Run(deps *Dependencies) error {
	filter := weft.RecipeFilter{}
	if c.Site != "" {
		filter.SiteURL = &c.Site
	}

	recipes, err := deps.Recipes.FindRecipes(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", weft.ErrorMessage(err))
		return err
	}

	if len(recipes) == 0 {
		fmt.Fprintln(deps.Stdout, "No recipes found. Use 'weft plan' to create one.")
		return nil
	}

	for _, r := range recipes {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %d fields\n", r.ID, r.Recipe.Name, r.SiteURL, len(r.Recipe.Fields))
	}
	return nil
}

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if err := deps.Recipes.DeleteRecipe(deps.Ctx, c.ID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", weft.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Deleted recipe %s\n", c.ID)
	return nil
}
