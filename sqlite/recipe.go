package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.RecipeService = (*RecipeService)(nil)

// RecipeService implements weft.RecipeService using SQLite.
type RecipeService struct {
	db *DB
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(db *DB) *RecipeService {
	return &RecipeService{db: db}
}

// CreateRecipe validates and stores a recipe.
func (s *RecipeService) CreateRecipe(ctx context.Context, sr *weft.StoredRecipe) error {
	if sr.SiteURL == "" {
		return weft.Errorf(weft.EINVALID, "recipe site URL required")
	}
	if err := sr.Recipe.Validate(); err != nil {
		return err
	}

	if sr.ID == "" {
		sr.ID = uuid.New().String()
	}
	sr.CreatedAt = time.Now().UTC()

	body, err := json.Marshal(sr.Recipe)
	if err != nil {
		return weft.Errorf(weft.EINTERNAL, "marshal recipe: %v", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recipes (id, site_url, name, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sr.ID, sr.SiteURL, sr.Recipe.Name, string(body), sr.CreatedAt.Format(time.RFC3339))

	return err
}

// FindRecipeByID retrieves a stored recipe by ID.
func (s *RecipeService) FindRecipeByID(ctx context.Context, id string) (*weft.StoredRecipe, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, site_url, body, created_at
		FROM recipes
		WHERE id = ?
	`, id)

	sr, err := scanRecipe(row.Scan)
	if err == sql.ErrNoRows {
		return nil, weft.Errorf(weft.ENOTFOUND, "recipe not found")
	}
	return sr, err
}

// FindRecipes retrieves stored recipes matching the filter, newest
// first.
func (s *RecipeService) FindRecipes(ctx context.Context, filter weft.RecipeFilter) ([]*weft.StoredRecipe, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, site_url, body, created_at FROM recipes WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Name != nil {
		query.WriteString(" AND name = ?")
		args = append(args, *filter.Name)
	}
	if filter.SiteURL != nil {
		query.WriteString(" AND site_url = ?")
		args = append(args, *filter.SiteURL)
	}

	query.WriteString(" ORDER BY created_at DESC")
	appendLimitOffset(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*weft.StoredRecipe
	for rows.Next() {
		sr, err := scanRecipe(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// DeleteRecipe permanently removes a stored recipe.
func (s *RecipeService) DeleteRecipe(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return weft.Errorf(weft.ENOTFOUND, "recipe not found")
	}
	return nil
}

// scanRecipe reads one recipe row through the given scan function.
func scanRecipe(scan func(dest ...any) error) (*weft.StoredRecipe, error) {
	var sr weft.StoredRecipe
	var body, createdAt string

	if err := scan(&sr.ID, &sr.SiteURL, &body, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(body), &sr.Recipe); err != nil {
		return nil, weft.Errorf(weft.EINTERNAL, "unmarshal recipe: %v", err)
	}

	var err error
	sr.CreatedAt, err = parseCreatedAt(createdAt)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}
