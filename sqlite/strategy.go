package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.StrategyService = (*StrategyService)(nil)

// StrategyService implements weft.StrategyService using SQLite.
type StrategyService struct {
	db *DB
}

// NewStrategyService creates a new StrategyService.
func NewStrategyService(db *DB) *StrategyService {
	return &StrategyService{db: db}
}

// CreateStrategy validates and stores a strategy.
func (s *StrategyService) CreateStrategy(ctx context.Context, ss *weft.StoredStrategy) error {
	if ss.SiteURL == "" {
		return weft.Errorf(weft.EINVALID, "strategy site URL required")
	}
	if err := ss.Strategy.Validate(); err != nil {
		return err
	}

	if ss.ID == "" {
		ss.ID = uuid.New().String()
	}
	ss.CreatedAt = time.Now().UTC()

	body, err := json.Marshal(ss.Strategy)
	if err != nil {
		return weft.Errorf(weft.EINTERNAL, "marshal strategy: %v", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO strategies (id, site_url, body, created_at)
		VALUES (?, ?, ?, ?)
	`, ss.ID, ss.SiteURL, string(body), ss.CreatedAt.Format(time.RFC3339))

	return err
}

// FindStrategyBySite retrieves the newest stored strategy for a site.
func (s *StrategyService) FindStrategyBySite(ctx context.Context, siteURL string) (*weft.StoredStrategy, error) {
	var ss weft.StoredStrategy
	var body, createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, site_url, body, created_at
		FROM strategies
		WHERE site_url = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, siteURL).Scan(&ss.ID, &ss.SiteURL, &body, &createdAt)

	if err == sql.ErrNoRows {
		return nil, weft.Errorf(weft.ENOTFOUND, "strategy not found")
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(body), &ss.Strategy); err != nil {
		return nil, weft.Errorf(weft.EINTERNAL, "unmarshal strategy: %v", err)
	}
	ss.CreatedAt, err = parseCreatedAt(createdAt)
	if err != nil {
		return nil, err
	}
	return &ss, nil
}

// DeleteStrategy permanently removes a stored strategy.
func (s *StrategyService) DeleteStrategy(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM strategies WHERE id = ?", id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return weft.Errorf(weft.ENOTFOUND, "strategy not found")
	}
	return nil
}
