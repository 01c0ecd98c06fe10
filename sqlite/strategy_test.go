package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/weft"
	"github.com/weftlabs/weft/sqlite"
)

func listStrategy() weft.ScrapingStrategy {
	return weft.ScrapingStrategy{
		ScrapeType:      weft.ScrapeList,
		TargetSelectors: []string{"ul.results > li.item", ".results"},
		PaginationMode:  weft.PageNumbers,
		MaxPages:        5,
		RequestDelay:    1500 * time.Millisecond,
		ContentFilters:  []string{"vintage", "guitar"},
	}
}

func TestStrategyService_CreateStrategy(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		db := MustOpenDB(t)
		s := sqlite.NewStrategyService(db)
		ctx := context.Background()

		ss := &weft.StoredStrategy{SiteURL: "https://example.com/products", Strategy: listStrategy()}
		require.NoError(t, s.CreateStrategy(ctx, ss))
		require.NotEmpty(t, ss.ID)

		got, err := s.FindStrategyBySite(ctx, "https://example.com/products")
		require.NoError(t, err)
		assert.Equal(t, ss.ID, got.ID)
		assert.Equal(t, ss.Strategy, got.Strategy)
		assert.Equal(t, 1500*time.Millisecond, got.Strategy.RequestDelay, "durations survive the round trip")
	})

	t.Run("missing site url", func(t *testing.T) {
		t.Parallel()
		s := sqlite.NewStrategyService(MustOpenDB(t))

		err := s.CreateStrategy(context.Background(), &weft.StoredStrategy{Strategy: listStrategy()})
		require.Error(t, err)
		assert.Equal(t, weft.EINVALID, weft.ErrorCode(err))
	})

	t.Run("invalid strategy", func(t *testing.T) {
		t.Parallel()
		s := sqlite.NewStrategyService(MustOpenDB(t))

		strategy := listStrategy()
		strategy.MaxPages = 0
		err := s.CreateStrategy(context.Background(), &weft.StoredStrategy{SiteURL: "https://example.com", Strategy: strategy})
		require.Error(t, err)
		assert.Equal(t, weft.EINVALID, weft.ErrorCode(err))
	})
}

func TestStrategyService_FindStrategyBySite(t *testing.T) {
	t.Parallel()

	t.Run("newest wins", func(t *testing.T) {
		t.Parallel()
		db := MustOpenDB(t)
		s := sqlite.NewStrategyService(db)
		ctx := context.Background()

		// Seed rows with explicit timestamps so ordering is unambiguous.
		body := `{"scrapeType":"list","targetSelectors":[".item"],"maxPages":1,"requestDelay":1000000000}`
		for _, row := range []struct{ id, createdAt string }{
			{"old", "2026-08-01T10:00:00Z"},
			{"new", "2026-08-02T10:00:00Z"},
		} {
			_, err := db.ExecContext(ctx, `
				INSERT INTO strategies (id, site_url, body, created_at)
				VALUES (?, ?, ?, ?)
			`, row.id, "https://example.com", body, row.createdAt)
			require.NoError(t, err)
		}

		got, err := s.FindStrategyBySite(ctx, "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "new", got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		s := sqlite.NewStrategyService(MustOpenDB(t))
		_, err := s.FindStrategyBySite(context.Background(), "https://nowhere.example.com")
		require.Error(t, err)
		assert.Equal(t, weft.ENOTFOUND, weft.ErrorCode(err))
	})
}

func TestStrategyService_DeleteStrategy(t *testing.T) {
	t.Parallel()

	s := sqlite.NewStrategyService(MustOpenDB(t))
	ctx := context.Background()

	ss := &weft.StoredStrategy{SiteURL: "https://example.com", Strategy: listStrategy()}
	require.NoError(t, s.CreateStrategy(ctx, ss))
	require.NoError(t, s.DeleteStrategy(ctx, ss.ID))

	_, err := s.FindStrategyBySite(ctx, "https://example.com")
	assert.Equal(t, weft.ENOTFOUND, weft.ErrorCode(err))

	err = s.DeleteStrategy(ctx, ss.ID)
	require.Error(t, err)
	assert.Equal(t, weft.ENOTFOUND, weft.ErrorCode(err))
}
