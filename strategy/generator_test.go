package strategy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/weft"
	"github.com/weftlabs/weft/strategy"
)

func listAnalysis() *weft.StructureAnalysis {
	return &weft.StructureAnalysis{
		SourceURL: "https://example.com/products",
		ContentPatterns: []weft.ContentPattern{
			{Kind: weft.PatternList, Selector: ".results > .item", Confidence: 1.0},
		},
		ListContainers: []string{".results"},
		ItemSelectors:  []string{".results > .item"},
		Metadata:       map[string]string{"element_count": "40"},
	}
}

func TestGenerator_Invariants(t *testing.T) {
	t.Parallel()

	g := strategy.NewGenerator()

	// Every generated strategy satisfies the structural invariants,
	// whatever the analysis looks like.
	analyses := []*weft.StructureAnalysis{
		listAnalysis(),
		{SourceURL: "https://example.com"},
		{SourceURL: "https://example.com", MainContentSelector: "article",
			ContentPatterns: []weft.ContentPattern{{Kind: weft.PatternArticle, Selector: "article", Confidence: 0.9}}},
	}

	for _, analysis := range analyses {
		s, err := g.Generate(analysis, weft.StrategyContext{})
		require.NoError(t, err)

		assert.True(t, weft.ValidScrapeType(s.ScrapeType))
		assert.NotEmpty(t, s.TargetSelectors)
		for _, sel := range s.TargetSelectors {
			assert.NotEmpty(t, sel)
		}
		assert.GreaterOrEqual(t, s.MaxPages, 1)
		assert.GreaterOrEqual(t, s.RequestDelay, weft.MinRequestDelay)
		assert.NoError(t, s.Validate())
	}
}

func TestGenerator_ChoosesScrapeType(t *testing.T) {
	t.Parallel()

	g := strategy.NewGenerator()

	t.Run("strong list pattern wins", func(t *testing.T) {
		t.Parallel()
		s, err := g.Generate(listAnalysis(), weft.StrategyContext{})
		require.NoError(t, err)
		assert.Equal(t, weft.ScrapeList, s.ScrapeType)
		assert.Contains(t, s.TargetSelectors, ".results > .item")
	})

	t.Run("sparse page with main content becomes detail", func(t *testing.T) {
		t.Parallel()
		analysis := &weft.StructureAnalysis{
			SourceURL:           "https://example.com/post/1",
			MainContentSelector: "article",
			ContentPatterns: []weft.ContentPattern{
				{Kind: weft.PatternArticle, Selector: "article", Confidence: 0.9},
			},
		}
		s, err := g.Generate(analysis, weft.StrategyContext{})
		require.NoError(t, err)
		assert.Equal(t, weft.ScrapeDetail, s.ScrapeType)
		assert.Equal(t, "article", s.TargetSelectors[0])
	})

	t.Run("context type overrides scoring", func(t *testing.T) {
		t.Parallel()
		s, err := g.Generate(listAnalysis(), weft.StrategyContext{TargetContentType: "detail"})
		require.NoError(t, err)
		assert.Equal(t, weft.ScrapeDetail, s.ScrapeType)
	})

	t.Run("nothing convincing defaults to list", func(t *testing.T) {
		t.Parallel()
		s, err := g.Generate(&weft.StructureAnalysis{SourceURL: "https://example.com"}, weft.StrategyContext{})
		require.NoError(t, err)
		assert.Equal(t, weft.ScrapeList, s.ScrapeType)
		// Generic fallbacks kick in when nothing was discovered.
		assert.NotEmpty(t, s.TargetSelectors)
	})
}

func TestGenerator_MaxPages(t *testing.T) {
	t.Parallel()

	g := strategy.NewGenerator()

	tests := []struct {
		maxResults int
		want       int
	}{
		{0, 1},
		{10, 1},
		{11, 5},
		{50, 5},
		{51, 10},
		{100, 10},
		{101, 20},
		{5000, 20},
	}
	for _, tt := range tests {
		s, err := g.Generate(listAnalysis(), weft.StrategyContext{MaxResults: tt.maxResults})
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.MaxPages, "maxResults=%d", tt.maxResults)
	}
}

func TestGenerator_RequestDelay(t *testing.T) {
	t.Parallel()

	g := strategy.NewGenerator()

	t.Run("baseline one second", func(t *testing.T) {
		t.Parallel()
		s, err := g.Generate(listAnalysis(), weft.StrategyContext{})
		require.NoError(t, err)
		assert.Equal(t, time.Second, s.RequestDelay)
	})

	t.Run("institutional domains are doubled", func(t *testing.T) {
		t.Parallel()
		analysis := listAnalysis()
		analysis.SourceURL = "https://records.city.gov/permits"
		s, err := g.Generate(analysis, weft.StrategyContext{})
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, s.RequestDelay)
	})

	t.Run("large pages slow down", func(t *testing.T) {
		t.Parallel()
		analysis := listAnalysis()
		analysis.Metadata["element_count"] = "250"
		s, err := g.Generate(analysis, weft.StrategyContext{})
		require.NoError(t, err)
		assert.Equal(t, 1500*time.Millisecond, s.RequestDelay)
	})

	t.Run("delay is capped", func(t *testing.T) {
		t.Parallel()
		analysis := listAnalysis()
		analysis.SourceURL = "https://archive.example.edu/items"
		analysis.Metadata["element_count"] = "999"
		s, err := g.Generate(analysis, weft.StrategyContext{})
		require.NoError(t, err)
		assert.LessOrEqual(t, s.RequestDelay, 5*time.Second)
	})
}

func TestGenerator_PaginationMode(t *testing.T) {
	t.Parallel()

	g := strategy.NewGenerator()

	tests := []struct {
		name string
		ptyp weft.PaginationType
		want weft.PaginationMode
	}{
		{"numbered", weft.PaginationNumbered, weft.PageNumbers},
		{"next prev", weft.PaginationNextPrev, weft.NextLink},
		{"cursor maps to next link", weft.PaginationCursor, weft.NextLink},
		{"infinite scroll", weft.PaginationInfiniteScroll, weft.InfiniteScroll},
		{"load more", weft.PaginationLoadMore, weft.LoadMore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			analysis := listAnalysis()
			analysis.Pagination = &weft.PaginationDescriptor{Type: tt.ptyp}
			s, err := g.Generate(analysis, weft.StrategyContext{IncludePagination: true})
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.PaginationMode)
		})
	}

	t.Run("disabled without IncludePagination", func(t *testing.T) {
		t.Parallel()
		analysis := listAnalysis()
		analysis.Pagination = &weft.PaginationDescriptor{Type: weft.PaginationNumbered}
		s, err := g.Generate(analysis, weft.StrategyContext{})
		require.NoError(t, err)
		assert.Empty(t, s.PaginationMode)
	})
}

func TestGenerator_ContentFilters(t *testing.T) {
	t.Parallel()

	g := strategy.NewGenerator()

	s, err := g.Generate(listAnalysis(), weft.StrategyContext{
		UserCriteria: "all vintage guitar listings and prices!",
	})
	require.NoError(t, err)
	assert.Contains(t, s.ContentFilters, "vintage")
	assert.Contains(t, s.ContentFilters, "guitar")
	assert.Contains(t, s.ContentFilters, "prices")
	assert.NotContains(t, s.ContentFilters, "all")
	assert.LessOrEqual(t, len(s.ContentFilters), 5)
}

func TestGenerator_RejectsBadDiscoveredSelector(t *testing.T) {
	t.Parallel()

	g := strategy.NewGenerator()

	analysis := listAnalysis()
	analysis.ItemSelectors = []string{"div[unclosed"}
	_, err := g.Generate(analysis, weft.StrategyContext{})
	require.Error(t, err)
	assert.Equal(t, weft.EINVALID, weft.ErrorCode(err))
}
