package crawl_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/weft"
	"github.com/weftlabs/weft/crawl"
	"github.com/weftlabs/weft/mock"
)

func testRecipe() *weft.SchemaRecipe {
	return &weft.SchemaRecipe{
		Name:    "example-com-list",
		Version: "1.0",
		Weights: weft.DefaultReportWeights(),
		Fields: map[string]weft.FieldDefinition{
			"title": {Type: weft.TypeString, Selector: "h2", Required: true},
		},
	}
}

func testStrategy() *weft.ScrapingStrategy {
	return &weft.ScrapingStrategy{
		ScrapeType:      weft.ScrapeList,
		TargetSelectors: []string{".item"},
		MaxPages:        3,
		RequestDelay:    weft.MinRequestDelay,
	}
}

func passingQuality() *mock.QualityAnalyzer {
	return &mock.QualityAnalyzer{
		AnalyzeFn: func(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) (*weft.QualityReport, error) {
			return &weft.QualityReport{ItemCount: len(records), OverallScore: 90, PassesThreshold: true}, nil
		},
	}
}

// itemContents fakes list extraction: each "item:<title>" token in the
// page body becomes one extracted container.
func itemContents(html string) []*weft.ExtractedContent {
	var out []*weft.ExtractedContent
	for _, tok := range strings.Fields(html) {
		if title, ok := strings.CutPrefix(tok, "item:"); ok {
			out = append(out, &weft.ExtractedContent{
				Data:         map[string]any{"title": title},
				QualityScore: 80,
			})
		}
	}
	return out
}

func newTestSession(pages map[string]string) *crawl.Session {
	return &crawl.Session{
		Fetcher: &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*weft.FetchResult, error) {
				html, ok := pages[url]
				if !ok {
					return nil, weft.NetworkErrorf(404, "not found: %s", url)
				}
				return &weft.FetchResult{HTML: html, FinalURL: url, StatusCode: 200}, nil
			},
		},
		Limiter: &mock.HostLimiter{},
		Analyzer: &mock.Analyzer{
			AnalyzeFn: func(html, sourceURL string) (*weft.StructureAnalysis, error) {
				return &weft.StructureAnalysis{SourceURL: sourceURL}, nil
			},
		},
		Schemas: &mock.SchemaGenerator{
			GenerateFn: func(analysis *weft.StructureAnalysis, html string, sctx weft.SchemaContext) (*weft.SchemaRecipe, error) {
				return testRecipe(), nil
			},
		},
		Strategies: &mock.StrategyGenerator{
			GenerateFn: func(analysis *weft.StructureAnalysis, sctx weft.StrategyContext) (*weft.ScrapingStrategy, error) {
				return testStrategy(), nil
			},
		},
		Extractor: &mock.Extractor{
			ExtractFn: func(html, baseURL string, rules map[string]weft.ExtractionRule) (*weft.ExtractedContent, error) {
				return &weft.ExtractedContent{Data: map[string]any{}}, nil
			},
			ExtractListFn: func(html, baseURL, container string, rules map[string]weft.ExtractionRule) ([]*weft.ExtractedContent, error) {
				return itemContents(html), nil
			},
		},
		Quality: passingQuality(),
	}
}

func TestSession_Scrape_SinglePage(t *testing.T) {
	t.Parallel()

	s := newTestSession(map[string]string{
		"https://example.com/products": "item:alpha item:beta",
	})

	result, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{})
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, 1, result.PagesFetched)
	assert.Empty(t, result.Errors)
	assert.NotNil(t, result.Report)
	assert.Equal(t, 2, result.Report.ItemCount)

	for _, r := range result.Records {
		assert.NotEmpty(t, r.ID)
		assert.NotEmpty(t, r.ContentHash)
		assert.Equal(t, "https://example.com/products", r.SourceURL)
		assert.Equal(t, "1.0", r.SchemaVersion)
		assert.False(t, r.ScrapedAt.IsZero())
	}
	assert.NotEqual(t, result.Records[0].ID, result.Records[1].ID)
	assert.NotEqual(t, result.Records[0].ContentHash, result.Records[1].ContentHash)
}

func TestSession_Scrape_NumberedPages(t *testing.T) {
	t.Parallel()

	s := newTestSession(map[string]string{
		"https://example.com/products":        "item:a1 item:a2",
		"https://example.com/products?page=2": "item:b1",
		"https://example.com/products?page=3": "item:c1",
	})
	s.Strategies = &mock.StrategyGenerator{
		GenerateFn: func(analysis *weft.StructureAnalysis, sctx weft.StrategyContext) (*weft.ScrapingStrategy, error) {
			st := testStrategy()
			st.PaginationMode = weft.PageNumbers
			return st, nil
		},
	}

	var events []crawl.ProgressEvent
	result, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{
		Progress: func(e crawl.ProgressEvent) { events = append(events, e) },
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.PagesFetched)
	assert.Len(t, result.Records, 4)
	assert.Empty(t, result.Errors)

	require.NotEmpty(t, events)
	assert.Equal(t, crawl.ProgressFinished, events[len(events)-1].Type)
}

func TestSession_Scrape_PageFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	// Page 2 is missing; the run still returns pages 1 and 3.
	s := newTestSession(map[string]string{
		"https://example.com/products":        "item:a1",
		"https://example.com/products?page=3": "item:c1",
	})
	s.Strategies = &mock.StrategyGenerator{
		GenerateFn: func(analysis *weft.StructureAnalysis, sctx weft.StrategyContext) (*weft.ScrapingStrategy, error) {
			st := testStrategy()
			st.PaginationMode = weft.PageNumbers
			return st, nil
		},
	}

	result, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.PagesFetched)
	assert.Len(t, result.Records, 2)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "page=2")
}

func TestSession_Scrape_NextLinkWalk(t *testing.T) {
	t.Parallel()

	// Each page embeds its next link as "next:<url>"; the mock extractor
	// surfaces it for single-rule href extraction. Page 3 loops back to
	// page 2, which the frontier must refuse.
	pages := map[string]string{
		"https://example.com/list":   "item:a next:https://example.com/list/2",
		"https://example.com/list/2": "item:b next:https://example.com/list/3",
		"https://example.com/list/3": "item:c next:https://example.com/list/2",
	}
	s := newTestSession(pages)
	s.Extractor = &mock.Extractor{
		ExtractFn: func(html, baseURL string, rules map[string]weft.ExtractionRule) (*weft.ExtractedContent, error) {
			data := map[string]any{}
			for _, tok := range strings.Fields(html) {
				if next, ok := strings.CutPrefix(tok, "next:"); ok {
					data["next"] = next
				}
			}
			return &weft.ExtractedContent{Data: data}, nil
		},
		ExtractListFn: func(html, baseURL, container string, rules map[string]weft.ExtractionRule) ([]*weft.ExtractedContent, error) {
			return itemContents(html), nil
		},
	}
	s.Analyzer = &mock.Analyzer{
		AnalyzeFn: func(html, sourceURL string) (*weft.StructureAnalysis, error) {
			return &weft.StructureAnalysis{
				SourceURL: sourceURL,
				Pagination: &weft.PaginationDescriptor{
					Type:      weft.PaginationNextPrev,
					Selectors: map[string]string{"next": "a.next"},
				},
			}, nil
		},
	}
	s.Strategies = &mock.StrategyGenerator{
		GenerateFn: func(analysis *weft.StructureAnalysis, sctx weft.StrategyContext) (*weft.ScrapingStrategy, error) {
			st := testStrategy()
			st.PaginationMode = weft.NextLink
			st.MaxPages = 10
			return st, nil
		},
	}

	result, err := s.Scrape(context.Background(), "https://example.com/list", crawl.ScrapeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.PagesFetched, "cycle back to page 2 must stop the walk")
	assert.Len(t, result.Records, 3)
}

func TestSession_Scrape_DeduplicatesByContentHash(t *testing.T) {
	t.Parallel()

	// Both pages carry the same item.
	s := newTestSession(map[string]string{
		"https://example.com/products":        "item:same item:only1",
		"https://example.com/products?page=2": "item:same",
	})
	s.Strategies = &mock.StrategyGenerator{
		GenerateFn: func(analysis *weft.StructureAnalysis, sctx weft.StrategyContext) (*weft.ScrapingStrategy, error) {
			st := testStrategy()
			st.PaginationMode = weft.PageNumbers
			st.MaxPages = 2
			return st, nil
		},
	}

	result, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
}

func TestSession_Scrape_RobotsDenied(t *testing.T) {
	t.Parallel()

	s := newTestSession(map[string]string{
		"https://example.com/private": "item:secret",
	})
	s.UserAgent = "weft/1.0"
	s.Robots = &mock.RobotsPolicy{
		CanFetchFn: func(ctx context.Context, url, userAgent string) (bool, error) {
			return false, nil
		},
	}
	var acquired bool
	s.Limiter = &mock.HostLimiter{
		AcquireSlotFn: func(host string) bool {
			acquired = true
			return true
		},
	}

	_, err := s.Scrape(context.Background(), "https://example.com/private", crawl.ScrapeOptions{})
	require.Error(t, err)
	assert.Equal(t, weft.EINVALID, weft.ErrorCode(err))
	assert.False(t, acquired, "denied fetch must not consume a slot")
}

func TestSession_Scrape_QualityFailure(t *testing.T) {
	t.Parallel()

	t.Run("unacceptable batch returns quality error with partial result", func(t *testing.T) {
		t.Parallel()
		s := newTestSession(map[string]string{"https://example.com/products": "item:junk"})
		s.Thresholds = weft.QualityThresholds{MinOverall: 60}
		s.Quality = &mock.QualityAnalyzer{
			AnalyzeFn: func(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) (*weft.QualityReport, error) {
				return &weft.QualityReport{ItemCount: len(records), OverallScore: 5, PassesThreshold: false}, nil
			},
		}

		result, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{})
		require.Error(t, err)
		assert.Equal(t, weft.EQUALITY, weft.ErrorCode(err))
		require.NotNil(t, result, "records extracted before the failure are still returned")
		assert.Len(t, result.Records, 1)
	})

	t.Run("degraded batch is accepted", func(t *testing.T) {
		t.Parallel()
		s := newTestSession(map[string]string{"https://example.com/products": "item:okish"})
		s.Thresholds = weft.QualityThresholds{MinOverall: 60}
		s.Quality = &mock.QualityAnalyzer{
			AnalyzeFn: func(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) (*weft.QualityReport, error) {
				return &weft.QualityReport{ItemCount: len(records), OverallScore: 30, PassesThreshold: false}, nil
			},
		}

		result, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{})
		require.NoError(t, err)
		assert.False(t, result.Report.PassesThreshold)
		assert.Len(t, result.Records, 1)
	})

	t.Run("degraded batch drops records below the record floor", func(t *testing.T) {
		t.Parallel()
		s := newTestSession(map[string]string{"https://example.com/products": "x"})
		s.Thresholds = weft.QualityThresholds{MinOverall: 70}
		s.Extractor = &mock.Extractor{
			ExtractListFn: func(html, baseURL, container string, rules map[string]weft.ExtractionRule) ([]*weft.ExtractedContent, error) {
				return []*weft.ExtractedContent{
					{Data: map[string]any{"title": "A Perfectly Normal Title"}},
					{Data: map[string]any{"junk": "zz"}},
				}, nil
			},
		}
		s.Quality = &mock.QualityAnalyzer{
			AnalyzeFn: func(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) (*weft.QualityReport, error) {
				return &weft.QualityReport{ItemCount: len(records), OverallScore: 30, PassesThreshold: false}, nil
			},
		}

		cached := testRecipe()
		cached.Weights = weft.QualityWeights{Completeness: 0.4, Accuracy: 0.4, Consistency: 0.2}

		result, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{Recipe: cached})
		require.NoError(t, err)

		require.Len(t, result.Records, 1)
		assert.Equal(t, "A Perfectly Normal Title", result.Records[0].Data["title"])
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "degraded floor")
	})
}

func TestSession_Scrape_FilterLowQuality(t *testing.T) {
	t.Parallel()

	s := newTestSession(map[string]string{
		"https://example.com/products": "item:good item:bad",
	})
	s.Quality = &mock.QualityAnalyzer{
		AnalyzeFn: func(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) (*weft.QualityReport, error) {
			return &weft.QualityReport{ItemCount: len(records), OverallScore: 90, PassesThreshold: true}, nil
		},
		FilterFn: func(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) []*weft.ExtractedRecord {
			var out []*weft.ExtractedRecord
			for _, r := range records {
				if r.Data["title"] == "good" {
					out = append(out, r)
				}
			}
			return out
		},
	}

	result, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{FilterLowQuality: true})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "good", result.Records[0].Data["title"])
}

func TestSession_Scrape_RecipeReplay(t *testing.T) {
	t.Parallel()

	s := newTestSession(map[string]string{
		"https://example.com/products": "item:a",
	})
	s.Schemas = &mock.SchemaGenerator{
		GenerateFn: func(analysis *weft.StructureAnalysis, html string, sctx weft.SchemaContext) (*weft.SchemaRecipe, error) {
			t.Fatal("schema generation must be skipped when a recipe is supplied")
			return nil, nil
		},
	}

	cached := testRecipe()
	cached.Version = "1.3"

	result, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{Recipe: cached})
	require.NoError(t, err)
	assert.Equal(t, cached, result.Recipe)
	assert.Equal(t, "1.3", result.Records[0].SchemaVersion)
}

func TestSession_Scrape_ReplaysStoredRecipe(t *testing.T) {
	t.Parallel()

	s := newTestSession(map[string]string{
		"https://example.com/products": "item:a",
	})
	s.Schemas = &mock.SchemaGenerator{
		GenerateFn: func(analysis *weft.StructureAnalysis, html string, sctx weft.SchemaContext) (*weft.SchemaRecipe, error) {
			t.Error("schema generation must be skipped when a stored recipe exists")
			return nil, nil
		},
	}

	cached := testRecipe()
	cached.Version = "2.0"
	var gotFilter weft.RecipeFilter
	s.Recipes = &mock.RecipeService{
		FindRecipesFn: func(ctx context.Context, filter weft.RecipeFilter) ([]*weft.StoredRecipe, error) {
			gotFilter = filter
			return []*weft.StoredRecipe{{ID: "stored-1", SiteURL: "https://example.com/products", Recipe: *cached}}, nil
		},
	}

	result, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{})
	require.NoError(t, err)

	require.NotNil(t, gotFilter.SiteURL)
	assert.Equal(t, "https://example.com/products", *gotFilter.SiteURL)
	assert.Equal(t, "2.0", result.Recipe.Version)
	assert.Equal(t, "2.0", result.Records[0].SchemaVersion)
}

func TestSession_Scrape_PersistsGeneratedRecipe(t *testing.T) {
	t.Parallel()

	s := newTestSession(map[string]string{
		"https://example.com/products": "item:a",
	})

	var stored *weft.StoredRecipe
	s.Recipes = &mock.RecipeService{
		FindRecipesFn: func(ctx context.Context, filter weft.RecipeFilter) ([]*weft.StoredRecipe, error) {
			return nil, nil
		},
		CreateRecipeFn: func(ctx context.Context, sr *weft.StoredRecipe) error {
			stored = sr
			return nil
		},
	}

	_, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{})
	require.NoError(t, err)

	require.NotNil(t, stored, "freshly generated recipes are cached for later runs")
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "https://example.com/products", stored.SiteURL)
	assert.Equal(t, "1.0", stored.Recipe.Version)
}

func TestSession_Scrape_RetryPolicyOverridesLimiter(t *testing.T) {
	t.Parallel()

	calls := 0
	s := newTestSession(nil)
	s.Fetcher = &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*weft.FetchResult, error) {
			calls++
			return nil, weft.NetworkErrorf(500, "flaky upstream")
		},
	}
	// The limiter would keep retrying; the session policy must win.
	s.Limiter = &mock.HostLimiter{
		ShouldRetryFn: func(host string, attempt int) bool { return true },
		RetryDelayFn: func(host string, attempt int, retryAfter time.Duration) time.Duration {
			return time.Millisecond
		},
	}
	s.RetryPolicy = crawl.RetryPolicy{MaxAttempts: 1, Strategy: crawl.DelayNone}

	_, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{})
	require.Error(t, err)
	assert.Equal(t, 2, calls, "initial call plus one policy-bounded retry")
}

func TestSession_Scrape_AuditSinkReceivesRecords(t *testing.T) {
	t.Parallel()

	s := newTestSession(map[string]string{
		"https://example.com/products": "item:a item:b",
	})

	got := make(chan int, 1)
	s.Audit = &mock.AuditSink{
		RecordFn: func(ctx context.Context, url string, records []*weft.ExtractedRecord) {
			got <- len(records)
		},
	}

	_, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{})
	require.NoError(t, err)

	select {
	case n := <-got:
		assert.Equal(t, 2, n)
	case <-time.After(time.Second):
		t.Fatal("audit sink was never invoked")
	}
}

func TestSession_Scrape_RetriesViaLimiter(t *testing.T) {
	t.Parallel()

	calls := 0
	s := newTestSession(nil)
	s.Fetcher = &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*weft.FetchResult, error) {
			calls++
			if calls < 3 {
				return nil, weft.RateLimitErrorf(0, "slow down")
			}
			return &weft.FetchResult{HTML: "item:a", FinalURL: url, StatusCode: 200}, nil
		},
	}
	s.Limiter = &mock.HostLimiter{
		ShouldRetryFn: func(host string, attempt int) bool { return attempt < 3 },
		RetryDelayFn: func(host string, attempt int, retryAfter time.Duration) time.Duration {
			return time.Millisecond
		},
	}

	result, err := s.Scrape(context.Background(), "https://example.com/products", crawl.ScrapeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, result.Records, 1)
}

func TestSession_Plan_PersistsArtifacts(t *testing.T) {
	t.Parallel()

	s := newTestSession(map[string]string{
		"https://example.com/products": "item:a",
	})

	var storedRecipe *weft.StoredRecipe
	var storedStrategy *weft.StoredStrategy
	s.Recipes = &mock.RecipeService{
		CreateRecipeFn: func(ctx context.Context, sr *weft.StoredRecipe) error {
			storedRecipe = sr
			return nil
		},
	}
	s.StrategyStore = &mock.StrategyService{
		CreateStrategyFn: func(ctx context.Context, ss *weft.StoredStrategy) error {
			storedStrategy = ss
			return nil
		},
	}

	plan, err := s.Plan(context.Background(), "https://example.com/products", weft.SchemaContext{}, weft.StrategyContext{})
	require.NoError(t, err)
	assert.NotNil(t, plan.Analysis)
	assert.NotNil(t, plan.Recipe)
	assert.NotNil(t, plan.Strategy)

	require.NotNil(t, storedRecipe)
	assert.NotEmpty(t, storedRecipe.ID)
	assert.Equal(t, "https://example.com/products", storedRecipe.SiteURL)
	require.NotNil(t, storedStrategy)
	assert.NotEmpty(t, storedStrategy.ID)
}

func TestSession_Analyze(t *testing.T) {
	t.Parallel()

	s := newTestSession(map[string]string{
		"https://example.com": "item:a",
	})

	analysis, err := s.Analyze(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", analysis.SourceURL)

	_, err = s.Analyze(context.Background(), "not-a-url")
	require.Error(t, err)
	assert.Equal(t, weft.EINVALID, weft.ErrorCode(err))
}

func TestSession_Scrape_InfiniteScrollSeedOnly(t *testing.T) {
	t.Parallel()

	fetches := 0
	s := newTestSession(nil)
	s.Fetcher = &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*weft.FetchResult, error) {
			fetches++
			return &weft.FetchResult{HTML: fmt.Sprintf("item:n%d", fetches), FinalURL: url, StatusCode: 200}, nil
		},
	}
	s.Strategies = &mock.StrategyGenerator{
		GenerateFn: func(analysis *weft.StructureAnalysis, sctx weft.StrategyContext) (*weft.ScrapingStrategy, error) {
			st := testStrategy()
			st.PaginationMode = weft.InfiniteScroll
			st.MaxPages = 10
			return st, nil
		},
	}

	result, err := s.Scrape(context.Background(), "https://example.com/feed", crawl.ScrapeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, fetches, "scroll-driven pagination cannot advance without script execution")
	assert.Equal(t, 1, result.PagesFetched)
}
