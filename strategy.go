package weft

import "time"

// ScrapeType identifies the overall shape of a scraping run.
type ScrapeType string

// Scrape types.
const (
	ScrapeList    ScrapeType = "list"
	ScrapeDetail  ScrapeType = "detail"
	ScrapeSearch  ScrapeType = "search"
	ScrapeSitemap ScrapeType = "sitemap"
)

// ValidScrapeType reports whether t is a known scrape type.
func ValidScrapeType(t ScrapeType) bool {
	switch t {
	case ScrapeList, ScrapeDetail, ScrapeSearch, ScrapeSitemap:
		return true
	}
	return false
}

// PaginationMode identifies how a strategy advances across pages.
type PaginationMode string

// Pagination modes.
const (
	PageNumbers    PaginationMode = "page_numbers"
	NextLink       PaginationMode = "next_link"
	InfiniteScroll PaginationMode = "infinite_scroll"
	LoadMore       PaginationMode = "load_more"
)

// MinRequestDelay is the smallest pacing delay a valid strategy may
// carry.
const MinRequestDelay = 100 * time.Millisecond

// ScrapingStrategy describes how to scrape one site: what to select,
// how to paginate, and how fast to go. Strategies are immutable value
// objects that may be cached and replayed across many fetches.
type ScrapingStrategy struct {
	ScrapeType      ScrapeType        `json:"scrapeType"`
	TargetSelectors []string          `json:"targetSelectors"`
	PaginationMode  PaginationMode    `json:"paginationMode,omitempty"`
	ContentFilters  []string          `json:"contentFilters,omitempty"`
	ExtractionRules map[string]string `json:"extractionRules,omitempty"`
	MaxPages        int               `json:"maxPages"`
	RequestDelay    time.Duration     `json:"requestDelay"`
}

// Validate returns an error if the strategy violates its structural
// invariants. Selector syntax is validated separately by the strategy
// generator, which owns the CSS parser dependency.
func (s *ScrapingStrategy) Validate() error {
	if !ValidScrapeType(s.ScrapeType) {
		return Errorf(EINVALID, "unknown scrape type %q", s.ScrapeType)
	}
	if len(s.TargetSelectors) == 0 {
		return Errorf(EINVALID, "strategy requires at least one target selector")
	}
	for _, sel := range s.TargetSelectors {
		if sel == "" {
			return Errorf(EINVALID, "strategy target selector must be non-empty")
		}
	}
	if s.MaxPages < 1 {
		return Errorf(EINVALID, "strategy max pages must be >= 1, got %d", s.MaxPages)
	}
	if s.RequestDelay < MinRequestDelay {
		return Errorf(EINVALID, "strategy request delay must be >= %s, got %s", MinRequestDelay, s.RequestDelay)
	}
	return nil
}

// StrategyContext carries the caller's intent into strategy generation.
type StrategyContext struct {
	UserCriteria      string
	TargetContentType string
	QualityThreshold  float64
	MaxResults        int
	IncludePagination bool
	ExtractionDepth   int
}

// StrategyGenerator chooses a scrape mode, target selectors, pagination
// mode, and per-request pacing from an analysis and the caller's intent.
type StrategyGenerator interface {
	// Generate returns a validated strategy for the analyzed site.
	Generate(analysis *StructureAnalysis, sctx StrategyContext) (*ScrapingStrategy, error)
}
