// Package strategy implements weft's strategy generator: it chooses a
// scrape mode, target selectors, pagination mode, and per-request
// pacing from a structural analysis and the caller's intent.
package strategy

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.StrategyGenerator = (*Generator)(nil)

// Generator derives validated scraping strategies. It is stateless and
// safe for concurrent use.
type Generator struct{}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Scrape-type scoring weights per detected pattern kind.
const (
	listWeight       = 2.0
	productWeight    = 1.8
	articleWeight    = 1.5
	navigationWeight = 0.5

	// containerBonus is added per discovered list container.
	containerBonus = 0.2

	// detailBonus rewards sparse pages with an identified main content
	// region.
	detailBonus = 1.0

	// minScore is the score a type must exceed to beat the list
	// default.
	minScore = 0.5
)

// Pacing constants.
const (
	baseDelay        = time.Second
	maxDelay         = 5 * time.Second
	slowTLDFactor    = 2.0
	largePageFactor  = 1.5
	mediumPageFactor = 1.2
	largePageCount   = 100
	mediumPageCount  = 50
)

// genericSelectors are the fixed fallbacks per scrape type, used when
// the analyzer discovered nothing for the chosen type. They are never
// empty: an empty selector list is a construction error.
var genericSelectors = map[weft.ScrapeType][]string{
	weft.ScrapeList:    {"ul > li", "ol > li", ".list .item", ".results > *", "table tbody tr"},
	weft.ScrapeDetail:  {"article", "main", ".content", "#content"},
	weft.ScrapeSearch:  {".search-results .result", ".results li", ".search-result"},
	weft.ScrapeSitemap: {"nav a[href]", "a[href]"},
}

// defaultExtractionHints seed a strategy's field-to-selector hints per
// scrape type; the schema recipe's rules take precedence at extraction
// time.
var defaultExtractionHints = map[weft.ScrapeType]map[string]string{
	weft.ScrapeList:    {"title": "h1, h2, h3, .title", "link": "a[href]"},
	weft.ScrapeDetail:  {"title": "h1", "description": "p"},
	weft.ScrapeSearch:  {"title": "h2, h3, .title", "link": "a[href]"},
	weft.ScrapeSitemap: {"link": "a[href]"},
}

// Generate returns a validated strategy for the analyzed site.
func (g *Generator) Generate(analysis *weft.StructureAnalysis, sctx weft.StrategyContext) (*weft.ScrapingStrategy, error) {
	scrapeType := chooseScrapeType(analysis, sctx)

	s := &weft.ScrapingStrategy{
		ScrapeType:      scrapeType,
		TargetSelectors: targetSelectors(analysis, scrapeType),
		ContentFilters:  contentFilters(sctx.UserCriteria),
		ExtractionRules: defaultExtractionHints[scrapeType],
		MaxPages:        maxPagesFor(sctx.MaxResults),
		RequestDelay:    requestDelay(analysis),
	}
	if sctx.IncludePagination {
		s.PaginationMode = paginationMode(analysis)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := validateSelectors(s.TargetSelectors); err != nil {
		return nil, err
	}
	return s, nil
}

// chooseScrapeType uses the context's concrete type when it names one,
// otherwise scores the candidates from the detected patterns and picks
// the max, defaulting to list when nothing scores convincingly.
func chooseScrapeType(analysis *weft.StructureAnalysis, sctx weft.StrategyContext) weft.ScrapeType {
	if t := weft.ScrapeType(sctx.TargetContentType); weft.ValidScrapeType(t) {
		return t
	}

	scores := map[weft.ScrapeType]float64{}
	for _, p := range analysis.ContentPatterns {
		switch p.Kind {
		case weft.PatternList:
			scores[weft.ScrapeList] += listWeight * p.Confidence
		case weft.PatternProduct:
			scores[weft.ScrapeList] += productWeight * p.Confidence
		case weft.PatternArticle:
			scores[weft.ScrapeDetail] += articleWeight * p.Confidence
		case weft.PatternNavigation:
			scores[weft.ScrapeSitemap] += navigationWeight * p.Confidence
		}
	}

	scores[weft.ScrapeList] += containerBonus * float64(len(analysis.ListContainers))
	if len(analysis.ContentPatterns) <= 3 && analysis.MainContentSelector != "" {
		scores[weft.ScrapeDetail] += detailBonus
	}

	best, bestScore := weft.ScrapeList, 0.0
	for _, t := range []weft.ScrapeType{weft.ScrapeList, weft.ScrapeDetail, weft.ScrapeSearch, weft.ScrapeSitemap} {
		if scores[t] > bestScore {
			best, bestScore = t, scores[t]
		}
	}
	if bestScore <= minScore {
		return weft.ScrapeList
	}
	return best
}

// targetSelectors prefers analyzer-discovered containers and patterns
// for the chosen type, falling back to the fixed generic list.
func targetSelectors(analysis *weft.StructureAnalysis, scrapeType weft.ScrapeType) []string {
	var out []string
	switch scrapeType {
	case weft.ScrapeList:
		out = append(out, analysis.ItemSelectors...)
		if len(out) == 0 {
			out = append(out, analysis.ListContainers...)
		}
		if len(out) == 0 {
			out = patternSelectors(analysis, weft.PatternList, weft.PatternProduct)
		}
	case weft.ScrapeDetail:
		if analysis.MainContentSelector != "" {
			out = append(out, analysis.MainContentSelector)
		}
		out = append(out, patternSelectors(analysis, weft.PatternArticle)...)
	case weft.ScrapeSitemap:
		out = patternSelectors(analysis, weft.PatternNavigation)
	}

	out = dedupSelectors(out)
	if len(out) == 0 {
		out = genericSelectors[scrapeType]
	}
	return out
}

func patternSelectors(analysis *weft.StructureAnalysis, kinds ...weft.PatternKind) []string {
	var out []string
	for _, kind := range kinds {
		for _, p := range analysis.PatternsOfKind(kind) {
			if p.Selector != "" {
				out = append(out, p.Selector)
			}
		}
	}
	return out
}

// paginationMode maps the analyzer's descriptor onto a strategy mode,
// inferring from any pagination-typed pattern's selector text when no
// descriptor exists.
func paginationMode(analysis *weft.StructureAnalysis) weft.PaginationMode {
	if d := analysis.Pagination; d != nil {
		switch d.Type {
		case weft.PaginationNumbered:
			return weft.PageNumbers
		case weft.PaginationInfiniteScroll:
			return weft.InfiniteScroll
		case weft.PaginationLoadMore:
			return weft.LoadMore
		case weft.PaginationNextPrev, weft.PaginationCursor:
			return weft.NextLink
		}
	}

	for _, p := range analysis.PatternsOfKind(weft.PatternPagination) {
		sel := strings.ToLower(p.Selector)
		switch {
		case strings.Contains(sel, "infinite"):
			return weft.InfiniteScroll
		case strings.Contains(sel, "load") || strings.Contains(sel, "more"):
			return weft.LoadMore
		case strings.Contains(sel, "next"):
			return weft.NextLink
		case strings.Contains(sel, "pag"):
			return weft.PageNumbers
		}
	}
	return ""
}

// maxPagesFor is a monotone step function of the requested result
// count.
func maxPagesFor(maxResults int) int {
	if maxResults <= 0 {
		maxResults = 10
	}
	switch {
	case maxResults <= 10:
		return 1
	case maxResults <= 50:
		return 5
	case maxResults <= 100:
		return 10
	default:
		return 20
	}
}

// requestDelay starts at one second, doubles for institutional TLDs,
// and scales with page element count, capped at five seconds.
func requestDelay(analysis *weft.StructureAnalysis) time.Duration {
	delay := float64(baseDelay)

	if u, err := url.Parse(analysis.SourceURL); err == nil {
		host := strings.ToLower(u.Hostname())
		for _, tld := range []string{".gov", ".edu", ".org"} {
			if strings.HasSuffix(host, tld) {
				delay *= slowTLDFactor
				break
			}
		}
	}

	if count, err := strconv.Atoi(analysis.Metadata["element_count"]); err == nil {
		switch {
		case count > largePageCount:
			delay *= largePageFactor
		case count > mediumPageCount:
			delay *= mediumPageFactor
		}
	}

	return min(time.Duration(delay), maxDelay)
}

// contentFilters derives keyword filters from the free-text criteria.
func contentFilters(criteria string) []string {
	var out []string
	for _, word := range strings.Fields(strings.ToLower(criteria)) {
		word = strings.Trim(word, ".,;:!?\"'")
		if len(word) > 3 {
			out = append(out, word)
		}
		if len(out) == 5 {
			break
		}
	}
	return out
}

// validateSelectors rejects any selector that does not parse as CSS.
func validateSelectors(selectors []string) error {
	for _, sel := range selectors {
		if _, err := cascadia.ParseGroup(sel); err != nil {
			return weft.Errorf(weft.EINVALID, "invalid target selector %q: %v", sel, err)
		}
	}
	return nil
}

func dedupSelectors(selectors []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, sel := range selectors {
		if sel != "" && !seen[sel] {
			seen[sel] = true
			out = append(out, sel)
		}
	}
	return out
}
