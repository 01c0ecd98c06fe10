// Package crawl provides scrape orchestration. A Session coordinates
// robots gating, rate limiting, fetching, structure analysis, schema
// and strategy generation, extraction, and quality scoring into one
// adaptive pipeline.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/weftlabs/weft"
	"github.com/weftlabs/weft/quality"
	"golang.org/x/sync/errgroup"
)

// Session orchestrates scraping runs against one or more sites.
type Session struct {
	Fetcher    weft.Fetcher
	Robots     weft.RobotsPolicy
	Limiter    weft.HostLimiter
	Analyzer   weft.Analyzer
	Schemas    weft.SchemaGenerator
	Strategies weft.StrategyGenerator
	Extractor  weft.Extractor

	// MainContent is the boilerplate-stripping fallback used when
	// detail-mode selector extraction finds nothing. Optional.
	MainContent weft.MainExtractor

	Quality weft.QualityAnalyzer

	// Recipes and StrategyStore persist generated artifacts for replay.
	// Optional.
	Recipes       weft.RecipeService
	StrategyStore weft.StrategyService

	// Audit receives record batches after extraction. The session never
	// blocks on it. Optional.
	Audit weft.AuditSink

	UserAgent   string
	Concurrency int

	// RetryPolicy overrides the limiter's retry schedule when its
	// MaxAttempts is positive. The zero value defers to the limiter.
	RetryPolicy RetryPolicy

	Thresholds weft.QualityThresholds
}

// Result holds the outcome of one scrape run. A run that hit per-page
// failures still returns the records it did extract; the failures are
// listed in Errors.
type Result struct {
	Records      []*weft.ExtractedRecord
	Report       *weft.QualityReport
	Recipe       *weft.SchemaRecipe
	Strategy     *weft.ScrapingStrategy
	PagesFetched int
	Errors       []string
}

// ProgressEvent reports progress during a scrape.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the kind of progress event.
type ProgressType int

// Progress event kinds.
const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting scrape progress.
type ProgressFunc func(event ProgressEvent)

// ScrapeOptions tune one scrape run.
type ScrapeOptions struct {
	Schema   weft.SchemaContext
	Strategy weft.StrategyContext

	// Recipe replays a cached recipe instead of generating one.
	Recipe *weft.SchemaRecipe

	// FilterLowQuality drops records that individually fail the
	// thresholds instead of returning them.
	FilterLowQuality bool

	Progress ProgressFunc
}

// slotPollInterval is how often a worker re-checks a saturated host.
const slotPollInterval = 50 * time.Millisecond

// Frontier sizing for pagination walks.
const (
	frontierExpectedURLs      = 10000
	frontierFalsePositiveRate = 0.01
)

// Analyze fetches one page, honoring robots and rate limits, and
// returns its structural analysis.
func (s *Session) Analyze(ctx context.Context, pageURL string) (*weft.StructureAnalysis, error) {
	res, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return s.Analyzer.Analyze(res.HTML, res.FinalURL)
}

// Plan holds the generated artifacts for one site.
type Plan struct {
	Analysis *weft.StructureAnalysis
	Recipe   *weft.SchemaRecipe
	Strategy *weft.ScrapingStrategy
}

// Plan analyzes the site and generates a schema recipe and scraping
// strategy, persisting both when stores are configured.
func (s *Session) Plan(ctx context.Context, pageURL string, schemaCtx weft.SchemaContext, strategyCtx weft.StrategyContext) (*Plan, error) {
	res, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	analysis, err := s.Analyzer.Analyze(res.HTML, res.FinalURL)
	if err != nil {
		return nil, err
	}
	recipe, err := s.Schemas.Generate(analysis, res.HTML, schemaCtx)
	if err != nil {
		return nil, err
	}
	strategy, err := s.Strategies.Generate(analysis, strategyCtx)
	if err != nil {
		return nil, err
	}

	if s.Recipes != nil {
		sr := &weft.StoredRecipe{
			ID:      uuid.NewString(),
			SiteURL: pageURL,
			Recipe:  *recipe,
		}
		if err := s.Recipes.CreateRecipe(ctx, sr); err != nil {
			return nil, err
		}
	}
	if s.StrategyStore != nil {
		ss := &weft.StoredStrategy{
			ID:       uuid.NewString(),
			SiteURL:  pageURL,
			Strategy: *strategy,
		}
		if err := s.StrategyStore.CreateStrategy(ctx, ss); err != nil {
			return nil, err
		}
	}

	return &Plan{Analysis: analysis, Recipe: recipe, Strategy: strategy}, nil
}

// Scrape runs the full pipeline against a site: analyze, plan, walk
// pages, extract, and score. Per-page failures are collected, not
// fatal. An EQUALITY error is returned when the batch misses its
// thresholds and is not even acceptable as a degraded result.
func (s *Session) Scrape(ctx context.Context, pageURL string, opts ScrapeOptions) (*Result, error) {
	seed, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	analysis, err := s.Analyzer.Analyze(seed.HTML, seed.FinalURL)
	if err != nil {
		return nil, err
	}
	recipe, err := s.resolveRecipe(ctx, pageURL, analysis, seed.HTML, opts)
	if err != nil {
		return nil, err
	}
	strategy, err := s.Strategies.Generate(analysis, opts.Strategy)
	if err != nil {
		return nil, err
	}

	result := &Result{Recipe: recipe, Strategy: strategy}
	collector := newCollector(recipe.Version)

	// The seed page is already fetched.
	s.extractPage(seed, strategy, recipe, collector)
	result.PagesFetched = 1

	switch strategy.PaginationMode {
	case weft.PageNumbers:
		s.scrapeNumberedPages(ctx, pageURL, strategy, recipe, collector, result, opts.Progress)
	case weft.NextLink:
		s.walkNextLinks(ctx, seed, analysis, strategy, recipe, collector, result, opts.Progress)
	}
	// Infinite scroll and load-more need script execution to advance;
	// only the seed page's content is extractable.

	result.Records = collector.records()
	result.Errors = append(result.Errors, collector.issues()...)

	report, err := s.Quality.Analyze(result.Records, recipe, s.Thresholds)
	if err != nil {
		return nil, err
	}
	result.Report = report

	if opts.FilterLowQuality {
		result.Records = s.Quality.Filter(result.Records, recipe, s.Thresholds)
	}

	// A degraded batch keeps only the records that individually clear
	// the degraded floor.
	if !report.PassesThreshold && quality.AcceptDegraded(report, s.Thresholds) {
		kept, dropped := quality.DegradeFilter(result.Records, recipe, s.Thresholds)
		result.Records = kept
		result.Errors = append(result.Errors, dropped...)
	}

	if s.Audit != nil {
		records := result.Records
		go s.Audit.Record(context.WithoutCancel(ctx), pageURL, records)
	}

	if opts.Progress != nil {
		opts.Progress(ProgressEvent{Type: ProgressFinished, Completed: result.PagesFetched, Total: result.PagesFetched})
	}

	if !report.PassesThreshold && !quality.AcceptDegraded(report, s.Thresholds) {
		return result, weft.QualityErrorf(report.OverallScore, s.Thresholds.MinOverall,
			"batch quality %.1f below threshold %.1f", report.OverallScore, s.Thresholds.MinOverall)
	}
	return result, nil
}

// resolveRecipe picks the recipe for a run: an explicitly supplied one
// wins, then the newest stored recipe for the site, then a freshly
// generated one, which is persisted for later runs when a store is
// configured.
func (s *Session) resolveRecipe(ctx context.Context, siteURL string, analysis *weft.StructureAnalysis, html string, opts ScrapeOptions) (*weft.SchemaRecipe, error) {
	if opts.Recipe != nil {
		return opts.Recipe, nil
	}

	if s.Recipes != nil {
		stored, err := s.Recipes.FindRecipes(ctx, weft.RecipeFilter{SiteURL: &siteURL, Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(stored) > 0 {
			return &stored[0].Recipe, nil
		}
	}

	recipe, err := s.Schemas.Generate(analysis, html, opts.Schema)
	if err != nil {
		return nil, err
	}
	if s.Recipes != nil {
		sr := &weft.StoredRecipe{
			ID:      uuid.NewString(),
			SiteURL: siteURL,
			Recipe:  *recipe,
		}
		if err := s.Recipes.CreateRecipe(ctx, sr); err != nil {
			return nil, err
		}
	}
	return recipe, nil
}

// scrapeNumberedPages enumerates page URLs up front and processes them
// with a bounded worker pool.
func (s *Session) scrapeNumberedPages(ctx context.Context, pageURL string, strategy *weft.ScrapingStrategy, recipe *weft.SchemaRecipe, collector *collector, result *Result, progress ProgressFunc) {
	urls := numberedPageURLs(pageURL, strategy.MaxPages)
	if len(urls) == 0 {
		return
	}

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: len(urls) + 1})
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, u := range urls {
		g.Go(func() error {
			res, err := s.fetchPage(gctx, u)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", u, weft.ErrorMessage(err)))
				if progress != nil {
					progress(ProgressEvent{Type: ProgressFailed, URL: u, Error: err})
				}
				return nil
			}
			result.PagesFetched++
			s.extractPage(res, strategy, recipe, collector)
			if progress != nil {
				progress(ProgressEvent{Type: ProgressCompleted, Completed: result.PagesFetched, URL: u})
			}
			return nil
		})
	}
	_ = g.Wait()
}

// walkNextLinks follows next-page links sequentially through a
// deduplicating frontier. Sequential processing keeps per-host pacing
// simple; the host limiter already serializes same-host requests.
func (s *Session) walkNextLinks(ctx context.Context, seed *weft.FetchResult, analysis *weft.StructureAnalysis, strategy *weft.ScrapingStrategy, recipe *weft.SchemaRecipe, collector *collector, result *Result, progress ProgressFunc) {
	nextSel := nextLinkSelector(analysis)
	if nextSel == "" {
		return
	}

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	frontier.Push(PageLink{URL: seed.FinalURL, Priority: PrioritySeed, Page: 1})

	html, base := seed.HTML, seed.FinalURL
	for page := 2; page <= strategy.MaxPages; page++ {
		next := s.nextPageURL(html, base, nextSel)
		if next == "" || !frontier.Push(PageLink{URL: next, Priority: PriorityPagination, Page: page}) {
			return
		}

		res, err := s.fetchPage(ctx, next)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", next, weft.ErrorMessage(err)))
			if progress != nil {
				progress(ProgressEvent{Type: ProgressFailed, URL: next, Error: err})
			}
			return
		}
		result.PagesFetched++
		s.extractPage(res, strategy, recipe, collector)
		if progress != nil {
			progress(ProgressEvent{Type: ProgressCompleted, Completed: result.PagesFetched, URL: next})
		}
		html, base = res.HTML, res.FinalURL
	}
}

// nextPageURL pulls the next-page href out of a fetched page by running
// the extractor with a single href rule.
func (s *Session) nextPageURL(html, baseURL, nextSel string) string {
	rules := map[string]weft.ExtractionRule{
		"next": {Selector: nextSel, Kind: weft.KindHref},
	}
	content, err := s.Extractor.Extract(html, baseURL, rules)
	if err != nil {
		return ""
	}
	next, _ := content.Data["next"].(string)
	return next
}

// extractPage applies the recipe to one fetched page and feeds the
// results into the collector. List-mode extraction tries each target
// selector until one yields containers; detail mode extracts the whole
// document with a main-content fallback.
func (s *Session) extractPage(res *weft.FetchResult, strategy *weft.ScrapingStrategy, recipe *weft.SchemaRecipe, collector *collector) {
	rules := recipe.ExtractionRules()

	if strategy.ScrapeType == weft.ScrapeDetail {
		content, err := s.Extractor.Extract(res.HTML, res.FinalURL, rules)
		if err != nil {
			collector.addIssue(fmt.Sprintf("%s: %s", res.FinalURL, weft.ErrorMessage(err)))
			return
		}
		if len(content.Data) == 0 && s.MainContent != nil {
			content = s.mainContentFallback(res.HTML)
		}
		collector.add(res.FinalURL, content)
		return
	}

	for _, sel := range strategy.TargetSelectors {
		contents, err := s.Extractor.ExtractList(res.HTML, res.FinalURL, sel, rules)
		if err != nil {
			collector.addIssue(fmt.Sprintf("%s: %s", res.FinalURL, weft.ErrorMessage(err)))
			return
		}
		if len(contents) == 0 {
			continue
		}
		for _, content := range contents {
			collector.add(res.FinalURL, content)
		}
		return
	}
	collector.addIssue(fmt.Sprintf("%s: no target selector matched", res.FinalURL))
}

// mainContentFallback converts boilerplate-stripped main content into
// an extraction result with title and content fields.
func (s *Session) mainContentFallback(html string) *weft.ExtractedContent {
	main, err := s.MainContent.ExtractMain(html)
	if err != nil || main == nil || main.Text == "" {
		return &weft.ExtractedContent{Data: map[string]any{}, Metadata: map[string]string{}}
	}
	return &weft.ExtractedContent{
		Data: map[string]any{
			"title":   main.Title,
			"content": main.Text,
		},
		QualityScore: 50,
		Confidence:   0.5,
		Metadata:     map[string]string{"extraction": "main_content_fallback"},
	}
}

// fetchPage gates one fetch behind robots policy, host concurrency, and
// adaptive pacing, with limiter-driven retries. Robots denial
// short-circuits before any slot is taken.
func (s *Session) fetchPage(ctx context.Context, pageURL string) (*weft.FetchResult, error) {
	host, err := hostOf(pageURL)
	if err != nil {
		return nil, err
	}

	if s.Robots != nil {
		allowed, err := s.Robots.CanFetch(ctx, pageURL, s.UserAgent)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, weft.Errorf(weft.EINVALID, "robots.txt disallows fetching %s", pageURL)
		}
	}

	if err := s.acquireSlot(ctx, host); err != nil {
		return nil, err
	}
	defer s.Limiter.ReleaseSlot(host)

	for attempt := 0; ; attempt++ {
		if err := s.Limiter.Wait(ctx, host); err != nil {
			return nil, err
		}

		start := time.Now()
		res, err := s.Fetcher.Fetch(ctx, pageURL)
		s.Limiter.RecordResult(host, err == nil, time.Since(start))
		if err == nil {
			return res, nil
		}

		if !weft.Retryable(err) || !s.shouldRetry(host, attempt) {
			return nil, err
		}

		delay := s.retryDelay(host, attempt, weft.RetryAfterHint(err))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// shouldRetry consults the session's retry policy when one is
// configured, otherwise the limiter's bound.
func (s *Session) shouldRetry(host string, attempt int) bool {
	if s.RetryPolicy.MaxAttempts > 0 {
		return attempt < s.RetryPolicy.MaxAttempts
	}
	return s.Limiter.ShouldRetry(host, attempt)
}

// retryDelay follows the session policy's schedule when one is
// configured. A server hint wins either way, capped at the applicable
// maximum.
func (s *Session) retryDelay(host string, attempt int, hint time.Duration) time.Duration {
	p := s.RetryPolicy
	if p.MaxAttempts <= 0 {
		return s.Limiter.RetryDelay(host, attempt, hint)
	}
	if hint > 0 {
		if p.MaxDelay > 0 {
			return min(hint, p.MaxDelay)
		}
		return hint
	}
	return p.Delay(attempt)
}

// acquireSlot blocks until a concurrency slot is free or the context is
// canceled.
func (s *Session) acquireSlot(ctx context.Context, host string) error {
	for {
		if s.Limiter.AcquireSlot(host) {
			return nil
		}
		timer := time.NewTimer(slotPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// collector accumulates deduplicated records across pages.
type collector struct {
	mu      sync.Mutex
	version string
	seen    map[string]bool
	out     []*weft.ExtractedRecord
	errs    []string
}

func newCollector(version string) *collector {
	return &collector{version: version, seen: map[string]bool{}}
}

// add converts one extraction into a record, dropping empty and
// duplicate results. Duplicates are detected by content hash.
func (c *collector) add(sourceURL string, content *weft.ExtractedContent) {
	if content == nil || len(content.Data) == 0 {
		return
	}

	record := &weft.ExtractedRecord{
		ID:            uuid.NewString(),
		SourceURL:     sourceURL,
		Data:          content.Data,
		QualityScore:  content.QualityScore,
		ScrapedAt:     time.Now(),
		SchemaVersion: c.version,
		ContentHash:   hashData(content.Data),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[record.ContentHash] {
		return
	}
	c.seen[record.ContentHash] = true
	c.out = append(c.out, record)
}

func (c *collector) addIssue(issue string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, issue)
}

func (c *collector) records() []*weft.ExtractedRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out
}

func (c *collector) issues() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs
}

// hashData computes a stable xxhash over a record's field values.
func hashData(data map[string]any) string {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	h := xxhash.New()
	for _, name := range names {
		_, _ = h.WriteString(name)
		_, _ = h.WriteString("=")
		_, _ = fmt.Fprintf(h, "%v", data[name])
		_, _ = h.WriteString("\n")
	}
	return fmt.Sprintf("%x", h.Sum64())
}

// numberedPageURLs builds the page 2..maxPages URLs by setting the page
// query parameter.
func numberedPageURLs(pageURL string, maxPages int) []string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	var out []string
	for page := 2; page <= maxPages; page++ {
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		next := *u
		next.RawQuery = q.Encode()
		out = append(out, next.String())
	}
	return out
}

// nextLinkSelector pulls the analyzer's next-link selector out of the
// pagination descriptor.
func nextLinkSelector(analysis *weft.StructureAnalysis) string {
	if analysis.Pagination == nil {
		return ""
	}
	return analysis.Pagination.Selectors["next"]
}

func hostOf(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return "", weft.Errorf(weft.EINVALID, "invalid url %q", pageURL)
	}
	return u.Host, nil
}
