package main

import (
	"encoding/json"
	"fmt"

	"github.com/weftlabs/weft"
	"github.com/weftlabs/weft/crawl"
)

// Run executes the plan command.
func (c *PlanCmd) Run(deps *Dependencies) error {
	schemaCtx := weft.SchemaContext{
		UserCriteria:      c.Criteria,
		TargetContentType: c.ContentType,
		FieldPreferences:  c.Fields,
	}
	strategyCtx := weft.StrategyContext{
		UserCriteria:      c.Criteria,
		TargetContentType: c.ContentType,
		IncludePagination: true,
	}

	plan, err := deps.Session.Plan(deps.Ctx, c.URL, schemaCtx, strategyCtx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", weft.ErrorMessage(err))
		return err
	}

	out, err := json.MarshalIndent(struct {
		Recipe   *weft.SchemaRecipe     `json:"recipe"`
		Strategy *weft.ScrapingStrategy `json:"strategy"`
	}{plan.Recipe, plan.Strategy}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, string(out))
	return nil
}

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	deps.Session.Thresholds = weft.QualityThresholds{MinOverall: c.MinQuality}

	opts := crawl.ScrapeOptions{
		Schema: weft.SchemaContext{
			UserCriteria:      c.Criteria,
			TargetContentType: c.ContentType,
		},
		Strategy: weft.StrategyContext{
			UserCriteria:      c.Criteria,
			TargetContentType: c.ContentType,
			MaxResults:        c.MaxResults,
			IncludePagination: c.Paginate,
		},
		FilterLowQuality: c.Filter,
		Progress: func(ev crawl.ProgressEvent) {
			if ev.Type == crawl.ProgressFailed {
				fmt.Fprintf(deps.Stderr, "failed %s: %v\n", ev.URL, ev.Error)
			}
		},
	}

	result, err := deps.Session.Scrape(deps.Ctx, c.URL, opts)
	if err != nil && result == nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", weft.ErrorMessage(err))
		return err
	}
	if err != nil {
		// Partial result below quality threshold: report it but still
		// show what was extracted.
		fmt.Fprintf(deps.Stderr, "warning: %s\n", weft.ErrorMessage(err))
	}

	out, jsonErr := json.MarshalIndent(struct {
		Records []*weft.ExtractedRecord `json:"records"`
		Report  *weft.QualityReport     `json:"report"`
		Pages   int                     `json:"pagesFetched"`
		Errors  []string                `json:"errors,omitempty"`
	}{result.Records, result.Report, result.PagesFetched, result.Errors}, "", "  ")
	if jsonErr != nil {
		return jsonErr
	}
	fmt.Fprintln(deps.Stdout, string(out))
	return nil
}
