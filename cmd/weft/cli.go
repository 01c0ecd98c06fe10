package main

import (
	"context"
	"io"

	"github.com/weftlabs/weft"
	"github.com/weftlabs/weft/crawl"
	"github.com/weftlabs/weft/sqlite"
)

// Dependencies holds all services and configuration for command
// execution.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	DB         *sqlite.DB
	Session    *crawl.Session
	Recipes    weft.RecipeService
	Strategies weft.StrategyService
	Sitemaps   weft.SitemapService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Analyze  AnalyzeCmd  `cmd:"" help:"Analyze a page's structure"`
	Plan     PlanCmd     `cmd:"" help:"Generate and store a schema recipe and scraping strategy for a site"`
	Scrape   ScrapeCmd   `cmd:"" help:"Run the full extraction pipeline against a site"`
	Recipes  RecipesCmd  `cmd:"" help:"List stored schema recipes"`
	Delete   DeleteCmd   `cmd:"" help:"Delete a stored recipe"`
	Discover DiscoverCmd `cmd:"" help:"Discover page URLs from a site's sitemaps"`

	Verbose bool `short:"v" help:"Log service calls to stderr"`
}

// AnalyzeCmd is the "analyze" subcommand.
type AnalyzeCmd struct {
	URL string `arg:"" help:"Page URL to analyze"`
}

// PlanCmd is the "plan" subcommand.
type PlanCmd struct {
	URL         string   `arg:"" help:"Page URL to plan against"`
	Criteria    string   `short:"c" help:"Free-text description of what to extract"`
	ContentType string   `short:"t" help:"Target content type (list, detail, search, sitemap)"`
	Fields      []string `short:"F" help:"Preferred field names (repeatable)"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	URL         string  `arg:"" help:"Page URL to scrape"`
	Criteria    string  `short:"c" help:"Free-text description of what to extract"`
	ContentType string  `short:"t" help:"Target content type (list, detail, search, sitemap)"`
	MaxResults  int     `short:"n" default:"50" help:"Approximate number of records wanted"`
	Paginate    bool    `short:"p" help:"Follow pagination"`
	MinQuality  float64 `short:"q" default:"40" help:"Minimum overall batch quality score (0-100)"`
	Filter      bool    `short:"f" help:"Drop records that individually fail the quality thresholds"`
}

// RecipesCmd is the "recipes" subcommand.
type RecipesCmd struct {
	Site string `help:"Only show recipes for this site URL"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID string `arg:"" help:"Recipe ID"`
}

// DiscoverCmd is the "discover" subcommand.
type DiscoverCmd struct {
	URL string `arg:"" help:"Site URL"`
}
