// Command weft analyzes web pages, generates extraction schemas and
// scraping strategies, and runs the adaptive extraction pipeline.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/weftlabs/weft/crawl"
	"github.com/weftlabs/weft/goquery"
	"github.com/weftlabs/weft/htmltomarkdown"
	wefthttp "github.com/weftlabs/weft/http"
	"github.com/weftlabs/weft/pipeline"
	"github.com/weftlabs/weft/quality"
	weftslog "github.com/weftlabs/weft/slog"
	"github.com/weftlabs/weft/sqlite"
	"github.com/weftlabs/weft/strategy"
	"github.com/weftlabs/weft/trafilatura"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by the recipe and strategy stores.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("weft"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'weft --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set WEFT_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	deps.DB = m.DB
	deps.Recipes = sqlite.NewRecipeService(m.DB)
	deps.Strategies = sqlite.NewStrategyService(m.DB)
	deps.Session = m.buildSession(deps, cli.Verbose, stderr)
	deps.Sitemaps = wefthttp.NewSitemapService(nil)
	if cli.Verbose {
		logger := slog.New(slog.NewTextHandler(stderr, nil))
		deps.Sitemaps = weftslog.NewLoggingSitemapService(deps.Sitemaps, logger)
	}

	return kongCtx.Run(deps)
}

// buildSession wires the full pipeline behind one crawl.Session.
func (m *Main) buildSession(deps *Dependencies, verbose bool, stderr io.Writer) *crawl.Session {
	fetcher := wefthttp.NewFetcher()
	analyzer := goquery.NewAnalyzer()
	limiter := crawl.NewHostLimiter(crawl.DefaultLimiterConfig())

	session := &crawl.Session{
		Fetcher:    fetcher,
		Robots:     wefthttp.NewRobotsPolicy(nil),
		Limiter:    limiter,
		Analyzer:   analyzer,
		Schemas:    goquery.NewSchemaGenerator(),
		Strategies: strategy.NewGenerator(),
		Extractor: goquery.NewExtractor(
			goquery.WithProcessor(pipeline.NewProcessor()),
			goquery.WithConverter(htmltomarkdown.NewConverter()),
		),
		MainContent:   trafilatura.NewExtractor(),
		Quality:       quality.NewAnalyzer(),
		Recipes:       deps.Recipes,
		StrategyStore: deps.Strategies,
		UserAgent:     wefthttp.DefaultUserAgent,
	}

	if verbose {
		logger := slog.New(slog.NewTextHandler(stderr, nil))
		session.Fetcher = weftslog.NewLoggingFetcher(fetcher, logger)
		session.Analyzer = weftslog.NewLoggingAnalyzer(analyzer, logger)
		session.Limiter = weftslog.NewLoggingHostLimiter(limiter, logger)
	}
	return session
}

func defaultDBPath() string {
	if path := os.Getenv("WEFT_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "weft.db"
	}
	dir := filepath.Join(home, ".weft")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "weft.db")
}
