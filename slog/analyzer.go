package slog

import (
	"log/slog"
	"time"

	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.Analyzer = (*LoggingAnalyzer)(nil)

// LoggingAnalyzer wraps an Analyzer with per-document logging.
type LoggingAnalyzer struct {
	next   weft.Analyzer
	logger *slog.Logger
}

// NewLoggingAnalyzer creates a new LoggingAnalyzer.
func NewLoggingAnalyzer(next weft.Analyzer, logger *slog.Logger) *LoggingAnalyzer {
	return &LoggingAnalyzer{next: next, logger: logger}
}

// Analyze delegates to the wrapped analyzer and logs what it found.
func (a *LoggingAnalyzer) Analyze(html string, sourceURL string) (analysis *weft.StructureAnalysis, err error) {
	defer func(begin time.Time) {
		patterns := 0
		if analysis != nil {
			patterns = len(analysis.ContentPatterns)
		}
		a.logger.Info("structure analysis",
			"url", sourceURL,
			"patterns", patterns,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Analyze(html, sourceURL)
}
