package mock

import "github.com/weftlabs/weft"

var _ weft.Analyzer = (*Analyzer)(nil)

// Analyzer is a mock implementation of weft.Analyzer.
type Analyzer struct {
	AnalyzeFn func(html string, sourceURL string) (*weft.StructureAnalysis, error)
}

func (a *Analyzer) Analyze(html string, sourceURL string) (*weft.StructureAnalysis, error) {
	return a.AnalyzeFn(html, sourceURL)
}

var _ weft.SchemaGenerator = (*SchemaGenerator)(nil)

// SchemaGenerator is a mock implementation of weft.SchemaGenerator.
type SchemaGenerator struct {
	GenerateFn func(analysis *weft.StructureAnalysis, html string, sctx weft.SchemaContext) (*weft.SchemaRecipe, error)
}

func (g *SchemaGenerator) Generate(analysis *weft.StructureAnalysis, html string, sctx weft.SchemaContext) (*weft.SchemaRecipe, error) {
	return g.GenerateFn(analysis, html, sctx)
}

var _ weft.StrategyGenerator = (*StrategyGenerator)(nil)

// StrategyGenerator is a mock implementation of weft.StrategyGenerator.
type StrategyGenerator struct {
	GenerateFn func(analysis *weft.StructureAnalysis, sctx weft.StrategyContext) (*weft.ScrapingStrategy, error)
}

func (g *StrategyGenerator) Generate(analysis *weft.StructureAnalysis, sctx weft.StrategyContext) (*weft.ScrapingStrategy, error) {
	return g.GenerateFn(analysis, sctx)
}

var _ weft.QualityAnalyzer = (*QualityAnalyzer)(nil)

// QualityAnalyzer is a mock implementation of weft.QualityAnalyzer.
type QualityAnalyzer struct {
	AnalyzeFn func(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) (*weft.QualityReport, error)
	FilterFn  func(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) []*weft.ExtractedRecord
}

func (a *QualityAnalyzer) Analyze(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) (*weft.QualityReport, error) {
	return a.AnalyzeFn(records, recipe, thresholds)
}

func (a *QualityAnalyzer) Filter(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) []*weft.ExtractedRecord {
	if a.FilterFn == nil {
		return records
	}
	return a.FilterFn(records, recipe, thresholds)
}
