// Package quality implements weft's quality analyzer: batch scoring of
// extracted records on completeness, accuracy, consistency, and
// relevance, plus threshold filtering.
package quality

import (
	"fmt"
	"sort"

	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.QualityAnalyzer = (*Analyzer)(nil)

// Analyzer scores extracted record batches. It is stateless and safe
// for concurrent use.
type Analyzer struct{}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// degradedFloor is the fraction of the overall threshold below which a
// batch is considered unsalvageable even for callers that accept
// degraded results.
const degradedFloor = 0.3

// missingFieldIssueRatio is the missing fraction above which a field
// gets a per-field issue in the report.
const missingFieldIssueRatio = 0.3

// Analyze scores the batch. The recipe, when given, supplies the
// expected field set and metric weights; otherwise the union of
// observed fields and default weights are used.
func (a *Analyzer) Analyze(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) (*weft.QualityReport, error) {
	report := &weft.QualityReport{
		FieldScores: map[string]float64{},
		ItemCount:   len(records),
	}
	if len(records) == 0 {
		report.Issues = append(report.Issues, "no records to analyze")
		return report, nil
	}

	fields := expectedFields(records, recipe)
	if len(fields) == 0 {
		report.Issues = append(report.Issues, "no fields to score")
		return report, nil
	}

	byField := groupByField(records, fields)

	report.Completeness = completeness(records, fields)
	report.Accuracy = accuracy(byField, fields, report)
	report.Consistency = consistency(byField, fields)
	report.Relevance = relevance(byField, fields)

	weights := reportWeights(recipe)
	report.OverallScore = 100 * (weights.Completeness*report.Completeness +
		weights.Accuracy*report.Accuracy +
		weights.Consistency*report.Consistency +
		weights.Relevance*report.Relevance)

	required := requiredFields(recipe, thresholds)
	missingRequired := missingRequiredFields(records, required)

	report.PassesThreshold = report.Completeness >= thresholds.MinCompleteness &&
		report.Accuracy >= thresholds.MinAccuracy &&
		report.Consistency >= thresholds.MinConsistency &&
		report.OverallScore >= thresholds.MinOverall &&
		len(missingRequired) == 0

	annotate(report, byField, fields, missingRequired, thresholds)
	return report, nil
}

// Filter returns the subset of records individually meeting the
// thresholds, including required-field presence.
func (a *Analyzer) Filter(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) []*weft.ExtractedRecord {
	fields := expectedFields(records, recipe)
	required := requiredFields(recipe, thresholds)
	weights := reportWeights(recipe)

	var out []*weft.ExtractedRecord
	for _, r := range records {
		if !hasAllFields(r, required) {
			continue
		}

		comp, acc := recordScores(r, fields)
		if comp < thresholds.MinCompleteness || acc < thresholds.MinAccuracy {
			continue
		}

		// A single record is consistent by definition.
		overall := 100 * (weights.Completeness*comp + weights.Accuracy*acc +
			weights.Consistency*1.0 + weights.Relevance*recordRelevance(r))
		if overall < thresholds.MinOverall {
			continue
		}
		out = append(out, r)
	}
	return out
}

// AcceptDegraded reports whether a batch that failed its threshold is
// still worth keeping as a partial result.
func AcceptDegraded(report *weft.QualityReport, thresholds weft.QualityThresholds) bool {
	if report == nil || report.ItemCount == 0 {
		return false
	}
	return report.OverallScore >= degradedFloor*thresholds.MinOverall
}

// DegradeFilter applies the degraded-acceptance floor record by record:
// records whose individual score clears degradedFloor times the overall
// threshold survive, the rest are dropped with a stated reason.
func DegradeFilter(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) (kept []*weft.ExtractedRecord, dropped []string) {
	fields := expectedFields(records, recipe)
	weights := reportWeights(recipe)
	floor := degradedFloor * thresholds.MinOverall

	for _, r := range records {
		comp, acc := recordScores(r, fields)
		overall := 100 * (weights.Completeness*comp + weights.Accuracy*acc +
			weights.Consistency*1.0 + weights.Relevance*recordRelevance(r))
		if overall >= floor {
			kept = append(kept, r)
			continue
		}
		dropped = append(dropped, fmt.Sprintf("record %s: quality %.1f below degraded floor %.1f", r.ID, overall, floor))
	}
	return kept, dropped
}

// expectedFields returns the recipe's fields when given, otherwise the
// sorted union of fields observed across the batch.
func expectedFields(records []*weft.ExtractedRecord, recipe *weft.SchemaRecipe) []string {
	if recipe != nil && len(recipe.Fields) > 0 {
		names := make([]string, 0, len(recipe.Fields))
		for name := range recipe.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}

	seen := map[string]bool{}
	var names []string
	for _, r := range records {
		for name := range r.Data {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// groupByField collects each expected field's present values across the
// batch.
func groupByField(records []*weft.ExtractedRecord, fields []string) map[string][]any {
	byField := map[string][]any{}
	for _, r := range records {
		for _, name := range fields {
			if r.HasField(name) {
				byField[name] = append(byField[name], r.Data[name])
			}
		}
	}
	return byField
}

// completeness is the mean per-record fraction of expected fields
// present.
func completeness(records []*weft.ExtractedRecord, fields []string) float64 {
	sum := 0.0
	for _, r := range records {
		present := 0
		for _, name := range fields {
			if r.HasField(name) {
				present++
			}
		}
		sum += float64(present) / float64(len(fields))
	}
	return sum / float64(len(records))
}

// accuracy is the mean value accuracy over all present values, and also
// fills the report's per-field scores.
func accuracy(byField map[string][]any, fields []string, report *weft.QualityReport) float64 {
	total, count := 0.0, 0
	for _, name := range fields {
		values := byField[name]
		if len(values) == 0 {
			report.FieldScores[name] = 0
			continue
		}
		fieldSum := 0.0
		for _, v := range values {
			fieldSum += valueAccuracy(name, v)
		}
		report.FieldScores[name] = fieldSum / float64(len(values))
		total += fieldSum
		count += len(values)
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// consistency is the mean per-field consistency over fields with at
// least one value.
func consistency(byField map[string][]any, fields []string) float64 {
	sum, count := 0.0, 0
	for _, name := range fields {
		if values := byField[name]; len(values) > 0 {
			sum += fieldConsistency(values)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// relevance is the mean per-field relevance over fields with at least
// one value.
func relevance(byField map[string][]any, fields []string) float64 {
	sum, count := 0.0, 0
	for _, name := range fields {
		if values := byField[name]; len(values) > 0 {
			sum += fieldRelevance(name, values)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// reportWeights resolves the metric weights: the recipe's when valid,
// otherwise the analyzer defaults.
func reportWeights(recipe *weft.SchemaRecipe) weft.QualityWeights {
	if recipe != nil && recipe.Weights.Validate() == nil {
		return recipe.Weights
	}
	return weft.DefaultReportWeights()
}

// requiredFields merges the recipe's required fields with the
// thresholds' explicit list.
func requiredFields(recipe *weft.SchemaRecipe, thresholds weft.QualityThresholds) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	if recipe != nil {
		for _, name := range recipe.RequiredFields() {
			add(name)
		}
	}
	for _, name := range thresholds.RequiredFields {
		add(name)
	}
	sort.Strings(out)
	return out
}

// missingRequiredFields lists required fields absent from at least one
// record.
func missingRequiredFields(records []*weft.ExtractedRecord, required []string) []string {
	var missing []string
	for _, name := range required {
		for _, r := range records {
			if !r.HasField(name) {
				missing = append(missing, name)
				break
			}
		}
	}
	return missing
}

func hasAllFields(r *weft.ExtractedRecord, required []string) bool {
	for _, name := range required {
		if !r.HasField(name) {
			return false
		}
	}
	return true
}

// recordScores computes one record's completeness and mean value
// accuracy against the expected field set.
func recordScores(r *weft.ExtractedRecord, fields []string) (comp, acc float64) {
	if len(fields) == 0 {
		return 0, 0
	}
	present, accSum := 0, 0.0
	for _, name := range fields {
		if r.HasField(name) {
			present++
			accSum += valueAccuracy(name, r.Data[name])
		}
	}
	comp = float64(present) / float64(len(fields))
	if present > 0 {
		acc = accSum / float64(present)
	}
	return comp, acc
}

func recordRelevance(r *weft.ExtractedRecord) float64 {
	sum, count := 0.0, 0
	for name, v := range r.Data {
		sum += fieldRelevance(name, []any{v})
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// annotate adds human-readable issues and recommendations to the
// report.
func annotate(report *weft.QualityReport, byField map[string][]any, fields []string, missingRequired []string, thresholds weft.QualityThresholds) {
	for _, name := range missingRequired {
		report.Issues = append(report.Issues, fmt.Sprintf("required field %q missing from some records", name))
	}

	for _, name := range fields {
		missing := report.ItemCount - len(byField[name])
		if ratio := float64(missing) / float64(report.ItemCount); ratio > missingFieldIssueRatio {
			report.Issues = append(report.Issues, fmt.Sprintf("field %q missing in %.0f%% of records", name, ratio*100))
			report.Recommendations = append(report.Recommendations, fmt.Sprintf("add fallback selectors for field %q", name))
		}
		if score, ok := report.FieldScores[name]; ok && score > 0 && score < thresholds.MinAccuracy {
			report.Recommendations = append(report.Recommendations, fmt.Sprintf("review extraction rule for low-accuracy field %q", name))
		}
	}

	if report.Consistency < thresholds.MinConsistency {
		report.Recommendations = append(report.Recommendations, "selectors match structurally different elements; narrow the container selector")
	}
}
