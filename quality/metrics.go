package quality

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Suspicious-content patterns: values matching any of these are almost
// certainly extraction garbage. Kept as a static table so the heuristics
// are unit-testable apart from the scoring logic.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[[:punct:]]+$`), // all punctuation
	regexp.MustCompile(`^\s+$`),          // all whitespace
	regexp.MustCompile(`[A-Z]{12,}`),     // long all-caps run
}

// maxCharRun is the longest run of one repeated non-space character
// still considered plausible content.
const maxCharRun = 4

// hasLongCharRun reports whether s repeats a non-space character more
// than maxCharRun times in a row. RE2 has no backreferences, so this
// check cannot live in the pattern table.
func hasLongCharRun(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev && !unicode.IsSpace(r) {
			run++
			if run > maxCharRun {
				return true
			}
			continue
		}
		prev, run = r, 1
	}
	return false
}

// suspicious reports whether a value looks like extraction garbage.
func suspicious(s string) bool {
	if hasLongCharRun(s) {
		return true
	}
	for _, p := range suspiciousPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// fieldValidationPatterns map recognized field names to the shape their
// values are expected to have.
var fieldValidationPatterns = map[string]*regexp.Regexp{
	"email":   regexp.MustCompile(`^[\w.+-]+@[\w-]+\.[\w.-]+$`),
	"contact": regexp.MustCompile(`^[\w.+-]+@[\w-]+\.[\w.-]+$|^\+?[\d\s().-]{7,20}$`),
	"link":    regexp.MustCompile(`^(https?://|/)\S+`),
	"url":     regexp.MustCompile(`^(https?://|/)\S+`),
	"image":   regexp.MustCompile(`^(https?://|/)\S+`),
	"date":    regexp.MustCompile(`(?i)\d{4}-\d{2}-\d{2}|\d{1,2}[/.]\d{1,2}[/.]\d{2,4}|(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`),
	"price":   regexp.MustCompile(`\d`),
	"rating":  regexp.MustCompile(`^\d+(\.\d+)?$`),
}

// importantFieldNames get a relevance boost: they are what callers are
// usually after.
var importantFieldNames = map[string]bool{
	"title":       true,
	"name":        true,
	"price":       true,
	"description": true,
	"date":        true,
	"author":      true,
	"link":        true,
}

// fillerWords are ignored when judging whether text is substantive.
var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "to": true, "is": true,
}

// Accuracy penalties.
const (
	suspiciousPenalty = 0.1
	bandPenalty       = 0.5
	validationPenalty = 0.6
)

// Value length/word-count band for the accuracy metric.
const (
	bandMinLength = 2
	bandMaxLength = 5000
	bandMaxWords  = 500
)

// valueAccuracy scores one field value in [0,1]: it starts at 1.0 and
// is multiplicatively penalized for suspicious shapes, for falling
// outside the length/word band, and for failing the field's
// name-implied validation pattern.
func valueAccuracy(field string, value any) float64 {
	s := stringify(value)
	if s == "" {
		return 0
	}

	acc := 1.0
	if suspicious(s) {
		acc *= suspiciousPenalty
	}

	length := len([]rune(s))
	words := len(strings.Fields(s))
	if length < bandMinLength || length > bandMaxLength || words > bandMaxWords {
		acc *= bandPenalty
	}

	if p, ok := fieldValidationPatterns[field]; ok && !p.MatchString(s) {
		acc *= validationPenalty
	}
	return acc
}

// fieldConsistency scores how much a field's values agree across
// records: type homogeneity, length spread, and pattern-family
// agreement. A single value is consistent by definition.
func fieldConsistency(values []any) float64 {
	if len(values) <= 1 {
		return 1.0
	}

	typeCounts := map[string]int{}
	var lengths []float64
	for _, v := range values {
		typeCounts[valueKind(v)]++
		lengths = append(lengths, float64(len([]rune(stringify(v)))))
	}

	maxType := 0
	for _, c := range typeCounts {
		if c > maxType {
			maxType = c
		}
	}
	typeScore := float64(maxType) / float64(len(values))

	lengthScore := 1.0
	if mean := meanOf(lengths); mean > 0 {
		cv := stddevOf(lengths, mean) / mean
		lengthScore = 1.0 - min(cv, 1.0)
	}

	score := typeScore * lengthScore
	if family := dominantFamily(values); family != nil {
		matching := 0
		for _, v := range values {
			if family.MatchString(stringify(v)) {
				matching++
			}
		}
		score *= float64(matching) / float64(len(values))
	}
	return score
}

// fieldRelevance scores how interesting a field's values are likely to
// be: important names and substantive text are boosted.
func fieldRelevance(field string, values []any) float64 {
	score := 0.5
	if importantFieldNames[field] {
		score += 0.3
	}

	substantive := 0
	for _, v := range values {
		if isSubstantive(stringify(v)) {
			substantive++
		}
	}
	if len(values) > 0 && float64(substantive)/float64(len(values)) >= 0.5 {
		score += 0.2
	}
	return min(score, 1.0)
}

// isSubstantive reports whether text carries at least three non-filler
// words.
func isSubstantive(s string) bool {
	words := strings.Fields(strings.ToLower(s))
	meaningful := 0
	for _, w := range words {
		if !fillerWords[w] {
			meaningful++
		}
	}
	return meaningful >= 3
}

// valueFamilies classify values into shape families for the
// consistency metric.
var valueFamilies = []*regexp.Regexp{
	regexp.MustCompile(`^https?://\S+$`),
	regexp.MustCompile(`^[\w.+-]+@[\w-]+\.[\w.-]+$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`^-?\d[\d,]*(\.\d+)?$`),
	regexp.MustCompile(`^[$€£¥₹]\s*\d`),
}

// dominantFamily returns the value family matched by the majority of
// values, or nil when no family dominates.
func dominantFamily(values []any) *regexp.Regexp {
	for _, family := range valueFamilies {
		matching := 0
		for _, v := range values {
			if family.MatchString(stringify(v)) {
				matching++
			}
		}
		if float64(matching) > float64(len(values))/2 {
			return family
		}
	}
	return nil
}

func valueKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	}
	return "other"
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddevOf(xs []float64, mean float64) float64 {
	if len(xs) <= 1 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
