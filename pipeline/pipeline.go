// Package pipeline implements weft's data processor: named, composable
// transforms over single extracted values. Every step is idempotent, so
// running a pipeline twice on its own output is a no-op. Typed
// conversions that fail validation return nil rather than an error.
package pipeline

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.Processor = (*Processor)(nil)

// StepFunc transforms one value. A nil result marks the value as
// rejected; later steps pass nil through unchanged.
type StepFunc func(any) any

// Processor applies named step pipelines to values. It is stateless and
// safe for concurrent use.
type Processor struct{}

// NewProcessor creates a new Processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// Process runs the named steps over the value in order. Unknown step
// names are configuration errors.
func (p *Processor) Process(steps []string, value any) (any, error) {
	for _, name := range steps {
		fn, ok := registry[name]
		if !ok {
			return nil, weft.Errorf(weft.EINVALID, "unknown processing step %q", name)
		}
		value = fn(value)
	}
	return value, nil
}

// Steps returns the names of all registered steps.
func Steps() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

var registry = map[string]StepFunc{
	"trim":            stringStep(strings.TrimSpace),
	"clean":           stringStep(cleanText),
	"normalize":       stringStep(normalizeText),
	"strip_html":      stringStep(stripHTML),
	"lowercase":       stringStep(strings.ToLower),
	"uppercase":       stringStep(strings.ToUpper),
	"capitalize":      stringStep(capitalize),
	"title_case":      stringStep(titleCase),
	"extract_numbers": stringStep(extractNumber),
	"extract_urls":    stringStep(extractURL),
	"extract_emails":  stringStep(extractEmail),
	"extract_phones":  stringStep(extractPhone),
	"validate":        validateValue,
	"dedup":           dedupList,
	"to_number":       toNumber,
	"to_integer":      toInteger,
	"to_boolean":      toBoolean,
	"to_array":        toArray,
	"to_url":          toURL,
	"to_email":        toEmail,
	"to_phone":        toPhone,
	"to_date":         toDate,
}

// stringStep lifts a string transform into a StepFunc that passes
// non-string values through untouched.
func stringStep(fn func(string) string) StepFunc {
	return func(v any) any {
		s, ok := v.(string)
		if !ok {
			return v
		}
		return fn(s)
	}
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	numberRunPattern  = regexp.MustCompile(`-?\d[\d,]*(\.\d+)?`)
	urlRunPattern     = regexp.MustCompile(`https?://[^\s<>"']+`)
	emailRunPattern   = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	phoneRunPattern   = regexp.MustCompile(`\+?\d[\d\s().-]{6,18}\d`)
	punctRunPattern   = regexp.MustCompile(`[^\s\w]`)
)

// cleanText strips markup and entities, normalizes Unicode whitespace,
// and collapses runs of whitespace to single spaces.
func cleanText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripHTML removes markup without touching entities or whitespace
// runs.
func stripHTML(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, " "))
}

// normalizeText lowercases and strips boundary punctuation.
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// capitalize uppercases the first rune and lowercases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// titleCase capitalizes each whitespace-separated word.
func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = capitalize(f)
	}
	return strings.Join(fields, " ")
}

// extractNumber returns the first numeric run with grouping commas
// removed, or "" when the value contains no number.
func extractNumber(s string) string {
	m := numberRunPattern.FindString(s)
	return strings.ReplaceAll(m, ",", "")
}

func extractURL(s string) string {
	return urlRunPattern.FindString(s)
}

func extractEmail(s string) string {
	return emailRunPattern.FindString(s)
}

func extractPhone(s string) string {
	return phoneRunPattern.FindString(s)
}

// validateValue rejects values that are under two characters or mostly
// punctuation.
func validateValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return nil
	}
	punct := len(punctRunPattern.FindAllString(trimmed, -1))
	if float64(punct) > float64(len([]rune(trimmed)))/2 {
		return nil
	}
	return s
}

// dedupList removes duplicate entries from a list, preserving first
// occurrence order. Non-list values pass through.
func dedupList(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	seen := map[any]bool{}
	out := make([]any, 0, len(list))
	for _, item := range list {
		key := item
		if !comparable_(item) {
			out = append(out, item)
			continue
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, item)
		}
	}
	return out
}

func comparable_(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, float64, nil:
		return true
	}
	return false
}
