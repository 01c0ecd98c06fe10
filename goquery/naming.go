package goquery

import (
	"regexp"
	"strings"
)

// nameKeyword maps a class/id keyword to an inferred field name and its
// semantic importance. Importance measures priority for field selection
// and is independent of selector confidence.
type nameKeyword struct {
	keyword    string
	name       string
	importance float64
}

// nameKeywords is checked in order; earlier entries win on conflicting
// matches.
var nameKeywords = []nameKeyword{
	{"title", "title", 0.9},
	{"headline", "title", 0.9},
	{"heading", "title", 0.85},
	{"price", "price", 0.9},
	{"cost", "price", 0.85},
	{"amount", "price", 0.7},
	{"desc", "description", 0.6},
	{"summary", "description", 0.6},
	{"excerpt", "description", 0.6},
	{"date", "date", 0.7},
	{"time", "date", 0.6},
	{"published", "date", 0.7},
	{"location", "location", 0.7},
	{"address", "location", 0.7},
	{"contact", "contact", 0.6},
	{"email", "contact", 0.7},
	{"phone", "contact", 0.7},
	{"img", "image", 0.6},
	{"image", "image", 0.6},
	{"photo", "image", 0.6},
	{"thumb", "image", 0.5},
	{"link", "link", 0.5},
	{"url", "link", 0.5},
	{"category", "category", 0.6},
	{"tag", "category", 0.5},
	{"author", "author", 0.7},
	{"byline", "author", 0.7},
	{"rating", "rating", 0.7},
	{"stars", "rating", 0.6},
	{"review", "rating", 0.5},
	{"status", "status", 0.5},
	{"availability", "status", 0.6},
}

// Value-shape patterns classify sample values when class/id names give
// no hint.
var (
	pricePattern  = regexp.MustCompile(`^\s*[$€£¥₹]\s*\d[\d,]*(\.\d+)?\s*$`)
	numberPattern = regexp.MustCompile(`^-?\d[\d,]*(\.\d+)?$`)
	datePattern   = regexp.MustCompile(`(?i)^(\d{4}-\d{2}-\d{2}|\d{1,2}[/.]\d{1,2}[/.]\d{2,4}|(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4})`)
	urlPattern    = regexp.MustCompile(`^https?://\S+$`)
	emailPattern  = regexp.MustCompile(`^[\w.+-]+@[\w-]+\.[\w.-]+$`)
	phonePattern  = regexp.MustCompile(`^\+?[\d\s().-]{7,20}$`)
	boolPattern   = regexp.MustCompile(`(?i)^(true|false|yes|no|in stock|out of stock)$`)
)

// tagNames maps tag semantics to field names.
var tagNames = map[string]nameKeyword{
	"h1":   {name: "title", importance: 0.9},
	"h2":   {name: "title", importance: 0.8},
	"h3":   {name: "title", importance: 0.7},
	"h4":   {name: "title", importance: 0.6},
	"p":    {name: "description", importance: 0.5},
	"time": {name: "date", importance: 0.7},
	"img":  {name: "image", importance: 0.6},
	"a":    {name: "link", importance: 0.5},
}

// shortTextThreshold splits the length fallback: shorter values look
// like titles, longer ones like descriptions.
const shortTextThreshold = 50

// inferFieldName infers a field name and importance from, in order: the
// element's class/id keywords, the parent's, the sample value's shape,
// the tag's semantics, then a length heuristic.
func inferFieldName(tag, classAndID, parentClassAndID, sample string) (string, float64) {
	hint := strings.ToLower(classAndID)
	for _, kw := range nameKeywords {
		if strings.Contains(hint, kw.keyword) {
			return kw.name, kw.importance
		}
	}
	parentHint := strings.ToLower(parentClassAndID)
	for _, kw := range nameKeywords {
		if strings.Contains(parentHint, kw.keyword) {
			return kw.name, kw.importance * 0.9
		}
	}

	switch {
	case pricePattern.MatchString(sample):
		return "price", 0.9
	case datePattern.MatchString(sample):
		return "date", 0.7
	case urlPattern.MatchString(sample):
		return "link", 0.5
	case emailPattern.MatchString(sample):
		return "contact", 0.7
	case phonePattern.MatchString(sample) && strings.IndexFunc(sample, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0:
		return "contact", 0.6
	}

	if kw, ok := tagNames[tag]; ok {
		return kw.name, kw.importance
	}

	if len(sample) > 0 && len(sample) < shortTextThreshold {
		return "title", 0.5
	}
	return "description", 0.4
}

// validationPatternFor returns the validation regex source attached to
// recognized field names, or "" when the field has no fixed shape.
func validationPatternFor(name string) string {
	switch name {
	case "price":
		return `[\d,]+(\.\d+)?`
	case "date":
		return datePattern.String()
	case "link", "image":
		return `^(https?://|/)\S+`
	case "rating":
		return `^\d+(\.\d+)?$`
	}
	return ""
}

// defaultPostProcessing returns the fixed post-processing pipeline for a
// field name. Every field gets trim; title-like fields are cleaned and
// capitalized, price-like fields get numeric extraction, and
// contact/link-like fields get validation.
func defaultPostProcessing(name string) []string {
	switch name {
	case "title", "author", "category", "location", "status":
		return []string{"trim", "clean", "capitalize"}
	case "price", "rating":
		return []string{"trim", "clean", "extract_numbers"}
	case "contact", "link", "image":
		return []string{"trim", "validate"}
	default:
		return []string{"trim"}
	}
}
