package goquery

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.Extractor = (*Extractor)(nil)

// Extractor applies field rule sets to documents. Field-level failures
// degrade to missing fields plus recorded issues; they never abort the
// extraction.
type Extractor struct {
	processor weft.Processor
	converter weft.Converter
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithProcessor sets the post-processing pipeline applied to extracted
// values.
func WithProcessor(p weft.Processor) ExtractorOption {
	return func(e *Extractor) { e.processor = p }
}

// WithConverter sets the HTML-to-Markdown converter used by
// markdown-kind rules. Without one, markdown rules degrade to text.
func WithConverter(c weft.Converter) ExtractorOption {
	return func(e *Extractor) { e.converter = c }
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Field quality measurement constants.
const (
	shortValueLength   = 3
	longValueLength    = 1000
	shortValuePenalty  = 0.5
	longValuePenalty   = 0.8
	indicatorBoost     = 1.1
	minLengthIndicator = 10
)

// Extract applies the rules to the whole document.
func (e *Extractor) Extract(html string, baseURL string, rules map[string]weft.ExtractionRule) (*weft.ExtractedContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, weft.Errorf(weft.EPARSE, "parse document: %v", err)
	}
	base := parseBase(baseURL)

	content := e.extractFrom(doc.Selection, base, rules)
	content.Metadata["source_url"] = baseURL
	return content, nil
}

// ExtractList locates containers and applies the rules to each as an
// independent sub-document. Results are ordered by container position
// and tagged with a positional selector.
func (e *Extractor) ExtractList(html string, baseURL string, container string, rules map[string]weft.ExtractionRule) ([]*weft.ExtractedContent, error) {
	if container == "" {
		return nil, weft.Errorf(weft.EINVALID, "container selector required")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, weft.Errorf(weft.EPARSE, "parse document: %v", err)
	}
	base := parseBase(baseURL)

	var results []*weft.ExtractedContent
	doc.Find(container).Each(func(i int, s *goquery.Selection) {
		content := e.extractFrom(s, base, rules)
		content.Metadata["source_url"] = baseURL
		content.Metadata["container"] = fmt.Sprintf("%s:nth-of-type(%d)", container, i+1)
		results = append(results, content)
	})
	return results, nil
}

// extractFrom runs every rule against one root selection.
func (e *Extractor) extractFrom(root *goquery.Selection, base *url.URL, rules map[string]weft.ExtractionRule) *weft.ExtractedContent {
	content := &weft.ExtractedContent{
		Data:     map[string]any{},
		Metadata: map[string]string{},
	}

	// Deterministic field order keeps issue lists stable.
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	var weightSum, weightedQuality float64
	matched := 0

	for _, name := range names {
		rule := rules[name]
		weight := rule.Weight
		if weight == 0 {
			weight = 1
		}
		weightSum += weight

		raw, ok := e.extractField(root, base, rule)
		if !ok {
			content.Issues = append(content.Issues, fmt.Sprintf("field %s: no selector matched", name))
			continue
		}
		matched++

		value := any(raw)
		if e.processor != nil && len(rule.PostProcessing) > 0 {
			processed, err := e.processor.Process(rule.PostProcessing, raw)
			if err != nil {
				content.Issues = append(content.Issues, fmt.Sprintf("field %s: %s", name, weft.ErrorMessage(err)))
			} else {
				value = processed
			}
		}
		if value == nil || value == "" {
			content.Issues = append(content.Issues, fmt.Sprintf("field %s: empty after processing", name))
			continue
		}

		content.Data[name] = value
		weightedQuality += fieldQuality(value, rule.QualityIndicators) * weight
	}

	if len(rules) > 0 {
		successRate := float64(matched) / float64(len(rules))
		completeness := float64(len(content.Data)) / float64(len(rules))
		content.Confidence = 0.6*successRate + 0.4*completeness
	}
	if weightSum > 0 {
		content.QualityScore = weightedQuality / weightSum * 100
	}
	return content
}

// extractField tries the primary selector, then the fallbacks in order,
// returning the first non-empty value.
func (e *Extractor) extractField(root *goquery.Selection, base *url.URL, rule weft.ExtractionRule) (string, bool) {
	selectors := append([]string{rule.Selector}, rule.FallbackSelectors...)
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		match := root.Find(sel).First()
		if match.Length() == 0 {
			continue
		}
		if value := e.valueOf(match, base, rule); value != "" {
			return value, true
		}
	}
	return "", false
}

// valueOf pulls the rule's extraction kind out of a matched element.
// Relative href/src values are resolved against the page base URL.
func (e *Extractor) valueOf(match *goquery.Selection, base *url.URL, rule weft.ExtractionRule) string {
	switch rule.Kind {
	case weft.KindHTML:
		frag, err := goquery.OuterHtml(match)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(frag)

	case weft.KindMarkdown:
		frag, err := goquery.OuterHtml(match)
		if err != nil {
			return ""
		}
		if e.converter == nil {
			return strings.TrimSpace(match.Text())
		}
		md, err := e.converter.Convert(frag)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(md)

	case weft.KindAttribute:
		return strings.TrimSpace(match.AttrOr(rule.AttributeName, ""))

	case weft.KindHref:
		href := match.AttrOr("href", "")
		if href == "" {
			href = match.Find("a[href]").First().AttrOr("href", "")
		}
		return resolveRef(base, href)

	case weft.KindSrc:
		src := match.AttrOr("src", "")
		if src == "" {
			src = match.Find("img[src]").First().AttrOr("src", "")
		}
		return resolveRef(base, src)

	default: // KindText
		return strings.Join(strings.Fields(match.Text()), " ")
	}
}

// fieldQuality measures one extracted value in [0,1]: full quality
// unless the value is pathologically short or excessively long, with
// small boosts for configured quality indicators.
func fieldQuality(value any, indicators []string) float64 {
	s := fmt.Sprintf("%v", value)
	if s == "" {
		return 0
	}

	q := 1.0
	if len(s) < shortValueLength {
		q *= shortValuePenalty
	}
	if len(s) > longValueLength {
		q *= longValuePenalty
	}

	for _, ind := range indicators {
		switch ind {
		case "has-text":
			if strings.TrimSpace(s) != "" {
				q *= indicatorBoost
			}
		case "min-length":
			if len(s) >= minLengthIndicator {
				q *= indicatorBoost
			}
		case "has-links":
			if strings.Contains(s, "http://") || strings.Contains(s, "https://") {
				q *= indicatorBoost
			}
		}
	}
	return min(q, 1.0)
}

// parseBase parses the page base URL, tolerating an empty or invalid
// one (relative references then pass through unresolved).
func parseBase(baseURL string) *url.URL {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	return base
}

// resolveRef resolves a possibly relative reference against the base.
func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	resolved, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return resolved.String()
}
