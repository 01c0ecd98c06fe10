package weft

import (
	"context"
	"time"
)

// ExtractionKind identifies what to pull from a matched element.
type ExtractionKind string

// Extraction kinds.
const (
	KindText      ExtractionKind = "text"
	KindHTML      ExtractionKind = "html"
	KindMarkdown  ExtractionKind = "markdown"
	KindAttribute ExtractionKind = "attribute"
	KindHref      ExtractionKind = "href"
	KindSrc       ExtractionKind = "src"
)

// ExtractionRule is the concrete selector set and post-processing
// pipeline used to pull one field's value out of a document.
type ExtractionRule struct {
	Selector          string         `json:"selector"`
	FallbackSelectors []string       `json:"fallbackSelectors,omitempty"`
	Kind              ExtractionKind `json:"kind,omitempty"`
	AttributeName     string         `json:"attributeName,omitempty"`
	// Weight folds this field's quality into the overall score.
	// Zero means a default weight of 1.
	Weight float64 `json:"weight,omitempty"`
	// QualityIndicators name extra checks that boost the field's
	// quality measure: "has-text", "min-length", "has-links".
	QualityIndicators []string `json:"qualityIndicators,omitempty"`
	PostProcessing    []string `json:"postProcessing,omitempty"`
}

// ExtractedContent is the raw result of applying a rule set to one
// document or document fragment.
type ExtractedContent struct {
	Data         map[string]any    `json:"data"`
	QualityScore float64           `json:"qualityScore"` // in [0,100]
	Issues       []string          `json:"issues,omitempty"`
	Confidence   float64           `json:"confidence"` // in [0,1]
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ExtractedRecord is one quality-scored record produced by a scrape.
// Data holds only portably serializable values (string, number, bool,
// nil, array, object).
type ExtractedRecord struct {
	ID            string         `json:"id"`
	SourceURL     string         `json:"sourceUrl"`
	Data          map[string]any `json:"data"`
	QualityScore  float64        `json:"qualityScore"` // in [0,100]
	ScrapedAt     time.Time      `json:"scrapedAt"`
	SchemaVersion string         `json:"schemaVersion"`
	ContentHash   string         `json:"contentHash,omitempty"`
}

// Validate returns an error if the record contains invalid fields.
func (r *ExtractedRecord) Validate() error {
	if r.ID == "" {
		return Errorf(EINVALID, "record ID required")
	}
	if len(r.Data) == 0 {
		return Errorf(EINVALID, "record data must be non-empty")
	}
	if r.QualityScore < 0 || r.QualityScore > 100 {
		return Errorf(EINVALID, "record quality score must be in [0,100], got %v", r.QualityScore)
	}
	return nil
}

// HasField reports whether the record carries a non-empty value for the
// named field.
func (r *ExtractedRecord) HasField(name string) bool {
	v, ok := r.Data[name]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// Extractor applies a field rule set to a document, producing raw field
// values plus a per-field quality measurement. Field-level failures
// degrade to missing fields plus logged issues; they never abort the
// whole extraction.
type Extractor interface {
	// Extract applies the rules to the whole document.
	Extract(html string, baseURL string, rules map[string]ExtractionRule) (*ExtractedContent, error)

	// ExtractList locates containers by selector and applies the rules
	// to each container as an independent sub-document, returning the
	// ordered per-container results.
	ExtractList(html string, baseURL string, container string, rules map[string]ExtractionRule) ([]*ExtractedContent, error)
}

// Processor applies a named pipeline of idempotent transforms to a
// single extracted value. Running a pipeline twice on its own output is
// a no-op. Typed conversions that fail validation return nil rather than
// an error.
type Processor interface {
	Process(steps []string, value any) (any, error)
}

// AuditSink receives classified record batches after extraction. The
// engine never blocks on or depends on its outcome.
type AuditSink interface {
	Record(ctx context.Context, url string, records []*ExtractedRecord)
}
