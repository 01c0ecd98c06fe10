package mock

import (
	"context"

	"github.com/weftlabs/weft"
)

var _ weft.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of weft.Extractor.
type Extractor struct {
	ExtractFn     func(html string, baseURL string, rules map[string]weft.ExtractionRule) (*weft.ExtractedContent, error)
	ExtractListFn func(html string, baseURL string, container string, rules map[string]weft.ExtractionRule) ([]*weft.ExtractedContent, error)
}

func (e *Extractor) Extract(html string, baseURL string, rules map[string]weft.ExtractionRule) (*weft.ExtractedContent, error) {
	return e.ExtractFn(html, baseURL, rules)
}

func (e *Extractor) ExtractList(html string, baseURL string, container string, rules map[string]weft.ExtractionRule) ([]*weft.ExtractedContent, error) {
	return e.ExtractListFn(html, baseURL, container, rules)
}

var _ weft.Processor = (*Processor)(nil)

// Processor is a mock implementation of weft.Processor.
type Processor struct {
	ProcessFn func(steps []string, value any) (any, error)
}

func (p *Processor) Process(steps []string, value any) (any, error) {
	return p.ProcessFn(steps, value)
}

var _ weft.MainExtractor = (*MainExtractor)(nil)

// MainExtractor is a mock implementation of weft.MainExtractor.
type MainExtractor struct {
	ExtractMainFn func(html string) (*weft.MainContent, error)
}

func (e *MainExtractor) ExtractMain(html string) (*weft.MainContent, error) {
	return e.ExtractMainFn(html)
}

var _ weft.Converter = (*Converter)(nil)

// Converter is a mock implementation of weft.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ weft.AuditSink = (*AuditSink)(nil)

// AuditSink is a mock implementation of weft.AuditSink.
type AuditSink struct {
	RecordFn func(ctx context.Context, url string, records []*weft.ExtractedRecord)
}

func (s *AuditSink) Record(ctx context.Context, url string, records []*weft.ExtractedRecord) {
	if s.RecordFn != nil {
		s.RecordFn(ctx, url, records)
	}
}
