// Package trafilatura implements weft.MainExtractor on top of
// go-trafilatura. It is the boilerplate-stripping fallback used when
// detail-mode selector extraction finds nothing.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/markusmobius/go-trafilatura"
	"github.com/weftlabs/weft"
	"golang.org/x/net/html"
)

// Compile-time interface verification.
var _ weft.MainExtractor = (*Extractor)(nil)

// Extractor pulls the main content out of a page, removing navigation,
// ads, and other boilerplate.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractMain processes raw HTML and returns the page's main content.
func (e *Extractor) ExtractMain(rawHTML string) (*weft.MainContent, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, weft.Errorf(weft.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}
	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, weft.Errorf(weft.EPARSE, "extract main content: %v", err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, weft.Errorf(weft.EINTERNAL, "render content: %v", err)
		}
	}

	return &weft.MainContent{
		Title:       result.Metadata.Title,
		Text:        result.ContentText,
		ContentHTML: contentHTML,
	}, nil
}

// renderNode serializes an html.Node back to markup.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
