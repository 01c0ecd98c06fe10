// Package goquery implements weft's structural analysis, schema
// inference, and content extraction on top of PuerkitoBio/goquery.
package goquery

import (
	"regexp"

	"github.com/weftlabs/weft"
)

// Family describes one structural selector family of the pattern
// library: the semantic selectors that identify it directly and the
// class-name heuristic that identifies it indirectly. Semantic matches
// carry higher confidence than class-name matches.
type Family struct {
	Kind weft.PatternKind

	// Selectors match elements that are semantically this family.
	Selectors []string

	// ClassPattern matches class or id attributes that suggest this
	// family on non-semantic markup.
	ClassPattern *regexp.Regexp

	// SemanticConfidence and HeuristicConfidence are the base
	// confidences for the two match routes.
	SemanticConfidence  float64
	HeuristicConfidence float64
}

// Families returns the static pattern library. The slice is rebuilt on
// each call so callers may not mutate shared state.
func Families() []Family {
	return []Family{
		{
			Kind:                weft.PatternArticle,
			Selectors:           []string{"article"},
			ClassPattern:        regexp.MustCompile(`(?i)article|post|blog|entry|story`),
			SemanticConfidence:  0.9,
			HeuristicConfidence: 0.7,
		},
		{
			Kind:                weft.PatternProduct,
			Selectors:           []string{"[itemtype*='Product']"},
			ClassPattern:        regexp.MustCompile(`(?i)product|listing|sku|price-card`),
			SemanticConfidence:  0.9,
			HeuristicConfidence: 0.7,
		},
		{
			Kind:                weft.PatternNavigation,
			Selectors:           []string{"nav", "[role='navigation']"},
			ClassPattern:        regexp.MustCompile(`(?i)\bnav\b|navbar|menu`),
			SemanticConfidence:  0.9,
			HeuristicConfidence: 0.7,
		},
		{
			Kind:                weft.PatternMegaMenu,
			Selectors:           []string{"[data-megamenu]"},
			ClassPattern:        regexp.MustCompile(`(?i)mega-?menu`),
			SemanticConfidence:  0.9,
			HeuristicConfidence: 0.7,
		},
		{
			Kind:                weft.PatternMobileNav,
			Selectors:           []string{"[data-mobile-nav]"},
			ClassPattern:        regexp.MustCompile(`(?i)mobile-?(nav|menu)|hamburger|drawer|off-?canvas`),
			SemanticConfidence:  0.9,
			HeuristicConfidence: 0.7,
		},
		{
			Kind:                weft.PatternPagination,
			Selectors:           []string{"nav[aria-label*='agination']"},
			ClassPattern:        regexp.MustCompile(`(?i)paginat|pager|page-nav`),
			SemanticConfidence:  0.9,
			HeuristicConfidence: 0.7,
		},
	}
}

// listParentSelector matches candidate list containers. Semantic list
// tags come first; generic containers are accepted with lower
// confidence.
const listParentSelector = "ul, ol, tbody, div, section"

// semanticListTags are container tags whose children form a list by
// construction.
var semanticListTags = map[string]bool{
	"ul":    true,
	"ol":    true,
	"tbody": true,
}

// mainContentSelectors are probed in order to find the main content
// region of a page.
var mainContentSelectors = []string{
	"main",
	"[role='main']",
	"#main-content",
	"#content",
	"article",
	".main-content",
	".content",
}

// Pagination indicator selectors, grouped by mechanism. Detection tries
// these groups in a fixed priority order (infinite scroll, then load
// more, then numbered/prev-next containers) because a page can exhibit
// several superficial indicators at once.
var (
	infiniteScrollSelectors = []string{
		"[data-infinite-scroll]",
		"[data-infinite]",
		".infinite-scroll",
		".infinite-loading",
		".lazy-load-container",
	}

	loadMoreSelectors = []string{
		"[data-load-more]",
		".load-more",
		".show-more",
		"button.more",
	}

	paginationContainerSelectors = []string{
		".pagination",
		".pager",
		".page-numbers",
		"nav[aria-label*='agination']",
		"ul.pages",
	}

	nextLinkSelectors = []string{
		"a[rel='next']",
		".next a",
		"a.next",
		".pagination-next a",
	}

	prevLinkSelectors = []string{
		"a[rel='prev']",
		".prev a",
		"a.prev",
		".pagination-prev a",
	}
)

// loadMoreTextPattern matches button/link text that triggers loading
// further results in place.
var loadMoreTextPattern = regexp.MustCompile(`(?i)\b(load|show|view)\s+more\b`)

// cursorParamPattern matches cursor-style query parameters in a next
// link.
var cursorParamPattern = regexp.MustCompile(`(?i)[?&](cursor|after|continuation)=`)
