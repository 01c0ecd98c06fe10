package weft

// PatternKind identifies a structural selector family.
type PatternKind string

// Pattern families recognized by the analyzer.
const (
	PatternList       PatternKind = "list"
	PatternArticle    PatternKind = "article"
	PatternProduct    PatternKind = "product"
	PatternNavigation PatternKind = "navigation"
	PatternPagination PatternKind = "pagination"
	PatternMegaMenu   PatternKind = "mega_menu"
	PatternMobileNav  PatternKind = "mobile_nav"
)

// ContentPattern describes a detected structural region of a document.
// Patterns are produced fresh on every analysis call and never mutated
// after creation; many patterns may describe the same document.
type ContentPattern struct {
	Kind       PatternKind       `json:"kind"`
	Selector   string            `json:"selector"`
	Confidence float64           `json:"confidence"` // in [0,1]
	Samples    []string          `json:"samples,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// NavItem is one entry of a navigation hierarchy. Submenu items mirror
// the document tree, so the structure is acyclic by construction.
type NavItem struct {
	Text     string    `json:"text"`
	Href     string    `json:"href,omitempty"`
	Selector string    `json:"selector"`
	Submenu  []NavItem `json:"submenu,omitempty"`
}

// SubmenuTrigger describes how a submenu is disclosed.
type SubmenuTrigger string

// Submenu disclosure triggers.
const (
	TriggerHover SubmenuTrigger = "hover"
	TriggerClick SubmenuTrigger = "click"
)

// NavigationHierarchy describes one navigation region of a document.
type NavigationHierarchy struct {
	Level      int            `json:"level"`
	Items      []NavItem      `json:"items"`
	HasSubmenu bool           `json:"hasSubmenu"`
	Trigger    SubmenuTrigger `json:"trigger,omitempty"`
}

// PaginationType identifies how a site splits content across pages.
type PaginationType string

// Pagination shapes recognized by the analyzer.
const (
	PaginationNumbered       PaginationType = "numbered"
	PaginationNextPrev       PaginationType = "next_prev"
	PaginationInfiniteScroll PaginationType = "infinite_scroll"
	PaginationLoadMore       PaginationType = "load_more"
	PaginationCursor         PaginationType = "cursor"
)

// PaginationDescriptor describes a detected pagination mechanism.
type PaginationDescriptor struct {
	Type       PaginationType    `json:"type"`
	Selectors  map[string]string `json:"selectors,omitempty"`
	TotalPages int               `json:"totalPages,omitempty"`
	Current    int               `json:"currentPage,omitempty"`
}

// StructureAnalysis is the full output of one analyzer pass over a
// document. A document that cannot be parsed yields an analysis with
// empty pattern lists, not an error; downstream components treat "no
// patterns found" as a normal low-confidence case.
type StructureAnalysis struct {
	SourceURL           string                `json:"sourceUrl"`
	ContentPatterns     []ContentPattern      `json:"contentPatterns"`
	Navigation          []NavigationHierarchy `json:"navigation,omitempty"`
	Pagination          *PaginationDescriptor `json:"pagination,omitempty"`
	MainContentSelector string                `json:"mainContentSelector,omitempty"`
	ListContainers      []string              `json:"listContainers,omitempty"`
	ItemSelectors       []string              `json:"itemSelectors,omitempty"`
	ContentTypes        []string              `json:"contentTypes,omitempty"`
	Metadata            map[string]string     `json:"metadata,omitempty"`
}

// HasContentType reports whether the analysis detected the given content
// type.
func (a *StructureAnalysis) HasContentType(t string) bool {
	for _, ct := range a.ContentTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// PatternsOfKind returns the detected patterns of one kind, in document
// order.
func (a *StructureAnalysis) PatternsOfKind(kind PatternKind) []ContentPattern {
	var out []ContentPattern
	for _, p := range a.ContentPatterns {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// Analyzer scans a document and emits content patterns, navigation
// hierarchies, and pagination descriptors with confidence scores.
type Analyzer interface {
	// Analyze parses raw HTML and returns its structural analysis.
	// Malformed HTML degrades to an analysis with empty pattern lists.
	Analyze(html string, sourceURL string) (*StructureAnalysis, error)
}
