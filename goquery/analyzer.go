package goquery

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/weftlabs/weft"
)

// Compile-time interface verification.
var _ weft.Analyzer = (*Analyzer)(nil)

// Analyzer scans a parsed document tree for content patterns,
// navigation hierarchies, and pagination descriptors. It is stateless
// and safe for concurrent use.
type Analyzer struct{}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analysis tuning constants.
const (
	// minListItems is the smallest run of structurally similar
	// children that counts as a list.
	minListItems = 3

	// maxSampleFragments caps the HTML samples stored per pattern.
	maxSampleFragments = 3

	// maxSampleLength truncates each stored fragment.
	maxSampleLength = 200

	// maxHeuristicMatches caps class-heuristic matches per family so a
	// utility-class-heavy page cannot flood the analysis.
	maxHeuristicMatches = 5
)

// Analyze parses raw HTML and returns its structural analysis.
// Malformed or empty HTML degrades to an analysis with empty pattern
// lists; downstream components treat that as a normal low-confidence
// case.
func (a *Analyzer) Analyze(html string, sourceURL string) (*weft.StructureAnalysis, error) {
	analysis := &weft.StructureAnalysis{
		SourceURL:       sourceURL,
		ContentPatterns: []weft.ContentPattern{},
		Metadata:        map[string]string{},
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return analysis, nil
	}

	analysis.Metadata["element_count"] = strconv.Itoa(doc.Find("*").Length())

	a.detectLists(doc, analysis)
	a.detectFamilies(doc, analysis)
	a.detectMainContent(doc, analysis)
	analysis.Navigation = extractNavigation(doc)
	analysis.Pagination = detectPagination(doc)

	if analysis.Pagination != nil {
		analysis.ContentPatterns = append(analysis.ContentPatterns, weft.ContentPattern{
			Kind:       weft.PatternPagination,
			Selector:   analysis.Pagination.Selectors["container"],
			Confidence: 0.9,
			Attributes: map[string]string{"type": string(analysis.Pagination.Type)},
		})
	}

	return analysis, nil
}

// detectLists finds containers with at least minListItems structurally
// similar direct children. Similarity means same tag plus same class
// signature; children of non-semantic containers may be classless, so
// they fall back to the container's own class signature.
func (a *Analyzer) detectLists(doc *goquery.Document, analysis *weft.StructureAnalysis) {
	doc.Find(listParentSelector).Each(func(_ int, container *goquery.Selection) {
		tag := goquery.NodeName(container)
		semantic := semanticListTags[tag]

		groups := map[string][]*goquery.Selection{}
		container.Children().Each(func(_ int, child *goquery.Selection) {
			key := goquery.NodeName(child) + "|" + classSignature(child)
			if !semantic && classSignature(child) == "" {
				key = goquery.NodeName(child) + "|parent:" + classSignature(container)
			}
			groups[key] = append(groups[key], child)
		})

		var best []*goquery.Selection
		for _, members := range groups {
			if len(members) > len(best) {
				best = members
			}
		}
		if len(best) < minListItems {
			return
		}

		// Semantic list tags are trusted sooner than generic div runs.
		count := len(best)
		var confidence float64
		if semantic {
			confidence = min(1.0, float64(count)/10.0)
		} else {
			confidence = min(0.8, float64(count)/15.0)
		}

		containerSel := synthesizeSelector(container)
		childTag := goquery.NodeName(best[0])
		childClass := firstUsableClass(best[0])

		pattern := weft.ContentPattern{
			Kind:       weft.PatternList,
			Selector:   containerSel,
			Confidence: confidence,
			Samples:    sampleFragments(best),
			Attributes: map[string]string{
				"item_tag":   childTag,
				"item_count": strconv.Itoa(count),
			},
		}
		analysis.ContentPatterns = append(analysis.ContentPatterns, pattern)
		analysis.ListContainers = append(analysis.ListContainers, containerSel)
		analysis.ItemSelectors = append(analysis.ItemSelectors, itemSelector(containerSel, childTag, childClass))
		addContentType(analysis, "list")
	})
}

// detectFamilies runs the pattern library's non-list families over the
// document: semantic selectors first, then the class-name heuristic at
// lower confidence.
func (a *Analyzer) detectFamilies(doc *goquery.Document, analysis *weft.StructureAnalysis) {
	for _, family := range Families() {
		if family.Kind == weft.PatternPagination {
			// Pagination has its own priority-ordered detector.
			continue
		}
		seen := map[string]bool{}

		for _, sel := range family.Selectors {
			doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
				a.appendFamilyPattern(analysis, family, s, family.SemanticConfidence, seen)
			})
		}

		matched := 0
		doc.Find("[class], [id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			hint := s.AttrOr("class", "") + " " + s.AttrOr("id", "")
			if !family.ClassPattern.MatchString(hint) {
				return true
			}
			a.appendFamilyPattern(analysis, family, s, family.HeuristicConfidence, seen)
			matched++
			return matched < maxHeuristicMatches
		})
	}
}

func (a *Analyzer) appendFamilyPattern(analysis *weft.StructureAnalysis, family Family, s *goquery.Selection, confidence float64, seen map[string]bool) {
	sel := synthesizeSelector(s)
	if sel == "" || seen[sel] {
		return
	}
	seen[sel] = true

	analysis.ContentPatterns = append(analysis.ContentPatterns, weft.ContentPattern{
		Kind:       family.Kind,
		Selector:   sel,
		Confidence: confidence,
		Samples:    sampleFragments([]*goquery.Selection{s}),
		Attributes: map[string]string{"tag": goquery.NodeName(s)},
	})

	switch family.Kind {
	case weft.PatternArticle:
		addContentType(analysis, "article")
	case weft.PatternProduct:
		addContentType(analysis, "product")
	case weft.PatternNavigation, weft.PatternMegaMenu, weft.PatternMobileNav:
		addContentType(analysis, "navigation")
	}
}

// detectMainContent probes the main-content selector list in order and
// records the first match.
func (a *Analyzer) detectMainContent(doc *goquery.Document, analysis *weft.StructureAnalysis) {
	for _, sel := range mainContentSelectors {
		if doc.Find(sel).Length() > 0 {
			analysis.MainContentSelector = sel
			return
		}
	}
}

// sampleFragments renders up to maxSampleFragments elements as
// truncated outer HTML.
func sampleFragments(items []*goquery.Selection) []string {
	var samples []string
	for _, item := range items {
		if len(samples) >= maxSampleFragments {
			break
		}
		frag, err := goquery.OuterHtml(item)
		if err != nil {
			continue
		}
		frag = strings.TrimSpace(frag)
		if len(frag) > maxSampleLength {
			frag = frag[:maxSampleLength]
		}
		if frag != "" {
			samples = append(samples, frag)
		}
	}
	return samples
}

func addContentType(analysis *weft.StructureAnalysis, t string) {
	if !analysis.HasContentType(t) {
		analysis.ContentTypes = append(analysis.ContentTypes, t)
	}
}
