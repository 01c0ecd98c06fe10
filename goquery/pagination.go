package goquery

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/weftlabs/weft"
)

var digitsOnlyPattern = regexp.MustCompile(`^\d+$`)

// detectPagination identifies the page's pagination mechanism. Detection
// order matters: infinite-scroll indicators are checked first, then
// load-more buttons, then numbered/prev-next containers, because a page
// can exhibit several superficial indicators simultaneously and only
// the first legitimate match should be trusted.
//
// Returns nil when no mechanism is detected.
func detectPagination(doc *goquery.Document) *weft.PaginationDescriptor {
	if d := detectInfiniteScroll(doc); d != nil {
		return d
	}
	if d := detectLoadMore(doc); d != nil {
		return d
	}
	return detectPagedLinks(doc)
}

func detectInfiniteScroll(doc *goquery.Document) *weft.PaginationDescriptor {
	for _, sel := range infiniteScrollSelectors {
		if doc.Find(sel).Length() > 0 {
			return &weft.PaginationDescriptor{
				Type:      weft.PaginationInfiniteScroll,
				Selectors: map[string]string{"container": sel},
			}
		}
	}
	return nil
}

func detectLoadMore(doc *goquery.Document) *weft.PaginationDescriptor {
	for _, sel := range loadMoreSelectors {
		if doc.Find(sel).Length() > 0 {
			return &weft.PaginationDescriptor{
				Type:      weft.PaginationLoadMore,
				Selectors: map[string]string{"trigger": sel},
			}
		}
	}

	var found *weft.PaginationDescriptor
	doc.Find("button, a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !loadMoreTextPattern.MatchString(s.Text()) {
			return true
		}
		found = &weft.PaginationDescriptor{
			Type:      weft.PaginationLoadMore,
			Selectors: map[string]string{"trigger": synthesizeSelector(s)},
		}
		return false
	})
	return found
}

// detectPagedLinks looks for a numbered pagination container, falling
// back to bare next/prev links, and classifies cursor-style next links
// separately.
//
// Known heuristic gap: numbered detection counts only anchors whose
// visible text is digits. Sites using aria-label="Page N" without digit
// text are not detected as numbered.
func detectPagedLinks(doc *goquery.Document) *weft.PaginationDescriptor {
	for _, sel := range paginationContainerSelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}

		selectors := map[string]string{"container": sel}
		if next := firstMatch(doc, nextLinkSelectors); next != "" {
			selectors["next"] = next
		}
		if prev := firstMatch(doc, prevLinkSelectors); prev != "" {
			selectors["prev"] = prev
		}

		total, current := numberedPages(container)
		if total > 0 {
			if href, ok := containerNextHref(container); ok && cursorParamPattern.MatchString(href) {
				return &weft.PaginationDescriptor{Type: weft.PaginationCursor, Selectors: selectors}
			}
			return &weft.PaginationDescriptor{
				Type:       weft.PaginationNumbered,
				Selectors:  selectors,
				TotalPages: total,
				Current:    current,
			}
		}
		if selectors["next"] != "" || selectors["prev"] != "" {
			if href, ok := containerNextHref(container); ok && cursorParamPattern.MatchString(href) {
				return &weft.PaginationDescriptor{Type: weft.PaginationCursor, Selectors: selectors}
			}
			return &weft.PaginationDescriptor{Type: weft.PaginationNextPrev, Selectors: selectors}
		}
	}

	if next := firstMatch(doc, nextLinkSelectors); next != "" {
		selectors := map[string]string{"next": next}
		if href, ok := doc.Find(next).First().Attr("href"); ok && cursorParamPattern.MatchString(href) {
			return &weft.PaginationDescriptor{Type: weft.PaginationCursor, Selectors: selectors}
		}
		return &weft.PaginationDescriptor{Type: weft.PaginationNextPrev, Selectors: selectors}
	}

	return nil
}

// numberedPages scans a pagination container's anchors for digit-only
// text, returning the highest page number seen and the current page
// (from an active/current-classed entry).
func numberedPages(container *goquery.Selection) (total, current int) {
	container.Find("a, span").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !digitsOnlyPattern.MatchString(text) {
			return
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return
		}
		if n > total {
			total = n
		}
		class := s.AttrOr("class", "") + " " + s.Parent().AttrOr("class", "")
		if strings.Contains(class, "active") || strings.Contains(class, "current") {
			current = n
		}
	})
	return total, current
}

// containerNextHref returns the href of the container's next-style link.
func containerNextHref(container *goquery.Selection) (string, bool) {
	for _, sel := range nextLinkSelectors {
		if link := container.Find(sel).First(); link.Length() > 0 {
			return link.Attr("href")
		}
	}
	return "", false
}

// firstMatch returns the first selector from the list that matches
// anything in the document.
func firstMatch(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if doc.Find(sel).Length() > 0 {
			return sel
		}
	}
	return ""
}
