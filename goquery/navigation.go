package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/weftlabs/weft"
	"golang.org/x/net/html"
)

// navRootSelector matches the regions treated as navigation roots.
const navRootSelector = "nav, [role='navigation'], .menu, .navbar"

// maxNavRoots caps how many navigation regions one analysis records.
const maxNavRoots = 5

// extractNavigation builds a hierarchy for each navigation root. The
// recursion mirrors the document's own nesting, so depth is bounded by
// the document and no cycles are possible.
func extractNavigation(doc *goquery.Document) []weft.NavigationHierarchy {
	var hierarchies []weft.NavigationHierarchy
	seen := map[string]bool{}

	doc.Find(navRootSelector).EachWithBreak(func(i int, root *goquery.Selection) bool {
		sel := synthesizeSelector(root)
		if seen[sel] {
			return true
		}
		seen[sel] = true

		items := navItems(root.ChildrenFiltered("ul, ol").First())
		if len(items) == 0 {
			// Flat navigation: anchors directly under the root.
			items = anchorItems(root)
		}
		if len(items) == 0 {
			return true
		}

		h := weft.NavigationHierarchy{
			Level:   i,
			Items:   items,
			Trigger: submenuTrigger(root),
		}
		for _, item := range items {
			if len(item.Submenu) > 0 {
				h.HasSubmenu = true
				break
			}
		}
		hierarchies = append(hierarchies, h)
		return len(hierarchies) < maxNavRoots
	})

	return hierarchies
}

// navItems converts a list element's direct li children into nav items,
// recursing into any directly nested list as a submenu.
func navItems(list *goquery.Selection) []weft.NavItem {
	if list == nil || list.Length() == 0 {
		return nil
	}

	var items []weft.NavItem
	list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		anchor := li.ChildrenFiltered("a").First()
		text := strings.TrimSpace(anchor.Text())
		if text == "" {
			text = strings.TrimSpace(firstOwnText(li))
		}
		if text == "" {
			return
		}

		item := weft.NavItem{
			Text:     text,
			Href:     anchor.AttrOr("href", ""),
			Selector: synthesizeSelector(li),
		}

		// A direct child list marks this entry as a submenu parent.
		if nested := li.ChildrenFiltered("ul, ol").First(); nested.Length() > 0 {
			item.Submenu = navItems(nested)
		}
		items = append(items, item)
	})
	return items
}

// anchorItems extracts flat nav items from anchors under a root that
// has no list structure.
func anchorItems(root *goquery.Selection) []weft.NavItem {
	var items []weft.NavItem
	root.Find("a").Each(func(_ int, a *goquery.Selection) {
		text := strings.TrimSpace(a.Text())
		if text == "" {
			return
		}
		items = append(items, weft.NavItem{
			Text:     text,
			Href:     a.AttrOr("href", ""),
			Selector: synthesizeSelector(a),
		})
	})
	return items
}

// submenuTrigger infers how submenus are disclosed: a data-toggle
// attribute implies click, a class mentioning hover implies hover, and
// hover is the default.
func submenuTrigger(root *goquery.Selection) weft.SubmenuTrigger {
	if root.Find("[data-toggle]").Length() > 0 {
		return weft.TriggerClick
	}
	// A class mentioning hover confirms the default; anything else also
	// falls back to hover.
	return weft.TriggerHover
}

// firstOwnText returns the element's own text content, excluding text
// contributed by child elements.
func firstOwnText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for n := s.Get(0).FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	}
	return b.String()
}
