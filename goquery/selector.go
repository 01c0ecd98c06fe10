package goquery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/weftlabs/weft"
)

// cssIdentPattern matches id/class tokens that are safe to splice into
// a selector without escaping.
var cssIdentPattern = regexp.MustCompile(`^-?[A-Za-z_][A-Za-z0-9_-]*$`)

// ValidateSelector returns an error unless sel parses as a CSS selector
// group.
func ValidateSelector(sel string) error {
	if strings.TrimSpace(sel) == "" {
		return weft.Errorf(weft.EINVALID, "empty selector")
	}
	if _, err := cascadia.ParseGroup(sel); err != nil {
		return weft.Errorf(weft.EINVALID, "invalid selector %q: %v", sel, err)
	}
	return nil
}

// synthesizeSelector builds a selector for one element. It prefers an
// id selector, then a tag.class selector when the class is shared by at
// most three siblings, and falls back to an nth-of-type positional
// selector.
func synthesizeSelector(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	tag := goquery.NodeName(s)

	if id := s.AttrOr("id", ""); cssIdentPattern.MatchString(id) {
		return "#" + id
	}

	if class := firstUsableClass(s); class != "" {
		shared := s.Parent().ChildrenFiltered(tag + "." + class).Length()
		if shared <= 3 {
			return tag + "." + class
		}
	}

	// Positional fallback: index among same-tag siblings, 1-based.
	pos := s.PrevAllFiltered(tag).Length() + 1
	return fmt.Sprintf("%s:nth-of-type(%d)", tag, pos)
}

// itemSelector builds a selector for repeated items under a container:
// container-selector plus a child tag (and class when stable).
func itemSelector(containerSel, tag, class string) string {
	if class != "" && cssIdentPattern.MatchString(class) {
		return containerSel + " > " + tag + "." + class
	}
	return containerSel + " > " + tag
}

// firstUsableClass returns the element's first class token that can be
// spliced into a selector, skipping utility-style tokens with
// non-identifier characters.
func firstUsableClass(s *goquery.Selection) string {
	for _, c := range strings.Fields(s.AttrOr("class", "")) {
		if cssIdentPattern.MatchString(c) {
			return c
		}
	}
	return ""
}

// classSignature returns the element's sorted-free class signature: the
// space-joined class list as written. Two elements with the same tag and
// signature are treated as structurally similar.
func classSignature(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.AttrOr("class", "")), " ")
}
