package pipeline

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Typed conversions. Each accepts already-converted values unchanged so
// the steps stay idempotent, and returns nil when the input fails the
// target type's validation.

func toNumber(v any) any {
	switch n := v.(type) {
	case nil, float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	cleaned := extractNumber(s)
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return f
}

func toInteger(v any) any {
	switch n := v.(type) {
	case nil, int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	f := toNumber(v)
	if f == nil {
		return nil
	}
	return int64(f.(float64))
}

var truthyPattern = regexp.MustCompile(`(?i)^(true|yes|y|1|on|in stock|available)$`)
var falsyPattern = regexp.MustCompile(`(?i)^(false|no|n|0|off|out of stock|unavailable)$`)

func toBoolean(v any) any {
	switch b := v.(type) {
	case nil, bool:
		return b
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	switch {
	case truthyPattern.MatchString(s):
		return true
	case falsyPattern.MatchString(s):
		return false
	}
	return nil
}

// arrayDelimiters are sniffed in order when splitting a string into a
// list.
var arrayDelimiters = []string{"\n", "|", ";", ","}

func toArray(v any) any {
	switch list := v.(type) {
	case nil, []any:
		return list
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}

	delimiter := ""
	for _, d := range arrayDelimiters {
		if strings.Contains(s, d) {
			delimiter = d
			break
		}
	}

	var parts []string
	if delimiter == "" {
		parts = []string{s}
	} else {
		parts = strings.Split(s, delimiter)
	}

	out := make([]any, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func toURL(v any) any {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil
	}
	return s
}

var emailExactPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+\.[\w.-]+$`)

func toEmail(v any) any {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if !emailExactPattern.MatchString(s) {
		return nil
	}
	return s
}

// toPhone normalizes to a leading optional plus and digits, rejecting
// anything outside 7-15 digits.
func toPhone(v any) any {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}

	var b strings.Builder
	for i, r := range s {
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	digits := strings.TrimPrefix(normalized, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return nil
	}
	return normalized
}

// dateLayouts are tried in order when parsing a date value. Output is
// always the canonical 2006-01-02 form, which itself parses first, so
// the step is idempotent.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

func toDate(v any) any {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return nil
}
