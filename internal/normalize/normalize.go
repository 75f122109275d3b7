// Package normalize cleans the name, place and year strings scraped out of
// genealogy result pages before they reach the scorer.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	bracketRe    = regexp.MustCompile(`\s*[\[(][^\])]*[\])]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	yearRe       = regexp.MustCompile(`\b(\d{3,4})\b`)
)

// Name cleans a person name: editorial brackets dropped, whitespace collapsed,
// and a space inserted at each lowercase-to-uppercase boundary so that run-on
// scrapes like "MaryEwaldJohnson" become "Mary Ewald Johnson".
func Name(s string) string {
	s = bracketRe.ReplaceAllString(s, " ")
	var b strings.Builder
	b.Grow(len(s) + 4)
	prev := rune(0)
	for _, r := range s {
		if unicode.IsUpper(r) && unicode.IsLower(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))
}

// Key is the case-folded form of Name, used for comparisons.
func Key(s string) string {
	return strings.ToLower(Name(s))
}

// Tokens splits a name into folded tokens.
func Tokens(s string) []string {
	k := Key(s)
	if k == "" {
		return nil
	}
	return strings.Fields(k)
}

// Place cleans a location string while preserving its comma hierarchy,
// most specific segment first. Empty segments are dropped.
func Place(s string) string {
	return strings.Join(PlaceParts(s), ", ")
}

// PlaceParts returns the cleaned segments of a location string.
func PlaceParts(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(whitespaceRe.ReplaceAllString(p, " "))
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Year extracts a single plausible year (1000..2100) from free text. When the
// text mentions more than one distinct plausible year there is no way to tell
// which is wanted, so it reports not-found.
func Year(s string) (int, bool) {
	found := 0
	ok := false
	for _, y := range Years(s) {
		if ok && y != found {
			return 0, false
		}
		found, ok = y, true
	}
	return found, ok
}

// Years returns every plausible year in textual order. Callers parsing
// range-shaped text such as "1871 - 1943" rely on the ordering.
func Years(s string) []int {
	var out []int
	for _, m := range yearRe.FindAllString(s, -1) {
		y, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if y >= 1000 && y <= 2100 {
			out = append(out, y)
		}
	}
	return out
}
