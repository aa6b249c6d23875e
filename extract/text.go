// Package extract holds the per-source extraction heuristics. Every
// function here is pure: it takes an already fetched document and returns
// values, so each upstream's quirks can be tested against fixture markup.
package extract

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var cellSel = cascadia.MustCompile("td")

// cell returns the trimmed text of the i-th <td> under row.
func cell(row *goquery.Selection, i int) string {
	return strings.TrimSpace(row.FindMatcher(cellSel).Eq(i).Text())
}

// keepChars drops every rune of s not accepted by keep.
func keepChars(s string, keep func(rune) bool) string {
	return strings.Map(func(r rune) rune {
		if keep(r) {
			return r
		}
		return -1
	}, s)
}

// stripSpace removes all Unicode whitespace, including non-breaking spaces.
func stripSpace(s string) string {
	return keepChars(s, func(r rune) bool { return !unicode.IsSpace(r) })
}

func isNumeric(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-'
}
