package scrape

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

var (
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

	// Annotations that carry digits of their own: parenthesised notes such as
	// (註1) or (▲1.5), reference marks ※2 and 註3, and *N footnotes that stand
	// apart from the value ("*1 52.3") or trail it ("52.3*1").
	noteRe         = regexp.MustCompile(`\([^()]*\)|[※註]\s*\d+|\*\d+(?:\s|$)`)
	trailingStarRe = regexp.MustCompile(`(\d)\*\d+\b`)
)

// Normalize folds full-width characters, collapses whitespace and trims.
func Normalize(s string) string {
	s = width.Narrow.String(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// ParseNumber reads the single number of a loosely formatted cell. Markup,
// thousands separators, marker characters and footnotes are ignored.
// Placeholders such as "-" or "N/A", and cells still holding more than one
// number after footnotes are removed, give ok=false.
func ParseNumber(raw string) (float64, bool) {
	s := tagRe.ReplaceAllString(raw, " ")
	s = Normalize(s)
	s = strings.NewReplacer(",", "", "$", "", "NT", "").Replace(s)
	s = trailingStarRe.ReplaceAllString(s, "$1")
	s = noteRe.ReplaceAllString(s, " ")

	found := numberRe.FindAllString(s, 2)
	if len(found) != 1 {
		return 0, false
	}
	v, err := strconv.ParseFloat(found[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParsePositive is ParseNumber restricted to values above zero.
func ParsePositive(raw string) (float64, bool) {
	v, ok := ParseNumber(raw)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
