// Package importer reconciles semi-structured spreadsheet rows into patent
// create specs: free-text country and status cells are resolved against the
// reference catalogs, placeholder values are normalized away, and every
// reconciled family is handed to the patent service as a new aggregate.
// Unresolved cells never reject a row; they surface on the per-family report
// as fields needing manual completion.
package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases, strips diacritics and trims. "États-Unis" and "etats-unis"
// fold to the same key.
func fold(s string) string {
	out, _, err := transform.String(diacriticFolder, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// placeholderTokens are cell values that mean "no number" in the source
// spreadsheets.
var placeholderTokens = map[string]struct{}{
	"":      {},
	"-":     {},
	"n/a":   {},
	"aucun": {},
}

// NormalizeNumber maps placeholder-only cell content to the empty string so
// placeholder text is never stored where a real identifier is expected.
func NormalizeNumber(raw string) string {
	s := strings.TrimSpace(raw)
	if _, ok := placeholderTokens[strings.ToLower(s)]; ok {
		return ""
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return s
		}
	}
	return ""
}

// collapseSpaces removes all whitespace, used on deposit numbers copied out of
// combined country cells.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
