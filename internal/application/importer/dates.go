package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// textualMonths maps folded French and English month names (and their usual
// abbreviations) to month numbers.
var textualMonths = map[string]int{
	"janvier": 1, "janv": 1, "jan": 1, "january": 1,
	"fevrier": 2, "fev": 2, "feb": 2, "february": 2,
	"mars": 3, "mar": 3, "march": 3,
	"avril": 4, "avr": 4, "april": 4, "apr": 4,
	"mai": 5, "may": 5,
	"juin": 6, "jun": 6, "june": 6,
	"juillet": 7, "juil": 7, "jul": 7, "july": 7,
	"aout": 8, "aou": 8, "aug": 8, "august": 8,
	"septembre": 9, "sept": 9, "sep": 9, "september": 9,
	"octobre": 10, "oct": 10, "october": 10,
	"novembre": 11, "nov": 11, "november": 11,
	"decembre": 12, "dec": 12, "december": 12,
}

var (
	isoDateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	yearRe      = regexp.MustCompile(`\d{4}`)
	dateSplitRe = regexp.MustCompile(`[-/\s]+`)
)

// ParseDate converts the date spellings found in export spreadsheets
// ("12-janv-23", "12/01/2023", "2023-01-12") to a UTC midnight time. Cells
// that cannot be parsed yield nil; a missing date is a correctable state, not
// an import failure.
func ParseDate(cell string) *time.Time {
	s := strings.TrimSpace(strings.ReplaceAll(cell, " ", " "))
	if s == "" {
		return nil
	}
	if isoDateRe.MatchString(s) {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			t = t.UTC()
			return &t
		}
		return nil
	}

	s = strings.NewReplacer(",", "-", ".", "-").Replace(s)
	parts := dateSplitRe.Split(s, -1)
	fields := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	if len(fields) < 3 {
		return nil
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil
	}
	month, ok := parseMonth(fields[1])
	if !ok {
		return nil
	}
	year, ok := parseYear(fields[2])
	if !ok {
		return nil
	}

	parsed, err := time.Parse("2006-01-02", fmt.Sprintf("%04d-%02d-%02d", year, month, day))
	if err != nil {
		return nil
	}
	parsed = parsed.UTC()
	return &parsed
}

func parseMonth(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return n, true
		}
		return 0, false
	}
	n, ok := textualMonths[fold(s)]
	return n, ok
}

func parseYear(s string) (int, bool) {
	switch {
	case len(s) == 2:
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		// Two-digit years in these exports are always 20xx.
		return 2000 + n, true
	case len(s) == 4:
		n, err := strconv.Atoi(s)
		return n, err == nil
	default:
		if m := yearRe.FindString(s); m != "" {
			n, err := strconv.Atoi(m)
			return n, err == nil
		}
		return 0, false
	}
}
