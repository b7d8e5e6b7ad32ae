package importer

import (
	"regexp"
	"strings"

	"github.com/ipfolio/ipfolio/internal/domain/catalog"
)

// countryAliases maps folded English (and a few vernacular) country names to
// ISO alpha-2 codes. The catalog's own French and English names are indexed
// at runtime; this table covers the spellings spreadsheets actually contain
// that no catalog column does.
var countryAliases = map[string]string{
	"united kingdom": "GB",
	"great britain":  "GB",
	"uk":             "GB",
	"england":        "GB",
	"germany":        "DE",
	"deutschland":    "DE",
	"spain":          "ES",
	"netherlands":    "NL",
	"holland":        "NL",
	"united states":  "US",
	"usa":            "US",
	"switzerland":    "CH",
	"sweden":         "SE",
	"norway":         "NO",
	"denmark":        "DK",
	"finland":        "FI",
	"ireland":        "IE",
	"portugal":       "PT",
	"greece":         "GR",
	"austria":        "AT",
	"italy":          "IT",
	"poland":         "PL",
	"hungary":        "HU",
	"czechia":        "CZ",
	"czech republic": "CZ",
	"slovakia":       "SK",
	"slovenia":       "SI",
	"croatia":        "HR",
	"romania":        "RO",
	"bulgaria":       "BG",
	"serbia":         "RS",
	"turkey":         "TR",
	"japan":          "JP",
	"china":          "CN",
	"india":          "IN",
	"brazil":         "BR",
	"russia":         "RU",
	"korea":          "KR",
	"south korea":    "KR",
	"north korea":    "KP",
	"belgium":        "BE",
	"luxembourg":     "LU",
	"israel":         "IL",
	"egypt":          "EG",
}

var leadingCodeRe = regexp.MustCompile(`^([A-Za-z]{2,3})`)

// CountryResolver maps free-text country cells to catalog country ids. Built
// once per import batch from the country catalog.
type CountryResolver struct {
	byAlpha2 map[string]int64
	byAlpha3 map[string]int64
	byName   map[string]string
}

// NewCountryResolver indexes the catalog by alpha-2 code, alpha-3 code and
// folded French/English display name.
func NewCountryResolver(countries []catalog.Country) *CountryResolver {
	r := &CountryResolver{
		byAlpha2: make(map[string]int64, len(countries)),
		byAlpha3: make(map[string]int64, len(countries)),
		byName:   make(map[string]string, 2*len(countries)+len(countryAliases)),
	}
	for _, c := range countries {
		if code := strings.ToUpper(strings.TrimSpace(c.Alpha2)); code != "" {
			r.byAlpha2[code] = c.ID
			if name := fold(c.NameFR); name != "" {
				r.byName[name] = code
			}
			if name := fold(c.NameEN); name != "" {
				r.byName[name] = code
			}
		}
		if code := strings.ToUpper(strings.TrimSpace(c.Alpha3)); code != "" {
			r.byAlpha3[code] = c.ID
		}
	}
	for alias, code := range countryAliases {
		if _, taken := r.byName[alias]; !taken {
			r.byName[alias] = code
		}
	}
	return r
}

// Resolve maps one cell to a country id, trying in order: the cell as an ISO
// code, the cell as a French/English name, and finally the multi-line
// heuristic (first line as a name, later lines as number prefixes, e.g.
// "United States\nUS20231234"). An unresolved country is reported false, not
// as an error; the caller leaves the field unset for manual completion.
func (r *CountryResolver) Resolve(cell string) (int64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}

	if id, ok := r.resolveCode(cell); ok {
		return id, true
	}
	if id, ok := r.resolveName(cell); ok {
		return id, true
	}

	lines := splitLines(cell)
	if len(lines) < 2 {
		return 0, false
	}
	if id, ok := r.resolveName(lines[0]); ok {
		return id, true
	}
	for _, line := range lines[1:] {
		token := leadingCodeRe.FindString(collapseSpaces(line))
		if token == "" {
			continue
		}
		if id, ok := r.resolveCode(token); ok {
			return id, true
		}
	}
	return 0, false
}

func (r *CountryResolver) resolveCode(s string) (int64, bool) {
	code := strings.ToUpper(strings.TrimSpace(s))
	switch len(code) {
	case 2:
		id, ok := r.byAlpha2[code]
		return id, ok
	case 3:
		id, ok := r.byAlpha3[code]
		return id, ok
	default:
		return 0, false
	}
}

func (r *CountryResolver) resolveName(s string) (int64, bool) {
	code, ok := r.byName[fold(s)]
	if !ok {
		return 0, false
	}
	id, ok := r.byAlpha2[code]
	return id, ok
}

// DepositNumber extracts the deposit number from a combined country cell
// ("France\nFR20200004576") when the dedicated column is empty.
func DepositNumber(cell string) string {
	lines := splitLines(cell)
	if len(lines) < 2 {
		return ""
	}
	return collapseSpaces(lines[1])
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
