package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipfolio/ipfolio/internal/domain/catalog"
)

func testCountries() []catalog.Country {
	return []catalog.Country{
		{ID: 1, Alpha2: "FR", Alpha3: "FRA", NameFR: "France", NameEN: "France"},
		{ID: 2, Alpha2: "US", Alpha3: "USA", NameFR: "États-Unis", NameEN: "United States"},
		{ID: 3, Alpha2: "DE", Alpha3: "DEU", NameFR: "Allemagne", NameEN: "Germany"},
		{ID: 4, Alpha2: "GB", Alpha3: "GBR", NameFR: "Royaume-Uni", NameEN: "United Kingdom"},
	}
}

func testStatuses() []catalog.Status {
	return []catalog.Status{
		{ID: 10, Name: "Délivré", Description: "Brevet délivré"},
		{ID: 11, Name: "En cours", Description: "Demande en cours d'examen"},
		{ID: 12, Name: "Abandonné", Description: "Abandonné"},
	}
}

func TestCountryResolver(t *testing.T) {
	t.Parallel()

	r := NewCountryResolver(testCountries())

	tests := []struct {
		name   string
		cell   string
		wantID int64
		wantOK bool
	}{
		{"alpha2 exact", "FR", 1, true},
		{"alpha2 lowercase", "us", 2, true},
		{"alpha3", "DEU", 3, true},
		{"french name", "États-Unis", 2, true},
		{"french name unaccented", "etats-unis", 2, true},
		{"english name", "Germany", 3, true},
		{"english alias", "USA", 2, true},
		{"vernacular alias", "England", 4, true},
		{"multiline name then number", "United States\nUS20231234", 2, true},
		{"multiline number prefix only", "???\nFR20200004576", 1, true},
		{"unknown text", "Atlantis", 0, false},
		{"empty", "  ", 0, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, ok := r.Resolve(tt.cell)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestDepositNumberFromCombinedCell(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "FR20200004576", DepositNumber("France\nFR2020 0004576"))
	assert.Equal(t, "", DepositNumber("France"))
}

func TestStatusMatcher(t *testing.T) {
	t.Parallel()

	m := NewStatusMatcher(testStatuses())

	tests := []struct {
		name   string
		cell   string
		wantID int64
		wantOK bool
	}{
		{"exact", "Délivré", 10, true},
		{"exact folded", "delivre", 10, true},
		{"cell contains catalog name", "brevet delivre en France", 10, true},
		{"catalog name contains cell", "cours", 11, true},
		{"aucun means none", "aucun", 0, false},
		{"placeholder dash", "-", 0, false},
		{"unknown", "zzz", 0, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, ok := m.Match(tt.cell)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestNormalizeNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"WO2021FR50778", "WO2021FR50778"},
		{" WO2021FR50778 ", "WO2021FR50778"},
		{"-", ""},
		{"n/a", ""},
		{"N/A", ""},
		{"aucun", ""},
		{"Aucun", ""},
		{"", ""},
		{"  ", ""},
		{"---", ""},
		{"??!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeNumber(tt.in), "input %q", tt.in)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	day := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}

	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2023-01-12", day(2023, time.January, 12)},
		{"12-janv-23", day(2023, time.January, 12)},
		{"12 janvier 2023", day(2023, time.January, 12)},
		{"3-déc-21", day(2021, time.December, 3)},
		{"12/01/2023", day(2023, time.January, 12)},
		{"12/01/23", day(2023, time.January, 12)},
		{"5 May 2022", day(2022, time.May, 5)},
		{"not a date", nil},
		{"", nil},
		{"12-xyz-23", nil},
	}
	for _, tt := range tests {
		got := ParseDate(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "input %q", tt.in)
			continue
		}
		require.NotNil(t, got, "input %q", tt.in)
		assert.True(t, tt.want.Equal(*got), "input %q: got %v", tt.in, got)
	}
}

func TestReconcileBuildsSpec(t *testing.T) {
	t.Parallel()

	resolver := NewCountryResolver(testCountries())
	matcher := NewStatusMatcher(testStatuses())

	family := RawFamily{
		Reference: "FAM-001",
		Title:     "Optical sensor array",
		Rows: []RawRow{
			{
				CountryText:       "France\nFR20200004576",
				PublicationNumber: "FR3100000",
				Status:            "Délivré",
				DepositDate:       "12-janv-20",
			},
			{
				CountryText:       "United States\nUS20231234",
				PublicationNumber: "-",
				Status:            "statut mystère",
			},
			{
				CountryText: "Atlantis",
			},
		},
	}

	spec, unresolved := reconcile(resolver, matcher, family)

	assert.Equal(t, "FAM-001", spec.FamilyReference)
	assert.Equal(t, "Optical sensor array", spec.Title)
	require.Len(t, spec.Deposits, 3)

	// Row 0: country, status and date all resolved; deposit number recovered
	// from the combined country cell.
	require.NotNil(t, spec.Deposits[0].CountryID)
	assert.Equal(t, int64(1), *spec.Deposits[0].CountryID)
	require.NotNil(t, spec.Deposits[0].StatusID)
	assert.Equal(t, int64(10), *spec.Deposits[0].StatusID)
	assert.Equal(t, "FR20200004576", spec.Deposits[0].DepositNumber)
	require.NotNil(t, spec.Deposits[0].DepositDate)

	// Row 1: placeholder publication number normalized away, unknown status
	// left unset but reported.
	require.NotNil(t, spec.Deposits[1].CountryID)
	assert.Equal(t, int64(2), *spec.Deposits[1].CountryID)
	assert.Empty(t, spec.Deposits[1].PublicationNumber)
	assert.Nil(t, spec.Deposits[1].StatusID)

	// Row 2: unresolved country left unset, row still present.
	assert.Nil(t, spec.Deposits[2].CountryID)

	require.Len(t, unresolved, 2)
	assert.Equal(t, Unresolved{Row: 1, Field: "status", Value: "statut mystère"}, unresolved[0])
	assert.Equal(t, Unresolved{Row: 2, Field: "country", Value: "Atlantis"}, unresolved[1])
}

func TestReconcileFallsBackToRowTitleAndReference(t *testing.T) {
	t.Parallel()

	resolver := NewCountryResolver(testCountries())
	matcher := NewStatusMatcher(testStatuses())

	family := RawFamily{
		Rows: []RawRow{{FamilyReference: "FAM-9", Title: "From the row", CountryText: "FR"}},
	}

	spec, unresolved := reconcile(resolver, matcher, family)
	assert.Equal(t, "FAM-9", spec.FamilyReference)
	assert.Equal(t, "From the row", spec.Title)
	assert.Empty(t, unresolved)
}
