package patent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestCountryUnion(t *testing.T) {
	t.Parallel()

	records := []DepositRecord{
		{CountryID: ptr(3)},
		{CountryID: ptr(1)},
		{CountryID: nil},
		{CountryID: ptr(3)},
		{CountryID: ptr(2)},
	}

	assert.Equal(t, []int64{1, 2, 3}, CountryUnion(records))
	assert.Empty(t, CountryUnion(nil))
	assert.Empty(t, CountryUnion([]DepositRecord{{CountryID: nil}}))
}

func TestIntersectRights_DropsOutsideUnion(t *testing.T) {
	t.Parallel()

	rights := CountryRights{
		10: {1, 2, 9},
		11: {9},
		12: {2, 2, 1},
	}

	got := IntersectRights(rights, []int64{1, 2, 3})

	assert.Equal(t, []int64{1, 2}, got[10])
	assert.Empty(t, got[11], "entity keeps an empty entry when everything is dropped")
	require.Contains(t, got, int64(11))
	assert.Equal(t, []int64{1, 2}, got[12], "duplicates are collapsed")
}

func TestIntersectRights_Idempotent(t *testing.T) {
	t.Parallel()

	rights := CountryRights{10: {5, 1, 3}}
	union := []int64{1, 3}

	once := IntersectRights(rights, union)
	twice := IntersectRights(once, union)

	assert.Equal(t, once, twice)
}

func TestIntersectRights_NilMapStaysNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, IntersectRights(nil, []int64{1}))
}

func TestApplyCountryRights_RefiltersAfterDepositChange(t *testing.T) {
	t.Parallel()

	p := &Patent{
		Deposits: []DepositRecord{
			{CountryID: ptr(1)},
			{CountryID: ptr(2)},
		},
		InventorCountries:    CountryRights{10: {1, 2, 3}},
		DepositorCountries:   CountryRights{20: {2}},
		TitleHolderCountries: CountryRights{30: {3}},
	}

	p.ApplyCountryRights()

	assert.Equal(t, []int64{1, 2}, p.InventorCountries[10])
	assert.Equal(t, []int64{2}, p.DepositorCountries[20])
	assert.Empty(t, p.TitleHolderCountries[30])

	// Dropping a deposit record narrows every right set on the next pass.
	p.Deposits = p.Deposits[:1]
	p.ApplyCountryRights()

	assert.Equal(t, []int64{1}, p.InventorCountries[10])
	assert.Empty(t, p.DepositorCountries[20])
}

func TestOwnedBy(t *testing.T) {
	t.Parallel()

	p := &Patent{ClientIDs: []int64{7, 9}}
	assert.True(t, p.OwnedBy(7))
	assert.True(t, p.OwnedBy(9))
	assert.False(t, p.OwnedBy(8))
	assert.False(t, (&Patent{}).OwnedBy(7))
}

func TestValidRole(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidRole(RoleFirst))
	assert.True(t, ValidRole(RoleSecond))
	assert.True(t, ValidRole(RoleThird))
	assert.False(t, ValidRole("fourth"))
	assert.False(t, ValidRole(""))
}
