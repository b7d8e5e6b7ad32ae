// Package patent defines the patent aggregate: the root entity, its
// jurisdiction-specific deposit records, cabinet assignments per deposit
// record, and per-entity country rights. The aggregate is always written
// atomically; repositories never persist a partial aggregate.
package patent

import (
	"sort"
	"time"
)

// CabinetCategory distinguishes the two independent cabinet assignment lists
// on a deposit record.
type CabinetCategory string

const (
	CategoryAnnuity   CabinetCategory = "annuity"
	CategoryProcedure CabinetCategory = "procedure"
)

// Role labels form a closed vocabulary.
const (
	RoleFirst  = "first"
	RoleSecond = "second"
	RoleThird  = "third"
)

// ValidRole reports whether label belongs to the role vocabulary.
func ValidRole(label string) bool {
	switch label {
	case RoleFirst, RoleSecond, RoleThird:
		return true
	}
	return false
}

// CabinetAssignment attaches one cabinet to a deposit record with a set of
// role labels and the cabinet contacts handling the file. Within one category
// a cabinet id appears at most once per deposit record, and every contact
// must belong to the assigned cabinet.
type CabinetAssignment struct {
	CabinetID  int64    `json:"cabinet_id"`
	Roles      []string `json:"roles"`
	ContactIDs []int64  `json:"contact_ids"`
}

// DepositRecord is one jurisdiction-specific filing belonging to a patent.
// Country and status stay unset until resolved; an unresolved country is a
// legitimate, correctable data-entry state.
type DepositRecord struct {
	ID                int64      `json:"id,omitempty"`
	CountryID         *int64     `json:"country_id,omitempty"`
	StatusID          *int64     `json:"status_id,omitempty"`
	DepositNumber     string     `json:"deposit_number,omitempty"`
	PublicationNumber string     `json:"publication_number,omitempty"`
	GrantNumber       string     `json:"grant_number,omitempty"`
	DepositDate       *time.Time `json:"deposit_date,omitempty"`
	PublicationDate   *time.Time `json:"publication_date,omitempty"`
	GrantDate         *time.Time `json:"grant_date,omitempty"`
	Licensed          bool       `json:"licensed"`
	Comment           string     `json:"comment,omitempty"`

	AnnuityCabinets   []CabinetAssignment `json:"annuity_cabinets,omitempty"`
	ProcedureCabinets []CabinetAssignment `json:"procedure_cabinets,omitempty"`
}

// CountryRights maps an attached entity id (inventor, depositor or title
// holder) to the subset of deposit countries that entity is restricted to.
type CountryRights map[int64][]int64

// Patent is the root aggregate for one intellectual-property family.
type Patent struct {
	ID              int64  `json:"id"`
	FamilyReference string `json:"family_reference,omitempty"`
	Title           string `json:"title"`
	Comment         string `json:"comment,omitempty"`

	ClientIDs      []int64 `json:"client_ids"`
	InventorIDs    []int64 `json:"inventor_ids"`
	DepositorIDs   []int64 `json:"depositor_ids"`
	TitleHolderIDs []int64 `json:"title_holder_ids"`

	Deposits []DepositRecord `json:"deposits"`

	InventorCountries    CountryRights `json:"inventor_countries,omitempty"`
	DepositorCountries   CountryRights `json:"depositor_countries,omitempty"`
	TitleHolderCountries CountryRights `json:"title_holder_countries,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether the patent is attached to the given client.
func (p *Patent) OwnedBy(clientID int64) bool {
	for _, id := range p.ClientIDs {
		if id == clientID {
			return true
		}
	}
	return false
}

// CountryUnion returns the sorted distinct country ids across the supplied
// deposit records. Records with an unset country contribute nothing.
func CountryUnion(records []DepositRecord) []int64 {
	seen := make(map[int64]struct{})
	for _, r := range records {
		if r.CountryID != nil {
			seen[*r.CountryID] = struct{}{}
		}
	}
	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IntersectRights filters every entity's right-set down to the country ids
// present in union. Ids outside the union are silently dropped. Entities
// whose right-set becomes empty keep an empty (non-nil) entry so callers can
// distinguish "restricted to nothing" from "never supplied". The operation is
// idempotent.
func IntersectRights(rights CountryRights, union []int64) CountryRights {
	if rights == nil {
		return nil
	}
	allowed := make(map[int64]struct{}, len(union))
	for _, id := range union {
		allowed[id] = struct{}{}
	}
	out := make(CountryRights, len(rights))
	for entityID, countryIDs := range rights {
		kept := make([]int64, 0, len(countryIDs))
		seen := make(map[int64]struct{}, len(countryIDs))
		for _, id := range countryIDs {
			if _, ok := allowed[id]; !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			kept = append(kept, id)
		}
		sort.Slice(kept, func(i, j int) bool { return kept[i] < kept[j] })
		out[entityID] = kept
	}
	return out
}

// ApplyCountryRights recomputes all three right maps against the current
// deposit list. Called after every structural mutation of the aggregate.
func (p *Patent) ApplyCountryRights() {
	union := CountryUnion(p.Deposits)
	p.InventorCountries = IntersectRights(p.InventorCountries, union)
	p.DepositorCountries = IntersectRights(p.DepositorCountries, union)
	p.TitleHolderCountries = IntersectRights(p.TitleHolderCountries, union)
}
