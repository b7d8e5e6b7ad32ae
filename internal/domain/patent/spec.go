package patent

import (
	"fmt"

	"github.com/ipfolio/ipfolio/pkg/errors"
)

// CreateSpec carries everything needed to build a new patent aggregate.
// Country rights outside the union of deposit countries are dropped at
// construction time, never rejected.
type CreateSpec struct {
	FamilyReference string `json:"family_reference"`
	Title           string `json:"title"`
	Comment         string `json:"comment"`

	ClientIDs      []int64 `json:"client_ids"`
	InventorIDs    []int64 `json:"inventor_ids"`
	DepositorIDs   []int64 `json:"depositor_ids"`
	TitleHolderIDs []int64 `json:"title_holder_ids"`

	Deposits []DepositRecord `json:"deposits"`

	InventorCountries    CountryRights `json:"inventor_countries"`
	DepositorCountries   CountryRights `json:"depositor_countries"`
	TitleHolderCountries CountryRights `json:"title_holder_countries"`
}

// DepositPatch expresses the update intent for the deposit record list as a
// named two-state: keep the stored list untouched, or replace it wholesale.
// Supplying an empty list still means untouched; there is deliberately no way
// to clear all deposit records through an update (anti-data-loss policy).
type DepositPatch struct {
	records []DepositRecord
	replace bool
}

// KeepDeposits returns a patch that leaves the stored deposit list untouched.
func KeepDeposits() DepositPatch {
	return DepositPatch{}
}

// ReplaceDeposits returns a patch that replaces the stored deposit list with
// records. An empty or nil records slice degrades to KeepDeposits.
func ReplaceDeposits(records []DepositRecord) DepositPatch {
	if len(records) == 0 {
		return DepositPatch{}
	}
	return DepositPatch{records: records, replace: true}
}

// Records returns the replacement list and whether a replacement was
// requested.
func (p DepositPatch) Records() ([]DepositRecord, bool) {
	return p.records, p.replace
}

// UpdateSpec carries a partial update of a patent aggregate. Nil pointer
// scalars and nil id lists are untouched; non-nil values replace the stored
// state wholesale. Country-right maps follow the same rule and are
// re-intersected with the (possibly just-replaced) deposit list.
type UpdateSpec struct {
	FamilyReference *string `json:"family_reference"`
	Title           *string `json:"title"`
	Comment         *string `json:"comment"`

	ClientIDs      []int64 `json:"client_ids"`
	InventorIDs    []int64 `json:"inventor_ids"`
	DepositorIDs   []int64 `json:"depositor_ids"`
	TitleHolderIDs []int64 `json:"title_holder_ids"`

	Deposits DepositPatch `json:"-"`

	InventorCountries    CountryRights `json:"inventor_countries"`
	DepositorCountries   CountryRights `json:"depositor_countries"`
	TitleHolderCountries CountryRights `json:"title_holder_countries"`
}

// validateAssignments checks one cabinet assignment list for structural
// violations: unset cabinet ids, duplicate cabinets within the category, and
// role labels outside the vocabulary. Contact-to-cabinet scoping needs the
// party directory and is checked by the application service.
func validateAssignments(depositIdx int, category CabinetCategory, assignments []CabinetAssignment) []errors.FieldViolation {
	var out []errors.FieldViolation
	seen := make(map[int64]struct{}, len(assignments))
	for i, a := range assignments {
		field := fmt.Sprintf("deposits[%d].%s_cabinets[%d]", depositIdx, category, i)
		if a.CabinetID == 0 {
			out = append(out, errors.FieldViolation{
				Field:   field + ".cabinet_id",
				Rule:    "required",
				Message: "cabinet id must be set",
			})
			continue
		}
		if _, dup := seen[a.CabinetID]; dup {
			out = append(out, errors.FieldViolation{
				Field:   field + ".cabinet_id",
				Rule:    "unique",
				Message: fmt.Sprintf("cabinet %d appears more than once in the %s list", a.CabinetID, category),
			})
		}
		seen[a.CabinetID] = struct{}{}
		for _, role := range a.Roles {
			if !ValidRole(role) {
				out = append(out, errors.FieldViolation{
					Field:   field + ".roles",
					Rule:    "vocabulary",
					Message: fmt.Sprintf("role %q is not one of first, second, third", role),
				})
			}
		}
	}
	return out
}

// validateDeposits runs the structural checks over a deposit record list.
func validateDeposits(records []DepositRecord) []errors.FieldViolation {
	var out []errors.FieldViolation
	for i, r := range records {
		out = append(out, validateAssignments(i, CategoryAnnuity, r.AnnuityCabinets)...)
		out = append(out, validateAssignments(i, CategoryProcedure, r.ProcedureCabinets)...)
	}
	return out
}

// Validate performs the in-memory structural checks on a create spec and
// returns the full violation list. Referential checks (do the ids exist, do
// contacts belong to their cabinets) are I/O-bound and performed by the
// application service before persistence.
func (s CreateSpec) Validate() []errors.FieldViolation {
	var out []errors.FieldViolation
	if s.Title == "" {
		out = append(out, errors.FieldViolation{
			Field:   "title",
			Rule:    "required",
			Message: "title must not be empty",
		})
	}
	out = append(out, validateDeposits(s.Deposits)...)
	return out
}

// Validate performs the in-memory structural checks on an update spec.
func (s UpdateSpec) Validate() []errors.FieldViolation {
	var out []errors.FieldViolation
	if s.Title != nil && *s.Title == "" {
		out = append(out, errors.FieldViolation{
			Field:   "title",
			Rule:    "required",
			Message: "title must not be empty",
		})
	}
	if records, replace := s.Deposits.Records(); replace {
		out = append(out, validateDeposits(records)...)
	}
	return out
}
