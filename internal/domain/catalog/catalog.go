// Package catalog defines the reference catalogs: countries and statuses.
// Catalogs are read-mostly lookup tables consumed by every aggregate write
// and by the import reconciliation pipeline.
package catalog

import "context"

// Country is one row of the country catalog.
type Country struct {
	ID     int64  `json:"id"`
	NameFR string `json:"name_fr"`
	NameEN string `json:"name_en"`
	Alpha2 string `json:"alpha2"`
	Alpha3 string `json:"alpha3"`
}

// Status is one row of the deposit status catalog ("granted", "pending",
// "abandoned"...). Names are stored as entered by administrators; matching
// against import rows is fuzzy and lives in the importer.
type Status struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CountryRepository is the persistence contract for the country catalog.
type CountryRepository interface {
	List(ctx context.Context) ([]Country, error)
	GetByID(ctx context.Context, id int64) (*Country, error)
	GetByAlpha2(ctx context.Context, alpha2 string) (*Country, error)

	// ExistAll reports which of the supplied ids are missing from the catalog.
	// An empty result means every id exists.
	ExistAll(ctx context.Context, ids []int64) (missing []int64, err error)
}

// StatusRepository is the persistence contract for the status catalog.
type StatusRepository interface {
	List(ctx context.Context) ([]Status, error)
	GetByID(ctx context.Context, id int64) (*Status, error)
	ExistAll(ctx context.Context, ids []int64) (missing []int64, err error)
}
