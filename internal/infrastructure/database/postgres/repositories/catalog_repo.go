package repositories

import (
	"context"
	"fmt"

	"github.com/ipfolio/ipfolio/internal/domain/catalog"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// CountryRepository reads the country reference catalog.
type CountryRepository struct {
	db querier
}

func NewCountryRepository(db querier) *CountryRepository {
	return &CountryRepository{db: db}
}

var _ catalog.CountryRepository = (*CountryRepository)(nil)

func (r *CountryRepository) List(ctx context.Context) ([]catalog.Country, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, alpha2, alpha3, name_fr, name_en
		FROM countries ORDER BY name_fr`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing countries")
	}
	defer rows.Close()

	var out []catalog.Country
	for rows.Next() {
		var c catalog.Country
		if err := rows.Scan(&c.ID, &c.Alpha2, &c.Alpha3, &c.NameFR, &c.NameEN); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning country")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating countries")
	}
	return out, nil
}

func (r *CountryRepository) GetByID(ctx context.Context, id int64) (*catalog.Country, error) {
	var c catalog.Country
	err := r.db.QueryRow(ctx, `
		SELECT id, alpha2, alpha3, name_fr, name_en
		FROM countries WHERE id = $1`, id,
	).Scan(&c.ID, &c.Alpha2, &c.Alpha3, &c.NameFR, &c.NameEN)
	if err != nil {
		if noRows(err) {
			return nil, errors.New(errors.ErrCodeCountryNotFound, fmt.Sprintf("country %d does not exist", id))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading country")
	}
	return &c, nil
}

func (r *CountryRepository) GetByAlpha2(ctx context.Context, alpha2 string) (*catalog.Country, error) {
	var c catalog.Country
	err := r.db.QueryRow(ctx, `
		SELECT id, alpha2, alpha3, name_fr, name_en
		FROM countries WHERE alpha2 = UPPER($1)`, alpha2,
	).Scan(&c.ID, &c.Alpha2, &c.Alpha3, &c.NameFR, &c.NameEN)
	if err != nil {
		if noRows(err) {
			return nil, errors.New(errors.ErrCodeCountryNotFound, fmt.Sprintf("country %q does not exist", alpha2))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading country")
	}
	return &c, nil
}

// ExistAll returns the subset of ids with no catalog row, in input order.
func (r *CountryRepository) ExistAll(ctx context.Context, ids []int64) ([]int64, error) {
	return missingIDs(ctx, r.db, "countries", ids)
}

// StatusRepository reads the status reference catalog.
type StatusRepository struct {
	db querier
}

func NewStatusRepository(db querier) *StatusRepository {
	return &StatusRepository{db: db}
}

var _ catalog.StatusRepository = (*StatusRepository)(nil)

func (r *StatusRepository) List(ctx context.Context) ([]catalog.Status, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description FROM statuses ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing statuses")
	}
	defer rows.Close()

	var out []catalog.Status
	for rows.Next() {
		var s catalog.Status
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning status")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating statuses")
	}
	return out, nil
}

func (r *StatusRepository) GetByID(ctx context.Context, id int64) (*catalog.Status, error) {
	var s catalog.Status
	err := r.db.QueryRow(ctx, `SELECT id, name, description FROM statuses WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Description)
	if err != nil {
		if noRows(err) {
			return nil, errors.New(errors.ErrCodeStatusNotFound, fmt.Sprintf("status %d does not exist", id))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading status")
	}
	return &s, nil
}

func (r *StatusRepository) ExistAll(ctx context.Context, ids []int64) ([]int64, error) {
	return missingIDs(ctx, r.db, "statuses", ids)
}

// missingIDs reports which of ids have no row in table, preserving input
// order. Always validated against the store, never a cache.
func missingIDs(ctx context.Context, db querier, table string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.Query(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE id = ANY($1)`, table), ids)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "checking "+table+" ids")
	}
	defer rows.Close()

	found := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning id")
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating ids")
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
