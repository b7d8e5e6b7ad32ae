package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/ipfolio/ipfolio/internal/domain/patent"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// rightKinds maps the entity-country-right kind discriminator to the three
// aggregate maps.
const (
	kindInventor    = "inventor"
	kindDepositor   = "depositor"
	kindTitleHolder = "title_holder"
)

// PatentRepository is the PostgreSQL implementation of the patent aggregate
// store. Create and Update persist the whole aggregate in one transaction;
// sub-collections (join rows, deposits, cabinet assignments, country rights)
// are deleted and reinserted wholesale so a concurrent reader never observes
// a half-written aggregate.
type PatentRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPatentRepository wires the aggregate store.
func NewPatentRepository(pool *pgxpool.Pool, logger logging.Logger) *PatentRepository {
	return &PatentRepository{pool: pool, logger: logger.Named("patent_repo")}
}

var _ domain.Repository = (*PatentRepository)(nil)

func (r *PatentRepository) Create(ctx context.Context, p *domain.Patent) error {
	now := time.Now().UTC()
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO patents (family_reference, title, comment, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			RETURNING id`,
			p.FamilyReference, p.Title, p.Comment, now,
		).Scan(&p.ID)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting patent")
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		return r.insertSubEntities(ctx, tx, p)
	})
	if err != nil {
		return err
	}
	r.logger.Debug("patent created", logging.Int64("patent_id", p.ID))
	return nil
}

func (r *PatentRepository) Update(ctx context.Context, p *domain.Patent) error {
	now := time.Now().UTC()
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE patents SET family_reference = $2, title = $3, comment = $4, updated_at = $5
			WHERE id = $1`,
			p.ID, p.FamilyReference, p.Title, p.Comment, now,
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "updating patent")
		}
		if tag.RowsAffected() == 0 {
			return patentNotFound(p.ID)
		}
		p.UpdatedAt = now

		if err := r.deleteSubEntities(ctx, tx, p.ID); err != nil {
			return err
		}
		return r.insertSubEntities(ctx, tx, p)
	})
	if err != nil {
		return err
	}
	r.logger.Debug("patent updated", logging.Int64("patent_id", p.ID))
	return nil
}

func (r *PatentRepository) GetByID(ctx context.Context, id int64) (*domain.Patent, error) {
	p := &domain.Patent{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, family_reference, title, comment, created_at, updated_at
		FROM patents WHERE id = $1`, id,
	).Scan(&p.ID, &p.FamilyReference, &p.Title, &p.Comment, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return nil, patentNotFound(id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading patent")
	}

	if err := r.loadSubEntities(ctx, []*domain.Patent{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PatentRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Patent, int64, error) {
	where := "TRUE"
	args := []any{}
	n := 0
	next := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if filter.ClientID != nil {
		where += fmt.Sprintf(
			" AND id IN (SELECT patent_id FROM patent_clients WHERE client_id = %s)",
			next(*filter.ClientID))
	}
	if filter.Query != "" {
		ph := next("%" + filter.Query + "%")
		where += fmt.Sprintf(" AND (title ILIKE %s OR family_reference ILIKE %s OR comment ILIKE %s)", ph, ph, ph)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM patents WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "counting patents")
	}

	query := fmt.Sprintf(`
		SELECT id, family_reference, title, comment, created_at, updated_at
		FROM patents WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT %s OFFSET %s`,
		where, next(filter.Page.PageSize), next(filter.Page.Offset()))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing patents")
	}
	defer rows.Close()

	var patents []*domain.Patent
	for rows.Next() {
		p := &domain.Patent{}
		if err := rows.Scan(&p.ID, &p.FamilyReference, &p.Title, &p.Comment, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning patent row")
		}
		patents = append(patents, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating patent rows")
	}

	if err := r.loadSubEntities(ctx, patents); err != nil {
		return nil, 0, err
	}
	return patents, total, nil
}

// ClientIDs returns the ownership key of one patent without loading the
// aggregate. Used by the authorization path on every client read.
func (r *PatentRepository) ClientIDs(ctx context.Context, id int64) ([]int64, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patents WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "checking patent existence")
	}
	if !exists {
		return nil, patentNotFound(id)
	}
	return scanIDs(r.pool.Query(ctx,
		`SELECT client_id FROM patent_clients WHERE patent_id = $1 ORDER BY client_id`, id))
}

func (r *PatentRepository) Delete(ctx context.Context, id int64) error {
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		// Sub-entities cascade through their foreign keys.
		tag, err := tx.Exec(ctx, `DELETE FROM patents WHERE id = $1`, id)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "deleting patent")
		}
		if tag.RowsAffected() == 0 {
			return patentNotFound(id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Debug("patent deleted", logging.Int64("patent_id", id))
	return nil
}

func (r *PatentRepository) insertSubEntities(ctx context.Context, tx pgx.Tx, p *domain.Patent) error {
	joins := []struct {
		table  string
		column string
		ids    []int64
	}{
		{"patent_clients", "client_id", p.ClientIDs},
		{"patent_inventors", "inventor_id", p.InventorIDs},
		{"patent_depositors", "depositor_id", p.DepositorIDs},
		{"patent_title_holders", "title_holder_id", p.TitleHolderIDs},
	}
	for _, j := range joins {
		for _, id := range j.ids {
			_, err := tx.Exec(ctx,
				fmt.Sprintf(`INSERT INTO %s (patent_id, %s) VALUES ($1, $2)`, j.table, j.column),
				p.ID, id)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting "+j.table)
			}
		}
	}

	for i := range p.Deposits {
		rec := &p.Deposits[i]
		err := tx.QueryRow(ctx, `
			INSERT INTO deposits (
				patent_id, position, country_id, status_id,
				deposit_number, publication_number, grant_number,
				deposit_date, publication_date, grant_date,
				licensed, comment
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			RETURNING id`,
			p.ID, i, rec.CountryID, rec.StatusID,
			rec.DepositNumber, rec.PublicationNumber, rec.GrantNumber,
			rec.DepositDate, rec.PublicationDate, rec.GrantDate,
			rec.Licensed, rec.Comment,
		).Scan(&rec.ID)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting deposit")
		}

		if err := insertAssignments(ctx, tx, rec.ID, domain.CategoryAnnuity, rec.AnnuityCabinets); err != nil {
			return err
		}
		if err := insertAssignments(ctx, tx, rec.ID, domain.CategoryProcedure, rec.ProcedureCabinets); err != nil {
			return err
		}
	}

	rights := []struct {
		kind string
		m    domain.CountryRights
	}{
		{kindInventor, p.InventorCountries},
		{kindDepositor, p.DepositorCountries},
		{kindTitleHolder, p.TitleHolderCountries},
	}
	for _, rt := range rights {
		for entityID, countryIDs := range rt.m {
			for _, countryID := range countryIDs {
				_, err := tx.Exec(ctx, `
					INSERT INTO entity_country_rights (patent_id, kind, entity_id, country_id)
					VALUES ($1, $2, $3, $4)`,
					p.ID, rt.kind, entityID, countryID)
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting country right")
				}
			}
		}
	}
	return nil
}

func insertAssignments(ctx context.Context, tx pgx.Tx, depositID int64, category domain.CabinetCategory, assignments []domain.CabinetAssignment) error {
	for _, a := range assignments {
		// pgx encodes nil slices as SQL NULL; the array columns are NOT NULL.
		roles := a.Roles
		if roles == nil {
			roles = []string{}
		}
		contacts := a.ContactIDs
		if contacts == nil {
			contacts = []int64{}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO deposit_cabinets (deposit_id, category, cabinet_id, roles, contact_ids)
			VALUES ($1, $2, $3, $4, $5)`,
			depositID, string(category), a.CabinetID, roles, contacts)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting cabinet assignment")
		}
	}
	return nil
}

func (r *PatentRepository) deleteSubEntities(ctx context.Context, tx pgx.Tx, patentID int64) error {
	statements := []string{
		`DELETE FROM deposit_cabinets WHERE deposit_id IN (SELECT id FROM deposits WHERE patent_id = $1)`,
		`DELETE FROM deposits WHERE patent_id = $1`,
		`DELETE FROM patent_clients WHERE patent_id = $1`,
		`DELETE FROM patent_inventors WHERE patent_id = $1`,
		`DELETE FROM patent_depositors WHERE patent_id = $1`,
		`DELETE FROM patent_title_holders WHERE patent_id = $1`,
		`DELETE FROM entity_country_rights WHERE patent_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, patentID); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "clearing patent sub-entities")
		}
	}
	return nil
}

// loadSubEntities fills join lists, deposits, assignments and country rights
// for a batch of patents with one query per relation.
func (r *PatentRepository) loadSubEntities(ctx context.Context, patents []*domain.Patent) error {
	if len(patents) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Patent, len(patents))
	ids := make([]int64, 0, len(patents))
	for _, p := range patents {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	joins := []struct {
		query  string
		assign func(p *domain.Patent, id int64)
	}{
		{`SELECT patent_id, client_id FROM patent_clients WHERE patent_id = ANY($1) ORDER BY client_id`,
			func(p *domain.Patent, id int64) { p.ClientIDs = append(p.ClientIDs, id) }},
		{`SELECT patent_id, inventor_id FROM patent_inventors WHERE patent_id = ANY($1) ORDER BY inventor_id`,
			func(p *domain.Patent, id int64) { p.InventorIDs = append(p.InventorIDs, id) }},
		{`SELECT patent_id, depositor_id FROM patent_depositors WHERE patent_id = ANY($1) ORDER BY depositor_id`,
			func(p *domain.Patent, id int64) { p.DepositorIDs = append(p.DepositorIDs, id) }},
		{`SELECT patent_id, title_holder_id FROM patent_title_holders WHERE patent_id = ANY($1) ORDER BY title_holder_id`,
			func(p *domain.Patent, id int64) { p.TitleHolderIDs = append(p.TitleHolderIDs, id) }},
	}
	for _, j := range joins {
		rows, err := r.pool.Query(ctx, j.query, ids)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "loading patent links")
		}
		for rows.Next() {
			var patentID, linkedID int64
			if err := rows.Scan(&patentID, &linkedID); err != nil {
				rows.Close()
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning patent link")
			}
			if p, ok := byID[patentID]; ok {
				j.assign(p, linkedID)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating patent links")
		}
	}

	if err := r.loadDeposits(ctx, ids, byID); err != nil {
		return err
	}
	return r.loadCountryRights(ctx, ids, byID)
}

func (r *PatentRepository) loadDeposits(ctx context.Context, ids []int64, byID map[int64]*domain.Patent) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patent_id, country_id, status_id,
		       deposit_number, publication_number, grant_number,
		       deposit_date, publication_date, grant_date,
		       licensed, comment
		FROM deposits WHERE patent_id = ANY($1)
		ORDER BY patent_id, position`, ids)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "loading deposits")
	}
	defer rows.Close()

	depositOwner := make(map[int64]int64)
	var depositIDs []int64
	for rows.Next() {
		var rec domain.DepositRecord
		var patentID int64
		if err := rows.Scan(&rec.ID, &patentID, &rec.CountryID, &rec.StatusID,
			&rec.DepositNumber, &rec.PublicationNumber, &rec.GrantNumber,
			&rec.DepositDate, &rec.PublicationDate, &rec.GrantDate,
			&rec.Licensed, &rec.Comment); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning deposit")
		}
		if p, ok := byID[patentID]; ok {
			p.Deposits = append(p.Deposits, rec)
			depositOwner[rec.ID] = patentID
			depositIDs = append(depositIDs, rec.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating deposits")
	}
	if len(depositIDs) == 0 {
		return nil
	}

	assignRows, err := r.pool.Query(ctx, `
		SELECT deposit_id, category, cabinet_id, roles, contact_ids
		FROM deposit_cabinets WHERE deposit_id = ANY($1)
		ORDER BY deposit_id, id`, depositIDs)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "loading cabinet assignments")
	}
	defer assignRows.Close()

	for assignRows.Next() {
		var depositID int64
		var category string
		var a domain.CabinetAssignment
		if err := assignRows.Scan(&depositID, &category, &a.CabinetID, &a.Roles, &a.ContactIDs); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning cabinet assignment")
		}
		p, ok := byID[depositOwner[depositID]]
		if !ok {
			continue
		}
		for i := range p.Deposits {
			if p.Deposits[i].ID != depositID {
				continue
			}
			if category == string(domain.CategoryAnnuity) {
				p.Deposits[i].AnnuityCabinets = append(p.Deposits[i].AnnuityCabinets, a)
			} else {
				p.Deposits[i].ProcedureCabinets = append(p.Deposits[i].ProcedureCabinets, a)
			}
			break
		}
	}
	return assignRows.Err()
}

func (r *PatentRepository) loadCountryRights(ctx context.Context, ids []int64, byID map[int64]*domain.Patent) error {
	rows, err := r.pool.Query(ctx, `
		SELECT patent_id, kind, entity_id, country_id
		FROM entity_country_rights WHERE patent_id = ANY($1)
		ORDER BY patent_id, kind, entity_id, country_id`, ids)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "loading country rights")
	}
	defer rows.Close()

	for rows.Next() {
		var patentID, entityID, countryID int64
		var kind string
		if err := rows.Scan(&patentID, &kind, &entityID, &countryID); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning country right")
		}
		p, ok := byID[patentID]
		if !ok {
			continue
		}
		var m *domain.CountryRights
		switch kind {
		case kindInventor:
			m = &p.InventorCountries
		case kindDepositor:
			m = &p.DepositorCountries
		case kindTitleHolder:
			m = &p.TitleHolderCountries
		default:
			continue
		}
		if *m == nil {
			*m = domain.CountryRights{}
		}
		(*m)[entityID] = append((*m)[entityID], countryID)
	}
	return rows.Err()
}

func scanIDs(rows pgx.Rows, err error) ([]int64, error) {
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "querying ids")
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating ids")
	}
	return ids, nil
}

func patentNotFound(id int64) *errors.AppError {
	return errors.New(errors.ErrCodePatentNotFound, fmt.Sprintf("patent %d does not exist", id))
}
