package repositories

import (
	"context"
	"fmt"

	"github.com/ipfolio/ipfolio/internal/domain/party"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// kindTables maps a party kind to its table.
var kindTables = map[party.Kind]string{
	party.KindClient:      "clients",
	party.KindCabinet:     "cabinets",
	party.KindContact:     "contacts",
	party.KindInventor:    "inventors",
	party.KindDepositor:   "depositors",
	party.KindTitleHolder: "title_holders",
}

// PartyDirectory answers existence and contact-scoping questions against the
// party tables. Reads committed state on every call; write-time validation
// never trusts a cache.
type PartyDirectory struct {
	db querier
}

func NewPartyDirectory(db querier) *PartyDirectory {
	return &PartyDirectory{db: db}
}

var _ party.Directory = (*PartyDirectory)(nil)

func (d *PartyDirectory) Missing(ctx context.Context, kind party.Kind, ids []int64) ([]int64, error) {
	table, ok := kindTables[kind]
	if !ok {
		return nil, errors.New(errors.CodeInvalidParam, fmt.Sprintf("unknown party kind %q", kind))
	}
	return missingIDs(ctx, d.db, table, ids)
}

func (d *PartyDirectory) ForeignContacts(ctx context.Context, cabinetID int64, contactIDs []int64) ([]int64, error) {
	if len(contactIDs) == 0 {
		return nil, nil
	}
	rows, err := d.db.Query(ctx,
		`SELECT id FROM contacts WHERE id = ANY($1) AND cabinet_id = $2`, contactIDs, cabinetID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "checking contact scoping")
	}
	defer rows.Close()

	owned := make(map[int64]struct{}, len(contactIDs))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning contact id")
		}
		owned[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating contact ids")
	}

	var foreign []int64
	for _, id := range contactIDs {
		if _, ok := owned[id]; !ok {
			foreign = append(foreign, id)
		}
	}
	return foreign, nil
}
