package patent

import (
	"context"

	"github.com/ipfolio/ipfolio/pkg/types/common"
)

// ListFilter narrows a patent listing. A nil ClientID lists everything the
// caller may see; a set ClientID restricts to patents attached to that
// client, pushed down into the query so pagination counts reflect only
// visible rows.
type ListFilter struct {
	ClientID *int64

	// Query is an optional case-insensitive substring matched against title,
	// family reference and comment.
	Query string

	Page common.Pagination
}

// Repository is the persistence contract for the patent aggregate. Create and
// Update write the whole aggregate (root row, join tables, deposit records,
// cabinet assignments, country rights) inside one transaction; a concurrent
// reader never observes a partial aggregate.
type Repository interface {
	// Create persists a new aggregate and fills p.ID and the audit
	// timestamps.
	Create(ctx context.Context, p *Patent) error

	// Update rewrites the stored aggregate to match p. Sub-collections are
	// replaced wholesale; the caller has already merged untouched collections
	// from the stored state.
	Update(ctx context.Context, p *Patent) error

	// GetByID loads the full aggregate. Returns a CodePatentNotFound error
	// when no row exists.
	GetByID(ctx context.Context, id int64) (*Patent, error)

	// List returns one page of aggregates plus the total count under the
	// same filter, ordered by creation time descending.
	List(ctx context.Context, filter ListFilter) ([]*Patent, int64, error)

	// ClientIDs returns the client ids attached to a patent without loading
	// the full aggregate. Returns CodePatentNotFound when no row exists.
	ClientIDs(ctx context.Context, id int64) ([]int64, error)

	// Delete removes the aggregate and everything it owns.
	Delete(ctx context.Context, id int64) error
}
