// Package party defines the reference entities that attach to a patent:
// clients, cabinets and their contacts, inventors, depositors and title
// holders. Their CRUD lifecycles live in their own services; the aggregate
// only needs existence and scoping answers, which the Directory interface
// provides.
package party

import (
	"context"
	"time"
)

// Client is a portfolio owner. Client principals are scoped to exactly one
// client row.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cabinet is an external law firm assignable to a deposit record.
type Cabinet struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact is a person at a cabinet. Contacts are scoped to their cabinet and
// are never assigned across cabinets.
type Contact struct {
	ID        int64     `json:"id"`
	CabinetID int64     `json:"cabinet_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Person is the shared shape of inventors, depositors and title holders.
type Person struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Kind names one of the patent-attachable entity kinds.
type Kind string

const (
	KindClient      Kind = "client"
	KindCabinet     Kind = "cabinet"
	KindContact     Kind = "contact"
	KindInventor    Kind = "inventor"
	KindDepositor   Kind = "depositor"
	KindTitleHolder Kind = "title_holder"
)

// Directory answers the aggregate's referential questions against the party
// tables. Implementations must read committed state; cached answers are not
// acceptable for write-time validation.
type Directory interface {
	// Missing reports which of the supplied ids do not exist for the given
	// kind. An empty result means every id exists.
	Missing(ctx context.Context, kind Kind, ids []int64) ([]int64, error)

	// ForeignContacts reports which of the supplied contact ids do not belong
	// to the given cabinet (including contacts that do not exist at all).
	ForeignContacts(ctx context.Context, cabinetID int64, contactIDs []int64) ([]int64, error)
}
