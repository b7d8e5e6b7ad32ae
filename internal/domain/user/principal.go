// Package user defines the caller identity model. A Principal is resolved
// exactly once at the transport boundary (from verified JWT claims) and passed
// by value through the call stack; no layer below the boundary re-parses
// claims.
package user

// Role classifies a caller for authorization purposes.
type Role string

const (
	// RoleAdmin grants unrestricted read and write access.
	RoleAdmin Role = "admin"
	// RoleEmployee grants access gated by the per-user CanRead/CanWrite flags.
	RoleEmployee Role = "employee"
	// RoleClient grants read-only access to the caller's own portfolio.
	RoleClient Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleClient:
		return true
	}
	return false
}

// Principal is the resolved caller identity used for authorization decisions.
type Principal struct {
	// UserID is the identity provider's subject for the caller.
	UserID string

	Role Role

	// ClientID is set only for client principals and scopes every read to
	// that client's portfolio.
	ClientID *int64

	CanRead  bool
	CanWrite bool
}

// Normalize returns a copy of p with the role-implied permission flags
// applied: admins always read and write, clients never write.
func (p Principal) Normalize() Principal {
	switch p.Role {
	case RoleAdmin:
		p.CanRead = true
		p.CanWrite = true
	case RoleClient:
		p.CanWrite = false
	}
	return p
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// IsClient reports whether the principal has the client role.
func (p Principal) IsClient() bool { return p.Role == RoleClient }

// OwnsClient reports whether the principal is a client principal bound to the
// given client id.
func (p Principal) OwnsClient(clientID int64) bool {
	return p.Role == RoleClient && p.ClientID != nil && *p.ClientID == clientID
}
