// Package authz implements the row-level authorization filter. Authorize is a
// pure decision function; callers short-circuit before touching the store on
// a deny, and the transport boundary translates denials into HTTP statuses
// (403 for employees, 404 for client single-resource fetches to avoid
// existence leakage).
package authz

import (
	"github.com/ipfolio/ipfolio/internal/domain/user"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// Operation is the intent's verb.
type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// IsWrite reports whether the operation mutates state.
func (o Operation) IsWrite() bool {
	return o == OpCreate || o == OpUpdate || o == OpDelete
}

// Intent names what the caller wants to do. OwnerClientIDs is the resource's
// ownership key (a patent's attached client ids) and is only consulted for
// client principals on reads; it is irrelevant for Create, where no resource
// exists yet.
type Intent struct {
	Entity         string
	Operation      Operation
	OwnerClientIDs []int64
}

// DenyReason classifies why an intent was refused.
type DenyReason string

const (
	// DenyWrite: the principal may never perform this write (client role, or
	// employee without the write flag).
	DenyWrite DenyReason = "write_denied"
	// DenyRead: an employee without the read flag.
	DenyRead DenyReason = "read_denied"
	// DenyNotOwner: a client principal reading a resource outside its
	// portfolio.
	DenyNotOwner DenyReason = "not_owner"
	// DenyUnknownRole: the principal's role is not part of the model.
	DenyUnknownRole DenyReason = "unknown_role"
)

// Decision is the typed outcome of an authorization check. Deny is a value,
// not an error; callers translate it according to context.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

var allow = Decision{Allowed: true}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Authorize evaluates the rule table, in order:
//
//  1. Admin: always allow.
//  2. Employee: writes require CanWrite, reads require CanRead.
//  3. Client, any write: deny unconditionally.
//  4. Client, read: allow iff the ownership key contains the principal's
//     client id. List endpoints never call Authorize per row; they push the
//     ownership predicate into the query instead.
func Authorize(p user.Principal, intent Intent) Decision {
	p = p.Normalize()

	switch p.Role {
	case user.RoleAdmin:
		return allow

	case user.RoleEmployee:
		if intent.Operation.IsWrite() {
			if p.CanWrite {
				return allow
			}
			return deny(DenyWrite)
		}
		if p.CanRead {
			return allow
		}
		return deny(DenyRead)

	case user.RoleClient:
		if intent.Operation.IsWrite() {
			return deny(DenyWrite)
		}
		if p.ClientID != nil {
			for _, id := range intent.OwnerClientIDs {
				if id == *p.ClientID {
					return allow
				}
			}
		}
		return deny(DenyNotOwner)

	default:
		return deny(DenyUnknownRole)
	}
}

// DenialError converts a deny decision into the AppError the boundary
// expects: client principals reading a single resource get a not-found
// (existence must not leak), everyone else gets an access-denied variant.
func DenialError(p user.Principal, intent Intent, d Decision) *errors.AppError {
	if d.Allowed {
		return nil
	}
	if p.Role == user.RoleClient && !intent.Operation.IsWrite() {
		return errors.New(errors.CodeNotFound, errors.DefaultMessageForCode(errors.CodeNotFound))
	}
	switch d.Reason {
	case DenyWrite:
		return errors.New(errors.ErrCodeWriteDenied, errors.DefaultMessageForCode(errors.ErrCodeWriteDenied))
	case DenyRead:
		return errors.New(errors.ErrCodeReadDenied, errors.DefaultMessageForCode(errors.ErrCodeReadDenied))
	default:
		return errors.New(errors.ErrCodeAccessDenied, errors.DefaultMessageForCode(errors.ErrCodeAccessDenied))
	}
}
