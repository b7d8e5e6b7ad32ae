package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipfolio/ipfolio/internal/domain/user"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

func clientPrincipal(clientID int64) user.Principal {
	return user.Principal{Role: user.RoleClient, UserID: "c-1", ClientID: &clientID, CanRead: true}
}

func TestAuthorize_AdminAlwaysAllowed(t *testing.T) {
	t.Parallel()

	admin := user.Principal{Role: user.RoleAdmin, UserID: "a-1"}
	for _, op := range []Operation{OpRead, OpCreate, OpUpdate, OpDelete} {
		d := Authorize(admin, Intent{Entity: "patent", Operation: op})
		assert.True(t, d.Allowed, "admin %s", op)
	}
}

func TestAuthorize_EmployeeFlagsGateOperations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		canRead  bool
		canWrite bool
		op       Operation
		allowed  bool
		reason   DenyReason
	}{
		{"reader reads", true, false, OpRead, true, ""},
		{"reader cannot create", true, false, OpCreate, false, DenyWrite},
		{"reader cannot update", true, false, OpUpdate, false, DenyWrite},
		{"reader cannot delete", true, false, OpDelete, false, DenyWrite},
		{"writer writes", false, true, OpUpdate, true, ""},
		{"writer without read flag cannot read", false, true, OpRead, false, DenyRead},
		{"no flags no access", false, false, OpRead, false, DenyRead},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := user.Principal{Role: user.RoleEmployee, CanRead: tc.canRead, CanWrite: tc.canWrite}
			d := Authorize(p, Intent{Entity: "patent", Operation: tc.op})
			assert.Equal(t, tc.allowed, d.Allowed)
			if !tc.allowed {
				assert.Equal(t, tc.reason, d.Reason)
			}
		})
	}
}

func TestAuthorize_ClientWritesAlwaysDenied(t *testing.T) {
	t.Parallel()

	p := clientPrincipal(7)
	for _, op := range []Operation{OpCreate, OpUpdate, OpDelete} {
		d := Authorize(p, Intent{Entity: "patent", Operation: op, OwnerClientIDs: []int64{7}})
		assert.False(t, d.Allowed, "client %s", op)
		assert.Equal(t, DenyWrite, d.Reason)
	}
}

func TestAuthorize_ClientReadsOwnPortfolioOnly(t *testing.T) {
	t.Parallel()

	p := clientPrincipal(7)

	own := Authorize(p, Intent{Entity: "patent", Operation: OpRead, OwnerClientIDs: []int64{3, 7}})
	assert.True(t, own.Allowed)

	foreign := Authorize(p, Intent{Entity: "patent", Operation: OpRead, OwnerClientIDs: []int64{9}})
	assert.False(t, foreign.Allowed)
	assert.Equal(t, DenyNotOwner, foreign.Reason)

	orphan := Authorize(p, Intent{Entity: "patent", Operation: OpRead, OwnerClientIDs: nil})
	assert.False(t, orphan.Allowed, "orphaned patents are never visible to clients")
}

func TestAuthorize_ClientWithoutClientIDDenied(t *testing.T) {
	t.Parallel()

	p := user.Principal{Role: user.RoleClient, CanRead: true}
	d := Authorize(p, Intent{Entity: "patent", Operation: OpRead, OwnerClientIDs: []int64{7}})
	assert.False(t, d.Allowed)
}

func TestAuthorize_UnknownRoleDenied(t *testing.T) {
	t.Parallel()

	d := Authorize(user.Principal{Role: "superuser"}, Intent{Entity: "patent", Operation: OpRead})
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyUnknownRole, d.Reason)
}

func TestDenialError_ClientReadLooksLikeNotFound(t *testing.T) {
	t.Parallel()

	p := clientPrincipal(7)
	intent := Intent{Entity: "patent", Operation: OpRead, OwnerClientIDs: []int64{9}}
	d := Authorize(p, intent)
	require.False(t, d.Allowed)

	err := DenialError(p, intent, d)
	require.NotNil(t, err)
	assert.Equal(t, errors.CodeNotFound, err.Code)
}

func TestDenialError_EmployeeGetsForbiddenVariant(t *testing.T) {
	t.Parallel()

	p := user.Principal{Role: user.RoleEmployee, CanRead: true, CanWrite: false}
	intent := Intent{Entity: "patent", Operation: OpUpdate}
	d := Authorize(p, intent)
	require.False(t, d.Allowed)

	err := DenialError(p, intent, d)
	require.NotNil(t, err)
	assert.Equal(t, errors.ErrCodeWriteDenied, err.Code)
	assert.Equal(t, 403, errors.HTTPStatusForCode(err.Code))
}

func TestDenialError_AllowedYieldsNil(t *testing.T) {
	t.Parallel()

	p := user.Principal{Role: user.RoleAdmin}
	assert.Nil(t, DenialError(p, Intent{Operation: OpRead}, Authorize(p, Intent{Operation: OpRead})))
}
