package auth

import (
	"context"

	"github.com/schooltrack/attendapi/internal/db/models"
)

// Identity captures the authenticated account propagated through the request
// context. It is immutable after authentication; authorization decisions read
// it without touching shared state.
type Identity struct {
	// ID references the backing teachers row.
	ID int64
	// Username is the unique login name.
	Username string
	// Name is the display name.
	Name string
	// Email is the unique contact address.
	Email string
	// Role is the account-level role tag. Class-scoped authority is derived
	// from assignment rows, not from this value.
	Role models.Role
	// SessionID references the active sessions row.
	SessionID string
}

// IsAdmin reports whether the identity carries the admin role tag.
func (id Identity) IsAdmin() bool {
	return id.Role == models.RoleAdmin
}

type identityContextKey struct{}

// SetIdentityContext stores the authenticated identity on the context for
// downstream consumers.
func SetIdentityContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// GetIdentityFromContext retrieves the authenticated identity from the context.
func GetIdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(Identity)
	return identity, ok
}

type classAccessContextKey struct{}

// ClassAccess records the outcome of a class-scoped authorization check so
// handlers can branch between full and aggregate-only views.
type ClassAccess struct {
	ClassName      string
	IsClassTeacher bool
}

// SetClassAccessContext stores the class access decision on the context.
func SetClassAccessContext(ctx context.Context, access ClassAccess) context.Context {
	return context.WithValue(ctx, classAccessContextKey{}, access)
}

// GetClassAccessFromContext retrieves the class access decision from the context.
func GetClassAccessFromContext(ctx context.Context) (ClassAccess, bool) {
	access, ok := ctx.Value(classAccessContextKey{}).(ClassAccess)
	return access, ok
}
