// Package identity carries the authenticated caller through a request
// context.  The JWT middleware stores it; services receive it explicitly
// from handlers instead of reading ambient state.
package identity

import (
	"context"

	"github.com/iliyamo/auditorium-booking/internal/model"
)

// Identity is the authenticated user behind a request.
type Identity struct {
	UserID string
	Role   string
}

// IsManager reports whether the caller holds the MANAGER role.
func (i Identity) IsManager() bool { return i.Role == model.RoleManager }

type ctxKey struct{}

// With returns a copy of ctx carrying id.
func With(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From extracts the identity stored by With.  ok is false for
// unauthenticated requests.
func From(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}
