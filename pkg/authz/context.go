package authz

import (
	"context"

	"github.com/google/uuid"
)

// Context is the caller's identity as resolved from the access token. Every
// service operation that needs authorization takes one explicitly instead of
// digging through ambient request state.
type Context struct {
	UserID      uuid.UUID
	Username    string
	Permissions []Permission
}

// Can reports whether the caller holds the permission. Admins hold all of
// them.
func (c Context) Can(permission Permission) bool {
	for _, held := range c.Permissions {
		if held == PermissionAdmin || held == permission {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller holds the admin permission.
func (c Context) IsAdmin() bool {
	return c.Can(PermissionAdmin)
}

type ctxKey struct{}

// WithContext attaches the caller identity to the request context.
func WithContext(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext returns the caller identity, if one was attached.
func FromContext(ctx context.Context) (Context, bool) {
	ac, ok := ctx.Value(ctxKey{}).(Context)
	return ac, ok
}
