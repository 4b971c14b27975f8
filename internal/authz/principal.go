// Package authz is the authorization gate: it carries the caller's effective
// permission set through the request context and checks it before protected
// actions.
package authz

import (
	"context"

	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
)

// Principal is the authenticated caller of one request / Appelant authentifié d'une requête
type Principal struct {
	UserID      int64
	Email       string
	RoleID      *int64
	Permissions domain.PermissionSet
}

// Can reports whether the principal holds p.
func (p Principal) Can(perm domain.PermissionName) bool {
	return p.Permissions.Has(perm)
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal carried by ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
