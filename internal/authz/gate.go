package authz

import (
	"context"
	"log/slog"

	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// DenialRecorder counts refused permission checks.
type DenialRecorder interface {
	RecordPermissionDenial(permission string)
}

// Gate checks the caller's permissions before protected actions and knows
// which role is the administrative one.
type Gate struct {
	adminRole string
	denials   DenialRecorder
}

// NewGate creates a gate / Crée une barrière d'autorisation
func NewGate(adminRole string, denials DenialRecorder) *Gate {
	if adminRole == "" {
		adminRole = domain.DefaultAdminRole
	}
	return &Gate{adminRole: adminRole, denials: denials}
}

// Authenticated returns the caller, or ErrUnauthenticated without one.
func (g *Gate) Authenticated(ctx context.Context) result.Result[Principal] {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return result.Fail[Principal](result.ErrUnauthenticated)
	}
	return result.Ok(p)
}

// Require returns the caller when it holds perm. Otherwise it returns an
// Unauthorized error and the caller must not perform the action.
func (g *Gate) Require(ctx context.Context, perm domain.PermissionName) result.Result[Principal] {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return result.Fail[Principal](result.ErrUnauthenticated)
	}
	if !p.Can(perm) {
		slog.DebugContext(ctx, "permission denied", "user_id", p.UserID, "permission", perm)
		if g.denials != nil {
			g.denials.RecordPermissionDenial(perm.String())
		}
		return result.Fail[Principal](result.ErrInvalidPermission)
	}
	return result.Ok(p)
}

// AdminRole returns the administrative role name.
func (g *Gate) AdminRole() string { return g.adminRole }

// IsAdminRole reports whether r is the administrative role. It can never be
// deleted, assigned away from its holders, or stripped of permissions.
func (g *Gate) IsAdminRole(r domain.Role) bool {
	return r.IsAdmin(g.adminRole)
}
