package authz

import (
	"context"

	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/repository"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// Resolver computes a user's effective permission set from storage. It keeps
// no cache: every call sees the latest grants.
type Resolver struct {
	uow *repository.UnitOfWork
}

// NewResolver creates a resolver / Crée un résolveur de permissions
func NewResolver(uow *repository.UnitOfWork) *Resolver {
	return &Resolver{uow: uow}
}

// Resolve returns the principal of userID. A user that no longer exists is
// reported as unauthenticated.
func (r *Resolver) Resolve(ctx context.Context, userID int64) result.Result[Principal] {
	return repository.InScope(ctx, r.uow, func(s *repository.Scope) result.Result[Principal] {
		users := repository.For[domain.User, int64](s, domain.Users).GetByID(ctx, userID)
		return result.AndThen(users, func(found []domain.User) result.Result[Principal] {
			if len(found) == 0 {
				return result.Fail[Principal](result.ErrUnauthenticated)
			}
			u := found[0]

			perms := EffectivePermissions(ctx, s, u)
			return result.Map(perms, func(set domain.PermissionSet) Principal {
				return Principal{UserID: u.ID, Email: u.Email, RoleID: u.RoleID, Permissions: set}
			})
		})
	})
}

// EffectivePermissions returns the union of u's role permissions and direct
// grants, read inside scope s.
func EffectivePermissions(ctx context.Context, s *repository.Scope, u domain.User) result.Result[domain.PermissionSet] {
	catalogue := repository.For[domain.Permission, int64](s, domain.Permissions).GetAll(ctx)
	if catalogue.IsErr() {
		return result.Cast[domain.PermissionSet](catalogue)
	}
	all, _ := catalogue.Value()
	names := make(map[int64]domain.PermissionName, len(all))
	for _, p := range all {
		names[p.ID] = p.Name
	}

	var fromRole []domain.PermissionName
	if u.RoleID != nil {
		links := repository.For[domain.RolePermission, int64](s, domain.RolePermissions).GetByParentID(ctx, *u.RoleID)
		if links.IsErr() {
			return result.Cast[domain.PermissionSet](links)
		}
		rps, _ := links.Value()
		for _, rp := range rps {
			if n, ok := names[rp.PermissionID]; ok {
				fromRole = append(fromRole, n)
			}
		}
	}

	grants := repository.For[domain.UserPermission, int64](s, domain.UserPermissions).GetByParentID(ctx, u.ID)
	if grants.IsErr() {
		return result.Cast[domain.PermissionSet](grants)
	}
	ups, _ := grants.Value()
	direct := make([]domain.PermissionName, 0, len(ups))
	for _, up := range ups {
		if n, ok := names[up.PermissionID]; ok {
			direct = append(direct, n)
		}
	}

	return result.Ok(domain.NewPermissionSet(fromRole, direct))
}
