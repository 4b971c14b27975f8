package handler

import (
	"context"

	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/repository"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// GetRolesQuery lists the roles.
type GetRolesQuery struct {
	mediator.Query[[]domain.Role]
}

// CreateRoleCommand adds a role. It needs roles:manage.
type CreateRoleCommand struct {
	mediator.Command[domain.Role]
	Name        string `json:"name" validate:"notblank,max=50"`
	Description string `json:"description" validate:"max=200"`
}

// DeleteRoleCommand removes a role; its holders are left without role. It
// needs roles:manage and never applies to the administrative role.
type DeleteRoleCommand struct {
	mediator.Command[bool]
	RoleID int64 `json:"role_id" validate:"gt=0"`
}

// GrantRolePermissionCommand adds a permission to a role. It needs
// permissions:manage.
type GrantRolePermissionCommand struct {
	mediator.Command[bool]
	RoleID     int64  `json:"role_id" validate:"gt=0"`
	Permission string `json:"permission" validate:"notblank"`
}

// RevokeRolePermissionCommand removes a permission from a role. It needs
// permissions:manage; the administrative role keeps all of its permissions.
type RevokeRolePermissionCommand struct {
	mediator.Command[bool]
	RoleID     int64  `json:"role_id" validate:"gt=0"`
	Permission string `json:"permission" validate:"notblank"`
}

// GetPermissionsQuery lists the permission catalogue.
type GetPermissionsQuery struct {
	mediator.Query[[]domain.Permission]
}

func (h *Handlers) registerRoles(d *mediator.Dispatcher) {
	mediator.Register[GetRolesQuery, []domain.Role](d, mediator.HandlerFunc[GetRolesQuery, []domain.Role](h.getRoles))
	mediator.Register[CreateRoleCommand, domain.Role](d, mediator.HandlerFunc[CreateRoleCommand, domain.Role](h.createRole))
	mediator.Register[DeleteRoleCommand, bool](d, mediator.HandlerFunc[DeleteRoleCommand, bool](h.deleteRole))
	mediator.Register[GrantRolePermissionCommand, bool](d, mediator.HandlerFunc[GrantRolePermissionCommand, bool](h.grantRolePermission))
	mediator.Register[RevokeRolePermissionCommand, bool](d, mediator.HandlerFunc[RevokeRolePermissionCommand, bool](h.revokeRolePermission))
	mediator.Register[GetPermissionsQuery, []domain.Permission](d, mediator.HandlerFunc[GetPermissionsQuery, []domain.Permission](h.getPermissions))
}

func (h *Handlers) getRoles(ctx context.Context, _ GetRolesQuery) result.Result[[]domain.Role] {
	return result.AndThen(h.Gate.Authenticated(ctx), func(authz.Principal) result.Result[[]domain.Role] {
		return inScope(ctx, h, func(st stores) result.Result[[]domain.Role] {
			return st.roles.GetAll(ctx)
		})
	})
}

func (h *Handlers) createRole(ctx context.Context, c CreateRoleCommand) result.Result[domain.Role] {
	return result.AndThen(h.Gate.Require(ctx, domain.PermissionRolesManage), func(authz.Principal) result.Result[domain.Role] {
		return inScope(ctx, h, func(st stores) result.Result[domain.Role] {
			created := st.roles.Insert(ctx, domain.Role{Name: c.Name, Description: c.Description})
			return duplicate(single(created, errNoEcho), ErrRoleAlreadyExists)
		})
	})
}

func (h *Handlers) deleteRole(ctx context.Context, c DeleteRoleCommand) result.Result[bool] {
	return result.AndThen(h.Gate.Require(ctx, domain.PermissionRolesManage), func(authz.Principal) result.Result[bool] {
		return inScope(ctx, h, func(st stores) result.Result[bool] {
			return result.AndThen(h.unprotectedRole(ctx, st, c.RoleID), func(role domain.Role) result.Result[bool] {
				holders := st.users.Find(ctx, repository.Where{"RoleID": role.ID})
				if holders.IsErr() {
					return result.Cast[bool](holders)
				}
				users, _ := holders.Value()
				for _, u := range users {
					u.RoleID = nil
					if n := st.users.Update(ctx, u); n.IsErr() {
						return result.Cast[bool](n)
					}
				}
				if r := st.rolePermissions.DeleteWhere(ctx, repository.Where{"RoleID": role.ID}); r.IsErr() {
					return result.Cast[bool](r)
				}
				return result.Map(st.roles.DeleteByID(ctx, role.ID), func(n int64) bool { return n > 0 })
			})
		})
	})
}

func (h *Handlers) grantRolePermission(ctx context.Context, c GrantRolePermissionCommand) result.Result[bool] {
	return result.AndThen(h.Gate.Require(ctx, domain.PermissionPermissionsManage), func(authz.Principal) result.Result[bool] {
		return inScope(ctx, h, func(st stores) result.Result[bool] {
			if role := single(st.roles.GetByID(ctx, c.RoleID), ErrRoleNotFound); role.IsErr() {
				return result.Cast[bool](role)
			}
			return result.AndThen(permissionNamed(ctx, st, c.Permission), func(p domain.Permission) result.Result[bool] {
				granted := st.rolePermissions.Insert(ctx, domain.RolePermission{RoleID: c.RoleID, PermissionID: p.ID})
				return duplicate(result.Map(granted, func([]domain.RolePermission) bool { return true }), ErrPermissionAlreadyGranted)
			})
		})
	})
}

func (h *Handlers) revokeRolePermission(ctx context.Context, c RevokeRolePermissionCommand) result.Result[bool] {
	return result.AndThen(h.Gate.Require(ctx, domain.PermissionPermissionsManage), func(authz.Principal) result.Result[bool] {
		return inScope(ctx, h, func(st stores) result.Result[bool] {
			return result.AndThen(h.unprotectedRole(ctx, st, c.RoleID), func(role domain.Role) result.Result[bool] {
				return result.AndThen(permissionNamed(ctx, st, c.Permission), func(p domain.Permission) result.Result[bool] {
					revoked := st.rolePermissions.DeleteWhere(ctx, repository.Where{"RoleID": role.ID, "PermissionID": p.ID})
					return result.Map(revoked, func(n int64) bool { return n > 0 })
				})
			})
		})
	})
}

func (h *Handlers) getPermissions(ctx context.Context, _ GetPermissionsQuery) result.Result[[]domain.Permission] {
	return result.AndThen(h.Gate.Authenticated(ctx), func(authz.Principal) result.Result[[]domain.Permission] {
		return inScope(ctx, h, func(st stores) result.Result[[]domain.Permission] {
			return st.permissions.GetAll(ctx)
		})
	})
}

// unprotectedRole loads a role and refuses the administrative one.
func (h *Handlers) unprotectedRole(ctx context.Context, st stores, roleID int64) result.Result[domain.Role] {
	return result.AndThen(single(st.roles.GetByID(ctx, roleID), ErrRoleNotFound), func(r domain.Role) result.Result[domain.Role] {
		if h.Gate.IsAdminRole(r) {
			return result.Fail[domain.Role](result.ErrCannotModifyAdminRole)
		}
		return result.Ok(r)
	})
}
