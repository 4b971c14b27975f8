package handler

import (
	"context"
	"log/slog"

	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/repository"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// ListUsersQuery lists every account. It needs users:read.
type ListUsersQuery struct {
	mediator.Query[[]domain.User]
}

// VerifyUserCommand marks an account as verified. It needs users:manage.
type VerifyUserCommand struct {
	mediator.Command[bool]
	UserID int64 `json:"user_id" validate:"gt=0"`
}

// DeleteUserCommand removes an account and its data. It needs users:manage;
// holders of the administrative role cannot be deleted.
type DeleteUserCommand struct {
	mediator.Command[bool]
	UserID int64 `json:"user_id" validate:"gt=0"`
}

// SetUserRoleCommand assigns a role, or none when RoleID is nil. It needs
// roles:manage; holders of the administrative role keep it.
type SetUserRoleCommand struct {
	mediator.Command[domain.User]
	UserID int64  `json:"user_id" validate:"gt=0"`
	RoleID *int64 `json:"role_id" validate:"omitnil,gt=0"`
}

// GrantUserPermissionCommand grants a permission directly to a user, on top
// of its role. It needs permissions:manage.
type GrantUserPermissionCommand struct {
	mediator.Command[bool]
	UserID     int64  `json:"user_id" validate:"gt=0"`
	Permission string `json:"permission" validate:"notblank"`
}

// RevokeUserPermissionCommand removes a direct grant. It needs permissions:manage.
type RevokeUserPermissionCommand struct {
	mediator.Command[bool]
	UserID     int64  `json:"user_id" validate:"gt=0"`
	Permission string `json:"permission" validate:"notblank"`
}

func (h *Handlers) registerUsers(d *mediator.Dispatcher) {
	mediator.Register[ListUsersQuery, []domain.User](d, mediator.HandlerFunc[ListUsersQuery, []domain.User](h.listUsers))
	mediator.Register[VerifyUserCommand, bool](d, mediator.HandlerFunc[VerifyUserCommand, bool](h.verifyUser))
	mediator.Register[DeleteUserCommand, bool](d, mediator.HandlerFunc[DeleteUserCommand, bool](h.deleteUser))
	mediator.Register[SetUserRoleCommand, domain.User](d, mediator.HandlerFunc[SetUserRoleCommand, domain.User](h.setUserRole))
	mediator.Register[GrantUserPermissionCommand, bool](d, mediator.HandlerFunc[GrantUserPermissionCommand, bool](h.grantUserPermission))
	mediator.Register[RevokeUserPermissionCommand, bool](d, mediator.HandlerFunc[RevokeUserPermissionCommand, bool](h.revokeUserPermission))
}

func (h *Handlers) listUsers(ctx context.Context, _ ListUsersQuery) result.Result[[]domain.User] {
	return result.AndThen(h.Gate.Require(ctx, domain.PermissionUsersRead), func(authz.Principal) result.Result[[]domain.User] {
		return inScope(ctx, h, func(st stores) result.Result[[]domain.User] {
			return st.users.GetAll(ctx)
		})
	})
}

func (h *Handlers) verifyUser(ctx context.Context, c VerifyUserCommand) result.Result[bool] {
	return result.AndThen(h.Gate.Require(ctx, domain.PermissionUsersManage), func(authz.Principal) result.Result[bool] {
		return inScope(ctx, h, func(st stores) result.Result[bool] {
			return result.AndThen(single(st.users.GetByID(ctx, c.UserID), ErrUserNotFound), func(u domain.User) result.Result[bool] {
				if u.Verified {
					return result.Ok(false)
				}
				u.Verified = true
				return result.Map(st.users.Update(ctx, u), func(n int64) bool { return n > 0 })
			})
		})
	})
}

// deleteUser permanently removes a user / Supprime définitivement un utilisateur
func (h *Handlers) deleteUser(ctx context.Context, c DeleteUserCommand) result.Result[bool] {
	return result.AndThen(h.Gate.Require(ctx, domain.PermissionUsersManage), func(caller authz.Principal) result.Result[bool] {
		return inScope(ctx, h, func(st stores) result.Result[bool] {
			return result.AndThen(h.unprotectedUser(ctx, st, c.UserID), func(u domain.User) result.Result[bool] {
				owned := repository.Where{"UserID": u.ID}
				for _, step := range []func() result.Result[int64]{
					func() result.Result[int64] { return st.pages.DeleteWhere(ctx, owned) },
					func() result.Result[int64] { return st.environments.DeleteWhere(ctx, owned) },
					func() result.Result[int64] { return st.preferences.DeleteWhere(ctx, owned) },
					func() result.Result[int64] { return st.userPermissions.DeleteWhere(ctx, owned) },
				} {
					if r := step(); r.IsErr() {
						return result.Cast[bool](r)
					}
				}

				deleted := st.users.DeleteByID(ctx, u.ID)
				if deleted.IsOk() {
					slog.InfoContext(ctx, "user deleted", "user_id", u.ID, "by", caller.UserID)
				}
				return result.Map(deleted, func(n int64) bool { return n > 0 })
			})
		})
	})
}

// setUserRole changes a user's role / Change le rôle d'un utilisateur
func (h *Handlers) setUserRole(ctx context.Context, c SetUserRoleCommand) result.Result[domain.User] {
	return result.AndThen(h.Gate.Require(ctx, domain.PermissionRolesManage), func(authz.Principal) result.Result[domain.User] {
		return inScope(ctx, h, func(st stores) result.Result[domain.User] {
			return result.AndThen(h.unprotectedUser(ctx, st, c.UserID), func(u domain.User) result.Result[domain.User] {
				if c.RoleID != nil {
					if role := single(st.roles.GetByID(ctx, *c.RoleID), ErrRoleNotFound); role.IsErr() {
						return result.Cast[domain.User](role)
					}
				}

				u.RoleID = c.RoleID
				if n := st.users.Update(ctx, u); n.IsErr() {
					return result.Cast[domain.User](n)
				}
				return single(st.users.GetByID(ctx, u.ID), ErrUserNotFound)
			})
		})
	})
}

func (h *Handlers) grantUserPermission(ctx context.Context, c GrantUserPermissionCommand) result.Result[bool] {
	return result.AndThen(h.Gate.Require(ctx, domain.PermissionPermissionsManage), func(authz.Principal) result.Result[bool] {
		return inScope(ctx, h, func(st stores) result.Result[bool] {
			if u := single(st.users.GetByID(ctx, c.UserID), ErrUserNotFound); u.IsErr() {
				return result.Cast[bool](u)
			}
			return result.AndThen(permissionNamed(ctx, st, c.Permission), func(p domain.Permission) result.Result[bool] {
				granted := st.userPermissions.Insert(ctx, domain.UserPermission{UserID: c.UserID, PermissionID: p.ID})
				return duplicate(result.Map(granted, func([]domain.UserPermission) bool { return true }), ErrPermissionAlreadyGranted)
			})
		})
	})
}

func (h *Handlers) revokeUserPermission(ctx context.Context, c RevokeUserPermissionCommand) result.Result[bool] {
	return result.AndThen(h.Gate.Require(ctx, domain.PermissionPermissionsManage), func(authz.Principal) result.Result[bool] {
		return inScope(ctx, h, func(st stores) result.Result[bool] {
			return result.AndThen(permissionNamed(ctx, st, c.Permission), func(p domain.Permission) result.Result[bool] {
				revoked := st.userPermissions.DeleteWhere(ctx, repository.Where{"UserID": c.UserID, "PermissionID": p.ID})
				return result.Map(revoked, func(n int64) bool { return n > 0 })
			})
		})
	})
}

// unprotectedUser loads a user and refuses holders of the administrative role.
func (h *Handlers) unprotectedUser(ctx context.Context, st stores, userID int64) result.Result[domain.User] {
	return result.AndThen(single(st.users.GetByID(ctx, userID), ErrUserNotFound), func(u domain.User) result.Result[domain.User] {
		if u.RoleID == nil {
			return result.Ok(u)
		}
		return result.AndThen(optional(st.roles.GetByID(ctx, *u.RoleID)), func(role *domain.Role) result.Result[domain.User] {
			if role != nil && h.Gate.IsAdminRole(*role) {
				return result.Fail[domain.User](result.ErrCannotModifyAdminRole)
			}
			return result.Ok(u)
		})
	})
}

// permissionNamed loads a permission of the catalogue by name.
func permissionNamed(ctx context.Context, st stores, name string) result.Result[domain.Permission] {
	return single(st.permissions.Find(ctx, repository.Where{"Name": name}), ErrPermissionNotFound)
}
