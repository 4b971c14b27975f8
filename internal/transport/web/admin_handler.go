package web

import (
	"net/http"
	"strconv"

	"github.com/BinaryAlley/Lyrida-sub002/internal/audit"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/dto"
	"github.com/BinaryAlley/Lyrida-sub002/internal/handler"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
)

// ListUsers returns all accounts / Retourne tous les comptes
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	res := mediator.Send[[]domain.User](r.Context(), h.container.Dispatcher, handler.ListUsersQuery{})
	respond(w, r, res, http.StatusOK, dto.UsersToDTO)
}

// VerifyUser marks an account verified; "changed" is false when it already was.
func (h *Handler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res := mediator.Send[bool](r.Context(), h.container.Dispatcher, handler.VerifyUserCommand{UserID: id})
	respond(w, r, res, http.StatusOK, changedBody)
}

// DeleteUser deletes an account and the data it owns / Supprime un compte
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res := mediator.Send[bool](r.Context(), h.container.Dispatcher, handler.DeleteUserCommand{UserID: id})
	respondDone(w, r, res, handler.ErrUserNotFound)
}

// UserPermissions returns the effective permissions of any account.
func (h *Handler) UserPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q := handler.GetEffectivePermissionsQuery{UserID: id}
	respond(w, r, mediator.Send[[]domain.PermissionName](r.Context(), h.container.Dispatcher, q), http.StatusOK, permissionsBody)
}

// SetUserRole assigns a role; a null role_id clears it / Assigne un rôle
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var cmd handler.SetUserRoleCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.UserID = id
	respond(w, r, mediator.Send[domain.User](r.Context(), h.container.Dispatcher, cmd), http.StatusOK, dto.UserToDTO)
}

func (h *Handler) GrantUserPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	cmd := handler.GrantUserPermissionCommand{UserID: id, Permission: r.PathValue("permission")}
	respond(w, r, mediator.Send[bool](r.Context(), h.container.Dispatcher, cmd), http.StatusOK, changedBody)
}

func (h *Handler) RevokeUserPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	cmd := handler.RevokeUserPermissionCommand{UserID: id, Permission: r.PathValue("permission")}
	respond(w, r, mediator.Send[bool](r.Context(), h.container.Dispatcher, cmd), http.StatusOK, changedBody)
}

// Roles / Rôles

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	res := mediator.Send[[]domain.Role](r.Context(), h.container.Dispatcher, handler.GetRolesQuery{})
	respond(w, r, res, http.StatusOK, dto.RolesToDTO)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var cmd handler.CreateRoleCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	res := mediator.Send[domain.Role](r.Context(), h.container.Dispatcher, cmd)
	respond(w, r, res, http.StatusCreated, dto.RoleToDTO)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res := mediator.Send[bool](r.Context(), h.container.Dispatcher, handler.DeleteRoleCommand{RoleID: id})
	respondDone(w, r, res, handler.ErrRoleNotFound)
}

func (h *Handler) GrantRolePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	cmd := handler.GrantRolePermissionCommand{RoleID: id, Permission: r.PathValue("permission")}
	respond(w, r, mediator.Send[bool](r.Context(), h.container.Dispatcher, cmd), http.StatusOK, changedBody)
}

func (h *Handler) RevokeRolePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	cmd := handler.RevokeRolePermissionCommand{RoleID: id, Permission: r.PathValue("permission")}
	respond(w, r, mediator.Send[bool](r.Context(), h.container.Dispatcher, cmd), http.StatusOK, changedBody)
}

// ListPermissions returns the permission catalogue.
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	res := mediator.Send[[]domain.Permission](r.Context(), h.container.Dispatcher, handler.GetPermissionsQuery{})
	respond(w, r, res, http.StatusOK, dto.PermissionsToDTO)
}

// AuditTrail returns the latest audited commands; ?limit caps the count.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	var q handler.GetAuditTrailQuery
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ErrorResponse(w, "invalid limit", http.StatusBadRequest)
			return
		}
		q.Limit = limit
	}
	res := mediator.Send[[]audit.Entry](r.Context(), h.container.Dispatcher, q)
	respond(w, r, res, http.StatusOK, dto.AuditTrailToDTO)
}

func changedBody(changed bool) map[string]bool {
	return map[string]bool{"changed": changed}
}
