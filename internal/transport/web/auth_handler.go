package web

import (
	"net/http"

	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/dto"
	"github.com/BinaryAlley/Lyrida-sub002/internal/handler"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
)

// Register handles new user registration / Gère l'inscription des utilisateurs
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var cmd handler.RegisterUserCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	res := mediator.Send[domain.User](r.Context(), h.container.Dispatcher, cmd)
	respond(w, r, res, http.StatusCreated, dto.UserToDTO)
}

// Login handles user authentication / Gère l'authentification de l'utilisateur
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var cmd handler.LoginCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	res := mediator.Send[handler.LoginResult](r.Context(), h.container.Dispatcher, cmd)
	respond(w, r, res, http.StatusOK, func(l handler.LoginResult) dto.LoginResponse {
		return dto.LoginToDTO(l.User, l.Token)
	})
}

// Me returns the authenticated account / Retourne le compte authentifié
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	res := mediator.Send[domain.User](r.Context(), h.container.Dispatcher, handler.GetCurrentUserQuery{})
	respond(w, r, res, http.StatusOK, dto.UserToDTO)
}

// MyPermissions returns the caller's effective permissions.
func (h *Handler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	res := mediator.Send[[]domain.PermissionName](r.Context(), h.container.Dispatcher, handler.GetEffectivePermissionsQuery{})
	respond(w, r, res, http.StatusOK, permissionsBody)
}

// ChangePassword replaces the caller's password / Change le mot de passe de l'appelant
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var cmd handler.ChangePasswordCommand
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.UserID = callerID(r)
	res := mediator.Send[bool](r.Context(), h.container.Dispatcher, cmd)
	respondDone(w, r, res, handler.ErrUserNotFound)
}

func permissionsBody(names []domain.PermissionName) map[string][]string {
	return map[string][]string{"permissions": dto.PermissionNames(names)}
}
