// Package dto holds the JSON shapes of the HTTP boundary and their
// conversions from domain entities. Write-only fields never appear here.
package dto

import (
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
)

// UserResponse is DTO for a user account / Est le DTO d'un compte utilisateur
type UserResponse struct {
	ID        int64     `json:"id"`                // User unique identifier / Identifiant unique de l'utilisateur
	Email     string    `json:"email"`             // User email address / Adresse email de l'utilisateur
	Verified  bool      `json:"verified"`          // Email verified / Email vérifié
	RoleID    *int64    `json:"role_id,omitempty"` // Assigned role / Rôle assigné
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginResponse is DTO for user login response / Est le DTO pour la réponse de connexion utilisateur
type LoginResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// RoleResponse is DTO for a role / Est le DTO d'un rôle
type RoleResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PermissionResponse is DTO for a permission / Est le DTO d'une permission
type PermissionResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UserToDTO converts domain.User to UserResponse / Convertit domain.User en UserResponse
func UserToDTO(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Verified:  user.Verified,
		RoleID:    user.RoleID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// UsersToDTO converts a list of users.
func UsersToDTO(users []domain.User) []UserResponse {
	return mapAll(users, UserToDTO)
}

// LoginToDTO converts a user and its access token / Convertit un utilisateur et son token
func LoginToDTO(user domain.User, token authz.Token) LoginResponse {
	return LoginResponse{
		User:        UserToDTO(user),
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt,
	}
}

// RoleToDTO converts domain.Role to RoleResponse / Convertit domain.Role en RoleResponse
func RoleToDTO(r domain.Role) RoleResponse {
	return RoleResponse{ID: r.ID, Name: r.Name, Description: r.Description}
}

// RolesToDTO converts a list of roles.
func RolesToDTO(roles []domain.Role) []RoleResponse {
	return mapAll(roles, RoleToDTO)
}

// PermissionsToDTO converts a list of stored permissions.
func PermissionsToDTO(perms []domain.Permission) []PermissionResponse {
	return mapAll(perms, func(p domain.Permission) PermissionResponse {
		return PermissionResponse{ID: p.ID, Name: p.Name.String(), Description: p.Description}
	})
}

// PermissionNames converts effective permission names to plain strings.
func PermissionNames(names []domain.PermissionName) []string {
	return mapAll(names, domain.PermissionName.String)
}

// mapAll never returns nil, so empty lists encode as [].
func mapAll[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
