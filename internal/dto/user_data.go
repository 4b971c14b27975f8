package dto

import (
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
)

// PageResponse is DTO for a page / Est le DTO d'une page
type PageResponse struct {
	ID            string    `json:"id"`
	EnvironmentID *string   `json:"environment_id,omitempty"`
	Title         string    `json:"title"`
	Path          string    `json:"path"`
	Position      int       `json:"position"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EnvironmentResponse is DTO for an environment. The connector secret is
// write-only and has no field here.
type EnvironmentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Root      string    `json:"root"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PreferencesResponse is DTO for user preferences / Est le DTO des préférences
type PreferencesResponse struct {
	Theme      string `json:"theme"`
	Language   string `json:"language"`
	ViewMode   string `json:"view_mode"`
	ShowHidden bool   `json:"show_hidden"`
	PageSize   int    `json:"page_size"`
}

// PageToDTO converts domain.Page to PageResponse / Convertit domain.Page en PageResponse
func PageToDTO(p domain.Page) PageResponse {
	return PageResponse{
		ID:            p.ID,
		EnvironmentID: p.EnvironmentID,
		Title:         p.Title,
		Path:          p.Path,
		Position:      p.Position,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// PagesToDTO converts a list of pages.
func PagesToDTO(pages []domain.Page) []PageResponse {
	return mapAll(pages, PageToDTO)
}

// EnvironmentToDTO converts domain.Environment to EnvironmentResponse
func EnvironmentToDTO(e domain.Environment) EnvironmentResponse {
	return EnvironmentResponse{
		ID:        e.ID,
		Name:      e.Name,
		Kind:      string(e.Kind),
		Root:      e.Root,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// EnvironmentsToDTO converts a list of environments.
func EnvironmentsToDTO(envs []domain.Environment) []EnvironmentResponse {
	return mapAll(envs, EnvironmentToDTO)
}

// PreferencesToDTO converts domain.Preferences to PreferencesResponse
func PreferencesToDTO(p domain.Preferences) PreferencesResponse {
	return PreferencesResponse{
		Theme:      p.Theme,
		Language:   p.Language,
		ViewMode:   p.ViewMode,
		ShowHidden: p.ShowHidden,
		PageSize:   p.PageSize,
	}
}
