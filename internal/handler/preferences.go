package handler

import (
	"context"

	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// GetPreferencesQuery returns a user's settings, or the defaults when the
// user never saved any.
type GetPreferencesQuery struct {
	mediator.Query[domain.Preferences]
	UserID int64 `json:"user_id" validate:"gt=0"`
}

// UpdatePreferencesCommand creates or replaces a user's settings.
type UpdatePreferencesCommand struct {
	mediator.Command[domain.Preferences]
	UserID     int64  `json:"user_id" validate:"gt=0"`
	Theme      string `json:"theme" validate:"required,oneof=system light dark"`
	Language   string `json:"language" validate:"required,bcp47_language_tag"`
	ViewMode   string `json:"view_mode" validate:"required,oneof=list grid details"`
	ShowHidden bool   `json:"show_hidden"`
	PageSize   int    `json:"page_size" validate:"gte=10,lte=500"`
}

func (h *Handlers) registerPreferences(d *mediator.Dispatcher) {
	mediator.Register[GetPreferencesQuery, domain.Preferences](d, mediator.HandlerFunc[GetPreferencesQuery, domain.Preferences](h.getPreferences))
	mediator.Register[UpdatePreferencesCommand, domain.Preferences](d, mediator.HandlerFunc[UpdatePreferencesCommand, domain.Preferences](h.updatePreferences))
}

func (h *Handlers) getPreferences(ctx context.Context, q GetPreferencesQuery) result.Result[domain.Preferences] {
	return result.AndThen(h.acting(ctx, q.UserID), func(authz.Principal) result.Result[domain.Preferences] {
		return inScope(ctx, h, func(st stores) result.Result[domain.Preferences] {
			return result.Map(optional(st.preferences.GetByParentID(ctx, q.UserID)), func(p *domain.Preferences) domain.Preferences {
				if p == nil {
					return domain.DefaultPreferences(q.UserID)
				}
				return *p
			})
		})
	})
}

func (h *Handlers) updatePreferences(ctx context.Context, c UpdatePreferencesCommand) result.Result[domain.Preferences] {
	return result.AndThen(h.acting(ctx, c.UserID), func(authz.Principal) result.Result[domain.Preferences] {
		return inScope(ctx, h, func(st stores) result.Result[domain.Preferences] {
			found := optional(st.preferences.GetByParentID(ctx, c.UserID))
			return result.AndThen(found, func(existing *domain.Preferences) result.Result[domain.Preferences] {
				p := domain.Preferences{
					UserID:     c.UserID,
					Theme:      c.Theme,
					Language:   c.Language,
					ViewMode:   c.ViewMode,
					ShowHidden: c.ShowHidden,
					PageSize:   c.PageSize,
				}
				if existing == nil {
					return single(st.preferences.Insert(ctx, p), errNoEcho)
				}

				p.ID = existing.ID
				if n := st.preferences.Update(ctx, p); n.IsErr() {
					return result.Cast[domain.Preferences](n)
				}
				return single(st.preferences.GetByID(ctx, p.ID), errNoEcho)
			})
		})
	})
}
