package handler

import (
	"context"

	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// GetPagesQuery lists a user's pages by position.
type GetPagesQuery struct {
	mediator.Query[[]domain.Page]
	UserID int64 `json:"user_id" validate:"gt=0"`
}

// GetPageQuery returns one page of the user.
type GetPageQuery struct {
	mediator.Query[domain.Page]
	UserID int64  `json:"user_id" validate:"gt=0"`
	PageID string `json:"page_id" validate:"notblank"`
}

// CreatePageCommand opens a page / Ouvre un onglet
type CreatePageCommand struct {
	mediator.Command[domain.Page]
	UserID        int64   `json:"user_id" validate:"gt=0"`
	EnvironmentID *string `json:"environment_id" validate:"omitnil,notblank"`
	Title         string  `json:"title" validate:"notblank,max=200"`
	Path          string  `json:"path" validate:"notblank,max=4096"`
	Position      int     `json:"position" validate:"gte=0"`
}

// UpdatePageCommand replaces a page's editable fields.
type UpdatePageCommand struct {
	mediator.Command[domain.Page]
	UserID        int64   `json:"user_id" validate:"gt=0"`
	PageID        string  `json:"page_id" validate:"notblank"`
	EnvironmentID *string `json:"environment_id" validate:"omitnil,notblank"`
	Title         string  `json:"title" validate:"notblank,max=200"`
	Path          string  `json:"path" validate:"notblank,max=4096"`
	Position      int     `json:"position" validate:"gte=0"`
}

// DeletePageCommand closes a page. Only its owner may delete it.
type DeletePageCommand struct {
	mediator.Command[bool]
	UserID int64  `json:"user_id" validate:"gt=0"`
	PageID string `json:"page_id" validate:"notblank"`
}

func (h *Handlers) registerPages(d *mediator.Dispatcher) {
	mediator.Register[GetPagesQuery, []domain.Page](d, mediator.HandlerFunc[GetPagesQuery, []domain.Page](h.getPages))
	mediator.Register[GetPageQuery, domain.Page](d, mediator.HandlerFunc[GetPageQuery, domain.Page](h.getPage))
	mediator.Register[CreatePageCommand, domain.Page](d, mediator.HandlerFunc[CreatePageCommand, domain.Page](h.createPage))
	mediator.Register[UpdatePageCommand, domain.Page](d, mediator.HandlerFunc[UpdatePageCommand, domain.Page](h.updatePage))
	mediator.Register[DeletePageCommand, bool](d, mediator.HandlerFunc[DeletePageCommand, bool](h.deletePage))
}

func (h *Handlers) getPages(ctx context.Context, q GetPagesQuery) result.Result[[]domain.Page] {
	return result.AndThen(h.acting(ctx, q.UserID), func(authz.Principal) result.Result[[]domain.Page] {
		return inScope(ctx, h, func(st stores) result.Result[[]domain.Page] {
			return st.pages.GetByParentID(ctx, q.UserID)
		})
	})
}

func (h *Handlers) getPage(ctx context.Context, q GetPageQuery) result.Result[domain.Page] {
	return result.AndThen(h.acting(ctx, q.UserID), func(authz.Principal) result.Result[domain.Page] {
		return inScope(ctx, h, func(st stores) result.Result[domain.Page] {
			return ownedPage(ctx, st, q.UserID, q.PageID)
		})
	})
}

func (h *Handlers) createPage(ctx context.Context, c CreatePageCommand) result.Result[domain.Page] {
	return result.AndThen(h.acting(ctx, c.UserID), func(authz.Principal) result.Result[domain.Page] {
		return inScope(ctx, h, func(st stores) result.Result[domain.Page] {
			if env := usableEnvironment(ctx, st, c.UserID, c.EnvironmentID); env.IsErr() {
				return result.Cast[domain.Page](env)
			}
			return single(st.pages.Insert(ctx, domain.Page{
				UserID:        c.UserID,
				EnvironmentID: c.EnvironmentID,
				Title:         c.Title,
				Path:          c.Path,
				Position:      c.Position,
			}), errNoEcho)
		})
	})
}

func (h *Handlers) updatePage(ctx context.Context, c UpdatePageCommand) result.Result[domain.Page] {
	return result.AndThen(h.acting(ctx, c.UserID), func(authz.Principal) result.Result[domain.Page] {
		return inScope(ctx, h, func(st stores) result.Result[domain.Page] {
			return result.AndThen(ownedPage(ctx, st, c.UserID, c.PageID), func(p domain.Page) result.Result[domain.Page] {
				if env := usableEnvironment(ctx, st, c.UserID, c.EnvironmentID); env.IsErr() {
					return result.Cast[domain.Page](env)
				}
				p.EnvironmentID = c.EnvironmentID
				p.Title = c.Title
				p.Path = c.Path
				p.Position = c.Position

				if n := st.pages.Update(ctx, p); n.IsErr() {
					return result.Cast[domain.Page](n)
				}
				return single(st.pages.GetByID(ctx, p.ID), ErrPageNotFound)
			})
		})
	})
}

// deletePage checks ownership before deleting: a page of another user is
// never touched.
func (h *Handlers) deletePage(ctx context.Context, c DeletePageCommand) result.Result[bool] {
	return result.AndThen(h.acting(ctx, c.UserID), func(authz.Principal) result.Result[bool] {
		return inScope(ctx, h, func(st stores) result.Result[bool] {
			return result.AndThen(ownedPage(ctx, st, c.UserID, c.PageID), func(p domain.Page) result.Result[bool] {
				return result.Map(st.pages.DeleteByID(ctx, p.ID), func(n int64) bool { return n > 0 })
			})
		})
	})
}

// ownedPage loads a page and checks that userID owns it.
func ownedPage(ctx context.Context, st stores, userID int64, pageID string) result.Result[domain.Page] {
	return result.AndThen(single(st.pages.GetByID(ctx, pageID), ErrPageNotFound), func(p domain.Page) result.Result[domain.Page] {
		if !p.OwnedBy(userID) {
			return result.Fail[domain.Page](result.ErrInvalidPermission)
		}
		return result.Ok(p)
	})
}

// usableEnvironment checks that a page may point at envID.
func usableEnvironment(ctx context.Context, st stores, userID int64, envID *string) result.Result[bool] {
	if envID == nil {
		return result.Ok(true)
	}
	return result.Map(ownedEnvironment(ctx, st, userID, *envID), func(domain.Environment) bool { return true })
}
