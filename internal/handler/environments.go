package handler

import (
	"context"

	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/repository"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// GetEnvironmentsQuery lists a user's environments by name.
type GetEnvironmentsQuery struct {
	mediator.Query[[]domain.Environment]
	UserID int64 `json:"user_id" validate:"gt=0"`
}

// CreateEnvironmentCommand adds a file system data source. It needs
// environments:manage.
type CreateEnvironmentCommand struct {
	mediator.Command[domain.Environment]
	UserID int64  `json:"user_id" validate:"gt=0"`
	Name   string `json:"name" validate:"notblank,max=100"`
	Kind   string `json:"kind" validate:"required,oneof=local ftp sftp webdav cloud"`
	Root   string `json:"root" validate:"notblank,max=4096"`
	Secret string `json:"secret" validate:"max=4096"`
}

// UpdateEnvironmentCommand edits an environment. An empty secret keeps the
// stored one.
type UpdateEnvironmentCommand struct {
	mediator.Command[domain.Environment]
	UserID        int64  `json:"user_id" validate:"gt=0"`
	EnvironmentID string `json:"environment_id" validate:"notblank"`
	Name          string `json:"name" validate:"notblank,max=100"`
	Kind          string `json:"kind" validate:"required,oneof=local ftp sftp webdav cloud"`
	Root          string `json:"root" validate:"notblank,max=4096"`
	Secret        string `json:"secret" validate:"max=4096"`
}

// DeleteEnvironmentCommand removes an environment of its owner. Pages that
// pointed at it are kept without environment.
type DeleteEnvironmentCommand struct {
	mediator.Command[bool]
	UserID        int64  `json:"user_id" validate:"gt=0"`
	EnvironmentID string `json:"environment_id" validate:"notblank"`
}

func (h *Handlers) registerEnvironments(d *mediator.Dispatcher) {
	mediator.Register[GetEnvironmentsQuery, []domain.Environment](d, mediator.HandlerFunc[GetEnvironmentsQuery, []domain.Environment](h.getEnvironments))
	mediator.Register[CreateEnvironmentCommand, domain.Environment](d, mediator.HandlerFunc[CreateEnvironmentCommand, domain.Environment](h.createEnvironment))
	mediator.Register[UpdateEnvironmentCommand, domain.Environment](d, mediator.HandlerFunc[UpdateEnvironmentCommand, domain.Environment](h.updateEnvironment))
	mediator.Register[DeleteEnvironmentCommand, bool](d, mediator.HandlerFunc[DeleteEnvironmentCommand, bool](h.deleteEnvironment))
}

func (h *Handlers) getEnvironments(ctx context.Context, q GetEnvironmentsQuery) result.Result[[]domain.Environment] {
	return result.AndThen(h.acting(ctx, q.UserID), func(authz.Principal) result.Result[[]domain.Environment] {
		return inScope(ctx, h, func(st stores) result.Result[[]domain.Environment] {
			return st.environments.GetByParentID(ctx, q.UserID)
		})
	})
}

func (h *Handlers) createEnvironment(ctx context.Context, c CreateEnvironmentCommand) result.Result[domain.Environment] {
	if caller := h.acting(ctx, c.UserID); caller.IsErr() {
		return result.Cast[domain.Environment](caller)
	}
	if allowed := h.Gate.Require(ctx, domain.PermissionEnvironmentsManage); allowed.IsErr() {
		return result.Cast[domain.Environment](allowed)
	}

	return inScope(ctx, h, func(st stores) result.Result[domain.Environment] {
		created := st.environments.Insert(ctx, domain.Environment{
			UserID: c.UserID,
			Name:   c.Name,
			Kind:   domain.EnvironmentKind(c.Kind),
			Root:   c.Root,
			Secret: c.Secret,
		})
		return duplicate(single(created, errNoEcho), ErrEnvironmentNameTaken)
	})
}

func (h *Handlers) updateEnvironment(ctx context.Context, c UpdateEnvironmentCommand) result.Result[domain.Environment] {
	return result.AndThen(h.acting(ctx, c.UserID), func(authz.Principal) result.Result[domain.Environment] {
		return inScope(ctx, h, func(st stores) result.Result[domain.Environment] {
			return result.AndThen(ownedEnvironment(ctx, st, c.UserID, c.EnvironmentID), func(e domain.Environment) result.Result[domain.Environment] {
				e.Name = c.Name
				e.Kind = domain.EnvironmentKind(c.Kind)
				e.Root = c.Root
				e.Secret = c.Secret

				if n := duplicate(st.environments.Update(ctx, e), ErrEnvironmentNameTaken); n.IsErr() {
					return result.Cast[domain.Environment](n)
				}
				return single(st.environments.GetByID(ctx, e.ID), ErrEnvironmentNotFound)
			})
		})
	})
}

func (h *Handlers) deleteEnvironment(ctx context.Context, c DeleteEnvironmentCommand) result.Result[bool] {
	return result.AndThen(h.acting(ctx, c.UserID), func(authz.Principal) result.Result[bool] {
		return inScope(ctx, h, func(st stores) result.Result[bool] {
			return result.AndThen(ownedEnvironment(ctx, st, c.UserID, c.EnvironmentID), func(e domain.Environment) result.Result[bool] {
				if detached := detachPages(ctx, st, e.ID); detached.IsErr() {
					return result.Cast[bool](detached)
				}
				return result.Map(st.environments.DeleteByID(ctx, e.ID), func(n int64) bool { return n > 0 })
			})
		})
	})
}

// ownedEnvironment loads an environment and checks that userID owns it.
func ownedEnvironment(ctx context.Context, st stores, userID int64, id string) result.Result[domain.Environment] {
	return result.AndThen(single(st.environments.GetByID(ctx, id), ErrEnvironmentNotFound), func(e domain.Environment) result.Result[domain.Environment] {
		if !e.OwnedBy(userID) {
			return result.Fail[domain.Environment](result.ErrInvalidPermission)
		}
		return result.Ok(e)
	})
}

// detachPages clears the environment of the pages pointing at envID.
func detachPages(ctx context.Context, st stores, envID string) result.Result[int64] {
	return result.AndThen(st.pages.Find(ctx, repository.Where{"EnvironmentID": envID}), func(pages []domain.Page) result.Result[int64] {
		var total int64
		for _, p := range pages {
			p.EnvironmentID = nil
			n := st.pages.Update(ctx, p)
			if n.IsErr() {
				return n
			}
			v, _ := n.Value()
			total += v
		}
		return result.Ok(total)
	})
}
