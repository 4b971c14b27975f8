// Package handler implements the use cases of the service: one request type
// and one handler per use case. Handlers reach storage only through the unit
// of work and consult the authorization gate before protected actions.
package handler

import (
	"context"
	"sync"

	"github.com/BinaryAlley/Lyrida-sub002/internal/audit"
	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/repository"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
	"github.com/BinaryAlley/Lyrida-sub002/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// AuthMetricsRecorder records auth metrics / Enregistre les métriques d'authentification
type AuthMetricsRecorder interface {
	RecordRegistration()
	RecordLoginAttempt(status string)
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	UoW    *repository.UnitOfWork
	Gate   *authz.Gate
	Tokens *authz.TokenIssuer

	BcryptCost          int
	RequireVerification bool
	Metrics             AuthMetricsRecorder
	// AuditTrail is nil when the audit sink does not keep entries.
	AuditTrail audit.Reader
}

// Handlers holds the use cases / Regroupe les cas d'utilisation
type Handlers struct {
	Deps

	dummyOnce sync.Once
	dummy     []byte
}

// Register binds every handler to d and every validator to reg.
func Register(d *mediator.Dispatcher, reg *validation.Registry, deps Deps) *Handlers {
	if deps.BcryptCost == 0 {
		deps.BcryptCost = bcrypt.DefaultCost
	}
	if deps.Metrics == nil {
		deps.Metrics = noMetrics{}
	}
	h := &Handlers{Deps: deps}

	h.registerAuth(d)
	h.registerPages(d)
	h.registerEnvironments(d)
	h.registerPreferences(d)
	h.registerUsers(d)
	h.registerRoles(d)
	h.registerAudit(d)

	registerValidators(reg, validation.NewEngine())
	return h
}

// Catalog returns one sample of every request type, for startup checks.
func Catalog() []any {
	return []any{
		RegisterUserCommand{}, LoginCommand{}, ChangePasswordCommand{},
		GetCurrentUserQuery{}, GetEffectivePermissionsQuery{},
		GetPagesQuery{}, GetPageQuery{}, CreatePageCommand{}, UpdatePageCommand{}, DeletePageCommand{},
		GetEnvironmentsQuery{}, CreateEnvironmentCommand{}, UpdateEnvironmentCommand{}, DeleteEnvironmentCommand{},
		GetPreferencesQuery{}, UpdatePreferencesCommand{},
		ListUsersQuery{}, VerifyUserCommand{}, DeleteUserCommand{}, SetUserRoleCommand{},
		GrantUserPermissionCommand{}, RevokeUserPermissionCommand{},
		GetRolesQuery{}, CreateRoleCommand{}, DeleteRoleCommand{},
		GrantRolePermissionCommand{}, RevokeRolePermissionCommand{}, GetPermissionsQuery{},
		GetAuditTrailQuery{},
	}
}

type noMetrics struct{}

func (noMetrics) RecordRegistration()       {}
func (noMetrics) RecordLoginAttempt(string) {}

// stores are the repositories of one scope.
type stores struct {
	users           *repository.Repository[domain.User, int64]
	credentials     *repository.Repository[domain.Credentials, int64]
	roles           *repository.Repository[domain.Role, int64]
	permissions     *repository.Repository[domain.Permission, int64]
	rolePermissions *repository.Repository[domain.RolePermission, int64]
	userPermissions *repository.Repository[domain.UserPermission, int64]
	pages           *repository.Repository[domain.Page, string]
	environments    *repository.Repository[domain.Environment, string]
	preferences     *repository.Repository[domain.Preferences, string]
}

func storesOf(s *repository.Scope) stores {
	return stores{
		users:           repository.For[domain.User, int64](s, domain.Users),
		credentials:     repository.For[domain.Credentials, int64](s, domain.CredentialsView),
		roles:           repository.For[domain.Role, int64](s, domain.Roles),
		permissions:     repository.For[domain.Permission, int64](s, domain.Permissions),
		rolePermissions: repository.For[domain.RolePermission, int64](s, domain.RolePermissions),
		userPermissions: repository.For[domain.UserPermission, int64](s, domain.UserPermissions),
		pages:           repository.For[domain.Page, string](s, domain.Pages),
		environments:    repository.For[domain.Environment, string](s, domain.Environments),
		preferences:     repository.For[domain.Preferences, string](s, domain.PreferencesMapping),
	}
}

// inScope runs fn with the repositories of a fresh scope.
func inScope[T any](ctx context.Context, h *Handlers, fn func(st stores) result.Result[T]) result.Result[T] {
	return repository.InScope(ctx, h.UoW, func(s *repository.Scope) result.Result[T] {
		return fn(storesOf(s))
	})
}

// single returns the only element of a read, or missing when there is none.
func single[E any](r result.Result[[]E], missing result.Error) result.Result[E] {
	return result.AndThen(r, func(rows []E) result.Result[E] {
		if len(rows) == 0 {
			return result.Fail[E](missing)
		}
		return result.Ok(rows[0])
	})
}

// optional returns the first element of a read, if any.
func optional[E any](r result.Result[[]E]) result.Result[*E] {
	return result.Map(r, func(rows []E) *E {
		if len(rows) == 0 {
			return nil
		}
		return &rows[0]
	})
}

// rename replaces a storage error code by a domain error, keeping other failures.
func rename[T any](r result.Result[T], code string, with result.Error) result.Result[T] {
	if r.IsOk() || r.FirstError().Code != code {
		return r
	}
	return result.Fail[T](with)
}

// duplicate maps a unique-constraint rejection onto with.
func duplicate[T any](r result.Result[T], with result.Error) result.Result[T] {
	return rename(r, storage.CodeDuplicate, with)
}

// acting returns the caller when it acts on its own behalf as userID.
func (h *Handlers) acting(ctx context.Context, userID int64) result.Result[authz.Principal] {
	return result.AndThen(h.Gate.Authenticated(ctx), func(p authz.Principal) result.Result[authz.Principal] {
		if p.UserID != userID {
			return result.Fail[authz.Principal](result.ErrInvalidPermission)
		}
		return result.Ok(p)
	})
}
