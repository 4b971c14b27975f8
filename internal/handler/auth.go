package handler

import (
	"context"
	"log/slog"

	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/repository"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
	"golang.org/x/crypto/bcrypt"
)

// RegisterUserCommand creates an account. The first account ever created
// receives the administrative role and is verified.
type RegisterUserCommand struct {
	mediator.Command[domain.User]
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// LoginCommand exchanges credentials for an access token.
type LoginCommand struct {
	mediator.Command[LoginResult]
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the authenticated user and its token / Utilisateur authentifié et son token
type LoginResult struct {
	User  domain.User
	Token authz.Token
}

// ChangePasswordCommand replaces the caller's password.
type ChangePasswordCommand struct {
	mediator.Command[bool]
	UserID          int64  `json:"user_id" validate:"gt=0"`
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// GetCurrentUserQuery returns the caller's account.
type GetCurrentUserQuery struct {
	mediator.Query[domain.User]
}

// GetEffectivePermissionsQuery returns a user's effective permissions. Zero
// means the caller. Reading another user's set needs users:read.
type GetEffectivePermissionsQuery struct {
	mediator.Query[[]domain.PermissionName]
	UserID int64 `json:"user_id" validate:"gte=0"`
}

// dummyHash is compared on unknown-email logins. It uses the same cost as
// stored hashes so both failures take the same time.
func (h *Handlers) dummyHash() []byte {
	h.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), h.BcryptCost)
		if err != nil {
			slog.Error("failed to build the login timing hash", "err", err)
		}
		h.dummy = hash
	})
	return h.dummy
}

func (h *Handlers) registerAuth(d *mediator.Dispatcher) {
	mediator.Register[RegisterUserCommand, domain.User](d, mediator.HandlerFunc[RegisterUserCommand, domain.User](h.registerUser))
	mediator.Register[LoginCommand, LoginResult](d, mediator.HandlerFunc[LoginCommand, LoginResult](h.login))
	mediator.Register[ChangePasswordCommand, bool](d, mediator.HandlerFunc[ChangePasswordCommand, bool](h.changePassword))
	mediator.Register[GetCurrentUserQuery, domain.User](d, mediator.HandlerFunc[GetCurrentUserQuery, domain.User](h.getCurrentUser))
	mediator.Register[GetEffectivePermissionsQuery, []domain.PermissionName](d, mediator.HandlerFunc[GetEffectivePermissionsQuery, []domain.PermissionName](h.getEffectivePermissions))
}

// registerUser creates a new user account / Crée un nouveau compte utilisateur
func (h *Handlers) registerUser(ctx context.Context, c RegisterUserCommand) result.Result[domain.User] {
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), h.BcryptCost)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password during registration", "err", err)
		return result.Fail[domain.User](errPasswordHash)
	}

	return inScope(ctx, h, func(st stores) result.Result[domain.User] {
		everyone := st.users.GetAll(ctx)
		if everyone.IsErr() {
			return result.Cast[domain.User](everyone)
		}
		existing, _ := everyone.Value()

		u := domain.User{Email: normalizeEmail(c.Email), PasswordHash: string(hash)}
		if len(existing) == 0 {
			admin := ensureCatalogue(ctx, st, h.Gate.AdminRole())
			if admin.IsErr() {
				return result.Cast[domain.User](admin)
			}
			report, _ := admin.Value()
			u.RoleID = &report.AdminRoleID
			u.Verified = true
		}

		created := duplicate(single(st.users.Insert(ctx, u), errNoEcho), ErrEmailTaken)
		if created.IsOk() {
			h.Metrics.RecordRegistration()
			v, _ := created.Value()
			slog.InfoContext(ctx, "user registered", "user_id", v.ID, "admin", u.RoleID != nil)
		}
		return created
	})
}

// login authenticates user and issues a token / Authentifie l'utilisateur et émet un token
func (h *Handlers) login(ctx context.Context, c LoginCommand) result.Result[LoginResult] {
	return inScope(ctx, h, func(st stores) result.Result[LoginResult] {
		found := optional(st.credentials.Find(ctx, repository.Where{"Email": normalizeEmail(c.Email)}))
		if found.IsErr() {
			return result.Cast[LoginResult](found)
		}
		creds, _ := found.Value()

		if creds == nil {
			_ = bcrypt.CompareHashAndPassword(h.dummyHash(), []byte(c.Password))
			h.Metrics.RecordLoginAttempt("failure")
			return result.Fail[LoginResult](ErrInvalidCredentials)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(c.Password)); err != nil {
			h.Metrics.RecordLoginAttempt("failure")
			return result.Fail[LoginResult](ErrInvalidCredentials)
		}
		if h.RequireVerification && !creds.Verified {
			h.Metrics.RecordLoginAttempt("unverified")
			return result.Fail[LoginResult](ErrEmailNotVerified)
		}

		return result.AndThen(single(st.users.GetByID(ctx, creds.ID), ErrUserNotFound), func(u domain.User) result.Result[LoginResult] {
			tok, err := h.Tokens.Issue(u.ID, u.Email)
			if err != nil {
				slog.ErrorContext(ctx, "failed to issue token", "user_id", u.ID, "err", err)
				return result.Fail[LoginResult](errTokenIssue)
			}
			h.Metrics.RecordLoginAttempt("success")
			return result.Ok(LoginResult{User: u, Token: *tok})
		})
	})
}

// changePassword allows password change with current password verification / Permet le changement de mot de passe avec vérification
func (h *Handlers) changePassword(ctx context.Context, c ChangePasswordCommand) result.Result[bool] {
	if caller := h.acting(ctx, c.UserID); caller.IsErr() {
		return result.Cast[bool](caller)
	}

	return inScope(ctx, h, func(st stores) result.Result[bool] {
		found := single(st.credentials.GetByID(ctx, c.UserID), ErrUserNotFound)
		if found.IsErr() {
			return result.Cast[bool](found)
		}
		creds, _ := found.Value()

		if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(c.CurrentPassword)) != nil {
			return result.Fail[bool](ErrWrongPassword)
		}
		if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(c.NewPassword)) == nil {
			return result.Fail[bool](ErrPasswordReuse)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(c.NewPassword), h.BcryptCost)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash new password", "err", err)
			return result.Fail[bool](errPasswordHash)
		}

		return result.AndThen(single(st.users.GetByID(ctx, c.UserID), ErrUserNotFound), func(u domain.User) result.Result[bool] {
			u.PasswordHash = string(hash)
			return result.Map(st.users.Update(ctx, u), func(n int64) bool { return n > 0 })
		})
	})
}

func (h *Handlers) getCurrentUser(ctx context.Context, _ GetCurrentUserQuery) result.Result[domain.User] {
	return result.AndThen(h.Gate.Authenticated(ctx), func(p authz.Principal) result.Result[domain.User] {
		return inScope(ctx, h, func(st stores) result.Result[domain.User] {
			return single(st.users.GetByID(ctx, p.UserID), ErrUserNotFound)
		})
	})
}

func (h *Handlers) getEffectivePermissions(ctx context.Context, q GetEffectivePermissionsQuery) result.Result[[]domain.PermissionName] {
	caller := h.Gate.Authenticated(ctx)
	if caller.IsErr() {
		return result.Cast[[]domain.PermissionName](caller)
	}
	p, _ := caller.Value()
	if q.UserID == 0 || q.UserID == p.UserID {
		return result.Ok(p.Permissions.Names())
	}

	if allowed := h.Gate.Require(ctx, domain.PermissionUsersRead); allowed.IsErr() {
		return result.Cast[[]domain.PermissionName](allowed)
	}
	return repository.InScope(ctx, h.UoW, func(s *repository.Scope) result.Result[[]domain.PermissionName] {
		user := single(storesOf(s).users.GetByID(ctx, q.UserID), ErrUserNotFound)
		return result.AndThen(user, func(u domain.User) result.Result[[]domain.PermissionName] {
			return result.Map(authz.EffectivePermissions(ctx, s, u), domain.PermissionSet.Names)
		})
	})
}
