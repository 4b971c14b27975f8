package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mocks"
	"github.com/BinaryAlley/Lyrida-sub002/internal/repository"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage/memstore"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage/schema"
	"github.com/BinaryAlley/Lyrida-sub002/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testKey = "test-secret-key-min-32-chars-long-1234567890"

type harness struct {
	d       *mediator.Dispatcher
	mem     *memstore.Store
	store   *mocks.MockStorage
	uow     *repository.UnitOfWork
	metrics *mocks.MockMetrics
	h       *Handlers
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := schema.NewMemory()
	rec := mocks.NewMockStorage(mem)
	uow := repository.NewUnitOfWork(rec, nil)
	d, h, m := newDispatcher(t, uow)
	return &harness{d: d, mem: mem, store: rec, uow: uow, metrics: m, h: h}
}

// newDispatcher registers every handler over uow behind the validation stage.
func newDispatcher(t *testing.T, uow *repository.UnitOfWork) (*mediator.Dispatcher, *Handlers, *mocks.MockMetrics) {
	t.Helper()
	tokens, err := authz.NewTokenIssuer(testKey, "test", time.Hour)
	require.NoError(t, err)

	m := mocks.NewMockMetrics()
	reg := validation.NewRegistry()
	d := mediator.New(validation.Behavior(reg))
	h := Register(d, reg, Deps{
		UoW:        uow,
		Gate:       authz.NewGate("", m),
		Tokens:     tokens,
		BcryptCost: bcrypt.MinCost,
		Metrics:    m,
	})
	return d, h, m
}

// as returns a context authenticated as userID holding perms.
func as(userID int64, perms ...domain.PermissionName) context.Context {
	return authz.WithPrincipal(context.Background(), authz.Principal{
		UserID:      userID,
		Permissions: domain.NewPermissionSet(perms),
	})
}

func admin(userID int64) context.Context {
	return as(userID, domain.AllPermissions()...)
}

func ok[T any](t *testing.T, r result.Result[T]) T {
	t.Helper()
	require.True(t, r.IsOk(), "unexpected errors: %v", r.Errors())
	v, _ := r.Value()
	return v
}

func failed[T any](t *testing.T, r result.Result[T], kind result.Kind, code string) {
	t.Helper()
	require.True(t, r.IsErr(), "expected %s/%s, got success", kind, code)
	assert.Equal(t, kind, r.FirstError().Kind)
	assert.Equal(t, code, r.FirstError().Code)
}

// scope opens a scope over the recording client for direct fixture writes.
func (hs *harness) scope(t *testing.T) stores {
	t.Helper()
	s, err := hs.uow.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Commit() })
	return storesOf(s)
}

func (hs *harness) seedCatalogue(t *testing.T) SeedReport {
	t.Helper()
	return ok(t, Seed(context.Background(), hs.uow, ""))
}

func (hs *harness) user(t *testing.T, email string, roleID *int64) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Secr3t!pass"), bcrypt.MinCost)
	require.NoError(t, err)
	rows := ok(t, hs.scope(t).users.Insert(context.Background(), domain.User{
		Email: email, PasswordHash: string(hash), Verified: true, RoleID: roleID,
	}))
	return rows[0]
}

func (hs *harness) role(t *testing.T, name string) domain.Role {
	t.Helper()
	return ok(t, hs.scope(t).roles.Insert(context.Background(), domain.Role{Name: name}))[0]
}

func (hs *harness) page(t *testing.T, owner int64, title string) domain.Page {
	t.Helper()
	return ok(t, hs.scope(t).pages.Insert(context.Background(), domain.Page{UserID: owner, Title: title, Path: "/"}))[0]
}

func TestCatalog_EveryRequestHasAHandler(t *testing.T) {
	hs := newHarness(t)
	require.NoError(t, hs.d.Check(Catalog()...))
	assert.Len(t, hs.d.Registered(), len(Catalog()))
}

func TestSetUserRole_WithoutPermission(t *testing.T) {
	hs := newHarness(t)
	hs.store.Reset()

	roleID := int64(2)
	r := mediator.Send[domain.User](as(1, domain.PermissionUsersRead), hs.d, SetUserRoleCommand{UserID: 5, RoleID: &roleID})

	require.Len(t, r.Errors(), 1)
	failed(t, r, result.KindUnauthorized, result.ErrInvalidPermission.Code)
	assert.Zero(t, hs.store.MutatingCalls())
	assert.Equal(t, []string{"roles:manage"}, hs.metrics.Denials)
}

func TestGetPages_EmptyRowsIsOk(t *testing.T) {
	hs := newHarness(t)
	hs.store.Respond(domain.ContainerPages, storage.OpSelect, &storage.Response{Rows: []storage.Row{}})

	pages := ok(t, mediator.Send[[]domain.Page](as(5), hs.d, GetPagesQuery{UserID: 5}))
	assert.NotNil(t, pages)
	assert.Empty(t, pages)
}

func TestDeletePage_NotOwner(t *testing.T) {
	hs := newHarness(t)
	p := hs.page(t, 7, "theirs")
	hs.store.Reset()

	r := mediator.Send[bool](as(5), hs.d, DeletePageCommand{UserID: 5, PageID: p.ID})

	failed(t, r, result.KindUnauthorized, "InvalidPermission")
	assert.Zero(t, hs.store.CallsTo(domain.ContainerPages, storage.OpDelete))
	assert.Equal(t, 1, hs.mem.Len(domain.ContainerPages))
}

func TestValidation_ShortCircuits(t *testing.T) {
	tests := []struct {
		name  string
		send  func(hs *harness) result.Any
		codes []string
	}{
		{
			name: "create page without title or path",
			send: func(hs *harness) result.Any {
				return mediator.Send[domain.Page](as(5), hs.d, CreatePageCommand{UserID: 5, Title: "  "}).Erase()
			},
			codes: []string{"title.notblank", "path.notblank"},
		},
		{
			name: "create page for user zero",
			send: func(hs *harness) result.Any {
				return mediator.Send[domain.Page](as(5), hs.d, CreatePageCommand{Title: "t", Path: "/"}).Erase()
			},
			codes: []string{"user_id.gt"},
		},
		{
			name: "register with weak password",
			send: func(hs *harness) result.Any {
				return mediator.Send[domain.User](context.Background(), hs.d, RegisterUserCommand{Email: "a@b.co", Password: "weak"}).Erase()
			},
			codes: []string{"password.strength"},
		},
		{
			name: "register with bad email",
			send: func(hs *harness) result.Any {
				return mediator.Send[domain.User](context.Background(), hs.d, RegisterUserCommand{Email: "nope", Password: "Str0ng!pass"}).Erase()
			},
			codes: []string{"email.email"},
		},
		{
			name: "environment of unknown kind",
			send: func(hs *harness) result.Any {
				return mediator.Send[domain.Environment](admin(5), hs.d, CreateEnvironmentCommand{UserID: 5, Name: "n", Kind: "floppy", Root: "/"}).Erase()
			},
			codes: []string{"kind.oneof"},
		},
		{
			name: "preferences out of range",
			send: func(hs *harness) result.Any {
				return mediator.Send[domain.Preferences](as(5), hs.d, UpdatePreferencesCommand{
					UserID: 5, Theme: "neon", Language: "en", ViewMode: "list", PageSize: 5,
				}).Erase()
			},
			codes: []string{"theme.oneof", "page_size.gte"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t)

			out := tt.send(hs)

			require.False(t, out.IsOk())
			var codes []string
			for _, e := range out.Errors() {
				assert.Equal(t, result.KindValidation, e.Kind)
				codes = append(codes, e.Code)
			}
			assert.ElementsMatch(t, tt.codes, codes)
			assert.Empty(t, hs.store.Calls(), "the handler must not run")
		})
	}
}

func TestAdminProtection(t *testing.T) {
	tests := []struct {
		name string
		send func(hs *harness, adminUser domain.User, adminRole int64) result.Any
	}{
		{
			name: "delete admin user",
			send: func(hs *harness, u domain.User, _ int64) result.Any {
				return mediator.Send[bool](admin(99), hs.d, DeleteUserCommand{UserID: u.ID}).Erase()
			},
		},
		{
			name: "demote admin user",
			send: func(hs *harness, u domain.User, _ int64) result.Any {
				other := hs.role(t, "viewer").ID
				hs.store.Reset()
				return mediator.Send[domain.User](admin(99), hs.d, SetUserRoleCommand{UserID: u.ID, RoleID: &other}).Erase()
			},
		},
		{
			name: "clear admin user role",
			send: func(hs *harness, u domain.User, _ int64) result.Any {
				return mediator.Send[domain.User](admin(99), hs.d, SetUserRoleCommand{UserID: u.ID}).Erase()
			},
		},
		{
			name: "delete admin role",
			send: func(hs *harness, _ domain.User, role int64) result.Any {
				return mediator.Send[bool](admin(99), hs.d, DeleteRoleCommand{RoleID: role}).Erase()
			},
		},
		{
			name: "strip admin role permission",
			send: func(hs *harness, _ domain.User, role int64) result.Any {
				return mediator.Send[bool](admin(99), hs.d, RevokeRolePermissionCommand{RoleID: role, Permission: "users:read"}).Erase()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t)
			report := hs.seedCatalogue(t)
			u := hs.user(t, "root@example.com", &report.AdminRoleID)
			hs.store.Reset()

			out := tt.send(hs, u, report.AdminRoleID)

			require.False(t, out.IsOk())
			assert.Equal(t, "CannotModifyAdminRole", out.Errors()[0].Code)
			assert.Equal(t, result.KindFailure, out.Errors()[0].Kind)
			assert.Zero(t, hs.store.MutatingCalls())
		})
	}
}

func TestStorageFailure_SurfacesAsResult(t *testing.T) {
	hs := newHarness(t)
	hs.store.Fail(domain.ContainerPages, storage.OpSelect, errors.New("connection reset by peer"))

	r := mediator.Send[[]domain.Page](as(5), hs.d, GetPagesQuery{UserID: 5})
	failed(t, r, result.KindFailure, storage.CodeFailure)
}

func TestMissingContainer_IsClassified(t *testing.T) {
	hs := newHarness(t)
	hs.store.Respond(domain.ContainerPages, storage.OpSelect, &storage.Response{Error: `relation "pages" does not exist`})

	r := mediator.Send[[]domain.Page](as(5), hs.d, GetPagesQuery{UserID: 5})
	failed(t, r, result.KindFailure, storage.CodeMissingContainer)
}

func TestActingForAnotherUser(t *testing.T) {
	hs := newHarness(t)

	r := mediator.Send[[]domain.Page](as(5), hs.d, GetPagesQuery{UserID: 6})
	failed(t, r, result.KindUnauthorized, "InvalidPermission")

	anon := mediator.Send[[]domain.Page](context.Background(), hs.d, GetPagesQuery{UserID: 6})
	failed(t, anon, result.KindUnauthorized, "Unauthenticated")
	assert.Empty(t, hs.store.Calls())
}

func TestSeed_Idempotent(t *testing.T) {
	hs := newHarness(t)

	first := hs.seedCatalogue(t)
	assert.Equal(t, len(domain.AllPermissions()), first.PermissionsCreated)
	assert.True(t, first.RoleCreated)
	assert.Equal(t, len(domain.AllPermissions()), first.GrantsCreated)

	second := hs.seedCatalogue(t)
	assert.Equal(t, SeedReport{AdminRoleID: first.AdminRoleID}, second)
}
