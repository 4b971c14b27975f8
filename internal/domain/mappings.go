package domain

import (
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/repository"
)

// Storage containers / Conteneurs de stockage
const (
	ContainerUsers           = "users"
	ContainerRoles           = "roles"
	ContainerPermissions     = "permissions"
	ContainerRolePermissions = "role_permissions"
	ContainerUserPermissions = "user_permissions"
	ContainerPages           = "pages"
	ContainerEnvironments    = "file_system_data_sources"
	ContainerPreferences     = "profile_preferences"
)

// Users maps User. The password hash is written but never read.
var Users = repository.NewMapping[User](ContainerUsers,
	repository.Int64("ID", "id", func(u *User) *int64 { return &u.ID }).Key(),
	repository.String("Email", "email", func(u *User) *string { return &u.Email }),
	repository.String("PasswordHash", "password_hash", func(u *User) *string { return &u.PasswordHash }).WriteOnly(),
	repository.Bool("Verified", "verified", func(u *User) *bool { return &u.Verified }),
	repository.OptionalInt64("RoleID", "role_id", func(u *User) **int64 { return &u.RoleID }),
	repository.Time("CreatedAt", "created_at", func(u *User) *time.Time { return &u.CreatedAt }).ReadOnly(),
	repository.Time("UpdatedAt", "updated_at", func(u *User) *time.Time { return &u.UpdatedAt }).Touched(),
).OrderBy("ID")

// CredentialsView maps the login view of the users container.
var CredentialsView = repository.NewMapping[Credentials](ContainerUsers,
	repository.Int64("ID", "id", func(c *Credentials) *int64 { return &c.ID }).Key(),
	repository.String("Email", "email", func(c *Credentials) *string { return &c.Email }).ReadOnly(),
	repository.String("PasswordHash", "password_hash", func(c *Credentials) *string { return &c.PasswordHash }).ReadOnly(),
	repository.Bool("Verified", "verified", func(c *Credentials) *bool { return &c.Verified }).ReadOnly(),
)

// Roles maps Role.
var Roles = repository.NewMapping[Role](ContainerRoles,
	repository.Int64("ID", "id", func(r *Role) *int64 { return &r.ID }).Key(),
	repository.String("Name", "name", func(r *Role) *string { return &r.Name }),
	repository.String("Description", "description", func(r *Role) *string { return &r.Description }),
	repository.Time("CreatedAt", "created_at", func(r *Role) *time.Time { return &r.CreatedAt }).ReadOnly(),
	repository.Time("UpdatedAt", "updated_at", func(r *Role) *time.Time { return &r.UpdatedAt }).Touched(),
).OrderBy("ID")

// Permissions maps Permission.
var Permissions = repository.NewMapping[Permission](ContainerPermissions,
	repository.Int64("ID", "id", func(p *Permission) *int64 { return &p.ID }).Key(),
	repository.String("Name", "name", func(p *Permission) *string { return (*string)(&p.Name) }),
	repository.String("Description", "description", func(p *Permission) *string { return &p.Description }),
).OrderBy("Name")

// RolePermissions maps RolePermission, owned by a role.
var RolePermissions = repository.NewMapping[RolePermission](ContainerRolePermissions,
	repository.Int64("ID", "id", func(rp *RolePermission) *int64 { return &rp.ID }).Key(),
	repository.Int64("RoleID", "role_id", func(rp *RolePermission) *int64 { return &rp.RoleID }).Parent(),
	repository.Int64("PermissionID", "permission_id", func(rp *RolePermission) *int64 { return &rp.PermissionID }),
)

// UserPermissions maps UserPermission, owned by a user.
var UserPermissions = repository.NewMapping[UserPermission](ContainerUserPermissions,
	repository.Int64("ID", "id", func(up *UserPermission) *int64 { return &up.ID }).Key(),
	repository.Int64("UserID", "user_id", func(up *UserPermission) *int64 { return &up.UserID }).Parent(),
	repository.Int64("PermissionID", "permission_id", func(up *UserPermission) *int64 { return &up.PermissionID }),
)

// Pages maps Page, owned by a user and sorted by position.
var Pages = repository.NewMapping[Page](ContainerPages,
	repository.String("ID", "id", func(p *Page) *string { return &p.ID }).Key(),
	repository.Int64("UserID", "user_id", func(p *Page) *int64 { return &p.UserID }).Parent(),
	repository.OptionalString("EnvironmentID", "environment_id", func(p *Page) **string { return &p.EnvironmentID }),
	repository.String("Title", "title", func(p *Page) *string { return &p.Title }),
	repository.String("Path", "path", func(p *Page) *string { return &p.Path }),
	repository.Int("Position", "position", func(p *Page) *int { return &p.Position }),
	repository.Time("CreatedAt", "created_at", func(p *Page) *time.Time { return &p.CreatedAt }).ReadOnly(),
	repository.Time("UpdatedAt", "updated_at", func(p *Page) *time.Time { return &p.UpdatedAt }).Touched(),
).OrderBy("Position")

// Environments maps Environment. The connector secret is write-only.
var Environments = repository.NewMapping[Environment](ContainerEnvironments,
	repository.String("ID", "id", func(e *Environment) *string { return &e.ID }).Key(),
	repository.Int64("UserID", "user_id", func(e *Environment) *int64 { return &e.UserID }).Parent(),
	repository.String("Name", "name", func(e *Environment) *string { return &e.Name }),
	repository.String("Kind", "kind", func(e *Environment) *string { return (*string)(&e.Kind) }),
	repository.String("Root", "root", func(e *Environment) *string { return &e.Root }),
	repository.String("Secret", "secret", func(e *Environment) *string { return &e.Secret }).WriteOnly(),
	repository.Time("CreatedAt", "created_at", func(e *Environment) *time.Time { return &e.CreatedAt }).ReadOnly(),
	repository.Time("UpdatedAt", "updated_at", func(e *Environment) *time.Time { return &e.UpdatedAt }).Touched(),
).OrderBy("Name")

// PreferencesMapping maps Preferences, one record per user.
var PreferencesMapping = repository.NewMapping[Preferences](ContainerPreferences,
	repository.String("ID", "id", func(p *Preferences) *string { return &p.ID }).Key(),
	repository.Int64("UserID", "user_id", func(p *Preferences) *int64 { return &p.UserID }).Parent(),
	repository.String("Theme", "theme", func(p *Preferences) *string { return &p.Theme }),
	repository.String("Language", "language", func(p *Preferences) *string { return &p.Language }),
	repository.String("ViewMode", "view_mode", func(p *Preferences) *string { return &p.ViewMode }),
	repository.Bool("ShowHidden", "show_hidden", func(p *Preferences) *bool { return &p.ShowHidden }),
	repository.Int("PageSize", "page_size", func(p *Preferences) *int { return &p.PageSize }),
	repository.Time("CreatedAt", "created_at", func(p *Preferences) *time.Time { return &p.CreatedAt }).ReadOnly(),
	repository.Time("UpdatedAt", "updated_at", func(p *Preferences) *time.Time { return &p.UpdatedAt }).Touched(),
)
