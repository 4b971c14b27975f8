package domain

import "sort"

// PermissionName is a granular permission (resource:action pattern) / Permission granulaire (pattern resource:action)
type PermissionName string

// Predefined permissions / Permissions prédéfinies
const (
	PermissionUsersRead          PermissionName = "users:read"
	PermissionUsersManage        PermissionName = "users:manage"
	PermissionRolesManage        PermissionName = "roles:manage"
	PermissionPermissionsManage  PermissionName = "permissions:manage"
	PermissionEnvironmentsManage PermissionName = "environments:manage"
)

// DefaultAdminRole is the name of the administrative role / Nom du rôle administrateur
const DefaultAdminRole = "admin"

// permissionDescriptions is the seeded permission catalogue.
var permissionDescriptions = map[PermissionName]string{
	PermissionUsersRead:          "List user accounts",
	PermissionUsersManage:        "Delete user accounts",
	PermissionRolesManage:        "Create, delete and assign roles",
	PermissionPermissionsManage:  "Grant and revoke permissions",
	PermissionEnvironmentsManage: "Add file system environments",
}

// AllPermissions returns all defined permissions, sorted / Retourne toutes les permissions définies
func AllPermissions() []PermissionName {
	out := make([]PermissionName, 0, len(permissionDescriptions))
	for p := range permissionDescriptions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Describe returns the catalogue description of p.
func (p PermissionName) Describe() string {
	return permissionDescriptions[p]
}

// String returns permission as string / Retourne la permission en string
func (p PermissionName) String() string {
	return string(p)
}

// Permission is a stored permission / Permission stockée
type Permission struct {
	ID          int64
	Name        PermissionName
	Description string
}

// RolePermission links a role to a permission.
type RolePermission struct {
	ID           int64
	RoleID       int64
	PermissionID int64
}

// UserPermission grants a permission directly to a user, on top of its role.
type UserPermission struct {
	ID           int64
	UserID       int64
	PermissionID int64
}

// PermissionSet is the effective permission set of a user: the union of its
// role permissions and its direct grants. It is computed for each request.
type PermissionSet struct {
	names map[PermissionName]struct{}
}

// NewPermissionSet builds a set from any number of permission lists.
func NewPermissionSet(lists ...[]PermissionName) PermissionSet {
	s := PermissionSet{names: make(map[PermissionName]struct{})}
	for _, l := range lists {
		for _, p := range l {
			s.names[p] = struct{}{}
		}
	}
	return s
}

// Has reports whether p is in the set.
func (s PermissionSet) Has(p PermissionName) bool {
	_, ok := s.names[p]
	return ok
}

// Names returns the permissions, sorted.
func (s PermissionSet) Names() []PermissionName {
	out := make([]PermissionName, 0, len(s.names))
	for p := range s.names {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of permissions.
func (s PermissionSet) Len() int { return len(s.names) }
