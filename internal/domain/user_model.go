package domain

// User is an account / Représente un compte utilisateur
type User struct {
	Timestamps
	ID           int64
	Email        string
	PasswordHash string // write-only: never read back / jamais relu
	Verified     bool
	RoleID       *int64 // single role per user / un seul rôle par utilisateur
}

// HasRole reports whether the user holds role id.
func (u *User) HasRole(id int64) bool {
	return u.RoleID != nil && *u.RoleID == id
}

// Credentials is the login view of a user: the only read path of the
// password hash.
type Credentials struct {
	ID           int64
	Email        string
	PasswordHash string
	Verified     bool
}

// Role groups permissions / Regroupe des permissions
type Role struct {
	Timestamps
	ID          int64
	Name        string
	Description string
}

// IsAdmin reports whether r is the administrative role named admin.
func (r *Role) IsAdmin(admin string) bool {
	return r.Name == admin
}
