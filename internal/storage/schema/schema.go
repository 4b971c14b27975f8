// Package schema declares the service's containers for the in-memory medium,
// with the same keys and unique constraints as the SQL migrations.
package schema

import (
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage/memstore"
)

// Memory returns the container definitions of every entity.
func Memory() []memstore.Container {
	return []memstore.Container{
		{Name: domain.ContainerUsers, Unique: [][]string{{"email"}}, Timestamps: true},
		{Name: domain.ContainerRoles, Unique: [][]string{{"name"}}, Timestamps: true},
		{Name: domain.ContainerPermissions, Unique: [][]string{{"name"}}},
		{Name: domain.ContainerRolePermissions, Unique: [][]string{{"role_id", "permission_id"}}},
		{Name: domain.ContainerUserPermissions, Unique: [][]string{{"user_id", "permission_id"}}},
		{Name: domain.ContainerPages, KeyType: memstore.UUIDKey, Timestamps: true},
		{Name: domain.ContainerEnvironments, KeyType: memstore.UUIDKey, Unique: [][]string{{"user_id", "name"}}, Timestamps: true},
		{Name: domain.ContainerPreferences, KeyType: memstore.UUIDKey, Unique: [][]string{{"user_id"}}, Timestamps: true},
	}
}

// NewMemory returns an empty in-memory medium holding every container.
func NewMemory() *memstore.Store {
	return memstore.New(Memory()...)
}
