package handler

import (
	"context"
	"log/slog"

	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/repository"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// SeedReport tells what Seed created / Indique ce que Seed a créé
type SeedReport struct {
	AdminRoleID        int64
	PermissionsCreated int
	RoleCreated        bool
	GrantsCreated      int
}

// Seed stores the permission catalogue and the administrative role holding
// every permission. Running it again creates nothing.
func Seed(ctx context.Context, uow *repository.UnitOfWork, adminRole string) result.Result[SeedReport] {
	if adminRole == "" {
		adminRole = domain.DefaultAdminRole
	}
	return repository.InScope(ctx, uow, func(s *repository.Scope) result.Result[SeedReport] {
		return ensureCatalogue(ctx, storesOf(s), adminRole)
	})
}

func ensureCatalogue(ctx context.Context, st stores, adminRole string) result.Result[SeedReport] {
	var report SeedReport

	stored := st.permissions.GetAll(ctx)
	if stored.IsErr() {
		return result.Cast[SeedReport](stored)
	}
	all, _ := stored.Value()
	ids := make(map[domain.PermissionName]int64, len(all))
	for _, p := range all {
		ids[p.Name] = p.ID
	}
	for _, name := range domain.AllPermissions() {
		if _, ok := ids[name]; ok {
			continue
		}
		created := single(st.permissions.Insert(ctx, domain.Permission{Name: name, Description: name.Describe()}), errNoEcho)
		if created.IsErr() {
			return result.Cast[SeedReport](created)
		}
		p, _ := created.Value()
		ids[name] = p.ID
		report.PermissionsCreated++
	}

	found := optional(st.roles.Find(ctx, repository.Where{"Name": adminRole}))
	if found.IsErr() {
		return result.Cast[SeedReport](found)
	}
	role, _ := found.Value()
	if role == nil {
		created := single(st.roles.Insert(ctx, domain.Role{Name: adminRole, Description: "Administrators"}), errNoEcho)
		if created.IsErr() {
			return result.Cast[SeedReport](created)
		}
		r, _ := created.Value()
		role = &r
		report.RoleCreated = true
	}
	report.AdminRoleID = role.ID

	links := st.rolePermissions.GetByParentID(ctx, role.ID)
	if links.IsErr() {
		return result.Cast[SeedReport](links)
	}
	held, _ := links.Value()
	granted := make(map[int64]bool, len(held))
	for _, rp := range held {
		granted[rp.PermissionID] = true
	}
	for _, name := range domain.AllPermissions() {
		if granted[ids[name]] {
			continue
		}
		r := st.rolePermissions.Insert(ctx, domain.RolePermission{RoleID: role.ID, PermissionID: ids[name]})
		if r.IsErr() {
			return result.Cast[SeedReport](r)
		}
		report.GrantsCreated++
	}

	if report.PermissionsCreated > 0 || report.RoleCreated || report.GrantsCreated > 0 {
		slog.InfoContext(ctx, "permission catalogue seeded",
			"admin_role", adminRole,
			"permissions_created", report.PermissionsCreated,
			"grants_created", report.GrantsCreated,
		)
	}
	return result.Ok(report)
}
