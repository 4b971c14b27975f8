package handler

import (
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
	"github.com/BinaryAlley/Lyrida-sub002/internal/validation"
	"github.com/go-playground/validator/v10"
)

const passwordRule = "must be 8 to 72 characters with uppercase, lowercase, digit, and special character"

// registerValidators binds the struct-tag validator of every request type
// that carries input. Requests without fields need none.
func registerValidators(reg *validation.Registry, v *validator.Validate) {
	validation.Register(reg, validation.Tags[RegisterUserCommand](v, func(c RegisterUserCommand) []result.Error {
		return strongPassword("password", c.Password)
	}))
	validation.Register(reg, validation.Tags[LoginCommand](v))
	validation.Register(reg, validation.Tags[ChangePasswordCommand](v, func(c ChangePasswordCommand) []result.Error {
		return strongPassword("new_password", c.NewPassword)
	}))
	validation.Register(reg, validation.Tags[GetEffectivePermissionsQuery](v))

	validation.Register(reg, validation.Tags[GetPagesQuery](v))
	validation.Register(reg, validation.Tags[GetPageQuery](v))
	validation.Register(reg, validation.Tags[CreatePageCommand](v))
	validation.Register(reg, validation.Tags[UpdatePageCommand](v))
	validation.Register(reg, validation.Tags[DeletePageCommand](v))

	validation.Register(reg, validation.Tags[GetEnvironmentsQuery](v))
	validation.Register(reg, validation.Tags[CreateEnvironmentCommand](v))
	validation.Register(reg, validation.Tags[UpdateEnvironmentCommand](v))
	validation.Register(reg, validation.Tags[DeleteEnvironmentCommand](v))

	validation.Register(reg, validation.Tags[GetPreferencesQuery](v))
	validation.Register(reg, validation.Tags[UpdatePreferencesCommand](v))

	validation.Register(reg, validation.Tags[VerifyUserCommand](v))
	validation.Register(reg, validation.Tags[DeleteUserCommand](v))
	validation.Register(reg, validation.Tags[SetUserRoleCommand](v))
	validation.Register(reg, validation.Tags[GrantUserPermissionCommand](v))
	validation.Register(reg, validation.Tags[RevokeUserPermissionCommand](v))

	validation.Register(reg, validation.Tags[CreateRoleCommand](v))
	validation.Register(reg, validation.Tags[DeleteRoleCommand](v))
	validation.Register(reg, validation.Tags[GrantRolePermissionCommand](v))
	validation.Register(reg, validation.Tags[RevokeRolePermissionCommand](v))

	validation.Register(reg, validation.Tags[GetAuditTrailQuery](v))
}

// strongPassword reports a weak password. An empty one is left to the
// required rule.
func strongPassword(field, password string) []result.Error {
	if password == "" || isStrongPassword(password) {
		return nil
	}
	return []result.Error{validation.Field(field, "strength", field+" "+passwordRule)}
}
