package handler

import "github.com/BinaryAlley/Lyrida-sub002/internal/result"

// Domain error codes / Codes d'erreur du domaine
var (
	ErrUserNotFound       = result.NotFound("User.NotFound", "user not found")
	ErrEmailTaken         = result.Conflict("User.EmailTaken", "email already registered")
	ErrInvalidCredentials = result.Unauthorized("Auth.InvalidCredentials", "invalid credentials")
	ErrEmailNotVerified   = result.Unauthorized("Auth.EmailNotVerified", "email not verified")
	ErrWrongPassword      = result.Validation("current_password.mismatch", "current password is incorrect")
	ErrPasswordReuse      = result.Validation("new_password.reuse", "new password must be different from current password")

	ErrPageNotFound         = result.NotFound("Page.NotFound", "page not found")
	ErrEnvironmentNotFound  = result.NotFound("Environment.NotFound", "environment not found")
	ErrEnvironmentNameTaken = result.Conflict("Environment.NameTaken", "an environment with this name already exists")

	ErrRoleNotFound             = result.NotFound("Role.NotFound", "role does not exist")
	ErrRoleAlreadyExists        = result.Conflict("Role.AlreadyExists", "role already exists")
	ErrPermissionNotFound       = result.NotFound("Permission.NotFound", "permission does not exist")
	ErrPermissionAlreadyGranted = result.Conflict("Permission.AlreadyGranted", "permission already granted")

	ErrAuditUnavailable = result.Failure("Audit.Unavailable", "the audit sink does not keep entries")

	errPasswordHash = result.Failure("Auth.PasswordHash", "failed to process password")
	errTokenIssue   = result.Failure("Auth.TokenIssue", "failed to issue access token")
	errNoEcho       = result.Failure("Storage.NoEcho", "the storage medium did not return the stored record")
	errAuditRead    = result.Failure("Audit.ReadFailed", "failed to read the audit trail")
)
