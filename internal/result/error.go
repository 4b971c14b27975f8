// Package result provides the Result type returned by every request handler and
// the structured error descriptors it carries instead of Go errors.
package result

import (
	"errors"
	"fmt"
)

// Kind classifies an Error / Classe une erreur
type Kind int

const (
	KindFailure Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthorized
)

// String returns the kind name / Retourne le nom du type
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "failure"
	}
}

// Error describes an expected failure. Code is stable and meant for machines,
// Message is optional human text.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

// Error implements the error interface / Implémente l'interface error
func (e Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Message)
}

// Validation builds a validation error / Construit une erreur de validation
func Validation(code, message string) Error {
	return Error{Kind: KindValidation, Code: code, Message: message}
}

// Conflict builds a conflict error / Construit une erreur de conflit
func Conflict(code, message string) Error {
	return Error{Kind: KindConflict, Code: code, Message: message}
}

// Failure builds a generic failure / Construit un échec générique
func Failure(code, message string) Error {
	return Error{Kind: KindFailure, Code: code, Message: message}
}

// NotFound builds a not-found error / Construit une erreur "introuvable"
func NotFound(code, message string) Error {
	return Error{Kind: KindNotFound, Code: code, Message: message}
}

// Unauthorized builds an authorization error / Construit une erreur d'autorisation
func Unauthorized(code, message string) Error {
	return Error{Kind: KindUnauthorized, Code: code, Message: message}
}

// Common error codes shared by several handlers.
var (
	ErrInvalidPermission     = Unauthorized("InvalidPermission", "the caller is not allowed to perform this action")
	ErrUnauthenticated       = Unauthorized("Unauthenticated", "no authenticated caller")
	ErrCannotModifyAdminRole = Failure("CannotModifyAdminRole", "the administrative role cannot be modified")
)

// AsError extracts an Error from err. Anything that is not a result.Error is
// reported as a generic failure carrying err's text.
func AsError(err error) Error {
	var re Error
	if errors.As(err, &re) {
		return re
	}
	return Failure("Unexpected", err.Error())
}
