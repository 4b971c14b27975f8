package handler

import (
	"net/mail"
	"strings"
	"unicode"
)

// isStrongPassword validates that a password meets security requirements:
//   - At least 8 characters long
//   - Maximum 72 bytes (bcrypt limitation)
//   - At least one uppercase letter, one lowercase letter, one digit and one
//     special character
func isStrongPassword(password string) bool {
	if len(password) < 8 || len(password) > 72 {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasDigit && hasSpecial
}

// normalizeEmail lowercases and trims an address / Normalise une adresse email
func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if addr, err := mail.ParseAddress(email); err == nil {
		return addr.Address
	}
	return email
}
