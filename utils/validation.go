package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"bizpilot/apperrors"
)

const (
	MaxEmailLength       = 254
	MaxRequestTextLength = 5000

	// bcrypt only looks at the first 72 bytes and x/crypto refuses anything longer
	MaxPasswordBytes = 72
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidateCredentials checks the signup/login fields are present, the email is
// well formed and the password fits in a bcrypt hash
func ValidateCredentials(email, password string) *apperrors.AppError {
	if email == "" || password == "" {
		return apperrors.NewValidationError("Email and password required")
	}

	if len(email) > MaxEmailLength {
		return apperrors.NewValidationError("Email is too long")
	}

	if len(password) > MaxPasswordBytes {
		return apperrors.NewValidationError("Password is too long").
			WithDetails("max_length", MaxPasswordBytes)
	}

	if !emailRegex.MatchString(email) {
		return apperrors.NewValidationError("Email address is not valid")
	}

	return nil
}

// ValidateRequestText checks the free text of a customer request
func ValidateRequestText(text string) *apperrors.AppError {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError("Request text required")
	}

	if utf8.RuneCountInString(text) > MaxRequestTextLength {
		return apperrors.NewValidationError("Request text is too long").
			WithDetails("max_length", MaxRequestTextLength)
	}

	return nil
}
