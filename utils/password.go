package utils

import (
	"bizpilot/apperrors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes password with bcrypt at the given cost
func HashPassword(password string, cost int) (string, *apperrors.AppError) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", apperrors.NewInternalError("Failed to hash password").WithInternal(err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
