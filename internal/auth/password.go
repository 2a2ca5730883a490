// Package auth verifies the shared admin password carried in-band by the
// admin command. The configured secret may be either plaintext or a bcrypt
// hash; hashes are recognised by their "$2" prefix.
package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is used when generating hashes with HashPassword.
const bcryptCost = 10

// HashPassword generates a bcrypt hash suitable for the admin_password
// config value.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether supplied matches the configured secret. An empty
// secret never matches: admin commands are disabled server-wide in that case.
func Verify(secret, supplied string) bool {
	if secret == "" {
		return false
	}
	if strings.HasPrefix(secret, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(supplied)) == 1
}
