// Package auth is the session layer: password hashing and signed tokens
// that carry a caller's identity and role between requests.
package auth

import (
	"fmt"
	"sync"

	"github.com/aanand-mishra/hostel-api/internal/types"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password hashes.
const BcryptCost = 12

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, not
// characters, so a short non-ASCII password can still exceed it.
const MaxPasswordBytes = 72

var (
	decoyOnce sync.Once
	decoyHash []byte
)

// HashPassword returns the bcrypt hash of password. Passwords over
// MaxPasswordBytes are rejected as types.ErrInvalidInput.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", fmt.Errorf("HashPassword: password is %d bytes, limit %d: %w",
			len(password), MaxPasswordBytes, types.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("HashPassword: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
//
// An empty hash (no such account) is still compared against a decoy hash
// of the same cost and always fails, so a lookup miss takes as long as a
// wrong password.
func CheckPassword(hashedPassword, password string) bool {
	if hashedPassword == "" {
		decoyOnce.Do(func() {
			decoyHash, _ = bcrypt.GenerateFromPassword([]byte("decoy-password"), BcryptCost)
		})
		bcrypt.CompareHashAndPassword(decoyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
