// Package password はbcryptによるパスワードハッシュ化を提供します。
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the work factor used in production.
const DefaultCost = 10

// MaxLength is the longest input bcrypt accepts; longer passwords are rejected
// instead of being silently truncated.
const MaxLength = 72

// BcryptHasher hashes and verifies passwords with a fixed work factor.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher validates the work factor once at startup.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash はソルト付きの一方向ハッシュを返します。同じ入力でも毎回異なる値になります。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a
// mismatch, not an error.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
