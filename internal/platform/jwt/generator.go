// Package jwtmw はセッション資格情報（HS256署名JWT）の生成・検証とリクエストからの取り出しを提供します。
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// generator signs session credentials. The token carries only the user id and
// the id of the server-side session record; expiry mirrors the record.
type generator struct {
	secret []byte
}

// NewGenerator creates a new JWT generator with the provided secret.
func NewGenerator(secret string) (*generator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &generator{secret: []byte(secret)}, nil
}

// GenerateToken creates a signed token bound to the given session.
func (g *generator) GenerateToken(userID uint, sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"sid": sessionID,
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
