package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every token that fails parsing or verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the verified contents of a session credential.
type Claims struct {
	UserID    uint
	SessionID string
	ExpiresAt time.Time
}

// parser verifies tokens produced by generator.
type parser struct {
	secret []byte
}

// NewParser creates a parser sharing the generator's secret.
func NewParser(secret string) (*parser, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &parser{secret: []byte(secret)}, nil
}

// Parse checks the signature (HMAC only), the expiry, and that both sub and
// sid are present.
func (p *parser) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// HMAC以外（none含む）は拒否
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	// JWT numbers are decoded as float64
	sub, ok := claims["sub"].(float64)
	if !ok || sub < 1 || sub != float64(uint(sub)) {
		return nil, fmt.Errorf("%w: bad sub claim", ErrInvalidToken)
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return nil, fmt.Errorf("%w: missing sid claim", ErrInvalidToken)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: bad exp claim", ErrInvalidToken)
	}

	return &Claims{UserID: uint(sub), SessionID: sid, ExpiresAt: exp.Time}, nil
}
