package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"linker/internal/feature/auth/domain/entity"
	jwtmw "linker/internal/platform/jwt"
)

const (
	// DefaultSessionTTL is how long a session stays valid after login.
	DefaultSessionTTL = 24 * time.Hour
	// DefaultMaxSessionsPerUser caps concurrent logins; the oldest is evicted.
	DefaultMaxSessionsPerUser = 5

	sessionIDBytes = 32
)

// absentSessionID is looked up when a credential cannot even be parsed, so
// that malformed, unknown and revoked credentials all cost one store round trip.
var absentSessionID = hex.EncodeToString(make([]byte, sessionIDBytes))

// TokenGenerator signs a credential bound to a session record.
// Goの慣例に従い、インターフェースはプロバイダー（platform/jwt）ではなくコンシューマー（usecase）が定義します。
type TokenGenerator interface {
	GenerateToken(userID uint, sessionID string, expiresAt time.Time) (string, error)
}

// TokenParser verifies a credential's signature and expiry.
type TokenParser interface {
	Parse(token string) (*jwtmw.Claims, error)
}

// sessionAuthority issues, validates and revokes session credentials.
type sessionAuthority struct {
	sessions   SessionRepository
	generator  TokenGenerator
	parser     TokenParser
	ttl        time.Duration
	maxPerUser int
	now        func() time.Time
}

// NewSessionAuthority wires the authority. ttl and maxPerUser fall back to the
// defaults when not positive.
func NewSessionAuthority(sessions SessionRepository, generator TokenGenerator, parser TokenParser, ttl time.Duration, maxPerUser int) *sessionAuthority {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if maxPerUser <= 0 {
		maxPerUser = DefaultMaxSessionsPerUser
	}
	return &sessionAuthority{
		sessions:   sessions,
		generator:  generator,
		parser:     parser,
		ttl:        ttl,
		maxPerUser: maxPerUser,
		now:        time.Now,
	}
}

// newSessionID returns 32 random bytes, hex encoded.
func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Issue creates a session record for userID and returns a credential bound to it.
func (a *sessionAuthority) Issue(ctx context.Context, userID uint, meta entity.SessionMeta) (*entity.IssuedSession, error) {
	// 上限を超える場合は最も古いセッションを削除
	count, err := a.sessions.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: count sessions: %v", ErrDatabaseUnavailable, err)
	}
	for ; count >= int64(a.maxPerUser); count-- {
		if err := a.sessions.DeleteOldestByUserID(ctx, userID); err != nil {
			return nil, fmt.Errorf("%w: evict session: %v", ErrDatabaseUnavailable, err)
		}
	}

	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	now := a.now()
	session := &entity.Session{
		ID:        id,
		UserID:    userID,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}
	if err := a.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrDatabaseUnavailable, err)
	}

	token, err := a.generator.GenerateToken(userID, session.ID, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &entity.IssuedSession{Token: token, UserID: userID, ExpiresAt: session.ExpiresAt}, nil
}

// Validate returns the user id behind a live credential. Every rejection is
// ErrUnauthorized; only a store outage is reported differently.
func (a *sessionAuthority) Validate(ctx context.Context, token string) (uint, error) {
	session, err := a.lookup(ctx, token)
	if err != nil {
		return 0, err
	}
	return session.UserID, nil
}

// Revoke ends the session behind token (logout).
func (a *sessionAuthority) Revoke(ctx context.Context, token string) error {
	session, err := a.lookup(ctx, token)
	if err != nil {
		return err
	}
	if err := a.sessions.Revoke(ctx, session.ID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("%w: revoke session: %v", ErrDatabaseUnavailable, err)
	}
	return nil
}

// RevokeAll ends every session of userID.
func (a *sessionAuthority) RevokeAll(ctx context.Context, userID uint) error {
	if err := a.sessions.RevokeAllByUserID(ctx, userID); err != nil {
		return fmt.Errorf("%w: revoke sessions: %v", ErrDatabaseUnavailable, err)
	}
	return nil
}

// lookup parses token and loads its live session record.
func (a *sessionAuthority) lookup(ctx context.Context, token string) (*entity.Session, error) {
	claims, parseErr := a.parser.Parse(token)
	sessionID := absentSessionID
	if parseErr == nil {
		sessionID = claims.SessionID
	}

	// パース失敗時もストアを1回参照して応答時間を揃える
	session, err := a.sessions.FindByID(ctx, sessionID)
	if parseErr != nil {
		return nil, ErrUnauthorized
	}
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		slog.Error("session lookup failed", "error", err)
		return nil, fmt.Errorf("%w: find session: %v", ErrDatabaseUnavailable, err)
	}

	if session.UserID != claims.UserID || !session.IsValid() || !a.now().Before(session.ExpiresAt) {
		return nil, ErrUnauthorized
	}
	return session, nil
}
