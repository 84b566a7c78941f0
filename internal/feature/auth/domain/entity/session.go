package entity

import "time"

// Session is the server-side record behind a session credential.
// The credential held by the client only references it by ID, so deleting or
// revoking the record invalidates the credential immediately.
type Session struct {
	ID        string     // 64-character hex string (32 random bytes)
	UserID    uint       // Associated user ID
	UserAgent string     // Client's User-Agent header
	IPAddress string     // Client's IP address
	CreatedAt time.Time  // Session creation time
	ExpiresAt time.Time  // Session expiration time
	RevokedAt *time.Time // Revocation time (nil if active)
}

// IsExpired returns true if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsRevoked returns true if the session has been revoked.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsValid returns true if the session is neither expired nor revoked.
func (s *Session) IsValid() bool {
	return !s.IsExpired() && !s.IsRevoked()
}

// SessionMeta はセッション発行時に記録するクライアント情報です。
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// IssuedSession is what a successful login hands back to the client.
type IssuedSession struct {
	Token     string
	UserID    uint
	ExpiresAt time.Time
}
