package jwtmw

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ContextUserID is the gin context key holding the authenticated user id.
	ContextUserID = "userID"
	// ContextToken holds the raw credential so logout can revoke it.
	ContextToken = "sessionToken"
	// CookieName is the HttpOnly cookie set at login.
	CookieName = "linker_session"
)

// TokenFromRequest returns the bearer token, falling back to the session cookie.
// It returns "" when neither is present.
func TokenFromRequest(c *gin.Context) string {
	// 1. Authorization header
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if auth != "" {
		// 別スキームのヘッダーがある場合はクッキーにフォールバックしない
		return ""
	}

	// 2. Cookie
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}

// UserID returns the user id stored by the auth middleware.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// Token returns the raw credential stored by the auth middleware.
func Token(c *gin.Context) string {
	return c.GetString(ContextToken)
}
