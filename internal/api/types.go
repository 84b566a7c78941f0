// Package api はフィーチャー間で共有するHTTPレスポンス型を定義します。
package api

import "time"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreatedResponse carries the id of a newly created resource.
type CreatedResponse struct {
	ID uint `json:"id"`
}

// TokenResponse is returned on a successful login.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
