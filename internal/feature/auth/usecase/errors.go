// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrValidation is returned when registration input is malformed.
	ErrValidation = errors.New("validation failed")

	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when attempting to create a user with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized is the single rejection for a missing, malformed,
	// tampered, expired, unknown or revoked session credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionNotFound is returned when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDatabaseUnavailable wraps transport failures of the relational store.
	ErrDatabaseUnavailable = errors.New("database unavailable")
)
