package usecase

import (
	"errors"

	authusecase "linker/internal/feature/auth/usecase"
)

var (
	ErrUserNotFound        = authusecase.ErrUserNotFound
	ErrDatabaseUnavailable = authusecase.ErrDatabaseUnavailable

	// ErrInvalidLink is returned when the URL, title or description is rejected.
	ErrInvalidLink = errors.New("invalid link")
	// ErrLinkNotFound is returned when the link does not exist or belongs to someone else.
	ErrLinkNotFound = errors.New("link not found")
	// ErrTooManyLinks is returned when the user already has MaxLinksPerUser links.
	ErrTooManyLinks = errors.New("too many links")
)
