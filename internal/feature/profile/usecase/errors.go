package usecase

import (
	"errors"

	authusecase "linker/internal/feature/auth/usecase"
	"linker/internal/platform/storage"
)

// ユーザー関連のエラーはauthと共有し、ハンドラーで同じ対応表を使えるようにする
var (
	ErrUserNotFound        = authusecase.ErrUserNotFound
	ErrDatabaseUnavailable = authusecase.ErrDatabaseUnavailable
	ErrStorageUnavailable  = storage.ErrStorageUnavailable
)

// ErrNoPicture is returned when the user has no stored picture of the
// requested kind.
var ErrNoPicture = errors.New("no picture")
