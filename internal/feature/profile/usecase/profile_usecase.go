// Package usecase はprofileフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	authentity "linker/internal/feature/auth/domain/entity"
	"linker/internal/feature/profile/domain/entity"
	"linker/internal/platform/storage"
)

// UserRepository はプロフィール表示と更新に必要な永続化操作です。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*authentity.User, error)
	UpdateProfilePictureKey(ctx context.Context, id uint, key string) error
	UpdateBannerPictureKey(ctx context.Context, id uint, key string) error
	UpdateBio(ctx context.Context, id uint, bio string) error
}

// ObjectStore はオブジェクトストレージへのゲートウェイを抽象化します。
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	PutObject(ctx context.Context, key string, payload []byte, contentType string) error
	GetObject(ctx context.Context, key string) (*storage.Object, error)
	PresignGet(ctx context.Context, key string) (string, error)
}

type profileUsecase struct {
	users   UserRepository
	objects ObjectStore
	newKey  func() string
}

// NewProfileUsecase はprofileUsecaseの新しいインスタンスを生成します。
func NewProfileUsecase(users UserRepository, objects ObjectStore) *profileUsecase {
	return &profileUsecase{
		users:   users,
		objects: objects,
		newKey:  uuid.NewString,
	}
}

// pictureKey はkindに対応するキーを返します。未設定なら空文字です。
func pictureKey(u *authentity.User, kind entity.PictureKind) string {
	switch kind {
	case entity.KindProfile:
		if u.HasProfilePicture() {
			return *u.ProfilePictureKey
		}
	case entity.KindBanner:
		if u.HasBannerPicture() {
			return *u.BannerPictureKey
		}
	}
	return ""
}

// presign は署名付きURLを返します。失敗してもプロフィール表示は続けるため空文字を返します。
func (u *profileUsecase) presign(ctx context.Context, userID uint, kind entity.PictureKind, key string) string {
	if key == "" {
		return ""
	}
	url, err := u.objects.PresignGet(ctx, key)
	if err != nil {
		slog.Warn("failed to presign picture", "user_id", userID, "kind", kind, "error", err)
		return ""
	}
	return url
}

// GetProfile はユーザーのプロフィールを返します。
// 署名付きURLの生成に失敗してもプロフィール自体は返します。
func (u *profileUsecase) GetProfile(ctx context.Context, userID uint) (*entity.Profile, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &entity.Profile{
		ID:                user.ID,
		Name:              user.Name,
		Email:             user.Email,
		Bio:               user.Bio,
		ProfilePictureKey: pictureKey(user, entity.KindProfile),
		BannerPictureKey:  pictureKey(user, entity.KindBanner),
	}
	p.ProfilePictureURL = u.presign(ctx, userID, entity.KindProfile, p.ProfilePictureKey)
	p.BannerPictureURL = u.presign(ctx, userID, entity.KindBanner, p.BannerPictureKey)
	return p, nil
}

// UpdateBio は自己紹介文を書き換えます。空文字は削除を意味します。
func (u *profileUsecase) UpdateBio(ctx context.Context, userID uint, bio string) error {
	if err := entity.ValidateBio(bio); err != nil {
		return err
	}
	return u.users.UpdateBio(ctx, userID, bio)
}

func (u *profileUsecase) recordKey(ctx context.Context, userID uint, kind entity.PictureKind, key string) error {
	if kind == entity.KindBanner {
		return u.users.UpdateBannerPictureKey(ctx, userID, key)
	}
	return u.users.UpdateProfilePictureKey(ctx, userID, key)
}

// UpdatePicture は画像を新しいキーで保存し、保存に成功した後でのみ
// ユーザーのキーを書き換えます。ストレージ障害時はDBに触れません。
func (u *profileUsecase) UpdatePicture(ctx context.Context, userID uint, kind entity.PictureKind, picture entity.Picture) (string, error) {
	if !kind.Valid() {
		return "", entity.ErrUnknownPictureKind
	}
	if err := picture.Validate(); err != nil {
		return "", err
	}
	if _, err := u.users.FindByID(ctx, userID); err != nil {
		return "", err
	}

	key := u.newKey()
	if err := u.objects.EnsureBucket(ctx); err != nil {
		return "", err
	}
	if err := u.objects.PutObject(ctx, key, picture.Data, picture.ContentType); err != nil {
		return "", err
	}
	if err := u.recordKey(ctx, userID, kind, key); err != nil {
		// オブジェクトは孤立するが、以前のキーは有効なまま
		slog.Error("stored picture but failed to record key", "user_id", userID, "kind", kind, "key", key, "error", err)
		return "", err
	}
	return key, nil
}

// UpdateProfilePicture replaces the profile picture.
func (u *profileUsecase) UpdateProfilePicture(ctx context.Context, userID uint, picture entity.Picture) (string, error) {
	return u.UpdatePicture(ctx, userID, entity.KindProfile, picture)
}

// GetPicture はユーザーの現在の画像を取得します。
func (u *profileUsecase) GetPicture(ctx context.Context, userID uint, kind entity.PictureKind) (*entity.StoredPicture, error) {
	if !kind.Valid() {
		return nil, entity.ErrUnknownPictureKind
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	key := pictureKey(user, kind)
	if key == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoPicture, kind)
	}

	obj, err := u.objects.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: object %s is missing", ErrNoPicture, key)
		}
		return nil, err
	}
	return &entity.StoredPicture{Key: obj.Key, Data: obj.Data, ContentType: obj.ContentType}, nil
}

// GetProfilePicture returns the current profile picture.
func (u *profileUsecase) GetProfilePicture(ctx context.Context, userID uint) (*entity.StoredPicture, error) {
	return u.GetPicture(ctx, userID, entity.KindProfile)
}
