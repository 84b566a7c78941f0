// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"linker/internal/feature/auth/domain/entity"
	"linker/internal/feature/auth/usecase"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATEです。
const pgUniqueViolation = "23505"

// userPostgres はUserRepositoryインターフェースのGORM実装です。
// 本番ではPostgreSQL、テストではSQLiteで動作します。
type userPostgres struct {
	db *gorm.DB
}

// userPostgresがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userPostgres)(nil)

// NewUserPostgres は指定されたgorm.DB接続でuserPostgresの新しいインスタンスを生成します。
func NewUserPostgres(db *gorm.DB) *userPostgres {
	return &userPostgres{db: db}
}

// isDuplicateKey は一意制約違反かどうかを判定します。
// gorm.Config.TranslateError が有効ならErrDuplicatedKeyに変換済みです。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// unavailable はドメイン外のDBエラーをErrDatabaseUnavailableでラップします。
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", usecase.ErrDatabaseUnavailable, op, err)
}

// Create はユーザーをデータベースに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返し、レコードは残りません。
func (r *userPostgres) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user must not be nil")
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicateKey(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return unavailable("create user", err)
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userPostgres) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, unavailable("find user by email", err)
	}
	return &u, nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userPostgres) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, unavailable("find user by id", err)
	}
	return &u, nil
}

// updateColumn はユーザー1人分の単一カラムを書き換えます。
// 対象ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userPostgres) updateColumn(ctx context.Context, id uint, column string, value any) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return unavailable("update "+column, result.Error)
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// UpdateProfilePictureKey はプロフィール画像のキーだけを書き換えます。
func (r *userPostgres) UpdateProfilePictureKey(ctx context.Context, id uint, key string) error {
	return r.updateColumn(ctx, id, "profile_picture_key", key)
}

// UpdateBannerPictureKey はバナー画像のキーだけを書き換えます。
func (r *userPostgres) UpdateBannerPictureKey(ctx context.Context, id uint, key string) error {
	return r.updateColumn(ctx, id, "banner_picture_key", key)
}

// UpdateBio は自己紹介文だけを書き換えます。
func (r *userPostgres) UpdateBio(ctx context.Context, id uint, bio string) error {
	return r.updateColumn(ctx, id, "bio", bio)
}
