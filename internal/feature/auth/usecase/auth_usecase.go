// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"linker/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 6
	// maxPasswordLength はbcryptが扱える最大バイト数です。
	maxPasswordLength = 72

	// dummyHash はユーザーが存在しない場合のタイミング攻撃緩和用ハッシュ（cost 10）です。
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

// PasswordHasher はパスワードのハッシュ化と照合を抽象化します。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// SessionIssuer はセッションの発行・失効を抽象化します。
type SessionIssuer interface {
	Issue(ctx context.Context, userID uint, meta entity.SessionMeta) (*entity.IssuedSession, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID uint) error
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users    UserRepository
	hasher   PasswordHasher
	sessions SessionIssuer
	validate *validator.Validate
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, hasher PasswordHasher, sessions SessionIssuer) *authUsecase {
	return &authUsecase{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		validate: validator.New(),
	}
}

// validateSignup は登録入力を検証します。
func (u *authUsecase) validateSignup(name, email, password string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := u.validate.Var(email, "required,email,max=255"); err != nil {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d bytes long", ErrValidation, maxPasswordLength)
	}
	return nil
}

// Signup はハッシュ化されたパスワードで新規ユーザーを登録します。
func (u *authUsecase) Signup(ctx context.Context, name, email, password string) (*entity.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := u.validateSignup(name, email, password); err != nil {
		return nil, err
	}

	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &entity.User{Name: name, Email: email, PasswordHash: hashed}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login はユーザーを認証し、成功時にセッションを発行します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, email, password string, meta entity.SessionMeta) (*entity.IssuedSession, error) {
	user, err := u.users.FindByEmail(ctx, strings.TrimSpace(email))

	passwordHash := dummyHash
	if err == nil {
		passwordHash = user.PasswordHash
	}

	// 常にパスワードを検証
	matched := u.hasher.Verify(password, passwordHash)

	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	// ユーザー未検出またはパスワード不一致の場合、汎用エラーを返す
	if err != nil || !matched {
		return nil, ErrInvalidCredentials
	}

	return u.sessions.Issue(ctx, user.ID, meta)
}

// Logout は指定された資格情報のセッションを失効させます。
func (u *authUsecase) Logout(ctx context.Context, token string) error {
	return u.sessions.Revoke(ctx, token)
}

// LogoutAll はユーザーの全セッションを失効させます。
func (u *authUsecase) LogoutAll(ctx context.Context, userID uint) error {
	return u.sessions.RevokeAll(ctx, userID)
}
