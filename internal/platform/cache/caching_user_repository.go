// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"linker/internal/feature/auth/domain/entity"
	"linker/internal/feature/profile/usecase"
)

const (
	// DefaultTTL is used when no positive ttl is given.
	DefaultTTL       = 5 * time.Minute
	defaultNamespace = "profile"
)

// cachedUser はキャッシュに載せるユーザーの射影です。パスワードハッシュは含めません。
type cachedUser struct {
	ID                uint      `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Bio               string    `json:"bio,omitempty"`
	ProfilePictureKey *string   `json:"profile_picture_key,omitempty"`
	BannerPictureKey  *string   `json:"banner_picture_key,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func fromEntity(u *entity.User) cachedUser {
	return cachedUser{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Bio:               u.Bio,
		ProfilePictureKey: u.ProfilePictureKey,
		BannerPictureKey:  u.BannerPictureKey,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (c cachedUser) toEntity() *entity.User {
	return &entity.User{
		ID:                c.ID,
		Email:             c.Email,
		Name:              c.Name,
		Bio:               c.Bio,
		ProfilePictureKey: c.ProfilePictureKey,
		BannerPictureKey:  c.BannerPictureKey,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// CachingUserRepository decorates the profile UserRepository with Redis
// caching of FindByID. Every profile write invalidates the entry.
type CachingUserRepository struct {
	inner     usecase.UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.UserRepository = (*CachingUserRepository)(nil)

// NewCachingUserRepository decorates inner with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "profile".
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

func (c *CachingUserRepository) cacheKey(id uint) string {
	return fmt.Sprintf("%s:user:%d", c.namespace, id)
}

// generationKey はユーザーごとの更新世代カウンタです。更新のたびにINCRされます。
func (c *CachingUserRepository) generationKey(id uint) string {
	return c.cacheKey(id) + ":gen"
}

// setIfGeneration は読み出し開始時の世代が変わっていない場合のみエントリを書き込みます。
// KEYS[1]=entry KEYS[2]=generation ARGV[1]=payload ARGV[2]=observed generation ARGV[3]=ttl(ms)
var setIfGeneration = redis.NewScript(`
local cur = redis.call('GET', KEYS[2])
if cur == false then cur = '' end
if cur ~= ARGV[2] then return 0 end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// FindByID returns the user, checking the cache first. Redis errors fall
// through to the database. A row read while a picture update commits is
// returned but never cached.
func (c *CachingUserRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	key, genKey := c.cacheKey(id), c.generationKey(id)

	// 1) Check cache, remembering the generation seen before the DB read
	gen, cacheable := "", false
	if vals, err := c.rdb.MGet(ctx, key, genKey).Result(); err == nil && len(vals) == 2 {
		cacheable = true
		if g, ok := vals[1].(string); ok {
			gen = g
		}
		if b, ok := vals[0].(string); ok && b != "" {
			var cu cachedUser
			if err := json.Unmarshal([]byte(b), &cu); err == nil {
				return cu.toEntity(), nil
			}
			_ = c.rdb.Del(ctx, key).Err()
		}
	}

	// 2) Fallback to database
	u, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if !cacheable {
		return u, nil
	}
	if b, err := json.Marshal(fromEntity(u)); err == nil {
		if err := setIfGeneration.Run(ctx, c.rdb, []string{key, genKey}, b, gen, c.ttl.Milliseconds()).Err(); err != nil {
			slog.Debug("profile cache fill skipped", "user_id", id, "error", err)
		}
	}
	return u, nil
}

// invalidate bumps the generation so in-flight reads do not refill the
// entry, then drops the cached entry.
func (c *CachingUserRepository) invalidate(ctx context.Context, id uint) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, c.generationKey(id)).Err(); err != nil {
		slog.Warn("failed to bump profile cache generation", "user_id", id, "error", err)
	}
	if err := c.rdb.Del(ctx, c.cacheKey(id)).Err(); err != nil {
		// 古いキーはTTLで消えるまで見え続ける
		slog.Warn("failed to invalidate profile cache", "user_id", id, "error", err)
	}
}

// UpdateProfilePictureKey writes through to the database and invalidates.
func (c *CachingUserRepository) UpdateProfilePictureKey(ctx context.Context, id uint, key string) error {
	if err := c.inner.UpdateProfilePictureKey(ctx, id, key); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// UpdateBannerPictureKey writes through to the database and invalidates.
func (c *CachingUserRepository) UpdateBannerPictureKey(ctx context.Context, id uint, key string) error {
	if err := c.inner.UpdateBannerPictureKey(ctx, id, key); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// UpdateBio writes through to the database and invalidates.
func (c *CachingUserRepository) UpdateBio(ctx context.Context, id uint, bio string) error {
	if err := c.inner.UpdateBio(ctx, id, bio); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}
