package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"linker/internal/feature/auth/domain/entity"
	"linker/internal/feature/auth/usecase"
)

// sessionPostgres is the relational fallback for session records, used when
// Redis is not configured.
type sessionPostgres struct {
	db *gorm.DB
}

// Compile-time check to ensure sessionPostgres implements SessionRepository.
var _ usecase.SessionRepository = (*sessionPostgres)(nil)

// NewSessionPostgres creates a new instance of sessionPostgres.
func NewSessionPostgres(db *gorm.DB) *sessionPostgres {
	return &sessionPostgres{db: db}
}

// Create persists a new session to the database.
func (r *sessionPostgres) Create(ctx context.Context, session *entity.Session) error {
	model := SessionModelFromEntity(session)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return unavailable("create session", err)
	}
	return nil
}

// FindByID retrieves a session by its ID.
func (r *sessionPostgres) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	var model SessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, unavailable("find session", err)
	}
	return model.ToEntity(), nil
}

// Revoke marks a session as revoked by its ID.
func (r *sessionPostgres) Revoke(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("id = ?", id).
		Update("revoked_at", time.Now())

	if result.Error != nil {
		return unavailable("revoke session", result.Error)
	}
	if result.RowsAffected == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// RevokeAllByUserID revokes all sessions for a given user.
func (r *sessionPostgres) RevokeAllByUserID(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
	if err != nil {
		return unavailable("revoke sessions", err)
	}
	return nil
}

// DeleteExpired removes expired and revoked sessions.
func (r *sessionPostgres) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", time.Now()).
		Delete(&SessionModel{})
	if result.Error != nil {
		return 0, unavailable("delete expired sessions", result.Error)
	}
	return result.RowsAffected, nil
}

// CountByUserID returns the number of active sessions for a user.
func (r *sessionPostgres) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Scopes(activeSessionsOf(userID)).
		Count(&count).Error
	if err != nil {
		return 0, unavailable("count sessions", err)
	}
	return count, nil
}

// DeleteOldestByUserID deletes the oldest active session for a user.
func (r *sessionPostgres) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	var oldest SessionModel
	if err := r.db.WithContext(ctx).
		Scopes(activeSessionsOf(userID)).
		Order("created_at ASC").
		First(&oldest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return unavailable("find oldest session", err)
	}

	if err := r.db.WithContext(ctx).Delete(&SessionModel{}, "id = ?", oldest.ID).Error; err != nil {
		return unavailable("evict session", err)
	}
	return nil
}
