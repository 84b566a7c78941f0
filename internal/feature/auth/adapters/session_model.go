package adapters

import (
	"time"

	"gorm.io/gorm"

	"linker/internal/feature/auth/domain/entity"
)

// SessionModel は sessions テーブルの行です。Redis未接続時のセッション保存先になります。
type SessionModel struct {
	ID        string     `gorm:"primaryKey;size:64"`
	UserID    uint       `gorm:"index:idx_sessions_user_created,priority:1;not null"`
	UserAgent string     `gorm:"size:512"`
	IPAddress string     `gorm:"size:45"` // IPv6 max length
	CreatedAt time.Time  `gorm:"index:idx_sessions_user_created,priority:2;not null"`
	ExpiresAt time.Time  `gorm:"index;not null"`
	RevokedAt *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}

// activeSessionsOf limits a query to the live sessions of one user.
func activeSessionsOf(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now())
	}
}

func (m *SessionModel) ToEntity() *entity.Session {
	s := entity.Session(*m)
	return &s
}

func SessionModelFromEntity(s *entity.Session) *SessionModel {
	m := SessionModel(*s)
	return &m
}
