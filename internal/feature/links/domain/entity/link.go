// Package entity defines the domain entities for the links feature.
package entity

import (
	"time"

	authentity "linker/internal/feature/auth/domain/entity"
)

// Field limits shared by validation and the column sizes.
const (
	MaxURLLength         = 2048
	MaxTitleLength       = 255
	MaxDescriptionLength = 1024
	// MaxLinksPerUser caps how many links one profile can list.
	MaxLinksPerUser = 50
)

// Link is one entry in a user's public list of links.
type Link struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	URL         string `gorm:"size:2048;not null"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"size:1024;not null;default:''"`
	CreatedAt   time.Time

	// ユーザー削除時にリンクも消す
	User *authentity.User `gorm:"constraint:OnDelete:CASCADE"`
}

// NewLink is the user input for creating a link.
type NewLink struct {
	URL         string
	Title       string
	Description string
}
