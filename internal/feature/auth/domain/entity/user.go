// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// User represents a registered Linker account.
type User struct {
	// ID is assigned by the database on insert and never changes.
	ID uint `gorm:"primaryKey"`

	// Email is the login key. It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Name is display-only.
	Name string `gorm:"size:255;not null"`

	// PasswordHash holds the bcrypt encoding. Plaintext is never stored.
	PasswordHash string `gorm:"column:password_hash;size:255;not null"`

	// ProfilePictureKey は現在のプロフィール画像のオブジェクトキーです（未設定ならnil）。
	// バケット側との参照整合性は保証しません。
	ProfilePictureKey *string `gorm:"size:64"`
	// BannerPictureKey はバナー画像のキーです。扱いはProfilePictureKeyと同じです。
	BannerPictureKey *string `gorm:"size:64"`
	// Bio is free text shown on the profile; empty until set.
	Bio string `gorm:"size:500;not null;default:''"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasProfilePicture reports whether the user has uploaded a picture.
func (u *User) HasProfilePicture() bool {
	return u.ProfilePictureKey != nil && *u.ProfilePictureKey != ""
}

// HasBannerPicture reports whether the user has uploaded a banner.
func (u *User) HasBannerPicture() bool {
	return u.BannerPictureKey != nil && *u.BannerPictureKey != ""
}
