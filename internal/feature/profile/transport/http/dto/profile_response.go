// Package dto はprofileフィーチャーのHTTPリクエスト・レスポンス型を定義します。
package dto

import "linker/internal/feature/profile/domain/entity"

// ProfileRes is the body of GET /me.
type ProfileRes struct {
	ID                uint   `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Bio               string `json:"bio"`
	ProfilePictureKey string `json:"profile_picture_key,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
	BannerPictureKey  string `json:"banner_picture_key,omitempty"`
	BannerPictureURL  string `json:"banner_picture_url,omitempty"`
}

// UpdateBioReq is the body of PATCH /me. An empty string clears the bio;
// the field itself must be present.
type UpdateBioReq struct {
	Bio *string `json:"bio" binding:"required"`
}

// PictureRes is returned after a successful upload.
type PictureRes struct {
	Key string `json:"key"`
}

// NewProfileRes converts the domain profile to its wire form.
func NewProfileRes(p *entity.Profile) ProfileRes {
	return ProfileRes{
		ID:                p.ID,
		Name:              p.Name,
		Email:             p.Email,
		Bio:               p.Bio,
		ProfilePictureKey: p.ProfilePictureKey,
		ProfilePictureURL: p.ProfilePictureURL,
		BannerPictureKey:  p.BannerPictureKey,
		BannerPictureURL:  p.BannerPictureURL,
	}
}
