package entity

import (
	"errors"
	"unicode/utf8"
)

// MaxBioLength is the longest accepted bio, in characters.
const MaxBioLength = 500

// ErrInvalidBio is returned for a bio longer than MaxBioLength or not valid UTF-8.
var ErrInvalidBio = errors.New("invalid bio")

// Profile is the view of a user shown on their own profile page.
type Profile struct {
	ID    uint
	Name  string
	Email string
	Bio   string

	ProfilePictureKey string
	// ProfilePictureURL is a short-lived presigned URL, empty when there is
	// no picture or it could not be signed.
	ProfilePictureURL string

	BannerPictureKey string
	BannerPictureURL string
}

// StoredPicture is a picture read back from object storage.
type StoredPicture struct {
	Key         string
	Data        []byte
	ContentType string
}

// ValidateBio checks length and encoding. An empty bio clears it.
func ValidateBio(bio string) error {
	if !utf8.ValidString(bio) || utf8.RuneCountInString(bio) > MaxBioLength {
		return ErrInvalidBio
	}
	return nil
}
