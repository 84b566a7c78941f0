// Package entity はprofileフィーチャーのドメイン型を定義します。
package entity

import (
	"errors"
	"fmt"
)

// MaxPictureSize is the largest accepted profile picture, in bytes.
const MaxPictureSize = 10 << 20

var (
	// ErrInvalidPicture is the root of every picture validation failure.
	ErrInvalidPicture = errors.New("invalid picture")
	// ErrPictureTooLarge wraps ErrInvalidPicture.
	ErrPictureTooLarge = fmt.Errorf("%w: larger than %d bytes", ErrInvalidPicture, MaxPictureSize)
	// ErrUnsupportedPictureType wraps ErrInvalidPicture.
	ErrUnsupportedPictureType = fmt.Errorf("%w: unsupported content type", ErrInvalidPicture)
)

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// PictureKind selects which of the user's images an upload replaces.
type PictureKind string

const (
	KindProfile PictureKind = "profile"
	KindBanner  PictureKind = "banner"
)

// ErrUnknownPictureKind is returned for a kind other than KindProfile or KindBanner.
var ErrUnknownPictureKind = errors.New("unknown picture kind")

// Valid reports whether k is a known kind.
func (k PictureKind) Valid() bool {
	return k == KindProfile || k == KindBanner
}

// Picture is an uploaded image before it is stored.
type Picture struct {
	Data        []byte
	ContentType string
}

// IsAllowedContentType reports whether ct may be stored as a profile picture.
func IsAllowedContentType(ct string) bool {
	_, ok := allowedContentTypes[ct]
	return ok
}

// Validate checks size and content type.
func (p Picture) Validate() error {
	if len(p.Data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidPicture)
	}
	if len(p.Data) > MaxPictureSize {
		return ErrPictureTooLarge
	}
	if !IsAllowedContentType(p.ContentType) {
		return ErrUnsupportedPictureType
	}
	return nil
}
