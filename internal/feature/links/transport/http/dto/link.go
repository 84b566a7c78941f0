// Package dto はlinksフィーチャーのHTTPリクエスト・レスポンス型を定義します。
package dto

import (
	"time"

	"linker/internal/feature/links/domain/entity"
)

// CreateLinkReq is the body of POST /me/links.
type CreateLinkReq struct {
	URL         string `json:"url" binding:"required,max=2048"`
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"max=1024"`
}

// LinkRes is one link on the wire.
type LinkRes struct {
	ID          uint      `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// LinksRes wraps a list of links.
type LinksRes struct {
	Links []LinkRes `json:"links"`
}

// NewLinkRes converts a domain link.
func NewLinkRes(l *entity.Link) LinkRes {
	return LinkRes{ID: l.ID, URL: l.URL, Title: l.Title, Description: l.Description, CreatedAt: l.CreatedAt}
}

// NewLinksRes converts a list; the result is never null on the wire.
func NewLinksRes(links []entity.Link) LinksRes {
	res := LinksRes{Links: make([]LinkRes, 0, len(links))}
	for i := range links {
		res.Links = append(res.Links, NewLinkRes(&links[i]))
	}
	return res
}
