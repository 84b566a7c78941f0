// Package usecase はlinksフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	authentity "linker/internal/feature/auth/domain/entity"
	"linker/internal/feature/links/domain/entity"
)

// LinkRepository はリンクの永続化操作です。
type LinkRepository interface {
	Create(ctx context.Context, link *entity.Link) error
	ListByUserID(ctx context.Context, userID uint) ([]entity.Link, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID, linkID uint) error
}

// UserFinder はリンク所有者の存在確認に使います。
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*authentity.User, error)
}

type linksUsecase struct {
	links    LinkRepository
	users    UserFinder
	validate *validator.Validate
}

// NewLinksUsecase はlinksUsecaseの新しいインスタンスを生成します。
func NewLinksUsecase(links LinkRepository, users UserFinder) *linksUsecase {
	return &linksUsecase{
		links:    links,
		users:    users,
		validate: validator.New(),
	}
}

func (u *linksUsecase) validateLink(in entity.NewLink) error {
	if err := u.validate.Var(in.URL, fmt.Sprintf("required,http_url,max=%d", entity.MaxURLLength)); err != nil {
		return fmt.Errorf("%w: url", ErrInvalidLink)
	}
	if err := u.validate.Var(in.Title, fmt.Sprintf("required,max=%d", entity.MaxTitleLength)); err != nil {
		return fmt.Errorf("%w: title", ErrInvalidLink)
	}
	if err := u.validate.Var(in.Description, fmt.Sprintf("max=%d", entity.MaxDescriptionLength)); err != nil {
		return fmt.Errorf("%w: description", ErrInvalidLink)
	}
	return nil
}

// CreateLink はユーザーのリンクを追加します。
func (u *linksUsecase) CreateLink(ctx context.Context, userID uint, in entity.NewLink) (*entity.Link, error) {
	in.URL = strings.TrimSpace(in.URL)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := u.validateLink(in); err != nil {
		return nil, err
	}

	if _, err := u.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	n, err := u.links.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n >= entity.MaxLinksPerUser {
		return nil, ErrTooManyLinks
	}

	link := &entity.Link{UserID: userID, URL: in.URL, Title: in.Title, Description: in.Description}
	if err := u.links.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// ListLinks はユーザーのリンクを作成順に返します。リンクがなければ空のスライスです。
func (u *linksUsecase) ListLinks(ctx context.Context, userID uint) ([]entity.Link, error) {
	if _, err := u.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	links, err := u.links.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []entity.Link{}
	}
	return links, nil
}

// DeleteLink removes one of the user's own links.
func (u *linksUsecase) DeleteLink(ctx context.Context, userID, linkID uint) error {
	return u.links.Delete(ctx, userID, linkID)
}
