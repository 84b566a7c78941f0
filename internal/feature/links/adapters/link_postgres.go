// Package adapters はlinksフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"linker/internal/feature/links/domain/entity"
	"linker/internal/feature/links/usecase"
)

// linkPostgres はLinkRepositoryインターフェースのGORM実装です。
type linkPostgres struct {
	db *gorm.DB
}

var _ usecase.LinkRepository = (*linkPostgres)(nil)

// NewLinkPostgres は指定されたgorm.DB接続でlinkPostgresの新しいインスタンスを生成します。
func NewLinkPostgres(db *gorm.DB) *linkPostgres {
	return &linkPostgres{db: db}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", usecase.ErrDatabaseUnavailable, op, err)
}

// Create はリンクを追加し、IDとCreatedAtを設定します。
func (r *linkPostgres) Create(ctx context.Context, link *entity.Link) error {
	if link == nil {
		return errors.New("link must not be nil")
	}
	if err := r.db.WithContext(ctx).Omit("User").Create(link).Error; err != nil {
		return unavailable("create link", err)
	}
	return nil
}

// ListByUserID はユーザーのリンクを古い順に返します。
func (r *linkPostgres) ListByUserID(ctx context.Context, userID uint) ([]entity.Link, error) {
	var links []entity.Link
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&links).Error; err != nil {
		return nil, unavailable("list links", err)
	}
	return links, nil
}

// CountByUserID returns how many links the user has.
func (r *linkPostgres) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&entity.Link{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, unavailable("count links", err)
	}
	return n, nil
}

// Delete はユーザー自身のリンクだけを削除します。
// 他人のリンクや存在しないIDにはusecase.ErrLinkNotFoundを返します。
func (r *linkPostgres) Delete(ctx context.Context, userID, linkID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", linkID, userID).
		Delete(&entity.Link{})
	if result.Error != nil {
		return unavailable("delete link", result.Error)
	}
	if result.RowsAffected == 0 {
		return usecase.ErrLinkNotFound
	}
	return nil
}
