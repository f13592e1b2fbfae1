package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

type ArticleRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Article, error)
	GetByLocale(ctx context.Context, tx *gorm.DB, locale string, limit int) ([]*types.Article, error)
}

type articleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArticleRepo(db *gorm.DB, baseLog *logger.Logger) ArticleRepo {
	repoLog := baseLog.With("repo", "ArticleRepo")
	return &articleRepo{db: db, log: repoLog}
}

func (r *articleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Article, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var article types.Article
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepo) GetByLocale(ctx context.Context, tx *gorm.DB, locale string, limit int) ([]*types.Article, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Article
	if err := transaction.WithContext(ctx).
		Where("locale = ?", locale).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
