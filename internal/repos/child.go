package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

type ChildRepo interface {
	Create(ctx context.Context, tx *gorm.DB, child *types.Child) (*types.Child, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Child, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Child, error)
}

type childRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChildRepo(db *gorm.DB, baseLog *logger.Logger) ChildRepo {
	repoLog := baseLog.With("repo", "ChildRepo")
	return &childRepo{db: db, log: repoLog}
}

func (r *childRepo) Create(ctx context.Context, tx *gorm.DB, child *types.Child) (*types.Child, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(child).Error; err != nil {
		return nil, err
	}
	return child, nil
}

func (r *childRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Child, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var child types.Child
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&child).Error; err != nil {
		return nil, err
	}
	return &child, nil
}

func (r *childRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Child, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Child
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
