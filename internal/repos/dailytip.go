package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

type DailyTipRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tip *types.DailyTip) (*types.DailyTip, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, tipID uuid.UUID) (*types.DailyTip, error)
	GetByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, tipDate string) (*types.DailyTip, error)
	GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.DailyTip, error)
	CountViewedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type dailyTipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyTipRepo(db *gorm.DB, baseLog *logger.Logger) DailyTipRepo {
	repoLog := baseLog.With("repo", "DailyTipRepo")
	return &dailyTipRepo{db: db, log: repoLog}
}

func (r *dailyTipRepo) Create(ctx context.Context, tx *gorm.DB, tip *types.DailyTip) (*types.DailyTip, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(tip).Error; err != nil {
		return nil, err
	}
	return tip, nil
}

func (r *dailyTipRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, tipID uuid.UUID) (*types.DailyTip, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var tip types.DailyTip
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", tipID, userID).
		First(&tip).Error; err != nil {
		return nil, err
	}
	return &tip, nil
}

// GetByUserAndDate is the uniqueness-key lookup; absence surfaces as
// gorm.ErrRecordNotFound and triggers lazy generation in the service.
func (r *dailyTipRepo) GetByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, tipDate string) (*types.DailyTip, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var tip types.DailyTip
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND tip_date = ?", userID, tipDate).
		First(&tip).Error; err != nil {
		return nil, err
	}
	return &tip, nil
}

func (r *dailyTipRepo) GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.DailyTip, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DailyTip
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("tip_date DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *dailyTipRepo) CountViewedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.DailyTip{}).
		Where("user_id = ? AND is_viewed = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *dailyTipRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Model(&types.DailyTip{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}
