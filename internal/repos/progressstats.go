package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

type ProgressStatsRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ProgressStats) (*types.ProgressStats, error)
	GetByUserAndWeek(ctx context.Context, tx *gorm.DB, userID uuid.UUID, weekStartDate string) (*types.ProgressStats, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.ProgressStats) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type progressStatsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressStatsRepo(db *gorm.DB, baseLog *logger.Logger) ProgressStatsRepo {
	repoLog := baseLog.With("repo", "ProgressStatsRepo")
	return &progressStatsRepo{db: db, log: repoLog}
}

func (r *progressStatsRepo) Create(ctx context.Context, tx *gorm.DB, row *types.ProgressStats) (*types.ProgressStats, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *progressStatsRepo) GetByUserAndWeek(ctx context.Context, tx *gorm.DB, userID uuid.UUID, weekStartDate string) (*types.ProgressStats, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.ProgressStats
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND week_start_date = ?", userID, weekStartDate).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert by the natural (user_id, week_start_date) key.
func (r *progressStatsRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.ProgressStats) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND week_start_date = ?", row.UserID, row.WeekStartDate).
		Assign(map[string]interface{}{
			"questions_asked":      row.QuestionsAsked,
			"tips_received":        row.TipsReceived,
			"content_saved":        row.ContentSaved,
			"milestones_completed": row.MilestonesCompleted,
			"resources_viewed":     row.ResourcesViewed,
			"search_queries":       row.SearchQueries,
		}).
		FirstOrCreate(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *progressStatsRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Model(&types.ProgressStats{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}
