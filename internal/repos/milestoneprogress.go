package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

type MilestoneProgressRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.MilestoneProgress) ([]*types.MilestoneProgress, error)
	CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, rows []*types.MilestoneProgress) error
	Get(ctx context.Context, tx *gorm.DB, userID, childID, templateID uuid.UUID) (*types.MilestoneProgress, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, childID *uuid.UUID) ([]*types.MilestoneProgress, error)
	GetByChild(ctx context.Context, tx *gorm.DB, childID uuid.UUID) ([]*types.MilestoneProgress, error)
	CompletedTemplateIDs(ctx context.Context, tx *gorm.DB, childID uuid.UUID) ([]uuid.UUID, error)
	CountCompletedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type milestoneProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMilestoneProgressRepo(db *gorm.DB, baseLog *logger.Logger) MilestoneProgressRepo {
	repoLog := baseLog.With("repo", "MilestoneProgressRepo")
	return &milestoneProgressRepo{db: db, log: repoLog}
}

func (r *milestoneProgressRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.MilestoneProgress) ([]*types.MilestoneProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.MilestoneProgress{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateIgnoreDuplicates bulk-inserts rows, skipping any that collide with the
// (user, child, template) unique index. Used when seeding a new child's
// milestone set, which must be safe to re-run.
func (r *milestoneProgressRepo) CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, rows []*types.MilestoneProgress) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "child_id"}, {Name: "milestone_template_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error; err != nil {
		return err
	}
	return nil
}

// Get is the point lookup on the identity triple. A missing row surfaces as
// gorm.ErrRecordNotFound, which callers treat as a normal outcome.
func (r *milestoneProgressRepo) Get(ctx context.Context, tx *gorm.DB, userID, childID, templateID uuid.UUID) (*types.MilestoneProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.MilestoneProgress
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND child_id = ? AND milestone_template_id = ?", userID, childID, templateID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *milestoneProgressRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, childID *uuid.UUID) ([]*types.MilestoneProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MilestoneProgress
	if userID == uuid.Nil {
		return results, nil
	}

	query := transaction.WithContext(ctx).
		Preload("MilestoneTemplate").
		Where("user_id = ?", userID)
	if childID != nil {
		query = query.Where("child_id = ?", *childID)
	}

	if err := query.
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *milestoneProgressRepo) GetByChild(ctx context.Context, tx *gorm.DB, childID uuid.UUID) ([]*types.MilestoneProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MilestoneProgress
	if childID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("MilestoneTemplate").
		Where("child_id = ?", childID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *milestoneProgressRepo) CompletedTemplateIDs(ctx context.Context, tx *gorm.DB, childID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.MilestoneProgress{}).
		Where("child_id = ? AND is_completed = ?", childID, true).
		Pluck("milestone_template_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *milestoneProgressRepo) CountCompletedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.MilestoneProgress{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateFields applies a column map so nullable columns (completed_at) can be
// cleared, which struct updates would skip.
func (r *milestoneProgressRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Model(&types.MilestoneProgress{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}
