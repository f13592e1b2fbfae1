package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

// TemplateFilters narrows the active catalog. Nil fields are ignored.
type TemplateFilters struct {
	Category       *types.MilestoneCategory
	ParentingStage *types.ParentingStage
	MinAgeMonths   *int
	MaxAgeMonths   *int
}

type MilestoneTemplateRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MilestoneTemplate, error)
	GetActive(ctx context.Context, tx *gorm.DB, filters TemplateFilters) ([]*types.MilestoneTemplate, error)
	GetByAge(ctx context.Context, tx *gorm.DB, ageMonths int, stage types.ParentingStage) ([]*types.MilestoneTemplate, error)
	GetUpcomingForAge(ctx context.Context, tx *gorm.DB, ageMonths, limit int) ([]*types.MilestoneTemplate, error)
}

type milestoneTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMilestoneTemplateRepo(db *gorm.DB, baseLog *logger.Logger) MilestoneTemplateRepo {
	repoLog := baseLog.With("repo", "MilestoneTemplateRepo")
	return &milestoneTemplateRepo{db: db, log: repoLog}
}

func (r *milestoneTemplateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MilestoneTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var template types.MilestoneTemplate
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *milestoneTemplateRepo) GetActive(ctx context.Context, tx *gorm.DB, filters TemplateFilters) ([]*types.MilestoneTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Where("is_active = ?", true)
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.ParentingStage != nil {
		query = query.Where("parenting_stage = ?", *filters.ParentingStage)
	}
	if filters.MinAgeMonths != nil {
		query = query.Where("age_min_months >= ?", *filters.MinAgeMonths)
	}
	if filters.MaxAgeMonths != nil {
		query = query.Where("age_max_months <= ?", *filters.MaxAgeMonths)
	}

	var results []*types.MilestoneTemplate
	if err := query.
		Order("category ASC").
		Order("age_min_months ASC").
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByAge returns active templates for the stage whose inclusive age window
// contains ageMonths, ordered category then min age so output is deterministic.
func (r *milestoneTemplateRepo) GetByAge(ctx context.Context, tx *gorm.DB, ageMonths int, stage types.ParentingStage) ([]*types.MilestoneTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MilestoneTemplate
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Where("parenting_stage = ?", stage).
		Where("age_min_months <= ?", ageMonths).
		Where("age_max_months >= ?", ageMonths).
		Order("category ASC").
		Order("age_min_months ASC").
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetUpcomingForAge returns active templates relevant now or within the next
// month, used for action item reminders.
func (r *milestoneTemplateRepo) GetUpcomingForAge(ctx context.Context, tx *gorm.DB, ageMonths, limit int) ([]*types.MilestoneTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MilestoneTemplate
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Where("age_min_months <= ?", ageMonths+1).
		Where("age_max_months >= ?", ageMonths).
		Order("age_min_months ASC").
		Order("sort_order ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
