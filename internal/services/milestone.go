package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/repos"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

// MilestoneOverviewItem is one catalog entry overlaid with the child's
// completion state, if any.
type MilestoneOverviewItem struct {
	Template *types.MilestoneTemplate `json:"template"`
	Progress *types.MilestoneProgress `json:"progress,omitempty"`
}

type MilestoneService interface {
	RelevantMilestones(ctx context.Context, child *types.Child) ([]*types.MilestoneTemplate, error)
	ChildMilestoneOverview(ctx context.Context, userID, childID uuid.UUID) ([]*MilestoneOverviewItem, error)
	CompleteMilestone(ctx context.Context, userID, childID, templateID uuid.UUID, notes string) (*types.MilestoneProgress, error)
	UncompleteMilestone(ctx context.Context, userID, childID, templateID uuid.UUID) (*types.MilestoneProgress, error)
	UserProgress(ctx context.Context, userID uuid.UUID, childID *uuid.UUID) ([]*types.MilestoneProgress, error)
	Stats(ctx context.Context, userID uuid.UUID, childID *uuid.UUID) (*MilestoneStats, error)
	CompletionRate(ctx context.Context, userID, childID uuid.UUID, category *types.MilestoneCategory) (int, error)
	InitializeMilestonesForChild(ctx context.Context, userID, childID uuid.UUID) error
}

type milestoneService struct {
	db           *gorm.DB
	log          *logger.Logger
	templateRepo repos.MilestoneTemplateRepo
	progressRepo repos.MilestoneProgressRepo
	childRepo    repos.ChildRepo
	activity     ActivityService
	now          func() time.Time
}

func NewMilestoneService(db *gorm.DB, log *logger.Logger, templateRepo repos.MilestoneTemplateRepo, progressRepo repos.MilestoneProgressRepo, childRepo repos.ChildRepo, activity ActivityService) MilestoneService {
	serviceLog := log.With("service", "MilestoneService")
	return &milestoneService{
		db:           db,
		log:          serviceLog,
		templateRepo: templateRepo,
		progressRepo: progressRepo,
		childRepo:    childRepo,
		activity:     activity,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RelevantMilestones returns the active catalog entries eligible for the child
// right now. Without a birth date the child is treated as a newborn and the
// age-window check is skipped entirely.
func (s *milestoneService) RelevantMilestones(ctx context.Context, child *types.Child) ([]*types.MilestoneTemplate, error) {
	if child == nil {
		return nil, fmt.Errorf("no child given")
	}
	if child.BirthDate == nil {
		stage := types.StageNewborn
		templates, err := s.templateRepo.GetActive(ctx, nil, repos.TemplateFilters{ParentingStage: &stage})
		if err != nil {
			return nil, fmt.Errorf("fetching newborn milestones: %w", err)
		}
		return templates, nil
	}

	ageMonths := CalculateAgeInMonths(*child.BirthDate, s.now())
	stage := StageForAgeMonths(ageMonths)
	templates, err := s.templateRepo.GetByAge(ctx, nil, ageMonths, stage)
	if err != nil {
		return nil, fmt.Errorf("fetching milestones for age %d: %w", ageMonths, err)
	}
	return templates, nil
}

// ChildMilestoneOverview joins the eligible catalog with the child's ledger
// rows for display.
func (s *milestoneService) ChildMilestoneOverview(ctx context.Context, userID, childID uuid.UUID) ([]*MilestoneOverviewItem, error) {
	child, err := s.childRepo.GetByID(ctx, nil, childID)
	if err != nil {
		return nil, fmt.Errorf("fetching child: %w", err)
	}
	if child.UserID != userID {
		return nil, fmt.Errorf("child does not belong to user")
	}

	templates, err := s.RelevantMilestones(ctx, child)
	if err != nil {
		return nil, err
	}
	progress, err := s.progressRepo.GetByUser(ctx, nil, userID, &childID)
	if err != nil {
		return nil, fmt.Errorf("fetching milestone progress: %w", err)
	}

	byTemplate := make(map[uuid.UUID]*types.MilestoneProgress, len(progress))
	for _, row := range progress {
		byTemplate[row.MilestoneTemplateID] = row
	}

	items := make([]*MilestoneOverviewItem, 0, len(templates))
	for _, template := range templates {
		items = append(items, &MilestoneOverviewItem{
			Template: template,
			Progress: byTemplate[template.ID],
		})
	}
	return items, nil
}

// CompleteMilestone marks the (user, child, template) record complete,
// creating it if this is the first touch. Idempotent: a second call refreshes
// the timestamp and note on the same row, it never duplicates.
func (s *milestoneService) CompleteMilestone(ctx context.Context, userID, childID, templateID uuid.UUID, notes string) (*types.MilestoneProgress, error) {
	completedAt := s.now()
	row, err := s.upsertProgress(ctx, userID, childID, templateID, map[string]interface{}{
		"is_completed": true,
		"completed_at": completedAt,
		"notes":        notes,
	}, func() *types.MilestoneProgress {
		return &types.MilestoneProgress{
			UserID:              userID,
			ChildID:             childID,
			MilestoneTemplateID: templateID,
			IsCompleted:         true,
			CompletedAt:         &completedAt,
			Notes:               notes,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("completing milestone: %w", err)
	}

	s.activity.Record(userID, types.ActivityMilestoneCompleted, &templateID, nil, nil)
	return row, nil
}

// UncompleteMilestone flips the record back to incomplete and clears the
// completion timestamp. The note is left untouched.
func (s *milestoneService) UncompleteMilestone(ctx context.Context, userID, childID, templateID uuid.UUID) (*types.MilestoneProgress, error) {
	row, err := s.upsertProgress(ctx, userID, childID, templateID, map[string]interface{}{
		"is_completed": false,
		"completed_at": nil,
	}, func() *types.MilestoneProgress {
		return &types.MilestoneProgress{
			UserID:              userID,
			ChildID:             childID,
			MilestoneTemplateID: templateID,
			IsCompleted:         false,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("uncompleting milestone: %w", err)
	}

	s.activity.Record(userID, types.ActivityMilestoneUncompleted, &templateID, nil, nil)
	return row, nil
}

// upsertProgress runs the lookup-then-write inside one transaction. A lookup
// failure other than not-found aborts before any mutation.
func (s *milestoneService) upsertProgress(ctx context.Context, userID, childID, templateID uuid.UUID, updates map[string]interface{}, newRow func() *types.MilestoneProgress) (*types.MilestoneProgress, error) {
	var out *types.MilestoneProgress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.progressRepo.Get(ctx, tx, userID, childID, templateID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("progress lookup: %w", err)
		}

		if existing != nil {
			if err := s.progressRepo.UpdateFields(ctx, tx, existing.ID, updates); err != nil {
				return fmt.Errorf("progress update: %w", err)
			}
			refreshed, err := s.progressRepo.Get(ctx, tx, userID, childID, templateID)
			if err != nil {
				return fmt.Errorf("progress re-read: %w", err)
			}
			out = refreshed
			return nil
		}

		created, err := s.progressRepo.Create(ctx, tx, []*types.MilestoneProgress{newRow()})
		if err != nil {
			return fmt.Errorf("progress insert: %w", err)
		}
		out = created[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *milestoneService) UserProgress(ctx context.Context, userID uuid.UUID, childID *uuid.UUID) ([]*types.MilestoneProgress, error) {
	progress, err := s.progressRepo.GetByUser(ctx, nil, userID, childID)
	if err != nil {
		return nil, fmt.Errorf("fetching milestone progress: %w", err)
	}
	return progress, nil
}

func (s *milestoneService) Stats(ctx context.Context, userID uuid.UUID, childID *uuid.UUID) (*MilestoneStats, error) {
	progress, err := s.UserProgress(ctx, userID, childID)
	if err != nil {
		return nil, err
	}
	return BuildMilestoneStats(progress), nil
}

func (s *milestoneService) CompletionRate(ctx context.Context, userID, childID uuid.UUID, category *types.MilestoneCategory) (int, error) {
	progress, err := s.progressRepo.GetByUser(ctx, nil, userID, &childID)
	if err != nil {
		return 0, fmt.Errorf("fetching milestone progress: %w", err)
	}

	total, completed := 0, 0
	for _, row := range progress {
		if category != nil {
			if row.MilestoneTemplate == nil || row.MilestoneTemplate.Category != *category {
				continue
			}
		}
		total++
		if row.IsCompleted {
			completed++
		}
	}
	return completionRate(completed, total), nil
}

// InitializeMilestonesForChild seeds incomplete ledger rows for every
// currently relevant catalog entry. Safe to call again; existing rows win.
func (s *milestoneService) InitializeMilestonesForChild(ctx context.Context, userID, childID uuid.UUID) error {
	child, err := s.childRepo.GetByID(ctx, nil, childID)
	if err != nil {
		return fmt.Errorf("fetching child: %w", err)
	}

	templates, err := s.RelevantMilestones(ctx, child)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		return nil
	}

	rows := make([]*types.MilestoneProgress, 0, len(templates))
	for _, template := range templates {
		rows = append(rows, &types.MilestoneProgress{
			UserID:              userID,
			ChildID:             childID,
			MilestoneTemplateID: template.ID,
			IsCompleted:         false,
		})
	}
	if err := s.progressRepo.CreateIgnoreDuplicates(ctx, nil, rows); err != nil {
		return fmt.Errorf("seeding milestones for child: %w", err)
	}
	return nil
}
