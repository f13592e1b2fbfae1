package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/repos"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

type ChildService interface {
	CreateChild(ctx context.Context, userID uuid.UUID, name string, birthDate *time.Time, gender string) (*types.Child, error)
	GetChild(ctx context.Context, userID, childID uuid.UUID) (*types.Child, error)
	ListChildren(ctx context.Context, userID uuid.UUID) ([]*types.Child, error)
}

type childService struct {
	db         *gorm.DB
	log        *logger.Logger
	childRepo  repos.ChildRepo
	milestones MilestoneService
}

func NewChildService(db *gorm.DB, log *logger.Logger, childRepo repos.ChildRepo, milestones MilestoneService) ChildService {
	serviceLog := log.With("service", "ChildService")
	return &childService{db: db, log: serviceLog, childRepo: childRepo, milestones: milestones}
}

// CreateChild stores the child and seeds their milestone ledger. A seeding
// failure does not undo the create; the seed re-runs safely on next resolve.
func (s *childService) CreateChild(ctx context.Context, userID uuid.UUID, name string, birthDate *time.Time, gender string) (*types.Child, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("child name is required")
	}

	child, err := s.childRepo.Create(ctx, nil, &types.Child{
		UserID:    userID,
		Name:      name,
		BirthDate: birthDate,
		Gender:    gender,
	})
	if err != nil {
		return nil, fmt.Errorf("creating child: %w", err)
	}

	if err := s.milestones.InitializeMilestonesForChild(ctx, userID, child.ID); err != nil {
		s.log.Warn("Milestone seeding failed for new child", "child_id", child.ID, "error", err)
	}
	return child, nil
}

func (s *childService) GetChild(ctx context.Context, userID, childID uuid.UUID) (*types.Child, error) {
	child, err := s.childRepo.GetByID(ctx, nil, childID)
	if err != nil {
		return nil, err
	}
	if child.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return child, nil
}

func (s *childService) ListChildren(ctx context.Context, userID uuid.UUID) ([]*types.Child, error) {
	children, err := s.childRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching children: %w", err)
	}
	return children, nil
}
