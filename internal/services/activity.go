package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/observability"
	"github.com/nestlingapp/nestling-backend/internal/repos"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

// ActivityService is the fire-and-forget action log. Record never blocks and
// never returns an error: entries flow through a bounded queue to a single
// writer goroutine, and any failure on that path is logged and dropped. A lost
// entry is acceptable; a failed milestone toggle because of telemetry is not.
type ActivityService interface {
	Record(userID uuid.UUID, activityType types.ActivityType, milestoneID, resourceID *uuid.UUID, metadata map[string]interface{})
	RecentActivity(ctx context.Context, userID uuid.UUID, limit int) ([]*types.ActivityLog, error)
	ActivityByType(ctx context.Context, userID uuid.UUID, activityType types.ActivityType, limit int) ([]*types.ActivityLog, error)
	Close()
}

type activityService struct {
	db        *gorm.DB
	log       *logger.Logger
	repo      repos.ActivityLogRepo
	queue     chan *types.ActivityLog
	done      chan struct{}
	closeOnce sync.Once
}

const activityQueueSize = 256

func NewActivityService(db *gorm.DB, log *logger.Logger, repo repos.ActivityLogRepo) ActivityService {
	serviceLog := log.With("service", "ActivityService")
	s := &activityService{
		db:    db,
		log:   serviceLog,
		repo:  repo,
		queue: make(chan *types.ActivityLog, activityQueueSize),
		done:  make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *activityService) Record(userID uuid.UUID, activityType types.ActivityType, milestoneID, resourceID *uuid.UUID, metadata map[string]interface{}) {
	entry := &types.ActivityLog{
		UserID:       userID,
		ActivityType: activityType,
		MilestoneID:  milestoneID,
		ResourceID:   resourceID,
		CreatedAt:    time.Now().UTC(),
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			s.log.Warn("Activity metadata not serializable, recording without it", "activity_type", activityType, "error", err)
		} else {
			entry.Metadata = datatypes.JSON(raw)
		}
	}

	select {
	case s.queue <- entry:
	default:
		s.log.Warn("Activity queue full, dropping entry", "activity_type", activityType, "user_id", userID)
	}
}

func (s *activityService) RecentActivity(ctx context.Context, userID uuid.UUID, limit int) ([]*types.ActivityLog, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.GetRecentByUser(ctx, nil, userID, limit)
}

func (s *activityService) ActivityByType(ctx context.Context, userID uuid.UUID, activityType types.ActivityType, limit int) ([]*types.ActivityLog, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.GetByUserAndType(ctx, nil, userID, activityType, limit)
}

// Close drains the queue and stops the writer. Entries already queued are
// flushed before Close returns.
func (s *activityService) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
		<-s.done
	})
}

func (s *activityService) worker() {
	defer close(s.done)
	for entry := range s.queue {
		if _, err := s.repo.Create(context.Background(), nil, entry); err != nil {
			s.log.Warn("Activity log write failed, entry dropped", "activity_type", entry.ActivityType, "error", err)
			continue
		}
		observability.Current().IncrActivity(context.Background(), string(entry.ActivityType))
	}
}
