package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/repos"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

// statColumns are the counter columns that IncrementStat may touch.
var statColumns = map[string]bool{
	"questions_asked":      true,
	"tips_received":        true,
	"content_saved":        true,
	"milestones_completed": true,
	"resources_viewed":     true,
	"search_queries":       true,
}

// activityStatColumn maps an activity type to the weekly counter it feeds.
// Types without a counter (shares, filters, uncompletes) are not aggregated.
var activityStatColumn = map[types.ActivityType]string{
	types.ActivityQuestionAsked:      "questions_asked",
	types.ActivityTipViewed:          "tips_received",
	types.ActivityResourceSaved:      "content_saved",
	types.ActivityMilestoneCompleted: "milestones_completed",
	types.ActivityResourceViewed:     "resources_viewed",
	types.ActivitySearchPerformed:    "search_queries",
}

// StatDelta compares one counter across two consecutive weeks.
type StatDelta struct {
	Current       int `json:"current"`
	Previous      int `json:"previous"`
	ChangePercent int `json:"change_percent"`
}

type WeeklySummary struct {
	WeekStartDate string               `json:"week_start_date"`
	Stats         map[string]StatDelta `json:"stats"`
}

type ProgressService interface {
	CurrentWeekStats(ctx context.Context, userID uuid.UUID) (*types.ProgressStats, error)
	WeekStats(ctx context.Context, userID uuid.UUID, weekStartDate string) (*types.ProgressStats, error)
	EnsureWeekStats(ctx context.Context, userID uuid.UUID, weekStartDate string) (*types.ProgressStats, error)
	IncrementStat(ctx context.Context, userID uuid.UUID, column string) error
	RecalculateWeek(ctx context.Context, userID uuid.UUID, weekStartDate string) (*types.ProgressStats, error)
	Summary(ctx context.Context, userID uuid.UUID) (*WeeklySummary, error)
}

type progressService struct {
	db           *gorm.DB
	log          *logger.Logger
	statsRepo    repos.ProgressStatsRepo
	activityRepo repos.ActivityLogRepo
	now          func() time.Time
}

func NewProgressService(db *gorm.DB, log *logger.Logger, statsRepo repos.ProgressStatsRepo, activityRepo repos.ActivityLogRepo) ProgressService {
	serviceLog := log.With("service", "ProgressService")
	return &progressService{
		db:           db,
		log:          serviceLog,
		statsRepo:    statsRepo,
		activityRepo: activityRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WeekStart returns the Monday of t's week as YYYY-MM-DD.
func WeekStart(t time.Time) string {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := t.AddDate(0, 0, -(weekday - 1))
	return monday.Format(TipDateLayout)
}

func (s *progressService) CurrentWeekStats(ctx context.Context, userID uuid.UUID) (*types.ProgressStats, error) {
	return s.EnsureWeekStats(ctx, userID, WeekStart(s.now()))
}

// WeekStats reads one week's row; a week with no row reads as all zeros.
func (s *progressService) WeekStats(ctx context.Context, userID uuid.UUID, weekStartDate string) (*types.ProgressStats, error) {
	if err := validWeekStart(weekStartDate); err != nil {
		return nil, err
	}
	row, err := s.statsRepo.GetByUserAndWeek(ctx, nil, userID, weekStartDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &types.ProgressStats{UserID: userID, WeekStartDate: weekStartDate}, nil
		}
		return nil, fmt.Errorf("fetching week stats: %w", err)
	}
	return row, nil
}

// EnsureWeekStats returns the week's row, creating a zeroed one if absent.
func (s *progressService) EnsureWeekStats(ctx context.Context, userID uuid.UUID, weekStartDate string) (*types.ProgressStats, error) {
	if err := validWeekStart(weekStartDate); err != nil {
		return nil, err
	}
	row, err := s.statsRepo.GetByUserAndWeek(ctx, nil, userID, weekStartDate)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fetching week stats: %w", err)
	}

	fresh := &types.ProgressStats{UserID: userID, WeekStartDate: weekStartDate}
	created, err := s.statsRepo.Create(ctx, nil, fresh)
	if err != nil {
		if isDuplicateKey(err) {
			return s.statsRepo.GetByUserAndWeek(ctx, nil, userID, weekStartDate)
		}
		return nil, fmt.Errorf("creating week stats: %w", err)
	}
	return created, nil
}

// IncrementStat bumps one counter on the current week's row.
func (s *progressService) IncrementStat(ctx context.Context, userID uuid.UUID, column string) error {
	if !statColumns[column] {
		return fmt.Errorf("unknown stat column %q", column)
	}
	row, err := s.EnsureWeekStats(ctx, userID, WeekStart(s.now()))
	if err != nil {
		return err
	}
	if err := s.statsRepo.UpdateFields(ctx, nil, row.ID, map[string]interface{}{
		column: gorm.Expr(column+" + ?", 1),
	}); err != nil {
		return fmt.Errorf("incrementing %s: %w", column, err)
	}
	return nil
}

// RecalculateWeek rebuilds a week's counters from the activity log and upserts
// the result, replacing whatever incremental counts had accumulated.
func (s *progressService) RecalculateWeek(ctx context.Context, userID uuid.UUID, weekStartDate string) (*types.ProgressStats, error) {
	if err := validWeekStart(weekStartDate); err != nil {
		return nil, err
	}
	from, err := time.Parse(TipDateLayout, weekStartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid week start %q: %w", weekStartDate, err)
	}
	to := from.AddDate(0, 0, 7)

	entries, err := s.activityRepo.GetByUserBetween(ctx, nil, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetching week activity: %w", err)
	}

	counts := map[string]int{}
	for _, entry := range entries {
		if column, ok := activityStatColumn[entry.ActivityType]; ok {
			counts[column]++
		}
	}

	row := &types.ProgressStats{
		UserID:              userID,
		WeekStartDate:       weekStartDate,
		QuestionsAsked:      counts["questions_asked"],
		TipsReceived:        counts["tips_received"],
		ContentSaved:        counts["content_saved"],
		MilestonesCompleted: counts["milestones_completed"],
		ResourcesViewed:     counts["resources_viewed"],
		SearchQueries:       counts["search_queries"],
	}
	if err := s.statsRepo.Upsert(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("storing recalculated week: %w", err)
	}
	return row, nil
}

// Summary compares this week against last week per counter.
func (s *progressService) Summary(ctx context.Context, userID uuid.UUID) (*WeeklySummary, error) {
	thisWeek := WeekStart(s.now())
	lastWeek := WeekStart(s.now().AddDate(0, 0, -7))

	current, err := s.WeekStats(ctx, userID, thisWeek)
	if err != nil {
		return nil, err
	}
	previous, err := s.WeekStats(ctx, userID, lastWeek)
	if err != nil {
		return nil, err
	}

	return &WeeklySummary{
		WeekStartDate: thisWeek,
		Stats: map[string]StatDelta{
			"questions_asked":      delta(current.QuestionsAsked, previous.QuestionsAsked),
			"tips_received":        delta(current.TipsReceived, previous.TipsReceived),
			"content_saved":        delta(current.ContentSaved, previous.ContentSaved),
			"milestones_completed": delta(current.MilestonesCompleted, previous.MilestonesCompleted),
			"resources_viewed":     delta(current.ResourcesViewed, previous.ResourcesViewed),
			"search_queries":       delta(current.SearchQueries, previous.SearchQueries),
		},
	}, nil
}

func delta(current, previous int) StatDelta {
	return StatDelta{
		Current:       current,
		Previous:      previous,
		ChangePercent: percentChange(previous, current),
	}
}

// percentChange with a zero baseline reads as +100% when anything happened and
// 0% when nothing did.
func percentChange(old, cur int) int {
	if old == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round(float64(cur-old) / float64(old) * 100))
}

func validWeekStart(weekStartDate string) error {
	t, err := time.Parse(TipDateLayout, weekStartDate)
	if err != nil {
		return fmt.Errorf("invalid week start %q: %w", weekStartDate, err)
	}
	if t.Weekday() != time.Monday {
		return fmt.Errorf("week start %q is not a Monday", weekStartDate)
	}
	return nil
}
