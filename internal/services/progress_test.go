package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/repos"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

func newProgressFixture(t *testing.T) (*progressService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger()
	statsRepo := repos.NewProgressStatsRepo(db, log)
	activityRepo := repos.NewActivityLogRepo(db, log)
	svc := NewProgressService(db, log, statsRepo, activityRepo).(*progressService)
	return svc, db
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"monday maps to itself", "2025-06-16T09:00:00Z", "2025-06-16"},
		{"wednesday", "2025-06-18T23:59:00Z", "2025-06-16"},
		{"sunday belongs to previous monday", "2025-06-22T01:00:00Z", "2025-06-16"},
		{"across month boundary", "2025-07-01T12:00:00Z", "2025-06-30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStart(fixedTime(t, tt.in)); got != tt.want {
				t.Errorf("WeekStart(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestEnsureWeekStatsCreatesOnce(t *testing.T) {
	svc, db := newProgressFixture(t)
	ctx := context.Background()
	user := createTestUser(t, db, types.StageInfant)

	first, err := svc.EnsureWeekStats(ctx, user.ID, "2025-06-16")
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	second, err := svc.EnsureWeekStats(ctx, user.ID, "2025-06-16")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("ensure created two rows for the same week")
	}
}

func TestEnsureWeekStatsRejectsNonMonday(t *testing.T) {
	svc, db := newProgressFixture(t)
	user := createTestUser(t, db, types.StageInfant)

	if _, err := svc.EnsureWeekStats(context.Background(), user.ID, "2025-06-17"); err == nil {
		t.Fatal("expected error for a Tuesday week start")
	}
}

func TestIncrementStat(t *testing.T) {
	svc, db := newProgressFixture(t)
	ctx := context.Background()
	user := createTestUser(t, db, types.StageInfant)

	for i := 0; i < 3; i++ {
		if err := svc.IncrementStat(ctx, user.ID, "tips_received"); err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}
	if err := svc.IncrementStat(ctx, user.ID, "not_a_column"); err == nil {
		t.Fatal("expected error for unknown column")
	}

	row, err := svc.CurrentWeekStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("current week: %v", err)
	}
	if row.TipsReceived != 3 {
		t.Errorf("TipsReceived = %d, want 3", row.TipsReceived)
	}
	if row.QuestionsAsked != 0 {
		t.Errorf("QuestionsAsked = %d, want 0", row.QuestionsAsked)
	}
}

func seedActivity(t *testing.T, db *gorm.DB, user *types.User, activityType types.ActivityType, at time.Time) {
	t.Helper()
	entry := &types.ActivityLog{
		UserID:       user.ID,
		ActivityType: activityType,
		CreatedAt:    at,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seeding activity: %v", err)
	}
}

func TestRecalculateWeek(t *testing.T) {
	svc, db := newProgressFixture(t)
	ctx := context.Background()
	user := createTestUser(t, db, types.StageInfant)

	weekStart := "2025-06-16"
	monday := fixedTime(t, "2025-06-16T10:00:00Z")
	seedActivity(t, db, user, types.ActivityMilestoneCompleted, monday)
	seedActivity(t, db, user, types.ActivityMilestoneCompleted, monday.AddDate(0, 0, 2))
	seedActivity(t, db, user, types.ActivityTipViewed, monday.AddDate(0, 0, 3))
	seedActivity(t, db, user, types.ActivityResourceViewed, monday.AddDate(0, 0, 6))
	// Uncompletes have no counter and the next Monday is out of range.
	seedActivity(t, db, user, types.ActivityMilestoneUncompleted, monday.AddDate(0, 0, 1))
	seedActivity(t, db, user, types.ActivityMilestoneCompleted, monday.AddDate(0, 0, 7))

	row, err := svc.RecalculateWeek(ctx, user.ID, weekStart)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if row.MilestonesCompleted != 2 {
		t.Errorf("MilestonesCompleted = %d, want 2", row.MilestonesCompleted)
	}
	if row.TipsReceived != 1 {
		t.Errorf("TipsReceived = %d, want 1", row.TipsReceived)
	}
	if row.ResourcesViewed != 1 {
		t.Errorf("ResourcesViewed = %d, want 1", row.ResourcesViewed)
	}
	if row.SearchQueries != 0 {
		t.Errorf("SearchQueries = %d, want 0", row.SearchQueries)
	}

	// Recalculating replaces, never doubles.
	row, err = svc.RecalculateWeek(ctx, user.ID, weekStart)
	if err != nil {
		t.Fatalf("second recalculate: %v", err)
	}
	if row.MilestonesCompleted != 2 {
		t.Errorf("second recalculate MilestonesCompleted = %d, want 2", row.MilestonesCompleted)
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		old, cur, want int
	}{
		{0, 0, 0},
		{0, 5, 100},
		{4, 6, 50},
		{10, 5, -50},
		{3, 3, 0},
		{3, 4, 33},
	}
	for _, tt := range tests {
		if got := percentChange(tt.old, tt.cur); got != tt.want {
			t.Errorf("percentChange(%d, %d) = %d, want %d", tt.old, tt.cur, got, tt.want)
		}
	}
}

func TestSummaryComparesWeeks(t *testing.T) {
	svc, db := newProgressFixture(t)
	ctx := context.Background()
	user := createTestUser(t, db, types.StageInfant)

	now := fixedTime(t, "2025-06-18T12:00:00Z")
	svc.now = func() time.Time { return now }

	thisWeek := "2025-06-16"
	lastWeek := "2025-06-09"
	seedActivity(t, db, user, types.ActivityMilestoneCompleted, fixedTime(t, "2025-06-10T10:00:00Z"))
	seedActivity(t, db, user, types.ActivityMilestoneCompleted, fixedTime(t, "2025-06-17T10:00:00Z"))
	seedActivity(t, db, user, types.ActivityMilestoneCompleted, fixedTime(t, "2025-06-18T10:00:00Z"))
	if _, err := svc.RecalculateWeek(ctx, user.ID, lastWeek); err != nil {
		t.Fatalf("recalculate last week: %v", err)
	}
	if _, err := svc.RecalculateWeek(ctx, user.ID, thisWeek); err != nil {
		t.Fatalf("recalculate this week: %v", err)
	}

	summary, err := svc.Summary(ctx, user.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.WeekStartDate != thisWeek {
		t.Errorf("summary week = %s, want %s", summary.WeekStartDate, thisWeek)
	}
	milestones := summary.Stats["milestones_completed"]
	if milestones.Current != 2 || milestones.Previous != 1 || milestones.ChangePercent != 100 {
		t.Errorf("milestones delta = %+v, want {2 1 100}", milestones)
	}
	// A counter untouched both weeks reads as zero change.
	questions := summary.Stats["questions_asked"]
	if questions.Current != 0 || questions.ChangePercent != 0 {
		t.Errorf("questions delta = %+v, want zeros", questions)
	}
}
