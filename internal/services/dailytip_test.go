package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/repos"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

func newTipFixture(t *testing.T) (*dailyTipService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger()
	tipRepo := repos.NewDailyTipRepo(db, log)
	userRepo := repos.NewUserRepo(db, log)
	childRepo := repos.NewChildRepo(db, log)
	svc := NewDailyTipService(db, log, tipRepo, userRepo, childRepo, nopActivity{}).(*dailyTipService)
	svc.pick = func(n int) int { return 0 }
	return svc, db
}

func TestTodaysTipSameDaySameTip(t *testing.T) {
	svc, db := newTipFixture(t)
	ctx := context.Background()
	user := createTestUser(t, db, types.StageNewborn)

	first, err := svc.TodaysTip(ctx, user.ID)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.TodaysTip(ctx, user.ID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("same day produced two tips: %s and %s", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&types.DailyTip{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("counting tips: %v", err)
	}
	if count != 1 {
		t.Errorf("stored %d tips, want 1", count)
	}
}

func TestTipForDateDifferentDaysDifferentRows(t *testing.T) {
	svc, db := newTipFixture(t)
	ctx := context.Background()
	user := createTestUser(t, db, types.StageNewborn)

	monday, err := svc.TipForDate(ctx, user.ID, "2025-06-16")
	if err != nil {
		t.Fatalf("monday: %v", err)
	}
	tuesday, err := svc.TipForDate(ctx, user.ID, "2025-06-17")
	if err != nil {
		t.Fatalf("tuesday: %v", err)
	}
	if monday.ID == tuesday.ID {
		t.Errorf("different dates shared a tip row")
	}
	if monday.TipDate != "2025-06-16" || tuesday.TipDate != "2025-06-17" {
		t.Errorf("tip dates = %s / %s", monday.TipDate, tuesday.TipDate)
	}
}

func TestTipForDateRejectsBadDate(t *testing.T) {
	svc, db := newTipFixture(t)
	user := createTestUser(t, db, types.StageNewborn)

	if _, err := svc.TipForDate(context.Background(), user.ID, "June 16 2025"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestTipSelectionPrefersChildAgeWindow(t *testing.T) {
	svc, db := newTipFixture(t)
	ctx := context.Background()
	// Stored stage says toddler, but the youngest child is 2 months old; the
	// age filter must win over the stage filter.
	user := createTestUser(t, db, types.StageToddler)
	createTestChild(t, db, user.ID, monthsAgo(2))

	tip, err := svc.TodaysTip(ctx, user.ID)
	if err != nil {
		t.Fatalf("tip: %v", err)
	}
	if tip.ChildAgeMonths == nil {
		t.Fatal("tip has no child age")
	}
	templates, err := LoadTipTemplates()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	matched := false
	for _, template := range templates {
		if template.Title == tip.Title &&
			*tip.ChildAgeMonths >= template.MinAgeMonths &&
			*tip.ChildAgeMonths <= template.MaxAgeMonths {
			matched = true
		}
	}
	if !matched {
		t.Errorf("tip %q is outside the child's age window", tip.Title)
	}
}

func TestTipSelectionFallsBackToStage(t *testing.T) {
	svc, db := newTipFixture(t)
	ctx := context.Background()
	user := createTestUser(t, db, types.StageInfant)

	tip, err := svc.TodaysTip(ctx, user.ID)
	if err != nil {
		t.Fatalf("tip: %v", err)
	}
	if stage := templateStageForTitle(t, tip.Title); stage != types.StageInfant {
		t.Errorf("selected template stage = %s, want infant (stage filter with no children)", stage)
	}
	if tip.ChildAgeMonths != nil {
		t.Errorf("tip has child age %d with no children", *tip.ChildAgeMonths)
	}
}

func templateStageForTitle(t *testing.T, title string) types.ParentingStage {
	t.Helper()
	templates, err := LoadTipTemplates()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	for _, template := range templates {
		if template.Title == title {
			return template.ParentingStage
		}
	}
	t.Fatalf("no catalog template titled %q", title)
	return ""
}

func TestTipSnapshotsUserStage(t *testing.T) {
	svc, db := newTipFixture(t)
	ctx := context.Background()
	// The age filter selects a newborn-window template, but the persisted
	// stage snapshot is the user's stored stage.
	user := createTestUser(t, db, types.StageToddler)
	createTestChild(t, db, user.ID, monthsAgo(2))

	tip, err := svc.TodaysTip(ctx, user.ID)
	if err != nil {
		t.Fatalf("tip: %v", err)
	}
	if tip.ParentingStage != types.StageToddler {
		t.Errorf("tip stage = %s, want the user's stored toddler stage", tip.ParentingStage)
	}
	if stage := templateStageForTitle(t, tip.Title); stage != types.StageNewborn {
		t.Errorf("selected template stage = %s, want newborn (age window wins selection)", stage)
	}
}

func TestTipSelectionFallsBackToWholeCatalog(t *testing.T) {
	svc, db := newTipFixture(t)
	ctx := context.Background()
	// Expecting matches no template stage, and there are no children, so the
	// selector falls through to the whole catalog.
	user := createTestUser(t, db, types.StageExpecting)

	tip, err := svc.TodaysTip(ctx, user.ID)
	if err != nil {
		t.Fatalf("tip: %v", err)
	}
	if tip.Title == "" {
		t.Error("fallback produced an empty tip")
	}
}

func TestCompleteTipMarksViewedOnce(t *testing.T) {
	svc, db := newTipFixture(t)
	ctx := context.Background()
	user := createTestUser(t, db, types.StageNewborn)

	tip, err := svc.TodaysTip(ctx, user.ID)
	if err != nil {
		t.Fatalf("tip: %v", err)
	}
	if tip.IsViewed {
		t.Fatal("fresh tip already viewed")
	}

	completed, err := svc.CompleteTip(ctx, user.ID, tip.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !completed.IsViewed || completed.ViewedAt == nil {
		t.Fatalf("completed tip = %+v, want viewed with timestamp", completed)
	}
	firstViewed := *completed.ViewedAt

	again, err := svc.SkipTip(ctx, user.ID, tip.ID)
	if err != nil {
		t.Fatalf("skip after complete: %v", err)
	}
	if !again.ViewedAt.Equal(firstViewed) {
		t.Errorf("repeat view moved the timestamp from %v to %v", firstViewed, again.ViewedAt)
	}
}

func TestCompleteTipWrongUser(t *testing.T) {
	svc, db := newTipFixture(t)
	ctx := context.Background()
	owner := createTestUser(t, db, types.StageNewborn)
	stranger := createTestUser(t, db, types.StageNewborn)

	tip, err := svc.TodaysTip(ctx, owner.ID)
	if err != nil {
		t.Fatalf("tip: %v", err)
	}
	if _, err := svc.CompleteTip(ctx, stranger.ID, tip.ID); err == nil {
		t.Fatal("expected error completing another user's tip")
	}
}

func TestRecentTipsNewestFirst(t *testing.T) {
	svc, db := newTipFixture(t)
	ctx := context.Background()
	user := createTestUser(t, db, types.StageNewborn)

	for _, date := range []string{"2025-06-10", "2025-06-12", "2025-06-11"} {
		if _, err := svc.TipForDate(ctx, user.ID, date); err != nil {
			t.Fatalf("tip for %s: %v", date, err)
		}
	}

	tips, err := svc.RecentTips(ctx, user.ID, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(tips) != 2 {
		t.Fatalf("got %d tips, want 2", len(tips))
	}
	if tips[0].TipDate != "2025-06-12" || tips[1].TipDate != "2025-06-11" {
		t.Errorf("recent order = %s, %s; want 2025-06-12, 2025-06-11", tips[0].TipDate, tips[1].TipDate)
	}
}

func TestTipCatalogLoads(t *testing.T) {
	templates, err := LoadTipTemplates()
	if err != nil {
		t.Fatalf("LoadTipTemplates: %v", err)
	}
	if len(templates) == 0 {
		t.Fatal("catalog is empty")
	}
	for _, template := range templates {
		if template.Title == "" || template.Category == "" || template.ParentingStage == "" {
			t.Errorf("incomplete template %+v", template)
		}
		if template.MinAgeMonths > template.MaxAgeMonths {
			t.Errorf("template %q has inverted age window", template.Title)
		}
		if len(template.QuickTips) == 0 {
			t.Errorf("template %q has no quick tips", template.Title)
		}
	}
}
