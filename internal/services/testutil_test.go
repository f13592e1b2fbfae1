package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

func newTestLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.Child{},
		&types.MilestoneTemplate{},
		&types.MilestoneProgress{},
		&types.DailyTip{},
		&types.Article{},
		&types.ActivityLog{},
		&types.ProgressStats{},
	); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, stage types.ParentingStage) *types.User {
	t.Helper()
	user := &types.User{
		Email:          fmt.Sprintf("%s@example.com", uuid.NewString()),
		Name:           "Test Parent",
		ParentingStage: stage,
		Locale:         "en-US",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return user
}

func createTestChild(t *testing.T, db *gorm.DB, userID uuid.UUID, birthDate *time.Time) *types.Child {
	t.Helper()
	child := &types.Child{
		UserID:    userID,
		Name:      "Test Child",
		BirthDate: birthDate,
	}
	if err := db.Create(child).Error; err != nil {
		t.Fatalf("creating child: %v", err)
	}
	return child
}

func createTestTemplate(t *testing.T, db *gorm.DB, category types.MilestoneCategory, stage types.ParentingStage, minMonths, maxMonths int) *types.MilestoneTemplate {
	t.Helper()
	template := &types.MilestoneTemplate{
		Title:          fmt.Sprintf("%s %d-%d", category, minMonths, maxMonths),
		Category:       category,
		ParentingStage: stage,
		AgeMinMonths:   minMonths,
		AgeMaxMonths:   maxMonths,
		IsActive:       true,
	}
	if err := db.Create(template).Error; err != nil {
		t.Fatalf("creating template: %v", err)
	}
	return template
}

// nopActivity satisfies ActivityService for tests that do not care about the
// side channel.
type nopActivity struct{}

func (nopActivity) Record(uuid.UUID, types.ActivityType, *uuid.UUID, *uuid.UUID, map[string]interface{}) {
}
func (nopActivity) RecentActivity(context.Context, uuid.UUID, int) ([]*types.ActivityLog, error) {
	return nil, nil
}
func (nopActivity) ActivityByType(context.Context, uuid.UUID, types.ActivityType, int) ([]*types.ActivityLog, error) {
	return nil, nil
}
func (nopActivity) Close() {}

func monthsAgo(n int) *time.Time {
	t := time.Now().UTC().AddDate(0, -n, 0)
	return &t
}

func fixedTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parsing time %q: %v", value, err)
	}
	return parsed
}
