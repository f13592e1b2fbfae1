package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/repos"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

// TipDateLayout is the calendar-day key format for daily tips.
const TipDateLayout = "2006-01-02"

type DailyTipService interface {
	TodaysTip(ctx context.Context, userID uuid.UUID) (*types.DailyTip, error)
	TipForDate(ctx context.Context, userID uuid.UUID, tipDate string) (*types.DailyTip, error)
	RecentTips(ctx context.Context, userID uuid.UUID, limit int) ([]*types.DailyTip, error)
	CompleteTip(ctx context.Context, userID, tipID uuid.UUID) (*types.DailyTip, error)
	SkipTip(ctx context.Context, userID, tipID uuid.UUID) (*types.DailyTip, error)
}

type dailyTipService struct {
	db        *gorm.DB
	log       *logger.Logger
	tipRepo   repos.DailyTipRepo
	userRepo  repos.UserRepo
	childRepo repos.ChildRepo
	activity  ActivityService
	now       func() time.Time
	pick      func(n int) int
}

func NewDailyTipService(db *gorm.DB, log *logger.Logger, tipRepo repos.DailyTipRepo, userRepo repos.UserRepo, childRepo repos.ChildRepo, activity ActivityService) DailyTipService {
	serviceLog := log.With("service", "DailyTipService")
	return &dailyTipService{
		db:        db,
		log:       serviceLog,
		tipRepo:   tipRepo,
		userRepo:  userRepo,
		childRepo: childRepo,
		activity:  activity,
		now:       func() time.Time { return time.Now().UTC() },
		pick:      rand.IntN,
	}
}

// TodaysTip returns the tip keyed to today's date, generating it on first
// request. Repeated calls on the same day always return the same row.
func (s *dailyTipService) TodaysTip(ctx context.Context, userID uuid.UUID) (*types.DailyTip, error) {
	return s.TipForDate(ctx, userID, s.now().Format(TipDateLayout))
}

func (s *dailyTipService) TipForDate(ctx context.Context, userID uuid.UUID, tipDate string) (*types.DailyTip, error) {
	if _, err := time.Parse(TipDateLayout, tipDate); err != nil {
		return nil, fmt.Errorf("invalid tip date %q: %w", tipDate, err)
	}

	existing, err := s.tipRepo.GetByUserAndDate(ctx, nil, userID, tipDate)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fetching tip for %s: %w", tipDate, err)
	}

	tip, err := s.generateTip(ctx, userID, tipDate)
	if err != nil {
		return nil, err
	}

	created, err := s.tipRepo.Create(ctx, nil, tip)
	if err != nil {
		// Two requests can race past the lookup; the unique index decides the
		// winner and the loser re-reads.
		if isDuplicateKey(err) {
			return s.tipRepo.GetByUserAndDate(ctx, nil, userID, tipDate)
		}
		return nil, fmt.Errorf("storing tip for %s: %w", tipDate, err)
	}
	return created, nil
}

func (s *dailyTipService) RecentTips(ctx context.Context, userID uuid.UUID, limit int) ([]*types.DailyTip, error) {
	if limit <= 0 {
		limit = 7
	}
	tips, err := s.tipRepo.GetRecentByUser(ctx, nil, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching recent tips: %w", err)
	}
	return tips, nil
}

// CompleteTip marks the tip viewed. Idempotent; the first view timestamp is
// kept on repeat calls.
func (s *dailyTipService) CompleteTip(ctx context.Context, userID, tipID uuid.UUID) (*types.DailyTip, error) {
	tip, err := s.markViewed(ctx, userID, tipID)
	if err != nil {
		return nil, err
	}
	s.activity.Record(userID, types.ActivityTipViewed, nil, &tipID, map[string]interface{}{"outcome": "completed"})
	return tip, nil
}

// SkipTip records the same viewed state but tags the activity entry as a skip
// so engagement numbers can tell the two apart.
func (s *dailyTipService) SkipTip(ctx context.Context, userID, tipID uuid.UUID) (*types.DailyTip, error) {
	tip, err := s.markViewed(ctx, userID, tipID)
	if err != nil {
		return nil, err
	}
	s.activity.Record(userID, types.ActivityTipViewed, nil, &tipID, map[string]interface{}{"outcome": "skipped"})
	return tip, nil
}

func (s *dailyTipService) markViewed(ctx context.Context, userID, tipID uuid.UUID) (*types.DailyTip, error) {
	tip, err := s.tipRepo.GetByID(ctx, nil, userID, tipID)
	if err != nil {
		return nil, fmt.Errorf("fetching tip: %w", err)
	}
	if tip.IsViewed {
		return tip, nil
	}

	viewedAt := s.now()
	if err := s.tipRepo.UpdateFields(ctx, nil, tip.ID, map[string]interface{}{
		"is_viewed": true,
		"viewed_at": viewedAt,
	}); err != nil {
		return nil, fmt.Errorf("marking tip viewed: %w", err)
	}
	tip.IsViewed = true
	tip.ViewedAt = &viewedAt
	return tip, nil
}

// generateTip selects a template for the user and materializes it as their
// tip row for the given date.
func (s *dailyTipService) generateTip(ctx context.Context, userID uuid.UUID, tipDate string) (*types.DailyTip, error) {
	templates, err := LoadTipTemplates()
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	children, err := s.childRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching children: %w", err)
	}

	var childAgeMonths *int
	if youngest := YoungestChild(children); youngest != nil {
		age := CalculateAgeInMonths(*youngest.BirthDate, s.now())
		childAgeMonths = &age
	}

	// The stage snapshot is the user's stored stage at generation time, not
	// the matched template's stage.
	stage := user.ParentingStage
	if stage == "" {
		stage = types.StageExpecting
	}

	template := s.selectTemplate(templates, user, childAgeMonths)
	tip := &types.DailyTip{
		UserID:         userID,
		TipDate:        tipDate,
		Title:          template.Title,
		Description:    template.Description,
		Category:       template.Category,
		ParentingStage: stage,
		ChildAgeMonths: childAgeMonths,
		QuickTips:      template.QuickTips,
	}
	return tip, nil
}

// selectTemplate narrows the catalog by the youngest child's age window, then
// by the user's stage, then falls back to the whole catalog so a tip always
// exists. The pick within the pool is uniform random.
func (s *dailyTipService) selectTemplate(templates []TipTemplate, user *types.User, childAgeMonths *int) TipTemplate {
	if childAgeMonths != nil {
		pool := make([]TipTemplate, 0, len(templates))
		for _, t := range templates {
			if *childAgeMonths >= t.MinAgeMonths && *childAgeMonths <= t.MaxAgeMonths {
				pool = append(pool, t)
			}
		}
		if len(pool) > 0 {
			return pool[s.pick(len(pool))]
		}
	}

	if user != nil && user.ParentingStage != "" {
		pool := make([]TipTemplate, 0, len(templates))
		for _, t := range templates {
			if t.ParentingStage == user.ParentingStage {
				pool = append(pool, t)
			}
		}
		if len(pool) > 0 {
			return pool[s.pick(len(pool))]
		}
	}

	return templates[s.pick(len(templates))]
}

// isDuplicateKey covers both the translated gorm error and the raw postgres
// unique-violation code, since TranslateError does not rewrite errors raised
// inside some driver paths.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
