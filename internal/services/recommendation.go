package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/nestlingapp/nestling-backend/internal/logger"
	"github.com/nestlingapp/nestling-backend/internal/repos"
	"github.com/nestlingapp/nestling-backend/internal/types"
)

// Scoring weights. Reasons attach first-match-wins in rule order, so a tip
// match always owns the reason even when the stage rule also fires.
const (
	scoreRecentlyViewed = -200
	scoreTipCategory    = 100
	scoreAgeInWindow    = 90
	scoreAgeNearWindow  = 40
	scoreStageMatch     = 50
	scoreFeedingMatch   = 20

	nearWindowSlackDays  = 30
	recommendationLimit  = 3
	actionItemLimit      = 3
	recentlyViewedLookup = 20
	wordsPerMinute       = 200
)

var defaultReason = "Recommended for you"

// knownCategories maps a tag to a display category; first hit wins.
var knownCategories = []string{"sleep", "feeding", "health", "development", "behavior", "activities", "safety", "bonding"}

// checkupMonths are the well-child visit ages, in months.
var checkupMonths = []int{1, 2, 4, 6, 9, 12, 15, 18, 24, 30, 36}

// RecommendedArticle is an article plus the ranking verdict for one user.
type RecommendedArticle struct {
	Article         *types.Article `json:"article"`
	Score           int            `json:"score"`
	Reason          string         `json:"reason"`
	Category        string         `json:"category"`
	ReadTimeMinutes int            `json:"read_time_minutes"`
}

// ActionItem is one suggested next step: an unachieved milestone in reach, or
// an upcoming checkup.
type ActionItem struct {
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	TemplateID  *uuid.UUID `json:"template_id,omitempty"`
}

// ProgressCounters are the lifetime engagement totals shown on the home feed.
type ProgressCounters struct {
	MilestonesCompleted int64 `json:"milestones_completed"`
	TipsViewed          int64 `json:"tips_viewed"`
	ResourcesViewed     int64 `json:"resources_viewed"`
}

// PersonalizedContent is the assembled home feed payload.
type PersonalizedContent struct {
	DailyTip    *types.DailyTip       `json:"daily_tip,omitempty"`
	Articles    []*RecommendedArticle `json:"articles"`
	ActionItems []*ActionItem         `json:"action_items"`
	Progress    ProgressCounters      `json:"progress"`
}

// ScoringContext carries everything the pure scorer needs about the user.
// Optional fields left zero simply keep their rules from firing.
type ScoringContext struct {
	TipCategory       string
	UserStage         types.ParentingStage
	FeedingPreference types.FeedingPreference
	ChildAgeDays      *int
	RecentlyViewedIDs map[uuid.UUID]bool
}

type RecommendationService interface {
	RecommendedArticles(ctx context.Context, userID uuid.UUID) ([]*RecommendedArticle, error)
	ActionItems(ctx context.Context, userID uuid.UUID) ([]*ActionItem, error)
	Content(ctx context.Context, userID uuid.UUID) (*PersonalizedContent, error)
}

type recommendationService struct {
	db           *gorm.DB
	log          *logger.Logger
	articleRepo  repos.ArticleRepo
	activityRepo repos.ActivityLogRepo
	templateRepo repos.MilestoneTemplateRepo
	progressRepo repos.MilestoneProgressRepo
	tipRepo      repos.DailyTipRepo
	userRepo     repos.UserRepo
	childRepo    repos.ChildRepo
	tips         DailyTipService
	now          func() time.Time
}

func NewRecommendationService(
	db *gorm.DB,
	log *logger.Logger,
	articleRepo repos.ArticleRepo,
	activityRepo repos.ActivityLogRepo,
	templateRepo repos.MilestoneTemplateRepo,
	progressRepo repos.MilestoneProgressRepo,
	tipRepo repos.DailyTipRepo,
	userRepo repos.UserRepo,
	childRepo repos.ChildRepo,
	tips DailyTipService,
) RecommendationService {
	serviceLog := log.With("service", "RecommendationService")
	return &recommendationService{
		db:           db,
		log:          serviceLog,
		articleRepo:  articleRepo,
		activityRepo: activityRepo,
		templateRepo: templateRepo,
		progressRepo: progressRepo,
		tipRepo:      tipRepo,
		userRepo:     userRepo,
		childRepo:    childRepo,
		tips:         tips,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ScoreArticles ranks articles for the given context and returns the top 3.
// The sort is stable, so catalog order breaks score ties. Pure.
func ScoreArticles(articles []*types.Article, sctx ScoringContext) []*RecommendedArticle {
	ranked := make([]*RecommendedArticle, 0, len(articles))
	for _, article := range articles {
		if article == nil {
			continue
		}
		ranked = append(ranked, scoreArticle(article, sctx))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > recommendationLimit {
		ranked = ranked[:recommendationLimit]
	}
	return ranked
}

func scoreArticle(article *types.Article, sctx ScoringContext) *RecommendedArticle {
	score := 0
	reason := ""

	if sctx.RecentlyViewedIDs[article.ID] {
		score += scoreRecentlyViewed
	}

	// Membership in the tag set, not the single display category: an article
	// tagged for several areas still relates to today's tip.
	if sctx.TipCategory != "" && hasTag(article.Tags, sctx.TipCategory) {
		score += scoreTipCategory
		if reason == "" {
			reason = fmt.Sprintf("Related to today's %s tip", sctx.TipCategory)
		}
	}

	if sctx.ChildAgeDays != nil && article.AgeMinDays != nil && article.AgeMaxDays != nil {
		age := *sctx.ChildAgeDays
		switch {
		case age >= *article.AgeMinDays && age <= *article.AgeMaxDays:
			score += scoreAgeInWindow
			if reason == "" {
				reason = "Perfect for your child's age"
			}
		case age >= *article.AgeMinDays-nearWindowSlackDays && age <= *article.AgeMaxDays+nearWindowSlackDays:
			score += scoreAgeNearWindow
		}
	}

	if sctx.UserStage != "" && hasTag(article.Tags, string(sctx.UserStage)) {
		score += scoreStageMatch
		if reason == "" {
			reason = fmt.Sprintf("Perfect for %s stage", sctx.UserStage)
		}
	}

	if sctx.FeedingPreference != "" && hasTag(article.Tags, string(sctx.FeedingPreference)) {
		score += scoreFeedingMatch
	}

	if reason == "" {
		reason = defaultReason
	}

	return &RecommendedArticle{
		Article:         article,
		Score:           score,
		Reason:          reason,
		Category:        extractCategory(article.Tags),
		ReadTimeMinutes: estimateReadTime(article.BodyMD),
	}
}

// extractCategory walks the tags in order and returns the first one that is a
// known category, else the first tag, else "general". Tag order decides when
// an article carries several known categories.
func extractCategory(tags []string) string {
	for _, tag := range tags {
		for _, known := range knownCategories {
			if strings.EqualFold(tag, known) {
				return known
			}
		}
	}
	if len(tags) > 0 {
		return strings.ToLower(tags[0])
	}
	return "general"
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			return true
		}
	}
	return false
}

// estimateReadTime assumes 200 words per minute, never under a minute.
func estimateReadTime(body string) int {
	words := len(strings.Fields(body))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

func (s *recommendationService) RecommendedArticles(ctx context.Context, userID uuid.UUID) ([]*RecommendedArticle, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}

	articles, err := s.articleRepo.GetByLocale(ctx, nil, user.Locale, 100)
	if err != nil {
		return nil, fmt.Errorf("fetching articles: %w", err)
	}

	sctx, err := s.buildScoringContext(ctx, user)
	if err != nil {
		return nil, err
	}
	return ScoreArticles(articles, sctx), nil
}

// buildScoringContext assembles the user-side inputs. Tip and activity lookups
// are best effort; a missing tip just leaves the tip rule cold.
func (s *recommendationService) buildScoringContext(ctx context.Context, user *types.User) (ScoringContext, error) {
	sctx := ScoringContext{
		UserStage:         user.ParentingStage,
		FeedingPreference: user.FeedingPreference,
		RecentlyViewedIDs: map[uuid.UUID]bool{},
	}

	if tip, err := s.tipRepo.GetByUserAndDate(ctx, nil, user.ID, s.now().Format(TipDateLayout)); err == nil {
		sctx.TipCategory = tip.Category
	}

	children, err := s.childRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		return sctx, fmt.Errorf("fetching children: %w", err)
	}
	if youngest := YoungestChild(children); youngest != nil {
		ageDays := int(s.now().Sub(*youngest.BirthDate).Hours() / 24)
		sctx.ChildAgeDays = &ageDays
	}

	viewed, err := s.activityRepo.GetByUserAndType(ctx, nil, user.ID, types.ActivityResourceViewed, recentlyViewedLookup)
	if err != nil {
		s.log.Warn("Recently-viewed lookup failed, penalty disabled", "user_id", user.ID, "error", err)
		return sctx, nil
	}
	for _, entry := range viewed {
		if entry.ResourceID != nil {
			sctx.RecentlyViewedIDs[*entry.ResourceID] = true
		}
	}
	return sctx, nil
}

// ActionItems suggests the next concrete steps for the youngest child:
// unachieved milestones whose window is open or opens within a month, then an
// upcoming checkup reminder, capped at 3.
func (s *recommendationService) ActionItems(ctx context.Context, userID uuid.UUID) ([]*ActionItem, error) {
	children, err := s.childRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching children: %w", err)
	}
	youngest := YoungestChild(children)
	if youngest == nil {
		return []*ActionItem{}, nil
	}

	ageMonths := CalculateAgeInMonths(*youngest.BirthDate, s.now())
	templates, err := s.templateRepo.GetUpcomingForAge(ctx, nil, ageMonths, actionItemLimit+5)
	if err != nil {
		return nil, fmt.Errorf("fetching upcoming milestones: %w", err)
	}
	completedIDs, err := s.progressRepo.CompletedTemplateIDs(ctx, nil, youngest.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching completed milestones: %w", err)
	}
	completed := make(map[uuid.UUID]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}

	items := make([]*ActionItem, 0, actionItemLimit)
	for _, template := range templates {
		if completed[template.ID] {
			continue
		}
		templateID := template.ID
		items = append(items, &ActionItem{
			Type:        "milestone",
			Title:       template.Title,
			Description: template.Description,
			Category:    string(template.Category),
			TemplateID:  &templateID,
		})
		if len(items) == actionItemLimit {
			break
		}
	}

	if len(items) < actionItemLimit {
		if month, ok := nextCheckupMonth(ageMonths); ok {
			items = append(items, &ActionItem{
				Type:        "checkup",
				Title:       fmt.Sprintf("%d-month checkup", month),
				Description: fmt.Sprintf("Schedule the %d-month well-child visit for %s.", month, youngest.Name),
				Category:    "health",
			})
		}
	}
	return items, nil
}

// nextCheckupMonth returns the first scheduled visit at or after the current
// age, when one lands within the next month.
func nextCheckupMonth(ageMonths int) (int, bool) {
	for _, month := range checkupMonths {
		if month >= ageMonths {
			if month <= ageMonths+1 {
				return month, true
			}
			return 0, false
		}
	}
	return 0, false
}

// Content assembles the personalized feed. Today's tip resolves first so its
// category can influence article ranking; the remaining branches fan out in
// parallel and individually degrade to their zero value on failure.
func (s *recommendationService) Content(ctx context.Context, userID uuid.UUID) (*PersonalizedContent, error) {
	content := &PersonalizedContent{
		Articles:    []*RecommendedArticle{},
		ActionItems: []*ActionItem{},
	}

	tip, err := s.tips.TodaysTip(ctx, userID)
	if err != nil {
		s.log.Warn("Daily tip unavailable for feed", "user_id", userID, "error", err)
	} else {
		content.DailyTip = tip
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		articles, err := s.RecommendedArticles(gctx, userID)
		if err != nil {
			s.log.Warn("Article ranking unavailable for feed", "user_id", userID, "error", err)
			return nil
		}
		content.Articles = articles
		return nil
	})
	g.Go(func() error {
		items, err := s.ActionItems(gctx, userID)
		if err != nil {
			s.log.Warn("Action items unavailable for feed", "user_id", userID, "error", err)
			return nil
		}
		content.ActionItems = items
		return nil
	})
	g.Go(func() error {
		counters, err := s.progressCounters(gctx, userID)
		if err != nil {
			s.log.Warn("Progress counters unavailable for feed", "user_id", userID, "error", err)
			return nil
		}
		content.Progress = counters
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return content, nil
}

func (s *recommendationService) progressCounters(ctx context.Context, userID uuid.UUID) (ProgressCounters, error) {
	milestones, err := s.progressRepo.CountCompletedByUser(ctx, nil, userID)
	if err != nil {
		return ProgressCounters{}, fmt.Errorf("counting completed milestones: %w", err)
	}
	tipsViewed, err := s.tipRepo.CountViewedByUser(ctx, nil, userID)
	if err != nil {
		return ProgressCounters{}, fmt.Errorf("counting viewed tips: %w", err)
	}
	viewed, err := s.activityRepo.CountByUserAndType(ctx, nil, userID, types.ActivityResourceViewed)
	if err != nil {
		return ProgressCounters{}, fmt.Errorf("counting viewed resources: %w", err)
	}
	return ProgressCounters{
		MilestonesCompleted: milestones,
		TipsViewed:          tipsViewed,
		ResourcesViewed:     viewed,
	}, nil
}
