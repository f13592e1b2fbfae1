package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/nestlingapp/nestling-backend/internal/types"
)

func article(title string, tags ...string) *types.Article {
	return &types.Article{
		ID:    uuid.New(),
		Slug:  strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Title: title,
		Tags:  datatypes.NewJSONSlice(tags),
	}
}

func TestScoreArticleTipAndStage(t *testing.T) {
	a := article("Sleep through the night", "sleep", "infant")
	sctx := ScoringContext{
		TipCategory: "sleep",
		UserStage:   types.StageInfant,
	}

	ranked := ScoreArticles([]*types.Article{a}, sctx)
	if len(ranked) != 1 {
		t.Fatalf("got %d results, want 1", len(ranked))
	}
	got := ranked[0]
	if got.Score != 150 {
		t.Errorf("score = %d, want 150", got.Score)
	}
	// Tip rule fires first, so it owns the reason even though stage matched.
	if got.Reason != "Related to today's sleep tip" {
		t.Errorf("reason = %q, want the tip reason", got.Reason)
	}
	if got.Category != "sleep" {
		t.Errorf("category = %q, want sleep", got.Category)
	}
}

func TestScoreArticleTipCategoryInTagSet(t *testing.T) {
	// The tip rule is tag-set membership: a multi-tagged article whose display
	// category resolves to another tag still relates to today's tip.
	a := article("Weaning and night wakings", "sleep", "feeding")
	sctx := ScoringContext{TipCategory: "feeding"}

	got := ScoreArticles([]*types.Article{a}, sctx)[0]
	if got.Score != 100 {
		t.Errorf("score = %d, want 100 (tag set includes tip category)", got.Score)
	}
	if got.Reason != "Related to today's feeding tip" {
		t.Errorf("reason = %q, want tip reason", got.Reason)
	}
	if got.Category != "sleep" {
		t.Errorf("category = %q, want sleep (first tag wins display category)", got.Category)
	}
}

func TestScoreArticleStageOnly(t *testing.T) {
	a := article("Toddler defiance", "behavior", "toddler")
	sctx := ScoringContext{UserStage: types.StageToddler}

	got := ScoreArticles([]*types.Article{a}, sctx)[0]
	if got.Score != 50 {
		t.Errorf("score = %d, want 50", got.Score)
	}
	if got.Reason != "Perfect for toddler stage" {
		t.Errorf("reason = %q, want stage reason", got.Reason)
	}
}

func TestScoreArticleDefaultReason(t *testing.T) {
	a := article("General parenting", "misc")

	got := ScoreArticles([]*types.Article{a}, ScoringContext{})[0]
	if got.Score != 0 {
		t.Errorf("score = %d, want 0", got.Score)
	}
	if got.Reason != "Recommended for you" {
		t.Errorf("reason = %q, want default", got.Reason)
	}
	if got.Category != "misc" {
		t.Errorf("category = %q, want first tag fallback", got.Category)
	}
}

func TestScoreArticleAgeWindow(t *testing.T) {
	min, max := 180, 365
	inWindow := article("Six to twelve months", "development")
	inWindow.AgeMinDays = &min
	inWindow.AgeMaxDays = &max

	age := 200
	got := ScoreArticles([]*types.Article{inWindow}, ScoringContext{ChildAgeDays: &age})[0]
	if got.Score != 90 {
		t.Errorf("in-window score = %d, want 90", got.Score)
	}
	if got.Reason != "Perfect for your child's age" {
		t.Errorf("in-window reason = %q", got.Reason)
	}

	nearAge := 160
	got = ScoreArticles([]*types.Article{inWindow}, ScoringContext{ChildAgeDays: &nearAge})[0]
	if got.Score != 40 {
		t.Errorf("near-window score = %d, want 40", got.Score)
	}
	if got.Reason != "Recommended for you" {
		t.Errorf("near-window reason = %q, want default", got.Reason)
	}

	farAge := 600
	got = ScoreArticles([]*types.Article{inWindow}, ScoringContext{ChildAgeDays: &farAge})[0]
	if got.Score != 0 {
		t.Errorf("out-of-window score = %d, want 0", got.Score)
	}
}

func TestScoreArticleRecentlyViewedPenalty(t *testing.T) {
	seen := article("Already read", "sleep")
	fresh := article("Unread", "misc")
	sctx := ScoringContext{
		TipCategory:       "sleep",
		RecentlyViewedIDs: map[uuid.UUID]bool{seen.ID: true},
	}

	ranked := ScoreArticles([]*types.Article{seen, fresh}, sctx)
	if ranked[0].Article.ID != fresh.ID {
		t.Errorf("penalized article still ranked first")
	}
	if ranked[1].Score != -100 {
		t.Errorf("seen article score = %d, want -100 (tip +100, viewed -200)", ranked[1].Score)
	}
}

func TestScoreArticleFeedingPreference(t *testing.T) {
	a := article("Bottle basics", "feeding", "formula")
	sctx := ScoringContext{FeedingPreference: types.FeedingFormula}

	got := ScoreArticles([]*types.Article{a}, sctx)[0]
	if got.Score != 20 {
		t.Errorf("score = %d, want 20", got.Score)
	}
	if got.Reason != "Recommended for you" {
		t.Errorf("reason = %q, feeding match must not set a reason", got.Reason)
	}
}

func TestScoreArticlesTopThreeStable(t *testing.T) {
	articles := []*types.Article{
		article("A", "misc"),
		article("B", "misc"),
		article("C", "misc"),
		article("D", "misc"),
		article("E", "misc"),
	}

	ranked := ScoreArticles(articles, ScoringContext{})
	if len(ranked) != 3 {
		t.Fatalf("got %d results, want 3", len(ranked))
	}
	// All scores tie at zero; stable sort keeps catalog order.
	for i, want := range []string{"A", "B", "C"} {
		if ranked[i].Article.Title != want {
			t.Errorf("position %d = %s, want %s", i, ranked[i].Article.Title, want)
		}
	}
}

func TestExtractCategory(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"known tag", []string{"infant", "sleep"}, "sleep"},
		{"known tag case-insensitive", []string{"Feeding"}, "feeding"},
		{"first tag fallback", []string{"Montessori", "play"}, "montessori"},
		{"no tags", nil, "general"},
		{"unknown tags skipped", []string{"misc", "safety"}, "safety"},
		{"tag order wins between known tags", []string{"feeding", "sleep"}, "feeding"},
		{"tag order wins reversed", []string{"sleep", "feeding"}, "sleep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractCategory(tt.tags); got != tt.want {
				t.Errorf("extractCategory(%v) = %q, want %q", tt.tags, got, tt.want)
			}
		})
	}
}

func TestEstimateReadTime(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 1},
		{1, 1},
		{200, 1},
		{201, 2},
		{1000, 5},
	}
	for _, tt := range tests {
		body := strings.TrimSpace(strings.Repeat("word ", tt.words))
		if got := estimateReadTime(body); got != tt.want {
			t.Errorf("estimateReadTime(%d words) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestNextCheckupMonth(t *testing.T) {
	tests := []struct {
		ageMonths int
		wantMonth int
		wantOK    bool
	}{
		{0, 1, true},
		{1, 1, true},
		{2, 2, true},
		{3, 4, true},
		{5, 6, true},
		{7, 0, false},
		{36, 36, true},
		{37, 0, false},
	}
	for _, tt := range tests {
		month, ok := nextCheckupMonth(tt.ageMonths)
		if month != tt.wantMonth || ok != tt.wantOK {
			t.Errorf("nextCheckupMonth(%d) = (%d, %v), want (%d, %v)", tt.ageMonths, month, ok, tt.wantMonth, tt.wantOK)
		}
	}
}
