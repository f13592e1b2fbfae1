package services

import (
	"testing"
	"time"

	"github.com/nestlingapp/nestling-backend/internal/types"
)

func progressRow(category types.MilestoneCategory, completed bool, completedAt *time.Time) *types.MilestoneProgress {
	return &types.MilestoneProgress{
		MilestoneTemplate: &types.MilestoneTemplate{Category: category},
		IsCompleted:       completed,
		CompletedAt:       completedAt,
	}
}

func TestBuildMilestoneStatsEmpty(t *testing.T) {
	stats := BuildMilestoneStats(nil)

	if stats.TotalMilestones != 0 || stats.CompletedMilestones != 0 || stats.CompletionRate != 0 {
		t.Errorf("empty stats = %+v, want all zeros", stats)
	}
	if len(stats.ByCategory) != 4 {
		t.Fatalf("ByCategory has %d entries, want 4", len(stats.ByCategory))
	}
	for _, category := range types.AllMilestoneCategories() {
		cs, ok := stats.ByCategory[category]
		if !ok {
			t.Errorf("category %s missing from empty stats", category)
		}
		if cs.Total != 0 || cs.Completed != 0 || cs.Rate != 0 {
			t.Errorf("category %s = %+v, want zeros", category, cs)
		}
	}
	if len(stats.RecentCompletions) != 0 {
		t.Errorf("RecentCompletions has %d entries, want 0", len(stats.RecentCompletions))
	}
}

func TestBuildMilestoneStatsCounts(t *testing.T) {
	now := time.Now().UTC()
	records := []*types.MilestoneProgress{
		progressRow(types.CategoryPhysical, true, &now),
		progressRow(types.CategoryPhysical, false, nil),
		progressRow(types.CategoryPhysical, false, nil),
		progressRow(types.CategoryCognitive, true, &now),
		progressRow(types.CategorySocial, false, nil),
	}

	stats := BuildMilestoneStats(records)

	if stats.TotalMilestones != 5 {
		t.Errorf("TotalMilestones = %d, want 5", stats.TotalMilestones)
	}
	if stats.CompletedMilestones != 2 {
		t.Errorf("CompletedMilestones = %d, want 2", stats.CompletedMilestones)
	}
	if stats.CompletionRate != 40 {
		t.Errorf("CompletionRate = %d, want 40", stats.CompletionRate)
	}

	physical := stats.ByCategory[types.CategoryPhysical]
	// 1/3 rounds half up to 33.
	if physical.Total != 3 || physical.Completed != 1 || physical.Rate != 33 {
		t.Errorf("physical = %+v, want {3 1 33}", physical)
	}
	cognitive := stats.ByCategory[types.CategoryCognitive]
	if cognitive.Total != 1 || cognitive.Completed != 1 || cognitive.Rate != 100 {
		t.Errorf("cognitive = %+v, want {1 1 100}", cognitive)
	}
	emotional := stats.ByCategory[types.CategoryEmotional]
	if emotional.Total != 0 || emotional.Rate != 0 {
		t.Errorf("emotional = %+v, want zeros", emotional)
	}

	categorySum := 0
	for _, cs := range stats.ByCategory {
		categorySum += cs.Total
	}
	if categorySum != stats.TotalMilestones {
		t.Errorf("category totals sum to %d, want %d", categorySum, stats.TotalMilestones)
	}
}

func TestBuildMilestoneStatsRoundsHalfUp(t *testing.T) {
	now := time.Now().UTC()
	records := []*types.MilestoneProgress{
		progressRow(types.CategoryPhysical, true, &now),
		progressRow(types.CategoryPhysical, false, nil),
	}
	records = append(records, progressRow(types.CategoryPhysical, true, &now))

	stats := BuildMilestoneStats(records)
	// 2/3 = 66.67 rounds to 67.
	if stats.CompletionRate != 67 {
		t.Errorf("CompletionRate = %d, want 67", stats.CompletionRate)
	}
}

func TestRecentCompletionsOrderAndCap(t *testing.T) {
	base := fixedTime(t, "2025-05-01T12:00:00Z")
	var records []*types.MilestoneProgress
	for i := 0; i < 12; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		records = append(records, progressRow(types.CategoryPhysical, true, &ts))
	}
	// Completed without a timestamp never shows up in recents.
	records = append(records, progressRow(types.CategorySocial, true, nil))

	stats := BuildMilestoneStats(records)

	if len(stats.RecentCompletions) != 10 {
		t.Fatalf("RecentCompletions has %d entries, want 10", len(stats.RecentCompletions))
	}
	for i := 1; i < len(stats.RecentCompletions); i++ {
		prev := stats.RecentCompletions[i-1].CompletedAt
		cur := stats.RecentCompletions[i].CompletedAt
		if cur.After(*prev) {
			t.Errorf("RecentCompletions out of order at %d: %v before %v", i, prev, cur)
		}
	}
	newest := stats.RecentCompletions[0].CompletedAt
	if !newest.Equal(base.Add(11 * time.Hour)) {
		t.Errorf("newest completion = %v, want %v", newest, base.Add(11*time.Hour))
	}
	if stats.CompletedMilestones != 13 {
		t.Errorf("CompletedMilestones = %d, want 13", stats.CompletedMilestones)
	}
}
