package services

import (
	"math"
	"sort"

	"github.com/nestlingapp/nestling-backend/internal/types"
)

type CategoryStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Rate      int `json:"rate"`
}

// MilestoneStats is derived on demand from the current progress rows and never
// persisted or cached.
type MilestoneStats struct {
	TotalMilestones     int                                       `json:"total_milestones"`
	CompletedMilestones int                                       `json:"completed_milestones"`
	CompletionRate      int                                       `json:"completion_rate"`
	ByCategory          map[types.MilestoneCategory]CategoryStats `json:"by_category"`
	RecentCompletions   []*types.MilestoneProgress                `json:"recent_completions"`
}

const recentCompletionsLimit = 10

// BuildMilestoneStats folds progress rows (joined with their templates) into
// overall and per-category counts. Pure: no I/O, no side effects.
func BuildMilestoneStats(records []*types.MilestoneProgress) *MilestoneStats {
	total := len(records)
	completed := 0
	for _, rec := range records {
		if rec.IsCompleted {
			completed++
		}
	}

	// All four categories are always present, zero-valued when empty.
	byCategory := make(map[types.MilestoneCategory]CategoryStats, 4)
	for _, category := range types.AllMilestoneCategories() {
		byCategory[category] = buildCategoryStats(records, category)
	}

	return &MilestoneStats{
		TotalMilestones:     total,
		CompletedMilestones: completed,
		CompletionRate:      completionRate(completed, total),
		ByCategory:          byCategory,
		RecentCompletions:   recentCompletions(records),
	}
}

func buildCategoryStats(records []*types.MilestoneProgress, category types.MilestoneCategory) CategoryStats {
	total, completed := 0, 0
	for _, rec := range records {
		if rec.MilestoneTemplate == nil || rec.MilestoneTemplate.Category != category {
			continue
		}
		total++
		if rec.IsCompleted {
			completed++
		}
	}
	return CategoryStats{Total: total, Completed: completed, Rate: completionRate(completed, total)}
}

// recentCompletions returns up to 10 completed rows, newest completion first.
// A row flagged complete without a timestamp should not exist, but if one does
// it is excluded rather than crashing the sort.
func recentCompletions(records []*types.MilestoneProgress) []*types.MilestoneProgress {
	recent := make([]*types.MilestoneProgress, 0, recentCompletionsLimit)
	for _, rec := range records {
		if rec.IsCompleted && rec.CompletedAt != nil {
			recent = append(recent, rec)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CompletedAt.After(*recent[j].CompletedAt)
	})
	if len(recent) > recentCompletionsLimit {
		recent = recent[:recentCompletionsLimit]
	}
	return recent
}

func completionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
