package services

import (
	"time"

	"github.com/nestlingapp/nestling-backend/internal/types"
)

// CalculateAgeInMonths is the whole-calendar-month age: year/month arithmetic,
// never elapsed-day division. Two children born on the same calendar day one
// year apart always differ by exactly 12, regardless of leap days.
func CalculateAgeInMonths(birthDate, now time.Time) int {
	years := now.Year() - birthDate.Year()
	months := int(now.Month()) - int(birthDate.Month())
	return years*12 + months
}

// StageForAgeMonths buckets an age into the legacy three stages. The catalog
// also knows preschool/school stages, but this mapping never produces them,
// so those templates are unreachable from the resolver. Kept as-is to match
// the shipped behavior; see DESIGN.md.
func StageForAgeMonths(ageMonths int) types.ParentingStage {
	switch {
	case ageMonths <= 3:
		return types.StageNewborn
	case ageMonths <= 12:
		return types.StageInfant
	default:
		return types.StageToddler
	}
}

// YoungestChild picks the child with the most recent birth date; children
// without one are skipped. Returns nil when no child has a birth date.
func YoungestChild(children []*types.Child) *types.Child {
	var youngest *types.Child
	for _, c := range children {
		if c == nil || c.BirthDate == nil {
			continue
		}
		if youngest == nil || c.BirthDate.After(*youngest.BirthDate) {
			youngest = c
		}
	}
	return youngest
}
