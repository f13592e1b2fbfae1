package types

// ParentingStage is the coarse life-stage bucket used for milestone
// eligibility and tip/content targeting.
type ParentingStage string

const (
	StageExpecting ParentingStage = "expecting"
	StageNewborn   ParentingStage = "newborn"
	StageInfant    ParentingStage = "infant"
	StageToddler   ParentingStage = "toddler"
	StagePreschool ParentingStage = "preschool"
	StageSchool    ParentingStage = "school"
)

// MilestoneCategory is the developmental area a milestone belongs to.
type MilestoneCategory string

const (
	CategoryPhysical  MilestoneCategory = "physical"
	CategoryCognitive MilestoneCategory = "cognitive"
	CategorySocial    MilestoneCategory = "social"
	CategoryEmotional MilestoneCategory = "emotional"
)

// AllMilestoneCategories returns the four known categories in stable order.
// Stats output always carries all of them, even when empty.
func AllMilestoneCategories() []MilestoneCategory {
	return []MilestoneCategory{CategoryPhysical, CategoryCognitive, CategorySocial, CategoryEmotional}
}

type FeedingPreference string

const (
	FeedingBreastfeeding FeedingPreference = "breastfeeding"
	FeedingFormula       FeedingPreference = "formula"
	FeedingMixed         FeedingPreference = "mixed"
)

type ActivityType string

const (
	ActivityResourceViewed       ActivityType = "resource_viewed"
	ActivityResourceSaved        ActivityType = "resource_saved"
	ActivityResourceShared       ActivityType = "resource_shared"
	ActivityMilestoneCompleted   ActivityType = "milestone_completed"
	ActivityMilestoneUncompleted ActivityType = "milestone_uncompleted"
	ActivityQuestionAsked        ActivityType = "question_asked"
	ActivityTipViewed            ActivityType = "tip_viewed"
	ActivitySearchPerformed      ActivityType = "search_performed"
	ActivityCategoryFiltered     ActivityType = "category_filtered"
)
