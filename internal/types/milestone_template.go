package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MilestoneTemplate is an immutable catalog entry. Rows are seeded and managed
// externally; this service only reads them. The [AgeMinMonths, AgeMaxMonths]
// window is inclusive on both ends.
type MilestoneTemplate struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string            `gorm:"not null;column:title" json:"title"`
	Description    string            `gorm:"column:description" json:"description,omitempty"`
	Category       MilestoneCategory `gorm:"column:category;not null;index" json:"category"`
	ParentingStage ParentingStage    `gorm:"column:parenting_stage;not null;index" json:"parenting_stage"`
	AgeMinMonths   int               `gorm:"column:age_min_months;not null" json:"age_min_months"`
	AgeMaxMonths   int               `gorm:"column:age_max_months;not null" json:"age_max_months"`
	IsActive       bool              `gorm:"column:is_active;not null;default:true" json:"is_active"`
	SortOrder      int               `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt      time.Time         `gorm:"not null" json:"created_at"`
}

func (MilestoneTemplate) TableName() string { return "milestone_template" }

func (m *MilestoneTemplate) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
