package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MilestoneProgress is the per-(user, child, template) completion record. The
// composite unique index is the identity: the ledger updates in place or
// inserts exactly one row, never duplicates.
type MilestoneProgress struct {
	ID                  uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID          `gorm:"type:uuid;not null;index:idx_user_child_template,unique" json:"user_id"`
	User                *User              `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ChildID             uuid.UUID          `gorm:"type:uuid;not null;index:idx_user_child_template,unique" json:"child_id"`
	Child               *Child             `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChildID;references:ID" json:"child,omitempty"`
	MilestoneTemplateID uuid.UUID          `gorm:"type:uuid;not null;index:idx_user_child_template,unique" json:"milestone_template_id"`
	MilestoneTemplate   *MilestoneTemplate `gorm:"constraint:OnDelete:CASCADE;foreignKey:MilestoneTemplateID;references:ID" json:"milestone_template,omitempty"`
	IsCompleted         bool               `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CompletedAt         *time.Time         `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Notes               string             `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt           time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time          `gorm:"not null" json:"updated_at"`
}

func (MilestoneProgress) TableName() string { return "user_milestone_progress" }

func (p *MilestoneProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
