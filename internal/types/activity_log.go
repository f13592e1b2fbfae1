package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog is an append-only action record written on a best-effort
// side channel. It is never read on any critical path.
type ActivityLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ActivityType ActivityType   `gorm:"column:activity_type;not null;index" json:"activity_type"`
	ResourceID   *uuid.UUID     `gorm:"type:uuid;column:resource_id" json:"resource_id,omitempty"`
	MilestoneID  *uuid.UUID     `gorm:"type:uuid;column:milestone_id" json:"milestone_id,omitempty"`
	Metadata     datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "user_activity_log" }

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
