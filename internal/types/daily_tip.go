package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DailyTip is the one-per-user-per-calendar-day tip. TipDate is the caller's
// local date as YYYY-MM-DD; the (user_id, tip_date) unique index is what makes
// "today's tip" idempotent.
type DailyTip struct {
	ID             uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID                    `gorm:"type:uuid;not null;index:idx_user_tip_date,unique" json:"user_id"`
	User           *User                        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	TipDate        string                       `gorm:"column:tip_date;not null;index:idx_user_tip_date,unique" json:"tip_date"`
	Title          string                       `gorm:"not null;column:title" json:"title"`
	Description    string                       `gorm:"column:description" json:"description"`
	Category       string                       `gorm:"column:category;not null" json:"category"`
	ParentingStage ParentingStage               `gorm:"column:parenting_stage;not null" json:"parenting_stage"`
	ChildAgeMonths *int                         `gorm:"column:child_age_months" json:"child_age_months,omitempty"`
	QuickTips      datatypes.JSONSlice[string]  `gorm:"column:quick_tips" json:"quick_tips"`
	IsViewed       bool                         `gorm:"column:is_viewed;not null;default:false" json:"is_viewed"`
	ViewedAt       *time.Time                   `gorm:"column:viewed_at" json:"viewed_at,omitempty"`
	CreatedAt      time.Time                    `gorm:"not null" json:"created_at"`
}

func (DailyTip) TableName() string { return "daily_tip" }

func (t *DailyTip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
