package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                     uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Email                  string            `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Name                   string            `gorm:"not null;column:name" json:"name"`
	ParentingStage         ParentingStage    `gorm:"column:parenting_stage;not null;default:'expecting'" json:"parenting_stage"`
	FeedingPreference      FeedingPreference `gorm:"column:feeding_preference" json:"feeding_preference,omitempty"`
	Locale                 string            `gorm:"column:locale;not null;default:'en-US'" json:"locale"`
	HasCompletedOnboarding bool              `gorm:"column:has_completed_onboarding;not null;default:false" json:"has_completed_onboarding"`
	AvatarURL              string            `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	CreatedAt              time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time         `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
