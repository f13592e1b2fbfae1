package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Article is a catalog content item. Age bounds are in days and optional;
// recommendation scoring only uses them when both are present.
type Article struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Slug           string                      `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Title          string                      `gorm:"not null;column:title" json:"title"`
	BodyMD         string                      `gorm:"column:body_md" json:"body_md"`
	AgeMinDays     *int                        `gorm:"column:age_min_days" json:"age_min_days,omitempty"`
	AgeMaxDays     *int                        `gorm:"column:age_max_days" json:"age_max_days,omitempty"`
	Tags           datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	Locale         string                      `gorm:"column:locale;not null;default:'en-US';index" json:"locale"`
	LastReviewedAt *time.Time                  `gorm:"column:last_reviewed_at" json:"last_reviewed_at,omitempty"`
	Reviewer       string                      `gorm:"column:reviewer" json:"reviewer,omitempty"`
	CreatedAt      time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Article) TableName() string { return "article" }

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
