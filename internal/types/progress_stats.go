package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProgressStats holds one user's engagement counters for one calendar week.
// WeekStartDate is the Monday of that week as YYYY-MM-DD.
type ProgressStats struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID `gorm:"type:uuid;not null;index:idx_user_week,unique" json:"user_id"`
	WeekStartDate       string    `gorm:"column:week_start_date;not null;index:idx_user_week,unique" json:"week_start_date"`
	QuestionsAsked      int       `gorm:"column:questions_asked;not null;default:0" json:"questions_asked"`
	TipsReceived        int       `gorm:"column:tips_received;not null;default:0" json:"tips_received"`
	ContentSaved        int       `gorm:"column:content_saved;not null;default:0" json:"content_saved"`
	MilestonesCompleted int       `gorm:"column:milestones_completed;not null;default:0" json:"milestones_completed"`
	ResourcesViewed     int       `gorm:"column:resources_viewed;not null;default:0" json:"resources_viewed"`
	SearchQueries       int       `gorm:"column:search_queries;not null;default:0" json:"search_queries"`
	CreatedAt           time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null" json:"updated_at"`
}

func (ProgressStats) TableName() string { return "user_progress_stats" }

func (s *ProgressStats) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
