package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Child belongs to a parent user. BirthDate is optional; a child without one
// is treated as a newborn (age 0) everywhere age matters.
type Child struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Name      string     `gorm:"column:name" json:"name,omitempty"`
	BirthDate *time.Time `gorm:"column:birth_date;type:date" json:"birth_date,omitempty"`
	Gender    string     `gorm:"column:gender" json:"gender,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Child) TableName() string { return "child" }

func (c *Child) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
