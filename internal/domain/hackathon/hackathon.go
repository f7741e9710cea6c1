package hackathon

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Hackathon struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID   uuid.UUID      `gorm:"type:uuid;not null;index;column:creator_id" json:"creator_id"`
	ClassID     *uuid.UUID     `gorm:"type:uuid;index;column:class_id" json:"class_id,omitempty"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Description string         `gorm:"type:text;column:description" json:"description"`
	MinTeamSize int            `gorm:"not null;column:min_team_size" json:"min_team_size"`
	MaxTeamSize int            `gorm:"not null;column:max_team_size" json:"max_team_size"`
	StartsAt    *time.Time     `gorm:"column:starts_at" json:"starts_at,omitempty"`
	EndsAt      *time.Time     `gorm:"column:ends_at" json:"ends_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Hackathon) TableName() string { return "hackathon" }

func (h *Hackathon) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// SizeAllowed reports whether n members (leader included) fits the bounds.
func (h *Hackathon) SizeAllowed(n int) bool {
	return h != nil && n >= h.MinTeamSize && n <= h.MaxTeamSize
}
