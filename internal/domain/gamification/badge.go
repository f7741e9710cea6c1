package gamification

import (
	"time"

	"github.com/google/uuid"
)

// BadgeDefinition is a catalog entry. IDs are stable slugs ("first-steps").
type BadgeDefinition struct {
	ID          string    `gorm:"primaryKey;size:64;column:id" json:"id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	Icon        string    `gorm:"column:icon" json:"icon,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (BadgeDefinition) TableName() string { return "badge_definition" }

// UserBadge is keyed by (user_id, badge_id); a badge is held at most once.
type UserBadge struct {
	UserID   uuid.UUID        `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	BadgeID  string           `gorm:"primaryKey;size:64;column:badge_id" json:"badge_id"`
	Badge    *BadgeDefinition `gorm:"foreignKey:BadgeID;references:ID" json:"badge,omitempty"`
	EarnedAt time.Time        `gorm:"not null;column:earned_at" json:"earned_at"`
}

func (UserBadge) TableName() string { return "user_badge" }
