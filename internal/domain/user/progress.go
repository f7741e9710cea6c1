package user

import (
	"time"

	"github.com/google/uuid"
)

// TopicProgress is a per-topic completion percentage. Last write wins.
type TopicProgress struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	Topic     string    `gorm:"primaryKey;size:128;column:topic" json:"topic"`
	Percent   int       `gorm:"not null;column:percent" json:"percent"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TopicProgress) TableName() string { return "topic_progress" }

func ClampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
