package gamification

import (
	"time"

	"github.com/google/uuid"
)

type StoreItem struct {
	ID          string    `gorm:"primaryKey;size:64;column:id" json:"id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	Kind        string    `gorm:"column:kind;size:32" json:"kind"`
	Cost        int       `gorm:"not null;column:cost" json:"cost"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (StoreItem) TableName() string { return "store_item" }

// UnlockedReward only ever grows; ownership is keyed by (user_id, reward_id).
type UnlockedReward struct {
	UserID     uuid.UUID  `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	RewardID   string     `gorm:"primaryKey;size:64;column:reward_id" json:"reward_id"`
	Item       *StoreItem `gorm:"foreignKey:RewardID;references:ID" json:"item,omitempty"`
	CostPaid   int        `gorm:"not null;column:cost_paid" json:"cost_paid"`
	UnlockedAt time.Time  `gorm:"not null;column:unlocked_at" json:"unlocked_at"`
}

func (UnlockedReward) TableName() string { return "unlocked_reward" }
