package gamification

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardEntry is a read model; Rank is assigned at query time.
type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	UserID         uuid.UUID `json:"user_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	XP             int       `json:"xp"`
	Level          int       `json:"level"`
	Coins          int       `json:"coins"`
	LoginStreak    int       `json:"login_streak"`
	ActivityStreak int       `json:"activity_streak"`
	BadgeCount     int       `json:"badge_count"`
}

type Leaderboard struct {
	ClassID     *uuid.UUID         `json:"class_id,omitempty"`
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generated_at"`
}
