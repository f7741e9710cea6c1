package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleTeacher:
		return RoleTeacher, true
	}
	return "", false
}

// User is the single account record. Progression counters live here so that
// every award and every leaderboard read sees one source of truth.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string    `gorm:"not null;column:password" json:"-"`
	FirstName string    `gorm:"not null;column:first_name" json:"first_name"`
	LastName  string    `gorm:"not null;column:last_name" json:"last_name"`
	Role      Role      `gorm:"not null;column:role;size:16;index" json:"role"`

	XP    int `gorm:"not null;column:xp;index" json:"xp"`
	Level int `gorm:"not null;column:level" json:"level"`
	Coins int `gorm:"not null;column:coins" json:"coins"`

	LoginStreak           int    `gorm:"not null;column:login_streak" json:"login_streak"`
	LongestLoginStreak    int    `gorm:"not null;column:longest_login_streak" json:"longest_login_streak"`
	LastLoginOn           string `gorm:"column:last_login_on;size:10" json:"last_login_on,omitempty"`
	ActivityStreak        int    `gorm:"not null;column:activity_streak" json:"activity_streak"`
	LongestActivityStreak int    `gorm:"not null;column:longest_activity_streak" json:"longest_activity_streak"`
	LastActiveOn          string `gorm:"column:last_active_on;size:10" json:"last_active_on,omitempty"`

	AvatarBucketKey string `gorm:"column:avatar_bucket_key" json:"avatar_bucket_key,omitempty"`
	AvatarURL       string `gorm:"column:avatar_url" json:"avatar_url,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user_account" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Level < 1 {
		u.Level = LevelForXP(u.XP)
	}
	return nil
}

func (u *User) IsTeacher() bool { return u != nil && u.Role == RoleTeacher }

func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// NormalizeEmail is applied at every boundary that accepts an email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
