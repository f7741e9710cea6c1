package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LedgerKind string

const (
	KindLesson       LedgerKind = "lesson"
	KindQuiz         LedgerKind = "quiz"
	KindBattle       LedgerKind = "battle"
	KindTeacherAward LedgerKind = "teacher_award"
	KindXPAdjust     LedgerKind = "xp_adjust"
	KindPurchase     LedgerKind = "purchase"
	KindBadge        LedgerKind = "badge"
	KindGrade        LedgerKind = "grade"
	KindHackathon    LedgerKind = "hackathon"
)

// LedgerEntry is the append-only audit trail of every progression mutation.
// XPDelta is the applied delta after clamping, not the requested one.
type LedgerEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_ledger_user_created,priority:1;column:user_id" json:"user_id"`
	Kind       LedgerKind     `gorm:"not null;size:32;column:kind" json:"kind"`
	XPDelta    int            `gorm:"not null;column:xp_delta" json:"xp_delta"`
	CoinsDelta int            `gorm:"not null;column:coins_delta" json:"coins_delta"`
	XPAfter    int            `gorm:"not null;column:xp_after" json:"xp_after"`
	CoinsAfter int            `gorm:"not null;column:coins_after" json:"coins_after"`
	LevelAfter int            `gorm:"not null;column:level_after" json:"level_after"`
	Reason     string         `gorm:"column:reason" json:"reason,omitempty"`
	ActorID    *uuid.UUID     `gorm:"type:uuid;column:actor_id" json:"actor_id,omitempty"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index:idx_ledger_user_created,priority:2" json:"created_at"`

	// IdempotencyKey is set for payouts that must land at most once, such as
	// a grade or a hackathon award. Unkeyed entries leave it NULL.
	IdempotencyKey *string `gorm:"uniqueIndex;size:191;column:idempotency_key" json:"-"`
}

func (LedgerEntry) TableName() string { return "ledger_entry" }

func (e *LedgerEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
