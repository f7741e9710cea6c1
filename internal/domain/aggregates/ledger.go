package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/domain/gamification"
	"github.com/yungbote/levelup-backend/internal/domain/user"
)

var LedgerAggregateContract = Contract{
	Name: "Gamification.Ledger",
	Tables: []string{
		user.User{}.TableName(),
		gamification.UserBadge{}.TableName(),
		gamification.UnlockedReward{}.TableName(),
		gamification.LedgerEntry{}.TableName(),
	},
}

// LedgerAggregate owns progression writes for a single account.
//
// Write failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodePreconditionFailed, CodeRetryable, CodeInternal.
type LedgerAggregate interface {
	Aggregate

	// ApplyDelta adds a signed xp delta (floored at zero) and a non-negative coin delta,
	// recomputing level in the same statement.
	ApplyDelta(ctx context.Context, in ApplyDeltaInput) (ApplyDeltaResult, error)

	// AwardBadge grants a badge once. Re-awarding a held badge is a no-op.
	AwardBadge(ctx context.Context, in AwardBadgeInput) (AwardBadgeResult, error)

	// Purchase unlocks a store item and debits its cost, or changes nothing.
	Purchase(ctx context.Context, in PurchaseInput) (PurchaseResult, error)

	// RecordStreak advances the login or activity streak for the given day.
	RecordStreak(ctx context.Context, in RecordStreakInput) (RecordStreakResult, error)
}

type ApplyDeltaInput struct {
	UserID     uuid.UUID
	XPDelta    int
	CoinsDelta int
	Kind       gamification.LedgerKind
	Reason     string
	ActorID    *uuid.UUID
	Metadata   map[string]any
	// IdempotencyKey makes the delta apply at most once. A repeat with the
	// same key changes nothing and reports Duplicate.
	IdempotencyKey string
}

type ApplyDeltaResult struct {
	Before    user.User
	After     user.User
	Entry     gamification.LedgerEntry
	LeveledUp bool
	Duplicate bool
}

type AwardBadgeInput struct {
	UserID  uuid.UUID
	BadgeID string
	ActorID *uuid.UUID
	At      time.Time
}

type AwardBadgeResult struct {
	Badge   gamification.UserBadge
	Awarded bool
}

type PurchaseInput struct {
	UserID uuid.UUID
	ItemID string
	At     time.Time
}

type PurchaseResult struct {
	Item     gamification.StoreItem
	Unlocked gamification.UnlockedReward
	After    user.User
}

type StreakKind string

const (
	StreakLogin    StreakKind = "login"
	StreakActivity StreakKind = "activity"
)

type RecordStreakInput struct {
	UserID uuid.UUID
	Kind   StreakKind
	At     time.Time
}

type RecordStreakResult struct {
	After   user.User
	Changed bool
}
