package aggregates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/domain/gamification"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"gorm.io/datatypes"
)

type LedgerAggregateDeps struct {
	Base BaseDeps

	Users   repos.UserRepo
	Badges  repos.BadgeRepo
	Store   repos.StoreRepo
	Entries repos.LedgerEntryRepo
}

type ledgerAggregate struct {
	deps LedgerAggregateDeps
}

func NewLedgerAggregate(deps LedgerAggregateDeps) domainagg.LedgerAggregate {
	deps.Base = deps.Base.withDefaults()
	return &ledgerAggregate{deps: deps}
}

func (a *ledgerAggregate) Contract() domainagg.Contract {
	return domainagg.LedgerAggregateContract
}

func (a *ledgerAggregate) configured(op string) error {
	if a.deps.Users == nil || a.deps.Badges == nil || a.deps.Store == nil || a.deps.Entries == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "ledger aggregate repos not configured", nil)
	}
	return nil
}

func (a *ledgerAggregate) loadUser(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	u, err := a.deps.Users.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NotFoundError(fmt.Sprintf("user not found: %s", userID))
	}
	return u, nil
}

func (a *ledgerAggregate) appendEntry(dbc dbctx.Context, after *types.User, kind gamification.LedgerKind, xpDelta, coinsDelta int, reason string, actorID *uuid.UUID, meta map[string]any, key string) (types.LedgerEntry, error) {
	entry := types.LedgerEntry{
		UserID:     after.ID,
		Kind:       kind,
		XPDelta:    xpDelta,
		CoinsDelta: coinsDelta,
		XPAfter:    after.XP,
		CoinsAfter: after.Coins,
		LevelAfter: after.Level,
		Reason:     strings.TrimSpace(reason),
		ActorID:    actorID,
		CreatedAt:  a.deps.Base.Now(),
	}
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return entry, ValidationError("metadata is not serializable")
		}
		entry.Metadata = datatypes.JSON(raw)
	}
	if key != "" {
		entry.IdempotencyKey = &key
	}
	if err := a.deps.Entries.Create(dbc, &entry); err != nil {
		return entry, err
	}
	return entry, nil
}

// duplicateDelta reports whether a keyed delta already landed and, if so,
// fills out with the user's current state.
func (a *ledgerAggregate) duplicateDelta(dbc dbctx.Context, in domainagg.ApplyDeltaInput, out *domainagg.ApplyDeltaResult) (bool, error) {
	if in.IdempotencyKey == "" {
		return false, nil
	}
	seen, err := a.deps.Entries.KeyExists(dbc, in.IdempotencyKey)
	if err != nil || !seen {
		return false, err
	}
	u, err := a.loadUser(dbc, in.UserID)
	if err != nil {
		return false, err
	}
	*out = domainagg.ApplyDeltaResult{Before: *u, After: *u, Duplicate: true}
	return true, nil
}

func (a *ledgerAggregate) ApplyDelta(ctx context.Context, in domainagg.ApplyDeltaInput) (domainagg.ApplyDeltaResult, error) {
	op := domainagg.LedgerAggregateContract.Op("ApplyDelta")
	var out domainagg.ApplyDeltaResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.CoinsDelta < 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "coin delta must not be negative", nil)
	}
	if in.XPDelta == 0 && in.CoinsDelta == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "delta must not be zero", nil)
	}
	if strings.TrimSpace(string(in.Kind)) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing ledger kind", nil)
	}
	if err := a.configured(op); err != nil {
		return out, err
	}
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if dup, err := a.duplicateDelta(dbc, in, &out); err != nil || dup {
			return err
		}
		before, err := a.loadUser(dbc, in.UserID)
		if err != nil {
			return err
		}
		ok, err := a.deps.Users.ApplyDelta(dbc, in.UserID, in.XPDelta, in.CoinsDelta)
		if err != nil {
			return err
		}
		if !ok {
			return NotFoundError("user disappeared during update")
		}
		after, err := a.loadUser(dbc, in.UserID)
		if err != nil {
			return err
		}
		if after.XP < 0 || after.Coins < 0 {
			return InvariantError("xp and coins must stay non-negative")
		}
		entry, err := a.appendEntry(dbc, after, in.Kind, after.XP-before.XP, after.Coins-before.Coins, in.Reason, in.ActorID, in.Metadata, in.IdempotencyKey)
		if err != nil {
			return err
		}
		out = domainagg.ApplyDeltaResult{
			Before:    *before,
			After:     *after,
			Entry:     entry,
			LeveledUp: after.Level > before.Level,
		}
		return nil
	})
	// A concurrent writer with the same key wins the unique index; the loser
	// rolls back and reports the duplicate.
	if in.IdempotencyKey != "" && domainagg.IsCode(err, domainagg.CodeConflict) {
		dup, derr := a.duplicateDelta(dbctx.Context{Ctx: ctx}, in, &out)
		if derr == nil && dup {
			return out, nil
		}
	}
	return out, err
}

func (a *ledgerAggregate) AwardBadge(ctx context.Context, in domainagg.AwardBadgeInput) (domainagg.AwardBadgeResult, error) {
	op := domainagg.LedgerAggregateContract.Op("AwardBadge")
	var out domainagg.AwardBadgeResult
	badgeID := strings.TrimSpace(in.BadgeID)
	if in.UserID == uuid.Nil || badgeID == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "user_id and badge_id are required", nil)
	}
	if err := a.configured(op); err != nil {
		return out, err
	}
	at := in.At.UTC()
	if in.At.IsZero() {
		at = a.deps.Base.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		defs, err := a.deps.Badges.GetDefinitionsByIDs(dbc, []string{badgeID})
		if err != nil {
			return err
		}
		if len(defs) == 0 {
			return ValidationError(fmt.Sprintf("unknown badge: %s", badgeID))
		}
		u, err := a.loadUser(dbc, in.UserID)
		if err != nil {
			return err
		}
		inserted, err := a.deps.Badges.InsertIfAbsent(dbc, in.UserID, badgeID, at)
		if err != nil {
			return err
		}
		out.Awarded = inserted
		out.Badge = types.UserBadge{UserID: in.UserID, BadgeID: badgeID, Badge: defs[0], EarnedAt: at}
		if !inserted {
			return nil
		}
		_, err = a.appendEntry(dbc, u, gamification.KindBadge, 0, 0, defs[0].Name, in.ActorID, map[string]any{"badge_id": badgeID}, "")
		return err
	})
	return out, err
}

func (a *ledgerAggregate) Purchase(ctx context.Context, in domainagg.PurchaseInput) (domainagg.PurchaseResult, error) {
	op := domainagg.LedgerAggregateContract.Op("Purchase")
	var out domainagg.PurchaseResult
	itemID := strings.TrimSpace(in.ItemID)
	if in.UserID == uuid.Nil || itemID == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "user_id and item_id are required", nil)
	}
	if err := a.configured(op); err != nil {
		return out, err
	}
	at := in.At.UTC()
	if in.At.IsZero() {
		at = a.deps.Base.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		item, err := a.deps.Store.GetItem(dbc, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return NotFoundError(fmt.Sprintf("store item not found: %s", itemID))
		}
		if item.Cost < 0 {
			return InvariantError("store item cost must not be negative")
		}
		if _, err := a.loadUser(dbc, in.UserID); err != nil {
			return err
		}
		unlocked, err := a.deps.Store.Unlock(dbc, in.UserID, item, at)
		if err != nil {
			return err
		}
		if !unlocked {
			return ConflictError("reward already unlocked")
		}
		debited, err := a.deps.Users.DebitCoins(dbc, in.UserID, item.Cost)
		if err != nil {
			return err
		}
		if !debited {
			return PreconditionError("insufficient coins")
		}
		after, err := a.loadUser(dbc, in.UserID)
		if err != nil {
			return err
		}
		if _, err := a.appendEntry(dbc, after, gamification.KindPurchase, 0, -item.Cost, item.Name, &in.UserID, map[string]any{"item_id": item.ID}, ""); err != nil {
			return err
		}
		out = domainagg.PurchaseResult{
			Item:     *item,
			Unlocked: types.UnlockedReward{UserID: in.UserID, RewardID: item.ID, CostPaid: item.Cost, UnlockedAt: at},
			After:    *after,
		}
		return nil
	})
	return out, err
}

func (a *ledgerAggregate) RecordStreak(ctx context.Context, in domainagg.RecordStreakInput) (domainagg.RecordStreakResult, error) {
	op := domainagg.LedgerAggregateContract.Op("RecordStreak")
	var out domainagg.RecordStreakResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.Kind != domainagg.StreakLogin && in.Kind != domainagg.StreakActivity {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown streak kind %q", in.Kind), nil)
	}
	if err := a.configured(op); err != nil {
		return out, err
	}
	at := in.At
	if at.IsZero() {
		at = a.deps.Base.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		u, err := a.loadUser(dbc, in.UserID)
		if err != nil {
			return err
		}
		current := u.LoginStreakState()
		if in.Kind == domainagg.StreakActivity {
			current = u.ActivityStreakState()
		}
		next, changed := current.Advance(at)
		out.Changed = changed
		if changed {
			if in.Kind == domainagg.StreakLogin {
				err = a.deps.Users.UpdateLoginStreak(dbc, u.ID, next)
			} else {
				err = a.deps.Users.UpdateActivityStreak(dbc, u.ID, next)
			}
			if err != nil {
				return err
			}
			if u, err = a.loadUser(dbc, in.UserID); err != nil {
				return err
			}
		}
		out.After = *u
		return nil
	})
	return out, err
}
