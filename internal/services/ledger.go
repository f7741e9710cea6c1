package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/domain/gamification"
	"github.com/yungbote/levelup-backend/internal/observability"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

// LeaderboardInvalidator drops cached leaderboards after a ledger write.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// LedgerService is the single entry point for progression writes. It runs
// the ledger aggregate and then performs the post-commit side effects:
// metrics, push events, leaderboard invalidation and automatic badges.
type LedgerService interface {
	Apply(ctx context.Context, in domainagg.ApplyDeltaInput) (domainagg.ApplyDeltaResult, error)
	AwardBadge(ctx context.Context, in domainagg.AwardBadgeInput) (domainagg.AwardBadgeResult, error)
	Purchase(ctx context.Context, in domainagg.PurchaseInput) (domainagg.PurchaseResult, error)
	RecordStreak(ctx context.Context, userID uuid.UUID, kind domainagg.StreakKind) (domainagg.RecordStreakResult, error)
}

type ledgerService struct {
	log         *logger.Logger
	ledger      domainagg.LedgerAggregate
	badges      repos.BadgeRepo
	rules       Rules
	notifier    LedgerNotifier
	leaderboard LeaderboardInvalidator
	metrics     *observability.Metrics
	now         func() time.Time
}

type LedgerServiceDeps struct {
	Ledger      domainagg.LedgerAggregate
	Badges      repos.BadgeRepo
	Rules       Rules
	Notifier    LedgerNotifier
	Leaderboard LeaderboardInvalidator
	Metrics     *observability.Metrics
	Now         func() time.Time
}

func NewLedgerService(log *logger.Logger, deps LedgerServiceDeps) LedgerService {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ledgerService{
		log:         log.With("service", "LedgerService"),
		ledger:      deps.Ledger,
		badges:      deps.Badges,
		rules:       deps.Rules,
		notifier:    deps.Notifier,
		leaderboard: deps.Leaderboard,
		metrics:     deps.Metrics,
		now:         now,
	}
}

func (s *ledgerService) Apply(ctx context.Context, in domainagg.ApplyDeltaInput) (domainagg.ApplyDeltaResult, error) {
	res, err := s.ledger.ApplyDelta(ctx, in)
	if err != nil || res.Duplicate {
		return res, err
	}
	s.metrics.ObserveLedgerEntry(string(res.Entry.Kind), res.Entry.XPDelta, res.Entry.CoinsDelta)
	if res.LeveledUp {
		s.log.Info("user leveled up", "user_id", res.After.ID, "level", res.After.Level)
	}
	s.afterWrite(ctx, &res.After, &res.Entry)
	return res, nil
}

func (s *ledgerService) AwardBadge(ctx context.Context, in domainagg.AwardBadgeInput) (domainagg.AwardBadgeResult, error) {
	res, err := s.ledger.AwardBadge(ctx, in)
	if err != nil || !res.Awarded {
		return res, err
	}
	s.metrics.IncBadgeAwarded(res.Badge.BadgeID)
	s.metrics.ObserveLedgerEntry(string(gamification.KindBadge), 0, 0)
	s.notifier.BadgeAwarded(in.UserID, &res.Badge)
	s.invalidate(ctx)
	return res, nil
}

func (s *ledgerService) Purchase(ctx context.Context, in domainagg.PurchaseInput) (domainagg.PurchaseResult, error) {
	res, err := s.ledger.Purchase(ctx, in)
	if err != nil {
		return res, err
	}
	s.metrics.ObserveLedgerEntry(string(gamification.KindPurchase), 0, -res.Item.Cost)
	s.notifier.LedgerUpdated(&res.After, nil)
	s.invalidate(ctx)
	return res, nil
}

func (s *ledgerService) RecordStreak(ctx context.Context, userID uuid.UUID, kind domainagg.StreakKind) (domainagg.RecordStreakResult, error) {
	res, err := s.ledger.RecordStreak(ctx, domainagg.RecordStreakInput{UserID: userID, Kind: kind, At: s.now()})
	if err != nil || !res.Changed {
		return res, err
	}
	s.metrics.IncStreakUpdate(string(kind))
	s.notifier.StreakUpdated(&res.After)
	s.invalidate(ctx)
	s.awardEarned(ctx, &res.After)
	return res, nil
}

func (s *ledgerService) afterWrite(ctx context.Context, u *types.User, entry *types.LedgerEntry) {
	s.notifier.LedgerUpdated(u, entry)
	s.invalidate(ctx)
	s.awardEarned(ctx, u)
}

func (s *ledgerService) invalidate(ctx context.Context) {
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
}

// awardEarned grants threshold badges the user qualifies for but lacks.
// Failures are logged; the triggering write has already committed.
func (s *ledgerService) awardEarned(ctx context.Context, u *types.User) {
	earned := s.rules.EarnedBadges(u)
	if len(earned) == 0 || s.badges == nil {
		return
	}
	held, err := s.badges.ListByUser(dbctx.Context{Ctx: ctx}, u.ID)
	if err != nil {
		s.log.Warn("list badges for auto award failed", "user_id", u.ID, "error", err)
		return
	}
	have := make(map[string]bool, len(held))
	for _, b := range held {
		have[b.BadgeID] = true
	}
	for _, id := range earned {
		if have[id] {
			continue
		}
		if _, err := s.AwardBadge(ctx, domainagg.AwardBadgeInput{UserID: u.ID, BadgeID: id, At: s.now()}); err != nil {
			s.log.Warn("auto badge award failed", "user_id", u.ID, "badge_id", id, "error", err)
		}
	}
}
