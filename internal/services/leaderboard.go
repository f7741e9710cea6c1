package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/observability"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/apierr"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 200
)

type LeaderboardService interface {
	// Get returns students ranked by xp desc, ties broken by id asc. Ranks
	// are ordinal and computed on every build.
	Get(ctx context.Context, classID *uuid.UUID, limit int) (*types.Leaderboard, error)
	Invalidate(ctx context.Context)
}

type leaderboardService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	badges   repos.BadgeRepo
	classes  repos.ClassRepo
	cache    LeaderboardCache
	notifier LedgerNotifier
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewLeaderboardService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	badges repos.BadgeRepo,
	classes repos.ClassRepo,
	cache LeaderboardCache,
	notifier LedgerNotifier,
	metrics *observability.Metrics,
) LeaderboardService {
	return &leaderboardService{
		log:      log.With("service", "LeaderboardService"),
		userRepo: userRepo,
		badges:   badges,
		classes:  classes,
		cache:    cache,
		notifier: notifier,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func leaderboardKey(classID *uuid.UUID, limit int) string {
	scope := "all"
	if classID != nil {
		scope = classID.String()
	}
	return fmt.Sprintf("%s:%d", scope, limit)
}

func (s *leaderboardService) Get(ctx context.Context, classID *uuid.UUID, limit int) (*types.Leaderboard, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	if classID != nil && *classID == uuid.Nil {
		classID = nil
	}
	if classID != nil {
		if err := s.requireClassAccess(ctx, *classID); err != nil {
			return nil, err
		}
	}

	key := leaderboardKey(classID, limit)
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		lb, g, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.metrics.IncLeaderboardCache("error")
			s.log.Warn("leaderboard cache read failed", "error", err)
		case ok:
			s.metrics.IncLeaderboardCache("hit")
			return lb, nil
		default:
			s.metrics.IncLeaderboardCache("miss")
			gen, cacheable = g, true
		}
	}

	lb, err := s.build(ctx, classID, limit)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := s.cache.Set(ctx, key, gen, lb); err != nil {
			s.log.Warn("leaderboard cache write failed", "error", err)
		}
	}
	return lb, nil
}

func (s *leaderboardService) build(ctx context.Context, classID *uuid.UUID, limit int) (*types.Leaderboard, error) {
	dbc := dbctx.Context{Ctx: ctx}
	users, err := s.userRepo.Leaderboard(dbc, repos.LeaderboardQuery{ClassID: classID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	counts, err := s.badges.CountByUsers(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("count badges: %w", err)
	}
	entries := make([]types.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, types.LeaderboardEntry{
			Rank:           i + 1,
			UserID:         u.ID,
			Email:          u.Email,
			Name:           u.DisplayName(),
			AvatarURL:      u.AvatarURL,
			XP:             u.XP,
			Level:          u.Level,
			Coins:          u.Coins,
			LoginStreak:    u.LoginStreak,
			ActivityStreak: u.ActivityStreak,
			BadgeCount:     counts[u.ID],
		})
	}
	return &types.Leaderboard{ClassID: classID, Entries: entries, GeneratedAt: s.now()}, nil
}

// requireClassAccess admits the owning teacher and enrolled students.
func (s *leaderboardService) requireClassAccess(ctx context.Context, classID uuid.UUID) error {
	rd, err := requireCaller(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	class, err := s.classes.GetByID(dbc, classID)
	if err != nil {
		return fmt.Errorf("load class: %w", err)
	}
	if class == nil {
		return apierr.NotFound("class_not_found", "class not found")
	}
	if class.TeacherID == rd.UserID {
		return nil
	}
	member, err := s.classes.IsMember(dbc, classID, rd.UserID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return apierr.Forbidden("not a member of this class")
	}
	return nil
}

func (s *leaderboardService) Invalidate(ctx context.Context) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warn("leaderboard cache invalidate failed", "error", err)
		}
	}
	s.notifier.LeaderboardInvalidated()
}
