package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/domain/gamification"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/apierr"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type TeacherAwardInput struct {
	Student UserRef
	Points  int
	Reason  string
}

type RewardsService interface {
	// TeacherAward credits points to both coins and xp of a rostered student.
	TeacherAward(ctx context.Context, in TeacherAwardInput) (*types.User, error)
	Catalog(ctx context.Context) ([]*types.BadgeDefinition, error)
	ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*types.UserBadge, error)
	AwardBadge(ctx context.Context, userID uuid.UUID, badgeID string) (*types.UserBadge, bool, error)
	Unlocked(ctx context.Context) ([]*types.UnlockedReward, error)
}

type rewardsService struct {
	log     *logger.Logger
	users   repos.UserRepo
	classes repos.ClassRepo
	badges  repos.BadgeRepo
	store   repos.StoreRepo
	ledger  LedgerService
}

func NewRewardsService(
	log *logger.Logger,
	users repos.UserRepo,
	classes repos.ClassRepo,
	badges repos.BadgeRepo,
	store repos.StoreRepo,
	ledger LedgerService,
) RewardsService {
	return &rewardsService{
		log:     log.With("service", "RewardsService"),
		users:   users,
		classes: classes,
		badges:  badges,
		store:   store,
		ledger:  ledger,
	}
}

func (s *rewardsService) TeacherAward(ctx context.Context, in TeacherAwardInput) (*types.User, error) {
	rd, err := requireTeacher(ctx)
	if err != nil {
		return nil, err
	}
	if in.Points <= 0 {
		return nil, apierr.BadRequest("invalid_points", "points must be positive")
	}
	dbc := dbctx.Context{Ctx: ctx}
	student, err := resolveUser(dbc, s.users, in.Student)
	if err != nil {
		return nil, err
	}
	if err := requireRosterAccess(dbc, s.classes, rd, student.ID); err != nil {
		return nil, err
	}
	actor := rd.UserID
	res, err := s.ledger.Apply(ctx, domainagg.ApplyDeltaInput{
		UserID:     student.ID,
		XPDelta:    in.Points,
		CoinsDelta: in.Points,
		Kind:       gamification.KindTeacherAward,
		Reason:     strings.TrimSpace(in.Reason),
		ActorID:    &actor,
	})
	if err != nil {
		return nil, apierr.FromAggregate(err)
	}
	s.log.Info("teacher award", "teacher_id", actor, "user_id", student.ID, "points", in.Points)
	return &res.After, nil
}

func (s *rewardsService) Catalog(ctx context.Context) ([]*types.BadgeDefinition, error) {
	defs, err := s.badges.ListDefinitions(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("list badge catalog: %w", err)
	}
	return defs, nil
}

func (s *rewardsService) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]*types.UserBadge, error) {
	if _, err := requireCaller(ctx); err != nil {
		return nil, err
	}
	earned, err := s.badges.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("list user badges: %w", err)
	}
	return earned, nil
}

func (s *rewardsService) AwardBadge(ctx context.Context, userID uuid.UUID, badgeID string) (*types.UserBadge, bool, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, false, err
	}
	badgeID = strings.TrimSpace(badgeID)
	if badgeID == "" {
		return nil, false, apierr.BadRequest("missing_badge", "badgeId is required")
	}
	if userID != rd.UserID {
		if err := requireRosterAccess(dbctx.Context{Ctx: ctx}, s.classes, rd, userID); err != nil {
			return nil, false, err
		}
	}
	actor := rd.UserID
	res, err := s.ledger.AwardBadge(ctx, domainagg.AwardBadgeInput{UserID: userID, BadgeID: badgeID, ActorID: &actor})
	if err != nil {
		return nil, false, apierr.FromAggregate(err)
	}
	return &res.Badge, res.Awarded, nil
}

func (s *rewardsService) Unlocked(ctx context.Context) ([]*types.UnlockedReward, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListUnlocked(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked rewards: %w", err)
	}
	return out, nil
}
