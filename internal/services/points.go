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

type AwardXPInput struct {
	Target UserRef
	XP     int
	Reason string
}

type LessonInput struct {
	Topic    string
	Progress *int
}

type QuizInput struct {
	Topic   string
	Correct int
	Total   int
}

type BattleInput struct {
	Won      bool
	Opponent string
}

// PointsService turns learning events into ledger writes.
type PointsService interface {
	AwardXP(ctx context.Context, in AwardXPInput) (*types.User, error)
	CompleteLesson(ctx context.Context, in LessonInput) (*types.User, error)
	RecordQuiz(ctx context.Context, in QuizInput) (*types.User, error)
	RecordBattle(ctx context.Context, in BattleInput) (*types.User, error)
}

type pointsService struct {
	log      *logger.Logger
	users    repos.UserRepo
	classes  repos.ClassRepo
	progress repos.TopicProgressRepo
	ledger   LedgerService
	rules    Rules
}

func NewPointsService(
	log *logger.Logger,
	users repos.UserRepo,
	classes repos.ClassRepo,
	progress repos.TopicProgressRepo,
	ledger LedgerService,
	rules Rules,
) PointsService {
	return &pointsService{
		log:      log.With("service", "PointsService"),
		users:    users,
		classes:  classes,
		progress: progress,
		ledger:   ledger,
		rules:    rules,
	}
}

func (s *pointsService) AwardXP(ctx context.Context, in AwardXPInput) (*types.User, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if in.XP == 0 {
		return nil, apierr.BadRequest("invalid_xp", "xpToAdd must not be zero")
	}
	dbc := dbctx.Context{Ctx: ctx}
	target, err := resolveUser(dbc, s.users, in.Target)
	if err != nil {
		return nil, err
	}
	selfGain := target.ID == rd.UserID && in.XP > 0
	if !selfGain {
		if err := requireRosterAccess(dbc, s.classes, rd, target.ID); err != nil {
			return nil, err
		}
	}
	actor := rd.UserID
	res, err := s.ledger.Apply(ctx, domainagg.ApplyDeltaInput{
		UserID:  target.ID,
		XPDelta: in.XP,
		Kind:    gamification.KindXPAdjust,
		Reason:  strings.TrimSpace(in.Reason),
		ActorID: &actor,
	})
	if err != nil {
		return nil, apierr.FromAggregate(err)
	}
	return &res.After, nil
}

func (s *pointsService) CompleteLesson(ctx context.Context, in LessonInput) (*types.User, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	topic := strings.TrimSpace(in.Topic)
	meta := map[string]any{}
	if topic != "" {
		meta["topic"] = topic
	}
	if _, err := s.ledger.Apply(ctx, domainagg.ApplyDeltaInput{
		UserID:   rd.UserID,
		XPDelta:  s.rules.LessonXP,
		Kind:     gamification.KindLesson,
		Reason:   "lesson completed",
		Metadata: meta,
	}); err != nil {
		return nil, apierr.FromAggregate(err)
	}
	if topic != "" && in.Progress != nil {
		if _, err := s.progress.Upsert(dbctx.Context{Ctx: ctx}, rd.UserID, topic, *in.Progress); err != nil {
			return nil, fmt.Errorf("update progress: %w", err)
		}
	}
	return s.activity(ctx, rd.UserID)
}

func (s *pointsService) RecordQuiz(ctx context.Context, in QuizInput) (*types.User, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if in.Total <= 0 || in.Correct < 0 || in.Correct > in.Total {
		return nil, apierr.BadRequest("invalid_quiz_result", "correct must be between 0 and total")
	}
	xp := in.Correct * s.rules.QuizXPPerCorrect
	coins := in.Correct * s.rules.QuizCoinsPerCorrect
	if xp != 0 || coins != 0 {
		if _, err := s.ledger.Apply(ctx, domainagg.ApplyDeltaInput{
			UserID:     rd.UserID,
			XPDelta:    xp,
			CoinsDelta: coins,
			Kind:       gamification.KindQuiz,
			Reason:     "quiz result",
			Metadata: map[string]any{
				"topic":   strings.TrimSpace(in.Topic),
				"correct": in.Correct,
				"total":   in.Total,
			},
		}); err != nil {
			return nil, apierr.FromAggregate(err)
		}
	}
	if topic := strings.TrimSpace(in.Topic); topic != "" {
		percent := in.Correct * 100 / in.Total
		if _, err := s.progress.Upsert(dbctx.Context{Ctx: ctx}, rd.UserID, topic, percent); err != nil {
			return nil, fmt.Errorf("update progress: %w", err)
		}
	}
	return s.activity(ctx, rd.UserID)
}

func (s *pointsService) RecordBattle(ctx context.Context, in BattleInput) (*types.User, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	xp, coins, outcome := s.rules.BattleLossXP, 0, "loss"
	if in.Won {
		xp, coins, outcome = s.rules.BattleWinXP, s.rules.BattleWinCoins, "win"
	}
	if xp != 0 || coins != 0 {
		if _, err := s.ledger.Apply(ctx, domainagg.ApplyDeltaInput{
			UserID:     rd.UserID,
			XPDelta:    xp,
			CoinsDelta: coins,
			Kind:       gamification.KindBattle,
			Reason:     "battle " + outcome,
			Metadata:   map[string]any{"outcome": outcome, "opponent": strings.TrimSpace(in.Opponent)},
		}); err != nil {
			return nil, apierr.FromAggregate(err)
		}
	}
	return s.activity(ctx, rd.UserID)
}

// activity advances the activity streak and returns the fresh snapshot.
func (s *pointsService) activity(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	res, err := s.ledger.RecordStreak(ctx, userID, domainagg.StreakActivity)
	if err != nil {
		return nil, apierr.FromAggregate(err)
	}
	return &res.After, nil
}
