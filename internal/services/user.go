package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/data/repos"
	types "github.com/yungbote/levelup-backend/internal/domain"
	"github.com/yungbote/levelup-backend/internal/domain/user"
	"github.com/yungbote/levelup-backend/internal/pkg/dbctx"
	"github.com/yungbote/levelup-backend/internal/platform/apierr"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

const (
	defaultLedgerHistoryLimit = 50
	maxLedgerHistoryLimit     = 500
)

// MeSnapshot is the caller's profile with badges and topic progress.
type MeSnapshot struct {
	User     *types.User            `json:"user"`
	Badges   []*types.UserBadge     `json:"badges"`
	Progress []*types.TopicProgress `json:"progress"`
}

type UserService interface {
	Me(ctx context.Context) (*MeSnapshot, error)
	UpdateName(ctx context.Context, firstName, lastName string) (*types.User, error)
	UpdateProgress(ctx context.Context, topic string, percent int) (*types.TopicProgress, error)
	LedgerHistory(ctx context.Context, limit int) ([]*types.LedgerEntry, error)
}

type userService struct {
	log      *logger.Logger
	users    repos.UserRepo
	badges   repos.BadgeRepo
	progress repos.TopicProgressRepo
	entries  repos.LedgerEntryRepo
}

func NewUserService(
	log *logger.Logger,
	users repos.UserRepo,
	badges repos.BadgeRepo,
	progress repos.TopicProgressRepo,
	entries repos.LedgerEntryRepo,
) UserService {
	return &userService{
		log:      log.With("service", "UserService"),
		users:    users,
		badges:   badges,
		progress: progress,
		entries:  entries,
	}
}

func (s *userService) load(ctx context.Context, id uuid.UUID) (*types.User, error) {
	u, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", "user not found")
	}
	return u, nil
}

func (s *userService) Me(ctx context.Context) (*MeSnapshot, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.load(ctx, rd.UserID)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	badges, err := s.badges.ListByUser(dbc, u.ID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	progress, err := s.progress.ListByUser(dbc, u.ID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return &MeSnapshot{User: u, Badges: badges, Progress: progress}, nil
}

func (s *userService) UpdateName(ctx context.Context, firstName, lastName string) (*types.User, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" && lastName == "" {
		return nil, apierr.BadRequest("invalid_name", "first_name or last_name is required")
	}
	if err := s.users.UpdateName(dbctx.Context{Ctx: ctx}, rd.UserID, firstName, lastName); err != nil {
		return nil, fmt.Errorf("update name: %w", err)
	}
	return s.load(ctx, rd.UserID)
}

func (s *userService) UpdateProgress(ctx context.Context, topic string, percent int) (*types.TopicProgress, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apierr.BadRequest("missing_topic", "topic is required")
	}
	p, err := s.progress.Upsert(dbctx.Context{Ctx: ctx}, rd.UserID, topic, user.ClampPercent(percent))
	if err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}
	return p, nil
}

func (s *userService) LedgerHistory(ctx context.Context, limit int) ([]*types.LedgerEntry, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLedgerHistoryLimit
	}
	if limit > maxLedgerHistoryLimit {
		limit = maxLedgerHistoryLimit
	}
	out, err := s.entries.ListByUser(dbctx.Context{Ctx: ctx}, rd.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return out, nil
}
