package services

import (
	"context"

	types "github.com/yungbote/levelup-backend/internal/domain"
	domainagg "github.com/yungbote/levelup-backend/internal/domain/aggregates"
	"github.com/yungbote/levelup-backend/internal/platform/apierr"
)

type StreakService interface {
	// CheckIn advances the login streak for today. A second check-in on
	// the same UTC day reports changed=false.
	CheckIn(ctx context.Context) (*types.User, bool, error)
}

type streakService struct {
	ledger LedgerService
}

func NewStreakService(ledger LedgerService) StreakService {
	return &streakService{ledger: ledger}
}

func (s *streakService) CheckIn(ctx context.Context) (*types.User, bool, error) {
	rd, err := requireCaller(ctx)
	if err != nil {
		return nil, false, err
	}
	res, err := s.ledger.RecordStreak(ctx, rd.UserID, domainagg.StreakLogin)
	if err != nil {
		return nil, false, apierr.FromAggregate(err)
	}
	return &res.After, res.Changed, nil
}
