package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/levelup-backend/internal/data/aggregates"
	"github.com/yungbote/levelup-backend/internal/observability"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
	"github.com/yungbote/levelup-backend/internal/realtime"
	"github.com/yungbote/levelup-backend/internal/services"
)

type Services struct {
	Emitter services.SSEEmitter

	Auth        services.AuthService
	Avatar      services.AvatarService
	User        services.UserService
	Ledger      services.LedgerService
	Leaderboard services.LeaderboardService
	Points      services.PointsService
	Rewards     services.RewardsService
	Store       services.StoreService
	Streak      services.StreakService
	Classroom   services.ClassroomService
	Hackathon   services.HackathonService
	Channels    services.ChannelAccess
}

func wireServices(
	ctx context.Context,
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	metrics *observability.Metrics,
	r Repos,
	clients Clients,
	hub *realtime.SSEHub,
) (Services, error) {
	log.Info("Wiring services...")

	if err := services.SeedCatalog(ctx, log, r.Badge, r.Store, cfg.Rules); err != nil {
		return Services{}, fmt.Errorf("seed catalog: %w", err)
	}

	var emitter services.SSEEmitter = &services.HubEmitter{Hub: hub}
	if clients.SSEBus != nil {
		emitter = &services.RedisEmitter{Bus: clients.SSEBus, Log: log}
	}
	ledgerNotifier := services.NewLedgerNotifier(emitter)
	classroomNotifier := services.NewClassroomNotifier(emitter)

	var cache services.LeaderboardCache
	if clients.Redis != nil {
		cache = services.NewRedisLeaderboardCache(clients.Redis, cfg.LeaderboardCacheTTL)
	} else {
		cache = services.NewMemoryLeaderboardCache(cfg.LeaderboardCacheTTL)
	}
	leaderboard := services.NewLeaderboardService(log, r.User, r.Badge, r.Class, cache, ledgerNotifier, metrics)

	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}
	ledger := services.NewLedgerService(log, services.LedgerServiceDeps{
		Ledger: aggregates.NewLedgerAggregate(aggregates.LedgerAggregateDeps{
			Base:    base,
			Users:   r.User,
			Badges:  r.Badge,
			Store:   r.Store,
			Entries: r.LedgerEntry,
		}),
		Badges:      r.Badge,
		Rules:       cfg.Rules,
		Notifier:    ledgerNotifier,
		Leaderboard: leaderboard,
		Metrics:     metrics,
	})

	avatar, err := services.NewAvatarService(log, r.User, clients.Bucket)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	auth := services.NewAuthService(db, log, r.User, r.UserToken, avatar, ledger, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	classroom := services.NewClassroomService(log, r.Class, r.Assignment, ledger, classroomNotifier)
	hackathon := services.NewHackathonService(log, services.HackathonServiceDeps{
		Users:      r.User,
		Classes:    r.Class,
		Hackathons: r.Hackathon,
		TeamRepo:   r.Team,
		Teams: aggregates.NewTeamAggregate(aggregates.TeamAggregateDeps{
			Base:       base,
			Hackathons: r.Hackathon,
			Teams:      r.Team,
		}),
		Ledger:   ledger,
		Bucket:   clients.Bucket,
		Notifier: classroomNotifier,
	})

	return Services{
		Emitter:     emitter,
		Auth:        auth,
		Avatar:      avatar,
		User:        services.NewUserService(log, r.User, r.Badge, r.Progress, r.LedgerEntry),
		Ledger:      ledger,
		Leaderboard: leaderboard,
		Points:      services.NewPointsService(log, r.User, r.Class, r.Progress, ledger, cfg.Rules),
		Rewards:     services.NewRewardsService(log, r.User, r.Class, r.Badge, r.Store, ledger),
		Store:       services.NewStoreService(log, r.Store, ledger),
		Streak:      services.NewStreakService(ledger),
		Classroom:   classroom,
		Hackathon:   hackathon,
		Channels:    services.NewChannelAccess(classroom, hackathon),
	}, nil
}
