package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/levelup-backend/internal/http"
	httpH "github.com/yungbote/levelup-backend/internal/http/handlers"
	httpMW "github.com/yungbote/levelup-backend/internal/http/middleware"
	"github.com/yungbote/levelup-backend/internal/observability"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
	"github.com/yungbote/levelup-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	Auth        *httpH.AuthHandler
	User        *httpH.UserHandler
	Leaderboard *httpH.LeaderboardHandler
	Points      *httpH.PointsHandler
	Rewards     *httpH.RewardsHandler
	Classroom   *httpH.ClassroomHandler
	Hackathon   *httpH.HackathonHandler
	Realtime    *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients Clients, s Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return clients.Redis.Ping(ctx).Err() }
	}
	return Handlers{
		Health:      httpH.NewHealthHandler(checks),
		Auth:        httpH.NewAuthHandler(s.Auth, clients.Bucket),
		User:        httpH.NewUserHandler(s.User, s.Avatar, s.Points, clients.Bucket),
		Leaderboard: httpH.NewLeaderboardHandler(s.Leaderboard),
		Points:      httpH.NewPointsHandler(s.Points, s.Streak),
		Rewards:     httpH.NewRewardsHandler(s.Rewards, s.Store),
		Classroom:   httpH.NewClassroomHandler(s.Classroom),
		Hackathon:   httpH.NewHackathonHandler(s.Hackathon, clients.Bucket),
		Realtime:    httpH.NewRealtimeHandler(log, hub, s.Channels),
	}
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, s.Auth),
	}
}

func routerConfig(log *logger.Logger, cfg Config, metrics *observability.Metrics, tracing bool, handlers Handlers, middleware Middleware) http.RouterConfig {
	return http.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		ServiceName:        cfg.ServiceName,
		TracingEnabled:     tracing,
		CORSOrigins:        cfg.CORSOrigins,
		AuthMiddleware:     middleware.Auth,
		AuthHandler:        handlers.Auth,
		UserHandler:        handlers.User,
		LeaderboardHandler: handlers.Leaderboard,
		PointsHandler:      handlers.Points,
		RewardsHandler:     handlers.Rewards,
		ClassroomHandler:   handlers.Classroom,
		HackathonHandler:   handlers.Hackathon,
		RealtimeHandler:    handlers.Realtime,
		HealthHandler:      handlers.Health,
	}
}
