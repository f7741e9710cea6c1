package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/levelup-backend/internal/http/handlers"
	httpMW "github.com/yungbote/levelup-backend/internal/http/middleware"
	"github.com/yungbote/levelup-backend/internal/observability"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler        *httpH.AuthHandler
	UserHandler        *httpH.UserHandler
	LeaderboardHandler *httpH.LeaderboardHandler
	PointsHandler      *httpH.PointsHandler
	RewardsHandler     *httpH.RewardsHandler
	ClassroomHandler   *httpH.ClassroomHandler
	HackathonHandler   *httpH.HackathonHandler
	RealtimeHandler    *httpH.RealtimeHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(httpMW.Tracing(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	teacher := protected.Group("/")
	teacher.Use(httpMW.RequireRole("teacher"))

	if cfg.AuthHandler != nil {
		protected.POST("/logout", cfg.AuthHandler.Logout)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		protected.POST("/sse/subscribe", cfg.RealtimeHandler.SSESubscribe)
		protected.POST("/sse/unsubscribe", cfg.RealtimeHandler.SSEUnsubscribe)
	}

	if cfg.UserHandler != nil {
		protected.GET("/users/me", cfg.UserHandler.GetMe)
		protected.PATCH("/users/me/name", cfg.UserHandler.ChangeName)
		protected.PUT("/users/me/avatar", cfg.UserHandler.UploadAvatar)
		protected.PUT("/users/me/progress", cfg.UserHandler.UpdateProgress)
		protected.GET("/users/me/ledger", cfg.UserHandler.Ledger)
		protected.PATCH("/users/:id/xp", cfg.UserHandler.AddXP)
		protected.POST("/users/award-xp", cfg.UserHandler.AwardXPByEmail)
	}
	if cfg.LeaderboardHandler != nil {
		protected.GET("/users/leaderboard", cfg.LeaderboardHandler.Get)
	}

	if cfg.PointsHandler != nil {
		protected.POST("/points/lesson", cfg.PointsHandler.CompleteLesson)
		protected.POST("/points/quiz", cfg.PointsHandler.RecordQuiz)
		protected.POST("/points/battle", cfg.PointsHandler.RecordBattle)
		protected.POST("/streak/checkin", cfg.PointsHandler.CheckIn)
	}

	if cfg.RewardsHandler != nil {
		teacher.POST("/rewards/award", cfg.RewardsHandler.Award)
		protected.GET("/rewards/badges", cfg.RewardsHandler.Catalog)
		protected.GET("/rewards/badges/:userId", cfg.RewardsHandler.UserBadges)
		protected.POST("/rewards/badges/:userId", cfg.RewardsHandler.AwardBadge)
		protected.GET("/rewards/unlocked", cfg.RewardsHandler.Unlocked)
		protected.GET("/store/items", cfg.RewardsHandler.StoreItems)
		protected.POST("/store/purchase", cfg.RewardsHandler.Purchase)
	}

	// Classes
	if cfg.ClassroomHandler != nil {
		teacher.POST("/classes", cfg.ClassroomHandler.CreateClass)
		protected.GET("/classes", cfg.ClassroomHandler.ListClasses)
		protected.POST("/classes/join", cfg.ClassroomHandler.Join)
		teacher.DELETE("/classes/:id", cfg.ClassroomHandler.DeleteClass)
		teacher.GET("/classes/:id/roster", cfg.ClassroomHandler.Roster)
		teacher.POST("/classes/:id/assignments", cfg.ClassroomHandler.CreateAssignment)
		protected.GET("/classes/:id/assignments", cfg.ClassroomHandler.ListAssignments)
		protected.PUT("/assignments/:id/submission", cfg.ClassroomHandler.Submit)
		teacher.GET("/assignments/:id/submissions", cfg.ClassroomHandler.ListSubmissions)
		teacher.POST("/submissions/:id/grade", cfg.ClassroomHandler.Grade)
	}

	// Hackathons
	if cfg.HackathonHandler != nil {
		teacher.POST("/hackathons", cfg.HackathonHandler.Create)
		protected.GET("/hackathons", cfg.HackathonHandler.List)
		protected.GET("/hackathons/:id", cfg.HackathonHandler.Get)
		protected.POST("/hackathons/:id/teams", cfg.HackathonHandler.CreateTeam)
		protected.GET("/hackathons/:id/teams", cfg.HackathonHandler.ListTeams)
		protected.GET("/hackathons/:id/team/me", cfg.HackathonHandler.MyTeam)
		protected.PATCH("/hackathons/:id/teams/:teamId", cfg.HackathonHandler.UpdateTeam)
		protected.DELETE("/hackathons/:id/teams/:teamId", cfg.HackathonHandler.DeleteTeam)
		protected.PUT("/hackathons/:id/teams/:teamId/submission", cfg.HackathonHandler.Submit)
		protected.POST("/hackathons/:id/teams/:teamId/files", cfg.HackathonHandler.UploadFiles)
		teacher.POST("/hackathons/:id/teams/:teamId/grade", cfg.HackathonHandler.Grade)
	}

	return r
}
