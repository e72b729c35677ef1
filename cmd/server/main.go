package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/taskdesk/taskdesk/internal/api"
	"github.com/taskdesk/taskdesk/internal/config"
	"github.com/taskdesk/taskdesk/internal/db"
	"github.com/taskdesk/taskdesk/internal/middleware"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/observ"
	"github.com/taskdesk/taskdesk/internal/realtime"
	"github.com/taskdesk/taskdesk/internal/repository/postgres"
	"github.com/taskdesk/taskdesk/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// ---------------------------------------------------------------
	// 3. Connect to Postgres and Redis
	//
	// Startup uses context.Background(): there is no request deadline
	// yet, and "take as long as you need to connect" is the right
	// behavior here. Per-request contexts take over once the server
	// is running.
	// ---------------------------------------------------------------
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	rdb, err := db.NewRedis(context.Background(), cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	// ---------------------------------------------------------------
	// 4. Repositories and supporting services
	// ---------------------------------------------------------------
	pool := database.Pool()
	profileRepo := postgres.NewProfileStore(pool)
	taskRepo := postgres.NewTaskStore(pool)
	teamRepo := postgres.NewTeamStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	premiumRepo := postgres.NewPremiumStore(pool)
	settingsRepo := postgres.NewSettingsStore(pool)
	historyRepo := postgres.NewHistoryStore(pool)

	files, err := storage.NewFileStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("create file store: %w", err)
	}

	// The hub consumes the Redis change feed for the lifetime of the
	// process; the publisher feeds it from mutation handlers.
	hub := realtime.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx, rdb)

	changes := realtime.NewPublisher(rdb, logger)

	// ---------------------------------------------------------------
	// 5. Handlers
	// ---------------------------------------------------------------
	authHandler := api.NewAuthHandler(profileRepo, cfg.JWTSecret, logger)
	profileHandler := api.NewProfileHandler(profileRepo, historyRepo, files, logger)
	taskHandler := api.NewTaskHandler(taskRepo, historyRepo, changes, logger)
	teamHandler := api.NewTeamHandler(teamRepo, changes, logger)
	messageHandler := api.NewMessageHandler(messageRepo, changes, logger)
	premiumHandler := api.NewPremiumHandler(premiumRepo, profileRepo, logger)
	settingsHandler := api.NewSettingsHandler(settingsRepo, logger)
	statsHandler := api.NewStatsHandler(taskRepo, logger)
	realtimeHandler := api.NewRealtimeHandler(hub, logger)

	// ---------------------------------------------------------------
	// 6. Routes
	// ---------------------------------------------------------------
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	// Health check is public; load balancers can't authenticate.
	srv.GET("/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":           "ok",
			"realtime_clients": hub.ClientCount(),
		})
	})

	// Uploaded files (avatars, logos) are served statically.
	srv.Static("/files", files.BaseDir())

	srv.POST("/v1/auth/signup", authHandler.Signup)
	srv.POST("/v1/auth/login", authHandler.Login)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.GET("/auth/session", authHandler.Session)

	// Static and :param segments never share a position; gin's router
	// rejects that mix at startup.
	v1.GET("/profiles", profileHandler.List)
	v1.GET("/profiles/search", profileHandler.Search)
	v1.PATCH("/profiles/me", profileHandler.UpdateSelf)
	v1.POST("/profiles/me/avatar", profileHandler.UploadAvatar)
	v1.DELETE("/profiles/me/avatar", profileHandler.DeleteAvatar)
	v1.GET("/profiles/me/history", profileHandler.History)

	v1.GET("/tasks", taskHandler.List)
	v1.GET("/tasks/:id", taskHandler.Get)
	v1.POST("/tasks", taskHandler.Create)
	v1.PATCH("/tasks/:id", taskHandler.Update)
	v1.DELETE("/tasks/:id", taskHandler.Delete)
	v1.GET("/task-counts", taskHandler.Counts)

	v1.GET("/teams", teamHandler.List)
	v1.POST("/teams", teamHandler.Create)
	v1.PUT("/teams/:id", teamHandler.Update)
	v1.DELETE("/teams/:id", teamHandler.Delete)
	v1.GET("/teams/:id/members", teamHandler.Members)
	v1.POST("/teams/:id/members", teamHandler.AddMember)
	v1.DELETE("/teams/:id/members/:userID", teamHandler.RemoveMember)

	v1.GET("/contacts", messageHandler.Contacts)
	v1.GET("/unread", messageHandler.UnreadCount)
	v1.GET("/conversations/:userID", messageHandler.Conversation)
	v1.POST("/conversations/:userID/read", messageHandler.MarkRead)
	v1.POST("/messages", messageHandler.Send)
	v1.PATCH("/messages/:id", messageHandler.Edit)
	v1.DELETE("/messages/:id", messageHandler.Delete)

	v1.GET("/settings", settingsHandler.Get)

	v1.GET("/realtime", realtimeHandler.Serve)

	// Administrator + Manager screens.
	managed := v1.Group("")
	managed.Use(middleware.RequireRoles(models.RoleAdministrator, models.RoleManager))
	managed.GET("/stats/tasks", statsHandler.Tasks)
	managed.GET("/premium/funds", premiumHandler.ListFunds)
	managed.POST("/premium/funds", premiumHandler.CreateFund)
	managed.GET("/premium/funds/:id/metrics", premiumHandler.Metrics)
	managed.POST("/premium/funds/:id/metrics", premiumHandler.AddMetric)
	managed.POST("/premium/funds/:id/calculate", premiumHandler.Calculate)
	managed.POST("/premium/funds/:id/distribute", premiumHandler.Distribute)

	// Administrator-only screens.
	admin := v1.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdministrator))
	admin.PATCH("/admin/profiles/:id/role", profileHandler.SetRole)
	admin.PUT("/settings", settingsHandler.Update)

	logger.Info("starting taskdesk",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	return srv.Run(":" + cfg.Port)
}
