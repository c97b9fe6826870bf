package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matesxs/deeptown-event-tracker/internal/config"
	"github.com/matesxs/deeptown-event-tracker/internal/database"
	"github.com/matesxs/deeptown-event-tracker/internal/handler"
	"github.com/matesxs/deeptown-event-tracker/internal/jobs"
	"github.com/matesxs/deeptown-event-tracker/internal/middleware"
	"github.com/matesxs/deeptown-event-tracker/internal/repository"
	"github.com/matesxs/deeptown-event-tracker/internal/service"
	"github.com/matesxs/deeptown-event-tracker/internal/upstream"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize upstream client
	upstreamClient := upstream.NewClient(upstream.Config{
		BaseURL:      cfg.Upstream.BaseURL,
		FetchTimeout: cfg.Upstream.FetchTimeout,
	})

	// Initialize repositories
	guildRepo := repository.NewGuildRepository(db)
	playerRepo := repository.NewPlayerRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	eventWeekRepo := repository.NewEventWeekRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)
	blacklistRepo := repository.NewBlacklistRepository(db)

	// Initialize services
	conflictResolver := service.NewConflictResolver(participationRepo)

	reconcileService := service.NewReconciliationService(
		db,
		guildRepo,
		playerRepo,
		membershipRepo,
		eventWeekRepo,
		participationRepo,
		blacklistRepo,
		conflictResolver,
	)

	syncService := service.NewSyncService(
		guildRepo,
		upstreamClient,
		reconcileService,
		service.SyncSettings{
			MaxRetryRounds:   cfg.Sync.MaxRetryRounds,
			RetryBackoffBase: cfg.Sync.RetryBackoffBase,
			RequestDelay:     cfg.Upstream.RequestDelay,
			StoragePause:     cfg.Sync.StoragePause,
			ProgressInterval: cfg.Sync.ProgressInterval,
		},
		func(runID string, done, total, round int) {
			slog.Info("sync progress",
				slog.String("run_id", runID),
				slog.Int("done", done),
				slog.Int("total", total),
				slog.Int("round", round),
			)
		},
	)

	statisticsService := service.NewStatisticsService(guildRepo, playerRepo, statisticsRepo)
	cleanupService := service.NewCleanupService(guildRepo, playerRepo, blacklistRepo, upstreamClient)
	importService := service.NewImportService(
		db,
		guildRepo,
		playerRepo,
		membershipRepo,
		eventWeekRepo,
		participationRepo,
		blacklistRepo,
		conflictResolver,
	)
	reportService := service.NewReportService(guildRepo, playerRepo, membershipRepo, participationRepo, eventWeekRepo)
	adminService := service.NewAdminService(blacklistRepo, participationRepo, guildRepo)

	// Initialize background jobs
	if cfg.Jobs.SyncEnabled {
		syncJob := jobs.NewGuildSyncJob(syncService, cfg.Jobs.SyncInterval)
		syncJob.Start()
		defer syncJob.Stop()
	}
	if cfg.Jobs.CleanupEnabled {
		cleanupJob := jobs.NewCleanupJob(cleanupService, cfg.Jobs.CleanupInterval)
		cleanupJob.Start()
		defer cleanupJob.Stop()
	}
	if cfg.Jobs.StatisticsEnabled {
		statisticsJob := jobs.NewStatisticsJob(statisticsService)
		statisticsJob.Start()
		defer statisticsJob.Stop()
	}

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db)
	reportHandler := handler.NewReportHandler(reportService, statisticsService)
	adminHandler := handler.NewAdminHandler(syncService, importService, adminService)

	// Create router and register routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)

	// Read-only report endpoints (public)
	mux.HandleFunc("GET /v1/guilds", reportHandler.ListGuilds)
	mux.HandleFunc("GET /v1/guilds/{guildId}/members", reportHandler.GuildMembers)
	mux.HandleFunc("GET /v1/guilds/{guildId}/participation", reportHandler.GuildParticipation)
	mux.HandleFunc("GET /v1/events", reportHandler.EventWeeks)
	mux.HandleFunc("GET /v1/guilds/{guildId}/leaderboard", reportHandler.Leaderboard)
	mux.HandleFunc("GET /v1/players/{playerId}/participation", reportHandler.PlayerParticipation)
	mux.HandleFunc("GET /v1/stats/daily", reportHandler.DailyStats)

	// Admin endpoints - requires admin token
	adminMiddleware := middleware.AdminAuth(cfg.Auth.AdminTokenHash)
	mux.Handle("POST /v1/admin/sync", adminMiddleware(http.HandlerFunc(adminHandler.TriggerSync)))
	mux.Handle("GET /v1/admin/sync/{runId}", adminMiddleware(http.HandlerFunc(adminHandler.SyncStatus)))
	mux.Handle("POST /v1/admin/import", adminMiddleware(http.HandlerFunc(adminHandler.ImportCSV)))
	mux.Handle("POST /v1/admin/blacklist/{kind}/{id}", adminMiddleware(http.HandlerFunc(adminHandler.Blacklist)))
	mux.Handle("DELETE /v1/admin/blacklist/{kind}/{id}", adminMiddleware(http.HandlerFunc(adminHandler.Unblacklist)))
	mux.Handle("DELETE /v1/admin/guilds/{guildId}/participation", adminMiddleware(http.HandlerFunc(adminHandler.PurgeParticipation)))
	mux.Handle("DELETE /v1/admin/guilds/{guildId}", adminMiddleware(http.HandlerFunc(adminHandler.DeleteGuild)))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
