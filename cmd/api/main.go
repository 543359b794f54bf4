package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/weekly-contest/config"
	"github.com/Dosada05/weekly-contest/db"
	"github.com/Dosada05/weekly-contest/handlers"
	"github.com/Dosada05/weekly-contest/metrics"
	"github.com/Dosada05/weekly-contest/middleware"
	"github.com/Dosada05/weekly-contest/queue"
	"github.com/Dosada05/weekly-contest/realtime"
	"github.com/Dosada05/weekly-contest/repositories"
	"github.com/Dosada05/weekly-contest/routes"
	"github.com/Dosada05/weekly-contest/services"
	"github.com/Dosada05/weekly-contest/storage"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var guard services.InFlightGuard = services.NewMemoryGuard()
	if cfg.RedisURL != "" {
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := goredis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Не фатально: RedisGuard сам откатится на память при ошибках.
			logger.Warn("redis is not reachable, status guard will fall back to memory", slog.Any("error", err))
		}
		guard = services.NewRedisGuard(repositories.NewRedisLockRepository(rdb), cfg.StatusGuardTTL, logger)
		logger.Info("redis status guard enabled")
	}

	var uploader storage.FileUploader
	if cfg.StorageEnabled() {
		uploader, err = storage.NewS3Uploader(ctx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			BucketName:      cfg.S3BucketName,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize photo storage: %w", err)
		}
		logger.Info("photo storage initialized", slog.String("bucket", cfg.S3BucketName))
	} else {
		logger.Warn("photo storage is not configured, photo uploads are disabled")
	}

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	// Репозитории
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	rpcRepo := repositories.NewPostgresRPCRepository(dbConn)
	voteRepo := repositories.NewPostgresVoteRepository(dbConn)
	roleRepo := repositories.NewPostgresUserRoleRepository(dbConn)
	txRunner := repositories.NewTxRunner(dbConn)

	// Сервисы
	statusService := services.NewStatusService(participantRepo, txRunner, guard, hub, m, logger)
	participantService := services.NewParticipantService(participantRepo, rpcRepo, voteRepo, statusService, hub, logger)
	transitionService := services.NewTransitionService(rpcRepo, participantRepo, hub, m, logger)
	statsService := services.NewStatsService(rpcRepo, participantRepo)
	votingService := services.NewVotingService(participantRepo, voteRepo, hub, m)
	contestService := services.NewContestService(participantRepo, rpcRepo)
	exportService := services.NewExportService(participantRepo, cfg.ExportLocation)

	photoService := services.NewPhotoService(participantRepo, uploader, hub, m, logger)

	queueService, err := queue.NewService(ctx, cfg.DatabaseURL, transitionService, logger, queue.Options{
		ScheduleEnabled: cfg.TransitionScheduleEnabled,
		RunOnStart:      cfg.TransitionRunOnStart,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize queue: %w", err)
	}
	if err := queueService.Start(ctx); err != nil {
		return err
	}

	auth := middleware.NewAuthenticator(cfg.JWTSecretKey, roleRepo, logger)
	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Participants: handlers.NewParticipantHandler(participantService, photoService, exportService, logger),
		Transition:   handlers.NewTransitionHandler(transitionService),
		Stats:        handlers.NewStatsHandler(statsService),
		Contest:      handlers.NewContestHandler(contestService, votingService),
		WebSocket:    handlers.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins, logger),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": dbConn.PingContext,
			"queue":    queueService.HealthCheck,
		}),
		Metrics: metrics.Handler(reg),
	}, auth, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
	}
	if err := queueService.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop queue", slog.Any("error", err))
	}
	logger.Info("server shutdown complete")
	return nil
}
