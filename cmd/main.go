package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/bracket-manager/brackets"
	"github.com/Dosada05/bracket-manager/config"
	"github.com/Dosada05/bracket-manager/db"
	"github.com/Dosada05/bracket-manager/handlers"
	"github.com/Dosada05/bracket-manager/middleware"
	"github.com/Dosada05/bracket-manager/repositories"
	"github.com/Dosada05/bracket-manager/repositories/memory"
	api "github.com/Dosada05/bracket-manager/routes"
	"github.com/Dosada05/bracket-manager/services"
	"github.com/Dosada05/bracket-manager/storage"
	"github.com/Dosada05/bracket-manager/views"
)

// @title Bracket Manager API
// @version 1.0
// @description Tournaments, participants and bracket data for brackets-viewer.js.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	os.Exit(run())
}

// run returns the process exit code once the server has stopped.
func run() int {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", slog.Any("error", err))
		return 1
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("storage", cfg.StorageDriver))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Хранилище
	var (
		tournamentRepo  repositories.TournamentRepository
		participantRepo repositories.ParticipantRepository
		userRepo        repositories.UserRepository
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memory.NewStore()
		tournamentRepo, participantRepo, userRepo = store.Tournaments(), store.Participants(), store.Users()
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		dbConn, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolConfig{MaxOpenConns: cfg.DBMaxOpenConns})
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			return 1
		}
		defer closeDB(logger, dbConn)
		logger.Info("database connection established")

		if err := db.Migrate(dbConn); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			return 1
		}
		logger.Info("database migrations applied")

		tournamentRepo = repositories.NewPostgresTournamentRepository(dbConn)
		participantRepo = repositories.NewPostgresParticipantRepository(dbConn)
		userRepo = repositories.NewPostgresUserRepository(dbConn)
	}
	logger.Info("repositories initialized")

	// Снимки сеток в Cloudflare R2 (необязательно)
	var uploader storage.FileUploader
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			return 1
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Info("Cloudflare R2 is not configured, bracket snapshots are disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, logger)
	snapshotPublisher := services.NewSnapshotPublisher(uploader, tournamentRepo, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, participantRepo, snapshotPublisher, wsHub, logger)
	participantService := services.NewParticipantService(participantRepo, tournamentService, logger)
	viewerService := services.NewViewerService(tournamentService, participantService, services.DefaultViews(), logger)

	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("failed to bootstrap admin user", slog.Any("error", err))
		return 1
	}
	logger.Info("services initialized")

	// Инициализация обработчиков HTTP
	assets := views.Assets{
		ManagerURL:   cfg.BracketsManagerURL,
		ViewerJSURL:  cfg.BracketsViewerJSURL,
		ViewerCSSURL: cfg.BracketsViewerCSSURL,
	}
	h := api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		User:        handlers.NewUserHandler(authService),
		Tournament:  handlers.NewTournamentHandler(tournamentService, viewerService),
		Participant: handlers.NewParticipantHandler(participantService),
		Views:       handlers.NewViewsHandler(viewerService),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, tournamentService, originChecker(cfg.CORSAllowedOrigins), logger),
		Admin:       handlers.NewAdminHandler(tournamentService, participantService, viewerService, authService, assets, cfg.JWTSecretKey, logger),
	}
	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey, cfg.AnonymousCanView, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, authenticator, cfg.CORSAllowedOrigins)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			return 1
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	// Закрывает WebSocket соединения.
	stop()
	logger.Info("application exited")
	return 0
}

func closeDB(logger *slog.Logger, dbConn *sql.DB) {
	if err := dbConn.Close(); err != nil {
		logger.Error("failed to close database connection", slog.Any("error", err))
		return
	}
	logger.Info("database connection closed")
}

// originChecker разрешает WebSocket с того же хоста и с CORS-источников.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if u.Host == r.Host {
			return true
		}
		return slices.Contains(allowed, origin) || slices.Contains(allowed, "*")
	}
}
