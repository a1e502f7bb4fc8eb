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

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/competition-system/config"
	"github.com/Dosada05/competition-system/db"
	_ "github.com/Dosada05/competition-system/docs"
	"github.com/Dosada05/competition-system/export"
	"github.com/Dosada05/competition-system/handlers"
	"github.com/Dosada05/competition-system/live"
	"github.com/Dosada05/competition-system/repositories"
	api "github.com/Dosada05/competition-system/routes"
	"github.com/Dosada05/competition-system/services"
	"github.com/Dosada05/competition-system/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("gate_stage", cfg.GateStageSlug))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.ApplySchema(ctx, dbConn); err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.UploadsEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, material uploads are disabled")
	}

	var sheets services.SheetExporter
	if cfg.SheetsExportEnabled() {
		exporter, err := export.NewSheetsExporter(ctx, cfg.GoogleServiceAccountJSON, cfg.ExportSpreadsheetID)
		if err != nil {
			logger.Error("failed to initialize Google Sheets exporter", slog.Any("error", err))
			os.Exit(1)
		}
		sheets = exporter
		logger.Info("Google Sheets exporter initialized")
	}

	hub := live.NewHub(logger)
	go hub.Run(ctx)
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	progressRepo := repositories.NewPostgresProgressRepository(dbConn)
	assignmentRepo := repositories.NewPostgresAssignmentRepository(dbConn)
	submissionRepo := repositories.NewPostgresSubmissionRepository(dbConn)
	materialRepo := repositories.NewPostgresMaterialRepository(dbConn)
	txManager := repositories.NewTxManager(dbConn)

	validator := services.NewValidator()
	gate := services.NewStageGate(teamRepo, stageRepo, progressRepo, cfg.GateStageSlug)

	authService := services.NewAuthService(userRepo, validator, cfg.AdminEmails)
	stageService := services.NewStageService(stageRepo, validator)
	teamService := services.NewTeamService(txManager, teamRepo, userRepo, validator, hub, logger)
	progressService := services.NewProgressService(txManager, progressRepo, stageRepo, teamRepo, hub, logger)
	assignmentService := services.NewAssignmentService(assignmentRepo, submissionRepo, stageRepo, gate, validator)
	submissionService := services.NewSubmissionService(txManager, submissionRepo, assignmentRepo, gate, sheets, validator, hub, logger)
	materialService := services.NewMaterialService(materialRepo, stageRepo, gate, uploader, validator, logger)
	sweeper := services.NewSweeper(progressRepo, hub, logger)

	go sweeper.Start(ctx, cfg.SweeperInterval)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.JWTSecretKey, cfg.JWTTTL),
		Stages:     handlers.NewStageHandler(stageService),
		Teams:      handlers.NewTeamHandler(teamService),
		Progress:   handlers.NewProgressHandler(progressService, gate, teamService),
		Assignment: handlers.NewAssignmentHandler(assignmentService, teamService),
		Submission: handlers.NewSubmissionHandler(submissionService, teamService),
		Materials:  handlers.NewMaterialHandler(materialService, teamService),
		Sweeper:    handlers.NewSweeperHandler(sweeper),
		WebSocket:  handlers.NewWebSocketHandler(hub, teamService, cfg.CORSAllowedOrigins),
	}, cfg.JWTSecretKey, cfg.CORSAllowedOrigins)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// WriteTimeout не ставим: он рвёт websocket-соединения; обычные запросы ограничены middleware.Timeout
		IdleTimeout: 120 * time.Second,
		ErrorLog:    slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
