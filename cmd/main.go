package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"monitoring-service/internal/config"
	"monitoring-service/internal/database/minio"
	"monitoring-service/internal/database/postgres"
	"monitoring-service/internal/database/redis"
	"monitoring-service/internal/event"
	"monitoring-service/internal/handlers"
	"monitoring-service/internal/models"
	"monitoring-service/internal/observability"
	"monitoring-service/internal/providers"
	"monitoring-service/internal/repository"
	"monitoring-service/internal/services"
	"monitoring-service/internal/worker"
)

func setupLogging() *os.File {
	logDir := filepath.Join("/agrisa", "log", "monitoring_service")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		slog.Warn("failed to create log directory, logging to stdout", "error", err)
		return nil
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("failed to open log file, logging to stdout", "error", err)
		return nil
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
	return file
}

func main() {
	if logFile := setupLogging(); logFile != nil {
		defer logFile.Close()
	}

	cfg := config.New()
	clock := clockwork.NewRealClock()

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		slog.Error("failed to connect to database, retrying in background", "error", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}

	redisClient, err := redis.NewRedisClient(cfg.RedisCfg)
	if err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		slog.Error("failed to connect to MinIO", "error", err)
		os.Exit(1)
	}

	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		slog.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer rabbitConn.Close()

	metrics := observability.NewMetrics()

	// Repositories.
	fieldRepo := repository.NewFieldRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	evidenceRepo := repository.NewEvidenceRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	// External providers and sinks.
	imageryClient := providers.NewImageryClient(providers.ImageryConfig{
		BaseURL:          cfg.ImageryCfg.BaseURL,
		TokenURL:         cfg.ImageryCfg.TokenURL,
		ClientID:         cfg.ImageryCfg.ClientID,
		ClientSecret:     cfg.ImageryCfg.ClientSecret,
		Timeout:          cfg.ImageryCfg.Timeout,
		MaxCloudCoverage: cfg.ImageryCfg.MaxCloudCoverage,
	}, clock)
	weatherClient := providers.NewWeatherClient(providers.WeatherConfig{
		BaseURL: cfg.WeatherCfg.BaseURL,
		APIKey:  cfg.WeatherCfg.APIKey,
		Timeout: cfg.WeatherCfg.Timeout,
	}, clock)
	alertPublisher, err := event.NewAlertPublisher(rabbitConn)
	if err != nil {
		slog.Error("failed to initialize alert publisher", "error", err)
		os.Exit(1)
	}
	sweepLock := redis.NewSweepLock(redisClient)
	evidenceArchive := minio.NewEvidenceArchive(minioClient)

	// Services.
	fieldService := services.NewFieldService(fieldRepo, clock)
	analysisService := services.NewAnalysisService(fieldRepo, imageryClient, snapshotRepo, clock)
	alertService := services.NewAlertService(
		fieldRepo, alertRepo, weatherClient, alertPublisher, sweepLock,
		clock, metrics, services.AlertServiceConfig{
			AlertThreshold:    cfg.MonitoringCfg.AlertThreshold,
			SuppressionWindow: cfg.MonitoringCfg.SuppressionWindow,
			AlertValidity:     cfg.MonitoringCfg.AlertValidity,
			FieldTimeout:      cfg.MonitoringCfg.FieldTimeout,
			SweepWorkers:      cfg.MonitoringCfg.SweepWorkers,
		})
	claimService := services.NewClaimValidationService(evidenceRepo, evidenceArchive, clock, metrics)

	verificationService, err := services.NewVerificationService(
		propertyRepo,
		[]services.LayerEvaluator{
			&services.CoordinatePlausibilityLayer{Region: models.BoundingBox{
				MinLon: cfg.MonitoringCfg.ServiceRegion.MinLon,
				MinLat: cfg.MonitoringCfg.ServiceRegion.MinLat,
				MaxLon: cfg.MonitoringCfg.ServiceRegion.MaxLon,
				MaxLat: cfg.MonitoringCfg.ServiceRegion.MaxLat,
			}},
			&services.BoundaryGeometryLayer{},
			&services.DocumentCrossrefLayer{Registry: documentRepo},
			&services.VegetationHealthLayer{Snapshots: snapshotRepo},
			&services.RecordCompletenessLayer{},
		},
		cfg.MonitoringCfg.LayerTimeout, clock, metrics)
	if err != nil {
		slog.Error("failed to build verification service", "error", err)
		os.Exit(1)
	}

	// Background sweep.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := worker.NewPool(cfg.MonitoringCfg.SweepWorkers, 32)
	var workerWg sync.WaitGroup
	workerWg.Add(1)
	go pool.Start(ctx, &workerWg)

	scheduler := worker.NewScheduler("monitoring", cfg.MonitoringCfg.SweepInterval, clock, pool)
	scheduler.AddJob(worker.NamedJob{Name: "alert-sweep", Run: alertService.SweepOnce})
	go scheduler.Run(ctx)

	// HTTP surface.
	app := fiber.New()

	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Monitoring service is healthy")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.NewFieldHandler(fieldService).RegisterRoutes(app)
	handlers.NewAnalysisHandler(analysisService, snapshotRepo).RegisterRoutes(app)
	handlers.NewAlertHandler(alertService, alertRepo).RegisterRoutes(app)
	handlers.NewClaimHandler(claimService, evidenceRepo).RegisterRoutes(app)
	handlers.NewVerificationHandler(verificationService, propertyRepo).RegisterRoutes(app)
	handlers.NewDashboardHandler(dashboardRepo, alertPublisher).RegisterRoutes(app)

	go func() {
		<-ctx.Done()
		slog.Info("Shutdown signal received, stopping HTTP server")
		if err := app.Shutdown(); err != nil {
			slog.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	slog.Info("Monitoring service starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("HTTP server stopped", "error", err)
	}

	stop()
	workerWg.Wait()
	slog.Info("Monitoring service stopped")
}
