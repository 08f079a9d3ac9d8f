package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/config"
	"github.com/noah-isme/gema-assessment-api/internal/database"
	"github.com/noah-isme/gema-assessment-api/internal/events"
	"github.com/noah-isme/gema-assessment-api/internal/handler"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
	"github.com/noah-isme/gema-assessment-api/internal/router"
	"github.com/noah-isme/gema-assessment-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "production" {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured; summary cache disabled")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not configured; domain events disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	publisher := events.NewNATSPublisher(natsConn, cfg.EventsSubject, logger)
	summaryCache := service.NewSummaryCache(redisClient, cfg.SummaryCacheTTL, logger)

	studentRepo := repository.NewStudentRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	assignmentRepo := repository.NewAssessmentAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	assessmentService := service.NewAssessmentService(assessmentRepo, validate, activityService, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, assessmentRepo, validate, activityService, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Submissions: submissionRepo,
		Assessments: assessmentRepo,
		Assignments: assignmentRepo,
		Students:    studentRepo,
		Validator:   validate,
		Cache:       summaryCache,
		Publisher:   publisher,
	}, logger)
	gradingService := service.NewGradingService(submissionRepo, assessmentRepo, validate, activityService, summaryCache, publisher, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:    &logger,
		AccessLog: cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler: handler.NewAssessmentHandler(assessmentService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		GradingHandler:    handler.NewGradingHandler(gradingService, submissionService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		Health:            handler.HealthDependencies{DB: db, Redis: redisClient, NATS: natsConn},
		JWTMiddleware:     middleware.JWTProtected(middleware.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}),
		SubmitLimiter:     middleware.RateLimit("assessment-submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow, "id"),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
