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

	"github.com/fileflow/fileflow-api/internal/config"
	"github.com/fileflow/fileflow-api/internal/database"
	"github.com/fileflow/fileflow-api/internal/handler"
	"github.com/fileflow/fileflow-api/internal/middleware"
	"github.com/fileflow/fileflow-api/internal/models"
	"github.com/fileflow/fileflow-api/internal/repository"
	"github.com/fileflow/fileflow-api/internal/router"
	"github.com/fileflow/fileflow-api/internal/service"
	cloud "github.com/fileflow/fileflow-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Submission{},
		&models.Assignment{},
		&models.AssignmentMember{},
		&models.AssignmentComment{},
		&models.CommentReply{},
		&models.Notification{},
		&models.OutboxEvent{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	storage, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, "fileflow", natsConn, cfg.UnreadCacheTTL, logger)
	fanoutService := service.NewFanoutService(userRepo, assignmentRepo, commentRepo, outboxRepo, notificationService, cfg.OutboxRetryInterval, logger)
	submissionService := service.NewSubmissionService(submissionRepo, storage, fanoutService, validate, logger)
	reviewService := service.NewReviewService(submissionRepo, storage, fanoutService, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, userRepo, storage, fanoutService, validate, logger)
	commentService := service.NewCommentService(commentRepo, assignmentRepo, outboxRepo, fanoutService, validate, logger)
	userService := service.NewUserService(userRepo, outboxRepo, fanoutService, validate, cfg.JWTSecret, cfg.TokenTTL, logger)

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	notificationService.Start(rootCtx)
	go fanoutService.Run(rootCtx)

	userHandler := handler.NewUserHandler(userService, validate, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, reviewService, validate, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, commentService, validate, logger)
	commentHandler := handler.NewCommentHandler(commentService, validate, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, cfg.StreamKeepalive)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.UploadMaxMB * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		UserHandler:         userHandler,
		SubmissionHandler:   submissionHandler,
		AssignmentHandler:   assignmentHandler,
		CommentHandler:      commentHandler,
		NotificationHandler: notificationHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopBackground)
}

func waitForShutdown(app *fiber.App, stopBackground context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
