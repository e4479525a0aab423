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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/asramahub/asrama-go-api/internal/config"
	"github.com/asramahub/asrama-go-api/internal/database"
	"github.com/asramahub/asrama-go-api/internal/handler"
	"github.com/asramahub/asrama-go-api/internal/middleware"
	"github.com/asramahub/asrama-go-api/internal/models"
	"github.com/asramahub/asrama-go-api/internal/repository"
	"github.com/asramahub/asrama-go-api/internal/router"
	"github.com/asramahub/asrama-go-api/internal/service"
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

	if err := db.AutoMigrate(&models.Room{}, &models.Student{}, &models.DisciplinaryAction{}, &models.ActivityLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	txRunner := repository.NewTxRunner(db)
	roomRepo := repository.NewRoomRepository(db, cfg.BuildingPolicies)
	studentRepo := repository.NewStudentRepository(db)
	disciplinaryRepo := repository.NewDisciplinaryRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	publisher := service.NewEventPublisher(natsConn, redisClient, cfg.EventChannelBase, logger)
	enforcementService := service.NewEnforcementService(roomRepo, studentRepo, cfg.EnforcementThreshold, logger)
	assignmentService := service.NewAssignmentService(txRunner, roomRepo, studentRepo, activityService, validate, logger)
	disciplineService := service.NewDisciplineService(
		txRunner, studentRepo, disciplinaryRepo, enforcementService, publisher, activityService,
		redisClient, cfg.ScoreCacheTTL, cfg.SeverityPoints, cfg.ConductBaseScore, validate, logger,
	)
	roomService := service.NewRoomService(roomRepo, activityService, validate, logger)

	roomHandler := handler.NewRoomHandler(roomService, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	disciplineHandler := handler.NewDisciplineHandler(disciplineService, logger)
	studentHandler := handler.NewStudentHandler(assignmentService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		RoomHandler:       roomHandler,
		AssignmentHandler: assignmentHandler,
		DisciplineHandler: disciplineHandler,
		StudentHandler:    studentHandler,
		ActivityHandler:   activityHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
