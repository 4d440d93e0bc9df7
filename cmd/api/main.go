package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/logging"
	"go-inventory-ledger/pkg/observability"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, zap.String("service", config.ServiceName))
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET is not set, using the built-in development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Tracing and log export
	otelCfg := observability.Config{
		ServiceName:    config.ServiceName,
		ServiceVersion: config.ServiceVersion,
		Endpoint:       cfg.OtelEndpoint,
		TracesPath:     config.OtelTracesPath,
		LogsPath:       config.OtelLogsPath,
		AuthHeader:     cfg.OtelAuthHeader,
		ExportTimeout:  config.OtelExportTimeout,
		MaxQueueSize:   config.OtelMaxQueueSize,
	}
	shutdownTracing, err := observability.SetupTracing(ctx, otelCfg)
	if err != nil {
		logger.Fatal("Failed to set up tracing", zap.Error(err))
	}
	logProvider, shutdownLogs, err := observability.SetupLogging(ctx, otelCfg)
	if err != nil {
		logger.Fatal("Failed to set up log export", zap.Error(err))
	}
	if cfg.OtelEndpoint != "" {
		logger = logging.WithOTel(logger, config.ServiceName, logProvider)
		logger.Info("Exporting traces and logs over OTLP", zap.String("endpoint", cfg.OtelEndpoint))
	}

	// 3. Setup Database
	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL, gormlogger.Warn)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database connected", zap.String("driver", cfg.DBDriver))

	store := repository.NewStore(db)

	// 4. Setup WebSocket Hub and event publishers
	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	publishers := events.Multi{wsHub}
	var kafkaPublisher *events.KafkaPublisher
	if cfg.KafkaBroker != "" {
		writer := events.NewKafkaWriter(cfg.KafkaBroker, cfg.KafkaTopic, config.KafkaBatchTimeout, logger)
		kafkaPublisher = events.NewKafkaPublisher(writer, logger)
		publishers = append(publishers, kafkaPublisher)
		logger.Info("Publishing ledger events to Kafka", zap.String("broker", cfg.KafkaBroker), zap.String("topic", cfg.KafkaTopic))
	}

	// 5. Dependency Injection (Wiring Layers)
	tokens := jwt.NewManager(cfg.JWTSecret, config.ServiceName, jwt.DefaultTTL)

	authService := service.NewAuthService(store.Users, tokens, logger)
	invService := service.NewInventoryService(store, publishers, logger)
	dashService := service.NewDashboardService(store, cfg.LowStockThreshold)
	userService := service.NewUserService(store.Users, logger)

	if _, err := authService.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Warn("Failed to seed admin user", zap.Error(err))
	}

	// 6. Setup Fiber
	app := handler.NewApp("Inventory Ledger v"+config.ServiceVersion, logger)
	app.Use(fiberlogger.New())

	// 7. Routes
	handler.SetupRoutes(app, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Inventory: handler.NewInventoryHandler(invService, cfg.DisplayOffset),
		Dashboard: handler.NewDashboardHandler(dashService),
		Users:     handler.NewUserHandler(userService),
		Roles:     handler.NewRoleHandler(),
	}, authService)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Serve(ctx, c)
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Panic("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("Failed to flush Kafka writer", zap.Error(err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}
	if err := shutdownLogs(shutdownCtx); err != nil {
		logger.Error("Failed to flush logs", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("Server exited")
}
