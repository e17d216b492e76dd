package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fulfillment/internal/config"
	"fulfillment/internal/handlers"
	"fulfillment/internal/middleware"
	"fulfillment/internal/repositories"
	"fulfillment/internal/services"
	"fulfillment/pkg/gateway"
	applogger "fulfillment/pkg/logger"
	"fulfillment/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load(viper.New())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := applogger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// --- Database ---
	db, err := openDatabase(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := repositories.AutoMigrate(db); err != nil {
		zlog.Fatal("Failed to migrate database", zap.Error(err))
	}
	store := repositories.NewGORMStore(db)

	// --- RabbitMQ ---
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.NotificationQueue}, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize RabbitMQ client", zap.Error(err))
	}
	defer mqClient.Close()

	// --- Services ---
	tokens := services.NewTokenService(cfg.JWTSecret, services.DefaultTokenTTL)
	stockAlerts := services.NewStockAlertService(store, mqClient, cfg.LowStockThreshold, zlog)
	alerts := services.NewAsyncStockAlerts(stockAlerts, cfg.StockAlertWorkers, zlog)
	orderService := services.NewOrderService(store, zlog)
	paymentService := services.NewPaymentService(
		store,
		gateway.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
		alerts,
		services.PaymentConfig{Currency: cfg.PaymentCurrency, GatewayTimeout: cfg.GatewayTimeout},
		zlog,
	)
	worker := services.NewNotificationWorker(services.NewLogSender(zlog), zlog)

	app := newApp(tokens, orderService, paymentService, zlog)

	// --- Notification consumer ---
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go func() {
		if err := mqClient.Consume(consumerCtx, worker.Handle); err != nil {
			zlog.Error("Notification consumer stopped", zap.Error(err))
		}
	}()

	// --- HTTP server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zlog.Info("Starting server", zap.String("port", cfg.Port))
		if err := app.Listen(cfg.Port); err != nil {
			zlog.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	zlog.Info("Shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("Error during Fiber shutdown", zap.Error(err))
	}
	// In-flight stock checks may still enqueue jobs.
	alerts.Wait()
	stopConsumer()
	zlog.Info("Server gracefully stopped")
}

// newApp builds the fiber app with every route registered.
func newApp(tokens *services.TokenService, orders *services.OrderService, payments *services.PaymentService, zlog *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{AppName: "fulfillment"})
	app.Use(recover.New())
	app.Use(logger.New())

	auth := middleware.AuthRequired(tokens, zlog)
	apiV1 := app.Group("/api/v1")
	handlers.NewOrderHandler(orders, zlog).RegisterRoutes(apiV1, auth)
	handlers.NewPaymentHandler(payments, zlog).RegisterRoutes(apiV1, auth)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	return app
}

func openDatabase(driver, dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), gormCfg)
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
