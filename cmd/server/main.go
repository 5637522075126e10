package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/cart"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/catalog"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/orders"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/storefront"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	db := database.DB

	// Migrate shared models
	if err := database.MigrateShared(db); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	logging.WithDatabase(pgLogHandler)

	// Log cleanup
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone)

	// Infrastructure
	ctx := context.Background()
	kv := newCache(cfg)
	objects := newStorage(ctx, cfg)
	publisher := newPublisher(cfg)
	mail := newMailer(cfg)
	resolver := tenant.NewResolver(db, kv, cfg.PlatformBaseDomain, cfg.DomainCacheTTL)

	deps := &apps.Deps{
		DB:          db,
		Config:      cfg,
		Cache:       kv,
		Storage:     objects,
		Publisher:   publisher,
		Mailer:      mail,
		RequireAuth: middleware.JWTProtected(cfg),
	}

	// Marketplace modules
	plugins := []apps.Plugin{
		catalog.New(),
		storefront.New(),
		cart.New(),
		orders.New(),
	}

	// Migrate plugin models, then seed reference data
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(db, models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}
	for _, p := range plugins {
		if s, ok := p.(apps.Seeder); ok {
			if err := s.Seed(db); err != nil {
				slog.Error("plugin seed failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
		}
	}

	// Services
	authService := services.NewAuthService(db, cfg, kv, mail)
	settingsService := services.NewSettingsService(db, cfg.Currency)
	vendorService := services.NewVendorService(db, settingsService, resolver, publisher)
	domainService := services.NewDomainService(db, resolver)
	paymentService := services.NewPaymentService(db, publisher)
	adminService := services.NewAdminService(db)

	// Handlers
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Health:   handlers.NewHealthHandler(db, kv),
		Webhook:  handlers.NewWebhookHandler(paymentService, cfg.PaymentWebhookSecret),
		Legal:    handlers.NewLegalHandler(),
		Settings: handlers.NewStoreSettingsHandler(settingsService),
		Vendor:   handlers.NewVendorHandler(vendorService),
		Domain:   handlers.NewDomainHandler(domainService),
		Admin:    handlers.NewAdminHandler(adminService),
	}

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app; body limit leaves room for 5MB product images
	app := fiber.New(fiber.Config{
		BodyLimit:    8 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${host} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, deps, resolver, h, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "base_domain", cfg.PlatformBaseDomain)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if err := publisher.Close(); err != nil {
		slog.Error("event publisher close error", "error", err)
	}
	if closer, ok := kv.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Error("cache close error", "error", err)
		}
	}
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	// Close database connections
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

// newCache uses Redis when REDIS_ADDR is set so every replica shares domain mappings and
// OTP cooldowns; a single instance can run on the in-process cache.
func newCache(cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		slog.Warn("REDIS_ADDR not set, using in-memory cache")
		return cache.NewMemoryCache()
	}
	c, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		slog.Error("redis unavailable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	slog.Info("redis connected", "addr", cfg.RedisAddr)
	return c
}

func newStorage(ctx context.Context, cfg *config.Config) storage.ObjectStorage {
	if cfg.S3Bucket == "" {
		slog.Warn("S3_BUCKET not set, product images are kept in memory")
		return storage.NewStubStorage()
	}
	s, err := storage.NewS3Storage(ctx, storage.S3Config{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
		PublicURL:    cfg.S3PublicURL,
	})
	if err != nil {
		slog.Error("object storage init failed", "bucket", cfg.S3Bucket, "error", err)
		os.Exit(1)
	}
	return s
}

func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQPURL == "" {
		slog.Warn("AMQP_URL not set, domain events are dropped")
		return events.NoopPublisher{}
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		slog.Error("amqp connection failed", "error", err)
		os.Exit(1)
	}
	slog.Info("amqp connected", "exchange", cfg.AMQPExchange)
	return p
}

func newMailer(cfg *config.Config) mailer.Mailer {
	if cfg.SMTPHost == "" {
		slog.Warn("SMTP_HOST not set, emails are logged instead of sent")
		return mailer.NewLogMailer()
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
