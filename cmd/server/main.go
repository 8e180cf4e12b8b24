package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/gateway"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Storefront Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, mapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Webhook dedupe store. Redis keeps processed callback IDs across
	// restarts; the in-memory store is a dev fallback.
	var idempotencyStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idempotencyStore = redisStore
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize repositories with transactional outbox event saving
	eventSaver := persistence.NewOutboxEventSaver()
	sessionRepo := persistence.NewGormSessionRepository(db.DB, eventSaver)
	gatewayConfigRepo := persistence.NewGormGatewayConfigRepository(db.DB, eventSaver)
	orderNumbers := persistence.NewGormOrderNumberGenerator(db.DB)
	outboxRepo := persistence.NewGormOutboxRepository(db.DB)

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenExpiration)
	checkoutService := checkoutapp.NewService(sessionRepo, gatewayConfigRepo, gateway.NewProviderFromConfig, log)
	webhookService := checkoutapp.NewWebhookService(
		sessionRepo,
		gatewayConfigRepo,
		gateway.NewProviderFromConfig,
		idempotencyStore,
		orderNumbers,
		cfg.Checkout.WebhookDedupeTTL,
		log,
	)
	providerRegistry := gateway.NewProviderRegistry()
	providerRegistry.Register(gateway.NewVNPayAdapter())
	providerRegistry.Register(gateway.NewPayOSAdapter())
	providerRegistry.Register(gateway.NewMoMoAdapter())
	gatewayConfigService := paymentapp.NewGatewayConfigService(gatewayConfigRepo, providerRegistry, gateway.NewProviderFromConfig, log)

	// Start the outbox processor when a broker connection is available
	if cfg.Outbox.ProcessorEnabled {
		publisher, err := event.NewRedisEventPublisher(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect event publisher", zap.Error(err))
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error("Error closing event publisher", zap.Error(err))
			}
		}()

		processorConfig := event.DefaultOutboxProcessorConfig()
		processorConfig.BatchSize = cfg.Outbox.BatchSize
		processorConfig.PollInterval = cfg.Outbox.PollInterval
		processorConfig.CleanupRetention = cfg.Outbox.CleanupRetention

		outboxProcessor := event.NewOutboxProcessor(outboxRepo, publisher, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
	}

	// Background sweeper for abandoned carts that ran out their session TTL
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go expirySweeper(sweeperCtx, checkoutService, cfg.Checkout, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Gateway callbacks are authenticated by signature, not by JWT
	webhookHandler := handler.NewWebhookHandler(webhookService, log)
	webhookGroup := engine.Group("/api/v1")
	webhookHandler.RegisterRoutes(webhookGroup)

	// Checkout is guest-friendly: a valid token attaches the user to the
	// session, but its absence is not an error
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Optional:   true,
		SkipPaths: []string{
			"/api/v1/system/info",
		},
		Logger: log,
	}))

	r.Register(handler.NewCheckoutHandler(checkoutService)).
		Register(handler.NewGatewayConfigHandler(gatewayConfigService)).
		Register(handler.NewSystemHandler(db))
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// expirySweeper periodically expires checkout sessions whose deadline passed
// while no customer request touched them
func expirySweeper(ctx context.Context, svc *checkoutapp.Service, cfg config.CheckoutConfig, log *zap.Logger) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := svc.ExpireStale(ctx, cfg.SweepBatchSize)
			if err != nil {
				log.Error("Expiry sweep failed", zap.Error(err))
				continue
			}
			if expired > 0 {
				log.Info("Expired stale checkout sessions", zap.Int("count", expired))
			}
		}
	}
}

// mapGormLogLevel translates the application log level to GORM's level
func mapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "info", "warn", "warning":
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
