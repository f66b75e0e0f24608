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

	inventoryapp "github.com/storefront/backend/internal/application/inventory"
	"github.com/storefront/backend/internal/application/notification"
	orderapp "github.com/storefront/backend/internal/application/order"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	returnsapp "github.com/storefront/backend/internal/application/returns"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	returnRepo := persistence.NewGormReturnRepository(db.DB)
	stockRepo := persistence.NewGormProductStockRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	_, _, _ = orderRepo, stockRepo, movementRepo
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Payment gateway
	gateway, err := payment.NewRazorpayAdapter(cfg.Gateway)
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	// Webhook idempotency store: Redis when reachable, otherwise a
	// process-local fallback that still dedupes within one instance
	idemStore := newIdempotencyStore(cfg, log)
	defer func() {
		if err := idemStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Event bus and application services
	eventBus := event.NewInMemoryEventBus(log)
	ledger := inventory.NewLedgerService()

	orderService := orderapp.NewService(txScope, ledger)
	orderService.SetSignatureVerifier(gateway)
	orderService.SetEventPublisher(eventBus)

	returnService := returnsapp.NewService(txScope, ledger, returnsapp.Policy{
		WindowDays: cfg.Policy.ReturnWindowDays,
	})
	returnService.SetEventPublisher(eventBus)

	inventoryService := inventoryapp.NewService(txScope, ledger)
	inventoryService.SetEventPublisher(eventBus)

	webhookService := paymentapp.NewWebhookService(paymentapp.WebhookServiceConfig{
		Gateway:          gateway,
		TxScope:          txScope,
		Ledger:           ledger,
		IdempotencyStore: idemStore,
		Idempotency: shared.IdempotencyConfig{
			TTL:     cfg.Policy.IdempotencyTTL,
			Enabled: true,
		},
		EventBus:        eventBus,
		AmountTolerance: cfg.Gateway.AmountTolerance,
		Logger:          log,
	})

	// Notification handlers react to domain events after commit
	mailer := mail.NewLogMailer(cfg.Mail.From, log)

	orderNotifications := notification.NewOrderNotificationHandler(mailer, log)
	eventBus.Subscribe(orderNotifications, orderNotifications.EventTypes()...)

	returnNotifications := notification.NewReturnNotificationHandler(returnRepo, mailer, log)
	eventBus.Subscribe(returnNotifications, returnNotifications.EventTypes()...)

	lowStockAlerts := notification.NewLowStockAlertHandler(cfg.Mail.OpsEmail, mailer, log)
	eventBus.Subscribe(lowStockAlerts, lowStockAlerts.EventTypes()...)

	log.Info("Event handlers registered",
		zap.Strings("order_events", orderNotifications.EventTypes()),
		zap.Strings("return_events", returnNotifications.EventTypes()),
		zap.Strings("low_stock_events", lowStockAlerts.EventTypes()),
	)

	// HTTP layer
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
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
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithHealthHandler(healthHandler(db)),
	)
	r.Register(handler.NewOrderHandler(orderService)).
		Register(handler.NewReturnHandler(returnService)).
		Register(handler.NewInventoryHandler(inventoryService)).
		Register(handler.NewWebhookHandler(webhookService))
	r.Setup()

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newIdempotencyStore connects to Redis and falls back to the in-memory
// store when Redis is not available at startup
func newIdempotencyStore(cfg *config.Config, log *zap.Logger) shared.IdempotencyStore {
	store, err := cache.NewRedisIdempotencyStore(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err),
		)
		return cache.NewInMemoryIdempotencyStore()
	}
	log.Info("Redis idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
	return store
}

// healthHandler reports liveness together with database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
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
