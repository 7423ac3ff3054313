// Package app wires the application dependency graph.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	catalogApp "github.com/vaahanlabs/pitstop/internal/catalog/application"
	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	catalogCache "github.com/vaahanlabs/pitstop/internal/catalog/infrastructure/cache"
	catalogPersistence "github.com/vaahanlabs/pitstop/internal/catalog/infrastructure/persistence"
	identityDomain "github.com/vaahanlabs/pitstop/internal/identity/domain"
	identityPersistence "github.com/vaahanlabs/pitstop/internal/identity/infrastructure/persistence"
	orderCommands "github.com/vaahanlabs/pitstop/internal/orders/application/commands"
	orderJobs "github.com/vaahanlabs/pitstop/internal/orders/application/jobs"
	orderQueries "github.com/vaahanlabs/pitstop/internal/orders/application/queries"
	ordersDomain "github.com/vaahanlabs/pitstop/internal/orders/domain"
	orderPersistence "github.com/vaahanlabs/pitstop/internal/orders/infrastructure/persistence"
	paymentDomain "github.com/vaahanlabs/pitstop/internal/payment/domain"
	"github.com/vaahanlabs/pitstop/internal/payment/infrastructure/razorpay"
	sharedApplication "github.com/vaahanlabs/pitstop/internal/shared/application"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/eventbus"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/vaahanlabs/pitstop/internal/shared/infrastructure/persistence"
	subscriptionCommands "github.com/vaahanlabs/pitstop/internal/subscription/application/commands"
	subscriptionQueries "github.com/vaahanlabs/pitstop/internal/subscription/application/queries"
	subscriptionDomain "github.com/vaahanlabs/pitstop/internal/subscription/domain"
	subscriptionPersistence "github.com/vaahanlabs/pitstop/internal/subscription/infrastructure/persistence"
	"github.com/vaahanlabs/pitstop/pkg/config"
	"github.com/vaahanlabs/pitstop/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics

	// Database
	DB *pgxpool.Pool

	// Redis
	RedisClient *redis.Client

	// Repositories
	ServiceRepo     catalogDomain.ServiceRepository
	PlanRepo        catalogDomain.SubscriptionPlanRepository
	OneTimePlanRepo catalogDomain.OneTimePlanRepository
	UserRepo        identityDomain.UserRepository
	LedgerRepo      subscriptionDomain.Repository
	OrderRepo       ordersDomain.Repository
	OutboxRepo      outbox.Repository

	// Payment gateway
	Gateway paymentDomain.Gateway

	// Publishers
	EventPublisher eventbus.Publisher

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Catalog
	CatalogService *catalogApp.Service

	// Subscription command handlers
	PurchaseHandler       *subscriptionCommands.PurchaseHandler
	UpgradeHandler        *subscriptionCommands.UpgradeHandler
	RenewHandler          *subscriptionCommands.RenewHandler
	VerifyPurchaseHandler *subscriptionCommands.VerifyPurchaseHandler
	VerifyUpgradeHandler  *subscriptionCommands.VerifyUpgradeHandler
	VerifyRenewalHandler  *subscriptionCommands.VerifyRenewalHandler
	ConsumeUnitHandler    *subscriptionCommands.ConsumeUnitHandler
	RefundUnitHandler     *subscriptionCommands.RefundUnitHandler
	ApplyDueRenewals      *subscriptionCommands.ApplyDueRenewalsHandler

	// Subscription query handlers
	PlanStateQuery *subscriptionQueries.PlanStateQuery

	// Order command handlers
	CreateOneTimeOrderHandler      *orderCommands.CreateOneTimeOrderHandler
	CreateSubscriptionOrderHandler *orderCommands.CreateSubscriptionOrderHandler
	VerifyPaymentHandler           *orderCommands.VerifyPaymentHandler
	AcceptOrderHandler             *orderCommands.AcceptOrderHandler
	RejectByTimeoutHandler         *orderCommands.RejectByTimeoutHandler

	// Order query handlers
	OrderQuery *orderQueries.OrderQuery

	// Background jobs
	RejectSweep *orderJobs.RejectSweep

	// Outbox Processor
	OutboxProcessor *outbox.Processor
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	// Metrics stay in-process: in-memory in development, noop elsewhere.
	if cfg.IsDevelopment() {
		c.Metrics = observability.NewInMemoryMetrics()
	} else {
		c.Metrics = observability.NoopMetrics{}
	}

	// Connect to PostgreSQL
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	c.DB = pool
	logger.Info("connected to database")

	// Connect to Redis (optional in development; the plan cache falls back
	// to hitting Postgres directly when absent)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				pool.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, plan cache disabled", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					pool.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, plan cache disabled", "error", err)
			} else {
				c.RedisClient = redisClient
				logger.Info("connected to Redis")
			}
		}
	}

	// Create repositories
	c.ServiceRepo = catalogPersistence.NewPostgresServiceRepository(pool)
	planRepo := catalogDomain.SubscriptionPlanRepository(catalogPersistence.NewPostgresSubscriptionPlanRepository(pool))
	if c.RedisClient != nil {
		planRepo = catalogCache.NewCachedSubscriptionPlanRepository(planRepo, c.RedisClient, cfg.CatalogCacheTTL, logger)
	}
	c.PlanRepo = planRepo
	c.OneTimePlanRepo = catalogPersistence.NewPostgresOneTimePlanRepository(pool)
	c.UserRepo = identityPersistence.NewPostgresUserRepository(pool)
	c.LedgerRepo = subscriptionPersistence.NewPostgresLedgerRepository(pool)
	c.OrderRepo = orderPersistence.NewPostgresOrderRepository(pool)
	c.OutboxRepo = outbox.NewPostgresRepository(pool)
	c.UnitOfWork = sharedPersistence.NewPostgresUnitOfWork(pool)

	// Create payment gateway client
	c.Gateway = razorpay.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, logger).
		WithMetrics(c.Metrics)

	// Create event publisher
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		// Fall back to noop publisher in development
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}

	// Create catalog service
	c.CatalogService = catalogApp.NewService(c.ServiceRepo, c.PlanRepo, c.OneTimePlanRepo, logger)

	// Create subscription command handlers
	c.PurchaseHandler = subscriptionCommands.NewPurchaseHandler(c.UserRepo, c.PlanRepo, c.LedgerRepo, c.Gateway, cfg.Currency, logger)
	c.UpgradeHandler = subscriptionCommands.NewUpgradeHandler(c.UserRepo, c.PlanRepo, c.LedgerRepo, c.Gateway, cfg.Currency, logger)
	c.RenewHandler = subscriptionCommands.NewRenewHandler(c.UserRepo, c.PlanRepo, c.LedgerRepo, c.Gateway, cfg.Currency, logger)
	c.VerifyPurchaseHandler = subscriptionCommands.NewVerifyPurchaseHandler(c.LedgerRepo, c.PlanRepo, c.Gateway, c.OutboxRepo, c.UnitOfWork, logger)
	c.VerifyUpgradeHandler = subscriptionCommands.NewVerifyUpgradeHandler(c.LedgerRepo, c.PlanRepo, c.Gateway, c.OutboxRepo, c.UnitOfWork, logger)
	c.VerifyRenewalHandler = subscriptionCommands.NewVerifyRenewalHandler(c.LedgerRepo, c.PlanRepo, c.Gateway, c.OutboxRepo, c.UnitOfWork, logger)
	c.ConsumeUnitHandler = subscriptionCommands.NewConsumeUnitHandler(c.LedgerRepo, c.OutboxRepo, c.UnitOfWork, logger)
	c.RefundUnitHandler = subscriptionCommands.NewRefundUnitHandler(c.LedgerRepo, c.OutboxRepo, c.UnitOfWork, logger)
	c.ApplyDueRenewals = subscriptionCommands.NewApplyDueRenewalsHandler(c.LedgerRepo, c.PlanRepo, c.OutboxRepo, c.UnitOfWork, logger)

	// Create subscription query handlers
	c.PlanStateQuery = subscriptionQueries.NewPlanStateQuery(c.LedgerRepo)

	// Create order command handlers
	c.CreateOneTimeOrderHandler = orderCommands.NewCreateOneTimeOrderHandler(c.UserRepo, c.OneTimePlanRepo, c.OrderRepo, c.Gateway, c.OutboxRepo, c.UnitOfWork, cfg.Currency, logger)
	c.CreateSubscriptionOrderHandler = orderCommands.NewCreateSubscriptionOrderHandler(c.UserRepo, c.LedgerRepo, c.ConsumeUnitHandler, c.OrderRepo, c.OutboxRepo, c.UnitOfWork, logger)
	c.VerifyPaymentHandler = orderCommands.NewVerifyPaymentHandler(c.UserRepo, c.OrderRepo, c.Gateway, c.OutboxRepo, c.UnitOfWork, logger)
	c.AcceptOrderHandler = orderCommands.NewAcceptOrderHandler(c.UserRepo, c.OrderRepo, c.OutboxRepo, c.UnitOfWork, logger)
	c.RejectByTimeoutHandler = orderCommands.NewRejectByTimeoutHandler(c.OrderRepo, c.RefundUnitHandler, c.OutboxRepo, c.UnitOfWork, logger)

	// Create order query handlers
	c.OrderQuery = orderQueries.NewOrderQuery(c.OrderRepo)

	// Create background jobs
	c.RejectSweep = orderJobs.NewRejectSweep(c.OrderRepo, c.RejectByTimeoutHandler, cfg.OrderGraceWindow, logger)

	// Create outbox processor
	processorConfig := outbox.ProcessorConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxRetries:   cfg.OutboxMaxRetries,
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, logger)

	return c, nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("PostgreSQL connection closed")
	}
}
