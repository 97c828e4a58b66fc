// Package bootstrap assembles the service graph shared by the API server and
// the operator CLI.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-workflow/internal/auth"
	"github.com/spec-kit/ticket-workflow/internal/clock"
	"github.com/spec-kit/ticket-workflow/internal/config"
	"github.com/spec-kit/ticket-workflow/internal/events"
	"github.com/spec-kit/ticket-workflow/internal/observability"
	"github.com/spec-kit/ticket-workflow/internal/persistence"
	"github.com/spec-kit/ticket-workflow/internal/repository"
	"github.com/spec-kit/ticket-workflow/internal/repository/memory"
	"github.com/spec-kit/ticket-workflow/internal/roster"
	"github.com/spec-kit/ticket-workflow/internal/service"
	"github.com/spec-kit/ticket-workflow/internal/worker"
)

// Container holds every long-lived component.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Postgres *persistence.Postgres
	Redis    *persistence.Redis
	Store    repository.Store
	Tokens   *auth.TokenManager
	Outbox   *service.OutboxService
	Workflow *service.WorkflowService
	Queries  *service.QueryService
	Auth     *service.AuthService
}

// New connects to the configured backends and wires the services. Without a
// Postgres DSN everything runs on the in-memory store.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if pg.Pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	var store repository.Store
	if pg.Pool != nil {
		store = repository.NewPostgresStore(pg.Pool, logger)
	} else {
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	metrics := observability.NewMetrics()
	clk := clock.SystemClock{}
	ids := clock.UUIDGenerator{}

	var agents roster.Provider = roster.NewRepositoryProvider(store.Repos().Users)
	if redis.Enabled() {
		agents = roster.NewCachedProvider(agents, redis.Client, cfg.Redis.RosterTTL(), logger)
	}

	dispatcher := events.NewInMemoryDispatcher()
	var publisher service.Publisher
	if redis.Enabled() {
		publisher = redis
	}
	service.NewNotificationService(dispatcher, publisher, logger, cfg.Outbox).RegisterHandlers()

	outbox := service.NewOutboxService(service.OutboxDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Clock:      clk,
		IDs:        ids,
		Retry: service.RetryPolicy{
			MaxAttempts: cfg.Outbox.MaxAttempts,
			Base:        cfg.Outbox.BackoffBase(),
			Max:         cfg.Outbox.BackoffMax(),
		},
		Logger:  logger,
		Metrics: metrics,
	})
	workflow := service.NewWorkflowService(service.WorkflowDependencies{
		TxManager: store,
		Roster:    agents,
		Outbox:    outbox,
		Clock:     clk,
		IDs:       ids,
		Logger:    logger,
		Metrics:   metrics,
	})
	queries := service.NewQueryService(service.QueryDependencies{
		Store:    store,
		Workflow: workflow,
		Clock:    clk,
	})
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     store.Repos().Users,
		TokenManager: tokens,
		Clock:        clk,
		IDs:          ids,
	})

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		Postgres: pg,
		Redis:    redis,
		Store:    store,
		Tokens:   tokens,
		Outbox:   outbox,
		Workflow: workflow,
		Queries:  queries,
		Auth:     authService,
	}, nil
}

// OutboxWorker builds the polling worker from the outbox config.
func (c *Container) OutboxWorker() *worker.OutboxWorker {
	o := c.Config.Outbox
	return worker.NewOutboxWorker(c.Outbox, c.Logger, o.BatchSize, o.PollInterval(), o.Workers)
}

// Close releases backend connections.
func (c *Container) Close() {
	c.Redis.Close()
	c.Postgres.Close()
}
