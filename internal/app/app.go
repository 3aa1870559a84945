// Package app assembles the service graph shared by the HTTP server and the
// command line tool.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/knowledge"
	"github.com/spec-kit/helpdesk-service/internal/llm"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

// llmHTTPTimeout bounds a single classification round trip.
const llmHTTPTimeout = 60 * time.Second

// Container holds the wired services and the connections they own.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	Tickets   repository.TicketRepository
	Knowledge *knowledge.FileStore
	Postgres  *persistence.Postgres
	Redis     *persistence.Redis
	sqlite    *sql.DB

	Dispatcher    events.Dispatcher
	TicketService *service.TicketService
	ReportService *service.ReportService
	AuthService   *service.AuthService
	TokenManager  *auth.TokenManager
}

// Build opens the configured ticket store, seeds the knowledge base and wires
// the services. A missing classification key leaves the classifier unset
// instead of failing.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    observability.NewMetrics(),
		Dispatcher: events.NewInMemoryDispatcher(),
	}

	tickets, err := c.openTicketStore(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Tickets = tickets

	c.Knowledge = knowledge.NewFileStore(cfg.Store.KnowledgeBasePath, logger)
	if err := c.Knowledge.EnsureDefaults(); err != nil {
		logger.Warn("could not seed knowledge base", zap.String("path", cfg.Store.KnowledgeBasePath), zap.Error(err))
	}

	c.Redis = persistence.NewRedis(ctx, cfg.Redis, logger)
	classifier, classifierErr := c.buildClassifier()
	if classifierErr != nil {
		logger.Warn("classification disabled", zap.Error(classifierErr))
	}

	notifications := service.NewNotificationService(c.Dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notifications, logger)

	c.TicketService = service.NewTicketService(service.TicketDependencies{
		TicketRepo:    c.Tickets,
		Classifier:    classifier,
		ClassifierErr: classifierErr,
		Dispatcher:    c.Dispatcher,
		Metrics:       c.Metrics,
		Logger:        logger,
	})
	c.ReportService = service.NewReportService(c.Tickets, c.Knowledge)

	c.TokenManager = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	c.AuthService = service.NewAuthService(cfg.Auth, c.TokenManager)
	return c, nil
}

func (c *Container) openTicketStore(ctx context.Context) (repository.TicketRepository, error) {
	cfg := c.Config
	switch cfg.Store.Backend {
	case config.StoreSQLite:
		db, err := persistence.OpenSQLite(ctx, cfg.Store.SQLitePath, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		c.sqlite = db
		return repository.NewSQLiteTicketRepository(db, c.Logger), nil
	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.Postgres = pg
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, c.Logger); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return repository.NewPostgresTicketRepository(pg.PoolHandle(), c.Logger), nil
	default:
		repo, err := repository.NewCSVTicketRepository(cfg.Store.TicketsPath, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("open csv store: %w", err)
		}
		return repo, nil
	}
}

func (c *Container) buildClassifier() (llm.Classifier, error) {
	completer, err := llm.NewCompleter(c.Config.LLM, &http.Client{Timeout: llmHTTPTimeout})
	if err != nil {
		return nil, err
	}

	var opts []llm.GatewayOption
	if c.Config.LLM.IncludeKnowledge {
		opts = append(opts, llm.WithKnowledgeBase(c.Knowledge))
	}
	var classifier llm.Classifier = llm.NewGateway(completer, c.Logger, opts...)
	if c.Redis != nil {
		classifier = llm.NewCachedClassifier(classifier, llm.NewRedisCache(c.Redis.Client), c.Config.LLM.CacheTTL, c.Logger)
	}
	return classifier, nil
}

// Close releases every connection Build opened.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.sqlite != nil {
		_ = c.sqlite.Close()
	}
	c.Postgres.Close()
	c.Redis.Close()
}
