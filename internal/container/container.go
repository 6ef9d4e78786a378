package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"catalog/selector/internal/catalog"
	"catalog/selector/internal/client"
	"catalog/selector/internal/config"
	"catalog/selector/internal/queue"
	"catalog/selector/internal/repository"
	"catalog/selector/internal/server"
	"catalog/selector/internal/service"
	"catalog/selector/internal/session"
	"catalog/selector/internal/state"
)

// Container holds all initialized components
type Container struct {
	Config   *config.Config
	Catalog  *catalog.Catalog
	Sessions *session.Manager
	Server   *server.Server

	// Service is nil unless both Redis and the database are enabled.
	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// ConfigureLogging applies the log level and format from cfg.
func ConfigureLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
	}

	if cfg.Database.Enabled {
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db

		if err := repository.EnsureSchema(ctx, db); err != nil {
			c.Close()
			return nil, err
		}
		log.Info("✅ Connected to database successfully")
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		c.redis = rdb

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")
	}

	cat, err := c.loadCatalog(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Catalog = cat

	var store session.Store
	if c.redis != nil {
		store = state.NewSessionStore(c.redis, cfg.Session.IdleTimeout)
	}
	c.Sessions = session.NewManager(cat, store, cfg.Session.MaxAge, cfg.Session.IdleTimeout)

	var publisher server.Publisher
	if c.redis != nil && c.db != nil {
		c.Service = service.NewService(
			repository.NewSubmissionRepository(c.db),
			queue.NewRedisQueue(c.redis, cfg.Redis.ConsumerGroup),
			cfg.Worker.MaxWritesPerSecond,
			cfg.Redis.ConsumerGroup,
			cfg.Redis.MinIdleTime,
		)
		publisher = c.Service
	} else {
		log.Warn("Submissions will not be persisted: enable both redis and database")
	}

	c.Server = server.New(cat, c.Sessions, publisher)
	return c, nil
}

func (c *Container) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cfg := c.Config.Catalog

	var src catalog.Source
	switch cfg.Source {
	case config.CatalogSourceFile:
		src = catalog.FileSource(cfg.Path)
	case config.CatalogSourceURL:
		catalogClient := client.NewCatalogClient(cfg.URL, cfg.Timeout, cfg.MaxRetries)
		defer catalogClient.Close()
		src = catalogClient
	case config.CatalogSourceDatabase:
		if c.db == nil {
			return nil, fmt.Errorf("catalog source %q requires a database connection", cfg.Source)
		}
		src = repository.NewCatalogRepository(c.db)
	default:
		src = catalog.BuiltinSource()
	}

	return catalog.Load(ctx, src)
}

// Run serves HTTP, expires idle sessions and, when enabled, runs the
// submission workers until ctx is cancelled or one of them fails.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Server.Run(ctx, c.Config.Server.Addr(), c.Config.Server.ShutdownTimeout)
	})

	g.Go(func() error {
		return c.Sessions.Run(ctx, c.Config.Session.CleanupInterval)
	})

	if c.Service != nil {
		g.Go(func() error {
			return c.Service.RunWorkers(ctx, c.Config.Worker.Count)
		})
	}

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Errorf("Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
