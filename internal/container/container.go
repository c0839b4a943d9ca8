package container

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/web/internal/auth"
	"storefront/web/internal/cart"
	"storefront/web/internal/catalog"
	"storefront/web/internal/client"
	"storefront/web/internal/config"
	"storefront/web/internal/metrics"
	"storefront/web/internal/repository"
	"storefront/web/internal/server"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container owns the application state: catalog, route table, cart and
// session. It is created once at startup and closed at shutdown.
type Container struct {
	Config   *config.Config
	Store    *catalog.Store
	Loader   *catalog.Loader
	Cart     *cart.Synchronizer
	Gate     *auth.Gate
	Sessions client.SessionClient
	Server   *server.Server

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	ctx := context.Background()
	container := &Container{
		Config: cfg,
		Store:  catalog.NewStore(),
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	source, db, err := NewCatalogSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	container.db = db
	container.Loader = catalog.NewLoader(source, container.Store)

	storage, bus, err := container.cartBackend(ctx)
	if err != nil {
		container.Close()
		return nil, err
	}

	sessions, err := client.NewSessionClient(cfg.Backend, cfg.Auth)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize session client: %w", err)
	}
	container.Sessions = sessions
	container.Gate = auth.NewGate(sessions, time.Duration(cfg.Auth.CheckTimeout)*time.Second)

	opts := cart.Options{
		Key:          cfg.Cart.StorageKey,
		PersistEmpty: cfg.Cart.PersistEmpty,
		Auth:         container.Gate,
	}
	if cfg.Cart.MirrorRemote {
		opts.Mirror = sessions
	}
	container.Cart = cart.New(ctx, storage, bus, opts)

	srv, err := server.New(cfg.Server, server.Deps{
		Catalog:  container.Store,
		Cart:     container.Cart,
		Auth:     container.Gate,
		Sessions: sessions,
		Landing:  cfg.Catalog.Categories,
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}
	container.Server = srv

	return container, nil
}

// NewCatalogSource returns the configured catalog backend. The pool is nil
// unless the source is postgres; the caller closes it.
func NewCatalogSource(ctx context.Context, cfg *config.Config) (catalog.Source, *pgxpool.Pool, error) {
	switch cfg.Catalog.Source {
	case "postgres":
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("✅ Using catalog database")
		return repository.NewCatalogRepository(db), db, nil
	default:
		log.Infof("✅ Using catalog backend at %s", cfg.Backend.BaseURL)
		return client.NewCatalogClient(cfg.Backend), nil, nil
	}
}

func (c *Container) cartBackend(ctx context.Context) (cart.Storage, cart.Bus, error) {
	if c.Config.Cart.Driver == "memory" {
		log.Info("🛒 Using in-memory cart storage")
		return cart.NewMemoryStorage(), cart.NewMemoryBus(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.Database,
	})

	// Test connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	c.redis = rdb

	log.Info("✅ Connected to Redis successfully")

	return cart.NewRedisStorage(rdb, c.Config.Cart.KeyPrefix), cart.NewRedisBus(rdb, c.Config.Cart.Channel), nil
}

// Run loads the catalog, resolves the session, follows cart changes from
// other contexts and serves HTTP until ctx is done.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := c.Loader.Load(ctx); err != nil {
			log.Warnf("⚠️ Catalog loaded with errors: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		c.Gate.Start(ctx)
		return nil
	})

	g.Go(func() error {
		return c.Cart.Run(ctx)
	})

	g.Go(func() error {
		return c.Server.Run(ctx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.Server != nil {
		c.Server.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("⚠️ Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
