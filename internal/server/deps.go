package server

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/provider"
	"storefront/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"

	CatalogSourceGenAI    = "genai"
	CatalogSourcePostgres = "postgres"
	CatalogSourceBuiltin  = "builtin"
)

// Dependencies are the external resources the server runs on. Redis and DB are nil
// when the configuration does not need them.
type Dependencies struct {
	Provider provider.ContentProvider
	Cache    cache.Cache
	Redis    *redis.Client
	DB       *sql.DB
}

// BuildCache connects the session cache. A redis backend that cannot be reached falls
// back to the in-memory cache so a single instance still serves shoppers.
func BuildCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, *redis.Client) {
	opts := []cache.Option{
		cache.WithTTL(cfg.Session.TTL),
		cache.WithPrefix(cfg.Cache.Prefix),
	}

	if cfg.Cache.Backend != CacheBackendRedis {
		logger.Info("Using in-memory session cache")
		return cache.NewMemoryCache(opts...), nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory session cache", zap.Error(err))
		return cache.NewMemoryCache(opts...), nil
	}

	logger.Info("Using redis session cache", zap.String("addr", cfg.Redis.Addr()))
	return cache.NewRedisCache(client, opts...), client
}

// OpenCatalogDB connects to postgres, applies migrations and seeds an empty products
// table with the built-in catalog. It returns nil when the catalog is not served from postgres.
func OpenCatalogDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	if cfg.Catalog.Source != CatalogSourcePostgres {
		return nil, nil
	}

	db, err := database.Open(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsDir, logger); err != nil {
		db.Close()
		return nil, err
	}

	seeded, err := repository.NewProductRepository(db).SeedIfEmpty(ctx, provider.BuiltinProducts())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}
	if seeded {
		logger.Info("Seeded products table with the built-in catalog")
	}
	return db, nil
}

// BuildProvider picks the content provider: the generative model when an API key is set,
// the offline provider otherwise. The catalog comes from the configured source and is
// always wrapped with retries and the built-in fallback.
func BuildProvider(ctx context.Context, cfg *config.Config, db *sql.DB, logger *zap.Logger) (provider.ContentProvider, error) {
	var p provider.ContentProvider
	if cfg.Provider.APIKey != "" {
		genaiProvider, err := provider.NewGenAIProvider(ctx, cfg.Provider.APIKey, cfg.Provider.Model, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Using generative content provider", zap.String("model", cfg.Provider.Model))
		p = genaiProvider
	} else {
		logger.Warn("No provider API key configured, using offline content")
		p = provider.NewOfflineProvider()
	}

	switch cfg.Catalog.Source {
	case CatalogSourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("catalog source %q needs a database", cfg.Catalog.Source)
		}
		p = provider.WithCatalogSource(p, repository.NewProductRepository(db))
	case CatalogSourceBuiltin:
		p = provider.WithCatalogSource(p, provider.NewOfflineProvider())
	}

	retry := provider.DefaultRetryConfig()
	retry.MaxRetries = cfg.Provider.MaxRetries
	return provider.WithCatalogFallback(p, retry, logger), nil
}
