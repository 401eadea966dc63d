package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/sitequote/internal/config"
	"github.com/wolfman30/sitequote/internal/leads"
	"github.com/wolfman30/sitequote/internal/pricing"
	"github.com/wolfman30/sitequote/internal/session"
	"github.com/wolfman30/sitequote/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, quote sessions stay in memory", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSnapshotStore returns the Redis snapshot store, or a no-op store
// when Redis is not configured.
func BuildSnapshotStore(redisClient *redis.Client) session.SnapshotStore {
	if redisClient == nil {
		return session.NopStore{}
	}
	return session.NewRedisSnapshotStore(redisClient, nil)
}

// BuildPostgresPool connects to DATABASE_URL, returning nil when it is unset
// or unreachable.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *pgxpool.Pool {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres config invalid, leads stay in memory", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Warn("postgres not available, leads stay in memory", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// BuildLeadsRepository picks the Postgres archive when a pool is available.
func BuildLeadsRepository(pool *pgxpool.Pool) leads.Repository {
	if pool == nil {
		return leads.NewInMemoryRepository()
	}
	return leads.NewPostgresRepository(pool)
}

// BuildCatalog loads CATALOG_PATH, or the built-in catalog when unset.
func BuildCatalog(cfg *appconfig.Config) (*pricing.Catalog, error) {
	if cfg == nil || strings.TrimSpace(cfg.CatalogPath) == "" {
		return pricing.DefaultCatalog(), nil
	}
	return pricing.LoadCatalogFile(cfg.CatalogPath)
}
