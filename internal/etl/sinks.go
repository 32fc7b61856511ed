package etl

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fashionetl/internal/cache"
	"fashionetl/internal/config"
	"fashionetl/internal/crawler"
	"fashionetl/internal/db"
	"fashionetl/internal/loader"
	"fashionetl/internal/logger"
	"fashionetl/internal/repository"
)

const poolMaxConns = 4

// openSinks builds one sink per enabled block in cfg. The returned cleanup
// closes every connection opened so far, also when an error is returned.
func openSinks(ctx context.Context, cfg config.SinksConfig, runID uuid.UUID, log *logger.Logger) ([]loader.Sink, func(), error) {
	var (
		sinks   []loader.Sink
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.CSV.Enabled() {
		sinks = append(sinks, &repository.CSVRepository{Path: cfg.CSV.Path})
	}

	if cfg.Postgres.Enabled() {
		switch cfg.Postgres.Driver {
		case "pq":
			sqlDB, err := db.New(cfg.Postgres.URL)
			if err != nil {
				return nil, cleanup, fmt.Errorf("failed to open postgres: %w", err)
			}
			closers = append(closers, func() { _ = sqlDB.Close() })
			sinks = append(sinks, &repository.SQLRepository{
				DB:      sqlDB,
				Table:   cfg.Postgres.Table,
				Dialect: repository.DialectPostgres,
				RunID:   runID,
			})
		default:
			pool, err := db.NewPool(ctx, cfg.Postgres.URL, poolMaxConns)
			if err != nil {
				return nil, cleanup, err
			}
			closers = append(closers, pool.Close)
			sinks = append(sinks, &repository.PostgresRepository{
				DB:    pool,
				Table: cfg.Postgres.Table,
				RunID: runID,
			})
		}
	}

	if cfg.SQLite.Enabled() {
		sqlDB, err := db.NewSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = sqlDB.Close() })
		sinks = append(sinks, &repository.SQLRepository{
			DB:      sqlDB,
			Table:   cfg.SQLite.Table,
			Dialect: repository.DialectSQLite,
			RunID:   runID,
		})
	}

	if cfg.Sheets.Enabled() {
		sheets, err := repository.NewSheetsRepository(ctx, cfg.Sheets)
		if err != nil {
			return nil, cleanup, err
		}
		sinks = append(sinks, sheets)
	}

	if len(sinks) == 0 {
		log.Warn("no sinks configured, normalized records will be discarded")
	}
	return sinks, cleanup, nil
}

// openFetcher returns the HTTP fetcher, wrapped in the Redis page cache when
// one is configured.
func openFetcher(ctx context.Context, cfg *config.Config, log *logger.Logger) (crawler.Fetcher, func(), error) {
	var fetcher crawler.Fetcher = crawler.NewHTTPFetcher(cfg.FetchTimeout, cfg.UserAgent)
	if cfg.Cache.RedisURL == "" {
		return fetcher, func() {}, nil
	}

	pc, err := cache.New(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
	if err != nil {
		return nil, func() {}, err
	}
	log.Info("page cache enabled", "ttl", cfg.Cache.TTL)
	return crawler.NewCachingFetcher(fetcher, pc, log), func() { _ = pc.Close() }, nil
}
