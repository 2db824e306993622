package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/industry"
	"github.com/sells-group/valuation-cli/internal/questionnaire"
	"github.com/sells-group/valuation-cli/internal/store"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

// appEnv holds the store, industry providers, questionnaire and valuation
// service shared by the value/batch/serve commands.
type appEnv struct {
	Store     store.Store // nil when the command does not persist
	Service   *valuation.Service
	Questions *questionnaire.Set
	Table     *industry.Table
	Postgres  *industry.PostgresProvider // nil unless industry.source is postgres
	Cache     *industry.RedisCache       // nil unless redis.addr is set

	redis redis.UniversalClient
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// ListIndustries returns the reference rows from whichever source is active.
func (e *appEnv) ListIndustries(ctx context.Context) ([]industry.Entry, error) {
	if e.Postgres != nil {
		return e.Postgres.List(ctx)
	}
	return e.Table.List(), nil
}

// initStore opens the configured assessment store.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "valuation.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv validates config for mode and builds the environment. The store
// is opened and migrated when needStore is set or when industry data lives
// in Postgres. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string, needStore bool) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &appEnv{}

	qs, err := questionnaire.Load()
	if err != nil {
		return nil, err
	}
	env.Questions = qs

	table, err := industry.LoadTable(cfg.Industry.TablePath)
	if err != nil {
		return nil, err
	}
	env.Table = table
	var provider industry.Provider = table

	if needStore || cfg.Industry.Source == "postgres" {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
		if err := st.Migrate(ctx); err != nil {
			env.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	if cfg.Industry.Source == "postgres" {
		pg, ok := env.Store.(*store.PostgresStore)
		if !ok {
			env.Close()
			return nil, eris.New("industry source postgres requires the postgres store")
		}
		env.Postgres = industry.NewPostgresProvider(pg.Pool())
		if err := env.Postgres.Migrate(ctx); err != nil {
			env.Close()
			return nil, err
		}
		provider = env.Postgres
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			zap.L().Warn("redis unavailable, industry cache disabled",
				zap.String("addr", cfg.Redis.Addr),
				zap.Error(err),
			)
			_ = client.Close()
		} else {
			env.redis = client
			env.Cache = industry.NewRedisCache(client, provider, cfg.Industry.CacheTTL)
			provider = env.Cache
		}
	}

	env.Service = valuation.NewService(provider, valuation.NewEngine(cfg.Valuation))

	zap.L().Debug("environment ready",
		zap.String("store", cfg.Store.Driver),
		zap.String("industry_source", cfg.Industry.Source),
		zap.Bool("cache", env.Cache != nil),
		zap.Int("industries", table.Len()),
	)
	return env, nil
}
