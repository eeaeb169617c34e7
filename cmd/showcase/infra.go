package main

import (
	"context"
	"fmt"
	"log/slog"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Strob0t/showcase/internal/adapter/fallback"
	"github.com/Strob0t/showcase/internal/adapter/localfs"
	"github.com/Strob0t/showcase/internal/adapter/memqueue"
	"github.com/Strob0t/showcase/internal/adapter/memstore"
	scnats "github.com/Strob0t/showcase/internal/adapter/nats"
	"github.com/Strob0t/showcase/internal/adapter/natskv"
	"github.com/Strob0t/showcase/internal/adapter/postgres"
	"github.com/Strob0t/showcase/internal/adapter/redis"
	"github.com/Strob0t/showcase/internal/adapter/ristretto"
	"github.com/Strob0t/showcase/internal/adapter/s3"
	"github.com/Strob0t/showcase/internal/adapter/tiered"
	"github.com/Strob0t/showcase/internal/config"
	"github.com/Strob0t/showcase/internal/port/cache"
	"github.com/Strob0t/showcase/internal/port/database"
	"github.com/Strob0t/showcase/internal/port/messagequeue"
	"github.com/Strob0t/showcase/internal/port/objectstore"
	"github.com/Strob0t/showcase/internal/resilience"
	"github.com/Strob0t/showcase/internal/secrets"
)

// retry runs op with exponential backoff until it succeeds, ctx is done or
// budget has elapsed.
func retry(ctx context.Context, what string, budget time.Duration, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = budget

	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		slog.Warn("connect failed, retrying", "target", what, "error", err, "retry_in", next)
	})
}

// awaitPrimary pings Postgres until it answers, then runs prepare. Both
// are retried with backoff until prepare succeeds or ctx is done. It
// runs when the server started against the secondary store only.
func awaitPrimary(ctx context.Context, interval time.Duration, ping, prepare func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = 30 * interval
	b.MaxElapsedTime = 0

	op := func() error {
		if err := ping(ctx); err != nil {
			return err
		}
		return prepare(ctx)
	}
	err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		slog.Debug("postgres still unavailable", "error", err, "retry_in", next)
	})
	if err == nil {
		slog.Info("postgres is back, primary store prepared")
	}
	return err
}

// stores bundles the project store stack used by serve and admin.
type stores struct {
	pool     *pgxpool.Pool
	primary  *postgres.Store
	fallback *fallback.Store
	closers  []func()

	// primaryUp is false when the store started without reaching Postgres.
	primaryUp bool
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects to Postgres and the secondary store. When Postgres
// cannot be reached within the retry budget and a Redis secondary is
// configured, the server starts anyway: reads and writes are served by
// the secondary until Postgres returns.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	s := &stores{}

	var secondary interface {
		database.Store
		database.MarkerStore
	}
	if cfg.Redis.Addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		secondary = redis.NewStore(rdb, cfg.Redis.KeyPrefix)
		slog.Info("secondary store", "driver", "redis", "addr", cfg.Redis.Addr)
	} else {
		secondary = memstore.New()
		slog.Info("secondary store", "driver", "memory")
	}

	err := retry(ctx, "postgres", cfg.Postgres.ConnectTimeout, func() error {
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	})
	switch {
	case err == nil:
		s.primaryUp = true
	case cfg.Redis.Addr != "":
		slog.Error("postgres unreachable, serving from secondary store", "error", err)
		pool, openErr := postgres.OpenPool(ctx, cfg.Postgres)
		if openErr != nil {
			s.Close()
			return nil, fmt.Errorf("postgres: %w", openErr)
		}
		s.pool = pool
	default:
		s.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	s.closers = append(s.closers, s.pool.Close)

	s.primary = postgres.NewStore(s.pool)
	breaker := resilience.NewBreaker("postgres", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout,
		resilience.WithFailureFilter(fallback.IsOutage),
		resilience.WithStateChange(func(name string, from, to resilience.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		}),
	)
	s.fallback = fallback.New(s.primary, secondary, secondary, breaker)
	return s, nil
}

// openQueue connects to NATS, or returns the in-process queue when no URL
// is configured.
func openQueue(ctx context.Context, cfg *config.Config) (messagequeue.Queue, *scnats.Queue, error) {
	if cfg.NATS.URL == "" {
		slog.Info("message queue", "driver", "memory")
		return memqueue.New(), nil, nil
	}

	var q *scnats.Queue
	err := retry(ctx, "nats", cfg.NATS.ConnectTimeout, func() error {
		var err error
		q, err = scnats.Connect(ctx, cfg.NATS.URL)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("nats: %w", err)
	}
	return q, q, nil
}

// openCache builds the preview cache: ristretto in process, backed by a
// NATS KV bucket when one is configured and NATS is in use.
func openCache(ctx context.Context, cfg *config.Config, nq *scnats.Queue) (cache.Cache, func(), error) {
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return nil, nil, fmt.Errorf("l1 cache: %w", err)
	}
	if cfg.Cache.L2Bucket == "" || nq == nil {
		return l1, l1.Close, nil
	}

	l2, err := natskv.Open(ctx, nq.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
	if err != nil {
		l1.Close()
		return nil, nil, fmt.Errorf("l2 cache: %w", err)
	}
	slog.Info("preview cache", "l1_mb", cfg.Cache.L1MaxSizeMB, "l2_bucket", cfg.Cache.L2Bucket)
	return tiered.New(l1, l2, cfg.Cache.TTL), l1.Close, nil
}

// openObjectStore selects the upload backend. A nil store keeps uploads
// inline as data URLs. S3 credentials from a credentials file are reloaded
// on SIGHUP until ctx is done.
func openObjectStore(ctx context.Context, cfg config.Storage) (objectstore.Store, error) {
	switch cfg.Driver {
	case "s3":
		var creds aws.CredentialsProvider
		if cfg.CredentialsFile != "" {
			vault, err := secrets.NewVault(secrets.FileLoader(cfg.CredentialsFile))
			if err != nil {
				return nil, fmt.Errorf("s3 credentials: %w", err)
			}
			vault.ReloadOnSignal(ctx, syscall.SIGHUP)
			creds = s3.RotatingCredentials(vault, 5*time.Minute)
		}
		slog.Info("object store", "driver", "s3", "bucket", cfg.Bucket, "rotating_credentials", creds != nil)
		return s3.NewFromConfig(cfg, creds), nil
	case "local":
		slog.Info("object store", "driver", "local", "dir", cfg.LocalDir)
		return localfs.NewOS(cfg.LocalDir, cfg.PublicURL), nil
	default:
		slog.Info("object store", "driver", "inline")
		return nil, nil
	}
}
