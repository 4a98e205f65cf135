package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// NewPool opens the pool and pings it, retrying with exponential backoff
// while the database comes up. Invalid URLs fail immediately.
func NewPool(ctx context.Context, dbURL string, log *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)

	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrap(err)
	}

	cfg.MaxConns = 5

	var pool *pgxpool.Pool

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		p, err := pgxpool.NewWithConfig(pingCtx, cfg)
		if err != nil {
			return retry.RetryableError(err)
		}

		if err := p.Ping(pingCtx); err != nil {
			p.Close()
			if log != nil {
				log.Warn("database not ready, retrying", "err", err)
			}
			return retry.RetryableError(err)
		}

		pool = p
		return nil
	})

	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}

	return pool, nil
}
