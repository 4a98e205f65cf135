// Package janitor periodically removes password reset codes that can no
// longer be redeemed.
package janitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/yabe12/bizdir/internal/errutil"
	"github.com/yabe12/bizdir/internal/observability"
)

type ExpiredTokenStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Config struct {
	Interval time.Duration
	// SweepTimeout bounds a single DeleteExpired call.
	SweepTimeout time.Duration
	MaxRetries   uint64
	BaseBackoff  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Minute
	}
	if c.SweepTimeout <= 0 {
		c.SweepTimeout = 5 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 2 * time.Second
	}
	return c
}

type Janitor struct {
	cfg   Config
	store ExpiredTokenStore
	prom  *observability.Prom
	log   *slog.Logger
	now   func() time.Time

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, store ExpiredTokenStore, prom *observability.Prom, log *slog.Logger) *Janitor {
	if log == nil {
		log = slog.Default()
	}
	return &Janitor{
		cfg:   cfg.withDefaults(),
		store: store,
		prom:  prom,
		log:   log,
		now:   time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	j.setReady(true)
	defer j.setReady(false)

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	j.sweepAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			j.log.Info("janitor received shutdown signal")
			return nil
		case <-ticker.C:
			j.sweepAndLog(ctx)
		}
	}
}

func (j *Janitor) sweepAndLog(ctx context.Context) {
	n, err := j.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			errutil.LogError(ctx, j.log, "reset token sweep failed", err)
		}
		return
	}
	if n > 0 {
		j.log.Info("purged expired reset codes", "count", n)
	}
}

// Sweep deletes every expired code, retrying transient failures with
// jittered exponential backoff.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	backoff := retry.WithMaxRetries(j.cfg.MaxRetries,
		retry.WithJitter(250*time.Millisecond, retry.NewExponential(j.cfg.BaseBackoff)))

	var purged int64
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		sctx, cancel := context.WithTimeout(ctx, j.cfg.SweepTimeout)
		defer cancel()

		n, err := j.store.DeleteExpired(sctx, j.now().UTC())
		if err != nil {
			j.log.Warn("reset token sweep attempt failed", "err", err)
			return retry.RetryableError(err)
		}
		purged = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	if j.prom != nil && purged > 0 {
		j.prom.ResetTokensPurged.Add(float64(purged))
	}
	return purged, nil
}

func (j *Janitor) setReady(v bool) {
	j.readyMu.Lock()
	j.ready = v
	j.readyMu.Unlock()
}

func (j *Janitor) Ready() bool {
	j.readyMu.RLock()
	defer j.readyMu.RUnlock()
	return j.ready
}
