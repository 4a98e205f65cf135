package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yabe12/bizdir/internal/config"
	"github.com/yabe12/bizdir/internal/db"
	"github.com/yabe12/bizdir/internal/janitor"
	"github.com/yabe12/bizdir/internal/observability"
	"github.com/yabe12/bizdir/internal/repo/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env).With("component", "janitor")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBURL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)
	j := janitor.New(janitor.Config{Interval: cfg.JanitorInterval},
		postgres.NewResetTokensRepo(pool, prom), prom, log)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHTTPPort),
		Handler:           j.HealthHandler(pool, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHTTPPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("janitor started", "interval", cfg.JanitorInterval.String())
	runErr := j.Run(ctx)

	sctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(sctx)

	log.Info("worker shutdown complete")
	return runErr
}
