package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/yabe12/bizdir/internal/account"
	"github.com/yabe12/bizdir/internal/auth"
	"github.com/yabe12/bizdir/internal/config"
	"github.com/yabe12/bizdir/internal/db"
	"github.com/yabe12/bizdir/internal/directory"
	httpx "github.com/yabe12/bizdir/internal/http"
	"github.com/yabe12/bizdir/internal/http/handlers"
	"github.com/yabe12/bizdir/internal/http/middlewares"
	"github.com/yabe12/bizdir/internal/notifications"
	"github.com/yabe12/bizdir/internal/observability"
	"github.com/yabe12/bizdir/internal/redisclient"
	"github.com/yabe12/bizdir/internal/repo/postgres"
	"github.com/yabe12/bizdir/internal/security"
)

const shutdownTimeout = 10 * time.Second

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "bizdir-api",
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(tctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	if cfg.MigrateOnStart {
		if err := migrateUp(cfg.DBURL); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDeps(cfg, pool, prom, log)
	if err != nil {
		return err
	}
	defer cleanup()
	deps.Gatherer = reg

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpx.NewRouter(log, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("server failed", "err", err)
			return err
		}
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// buildDeps wires repositories, services and the optional Redis and SMTP
// backends into router dependencies.
func buildDeps(cfg config.Config, pool *pgxpool.Pool, prom *observability.Prom, log *slog.Logger) (httpx.Deps, func(), error) {
	cleanup := func() {}

	users := postgres.NewUsersRepo(pool, prom)
	resetTokens := postgres.NewResetTokensRepo(pool, prom)
	sessions := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	mailer, err := newMailer(cfg, prom, log)
	if err != nil {
		return httpx.Deps{}, cleanup, err
	}

	accounts, err := account.NewService(account.Config{
		Users:    users,
		Tokens:   resetTokens,
		Sessions: sessions,
		Hasher:   security.NewHasher(),
		Mailer:   mailer,
		Prom:     prom,
		Log:      log,
		ResetTTL: cfg.ResetTokenTTL,
	})
	if err != nil {
		return httpx.Deps{}, cleanup, err
	}

	dir, err := directory.NewService(directory.Config{
		Businesses: postgres.NewBusinessesRepo(pool, prom),
		Categories: postgres.NewCategoriesRepo(pool, prom),
		Comments:   postgres.NewCommentsRepo(pool, prom),
		Ratings:    postgres.NewRatingsRepo(pool, prom),
	})
	if err != nil {
		return httpx.Deps{}, cleanup, err
	}

	deps := httpx.Deps{
		Env:            cfg.Env,
		AllowedOrigins: cfg.AllowedOrigins,
		Accounts:       accounts,
		Businesses:     dir,
		Categories:     dir,
		Comments:       dir,
		Ratings:        dir,
		Tokens:         sessions,
		Prom:           prom,
		Ready:          map[string]handlers.Pinger{"postgres": pool},
	}

	if cfg.RedisEnabled() {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanup = func() { _ = rdb.Close() }

		deps.LoginLimiter = middlewares.NewRedisLimiter(rdb, "login", 10, time.Minute)
		deps.ResetLimiter = middlewares.NewRedisLimiter(rdb, "reset", 5, 15*time.Minute)
		deps.Ready["redis"] = rdb
		log.Info("rate limits backed by redis", "addr", cfg.Redis.Addr)
	}

	return deps, cleanup, nil
}

// newMailer picks SMTP when configured. The log mailer prints codes, so it is
// only allowed in dev and test.
func newMailer(cfg config.Config, prom *observability.Prom, log *slog.Logger) (notifications.Mailer, error) {
	if !cfg.SMTPEnabled() {
		if !cfg.LocalEnv() {
			return nil, fmt.Errorf("%w (APP_ENV=%q)", config.ErrMissingSMTPHost, cfg.Env)
		}
		log.Warn("SMTP_HOST not set, reset codes are written to the log")
		return notifications.NewLogMailer(log), nil
	}

	smtp := notifications.NewSMTPMailer(notifications.SMTPConfig{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		Username: cfg.Mail.SMTPUsername,
		Password: cfg.Mail.SMTPPassword,
		From:     cfg.Mail.From,
	})
	return notifications.NewProtectedMailer(smtp, notifications.ProtectedMailerConfig{
		Timeout: cfg.Mail.SendTimeout,
	}, prom), nil
}

func migrateUp(dbURL string) error {
	m, err := db.NewMigrator(dbURL)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}
