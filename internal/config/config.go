package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
	ErrMissingSMTPHost  = errors.New("SMTP_HOST is required outside dev and test")
)

type Config struct {
	Env  string `env:"APP_ENV" env-default:"dev"`
	Port int    `env:"PORT" env-default:"8080"`

	// DATABASE_URL wins over the discrete DB_* keys when set.
	DatabaseURL string `env:"DATABASE_URL"`
	DB          DB

	JWTSecret     string        `env:"JWT_SECRET"`
	JWTTTL        time.Duration `env:"JWT_TTL" env-default:"1h"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" env-default:"1h"`

	Mail  Mail
	Redis Redis

	OTLPEndpoint     string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TraceSampleRatio float64  `env:"OTEL_TRACES_SAMPLER_ARG" env-default:"1"`
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`

	MigrateOnStart  bool          `env:"MIGRATE_ON_START" env-default:"false"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" env-default:"10m"`
	WorkerHTTPPort  int           `env:"WORKER_HTTP_PORT" env-default:"8081"`

	// DBURL is derived in Load.
	DBURL string `env:"-"`
}

type DB struct {
	Host     string `env:"DB_HOST" env-default:"127.0.0.1"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"bizdir"`
	Password string `env:"DB_PASSWORD" env-default:"bizdir"`
	Name     string `env:"DB_NAME" env-default:"bizdir"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

type Mail struct {
	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" env-default:"587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	From         string        `env:"MAIL_FROM" env-default:"no-reply@bizdir.local"`
	SendTimeout  time.Duration `env:"MAIL_SEND_TIMEOUT" env-default:"5s"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// a missing .env is fine outside dev
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	cfg.DBURL = cfg.DatabaseURL
	if cfg.DBURL == "" {
		cfg.DBURL = buildDBURL(cfg.DB)
	}

	return cfg, nil
}

// Validate checks the settings the API cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if !c.SMTPEnabled() && !c.LocalEnv() {
		return fmt.Errorf("%w (APP_ENV=%q)", ErrMissingSMTPHost, c.Env)
	}
	return nil
}

// LocalEnv reports whether the process runs on a developer machine or under
// tests, where reset codes may go to the log.
func (c Config) LocalEnv() bool {
	return c.Env == "dev" || c.Env == "test"
}

func (c Config) SMTPEnabled() bool {
	return c.Mail.SMTPHost != ""
}

func (c Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func buildDBURL(db DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     db.Host + ":" + db.Port,
		Path:     "/" + db.Name,
		RawQuery: "sslmode=" + url.QueryEscape(db.SSLMode),
	}
	return u.String()
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

// WithTimeoutFrom bounds a request-scoped context.
func WithTimeoutFrom(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}
