package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/yabe12/bizdir/internal/actorctx"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{&pgconn.PgError{Code: "23503"}, "foreign_key_violation"},
		{&pgconn.PgError{Code: "40P01"}, "deadlock"},
		{&pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{&pgconn.PgError{Code: "23514"}, "check_violation"},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{errors.New("connection refused"), "connection"},
		{errors.New("weird"), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyDBErr(tt.err))
	}
}

func TestObserveDBCountsErrorsButNotMisses(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.get_by_email", func() error { return pgx.ErrNoRows })
	_ = p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })

	assert.Equal(t, 0.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.get_by_email", "unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))
}

func TestNilPromHelpersAreSafe(t *testing.T) {
	var p *Prom
	p.AuthEvent("login", "ok")
	p.ObserveMail("password_reset", "ok", time.Second)
}

func TestAuthEventCounter(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())
	p.AuthEvent("login", "invalid_credentials")
	p.AuthEvent("login", "invalid_credentials")

	assert.Equal(t, 2.0, testutil.ToFloat64(p.AuthEventsTotal.WithLabelValues("login", "invalid_credentials")))
}

func TestLoggerAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("prod", &buf)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "inside span")
	span.End()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.NotEmpty(t, entry["span_id"])
}

func TestLoggerLevelByEnv(t *testing.T) {
	var buf bytes.Buffer
	newLogger("prod", &buf).Debug("hidden")
	assert.Zero(t, buf.Len())

	newLogger("dev", &buf).Debug("shown")
	assert.NotZero(t, buf.Len())
}

func TestInitTracerWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracerConfig{ServiceName: "bizdir-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestLoggerAddsUserID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("prod", &buf)

	ctx := actorctx.WithUserID(context.Background(), "user-42")
	log.InfoContext(ctx, "authenticated call")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "user-42", entry["user_id"])
	assert.NotContains(t, entry, "trace_id")
}

func TestLoggerStampsService(t *testing.T) {
	var buf bytes.Buffer
	newLogger("prod", &buf).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bizdir", entry["service"])
	assert.Equal(t, "prod", entry["env"])
}

func TestObserveDBOnNilProm(t *testing.T) {
	var p *Prom
	called := false
	err := p.ObserveDB("users.create", func() error { called = true; return nil })
	assert.NoError(t, err)
	assert.True(t, called)
}
