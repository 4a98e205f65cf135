package observability

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var pgErrLabels = map[string]string{
	pgerrcode.UniqueViolation:      "unique_violation",
	pgerrcode.ForeignKeyViolation:  "foreign_key_violation",
	pgerrcode.CheckViolation:       "check_violation",
	pgerrcode.SerializationFailure: "serialization_failure",
	pgerrcode.DeadlockDetected:     "deadlock",
	pgerrcode.QueryCanceled:        "query_canceled",
}

// ObserveDB times fn under the repository operation name op. A miss
// (pgx.ErrNoRows) is a normal outcome and is not counted as an error.
// Safe on a nil *Prom.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	outcome := "ok"
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		outcome = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}
	p.DbQueryDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())

	return err
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if label, ok := pgErrLabels[pgErr.Code]; ok {
			return label
		}
		return "pg_" + pgErr.Code
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) || strings.Contains(strings.ToLower(err.Error()), "connection") {
		return "connection"
	}
	return "unknown"
}
