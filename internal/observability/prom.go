package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Mail
	MailSendTotal    *prometheus.CounterVec
	MailSendDuration prometheus.Histogram

	// Auth flow outcomes (login, register, forgot_password, reset_password)
	AuthEventsTotal *prometheus.CounterVec

	// Housekeeping
	ResetTokensPurged prometheus.Counter
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bizdir",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bizdir",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "bizdir",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bizdir",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bizdir",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		MailSendTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bizdir",
				Subsystem: "mail",
				Name:      "send_total",
				Help:      "Mail dispatch attempts by template and result.",
			},
			[]string{"template", "result"}, // result=ok|error|circuit_open
		),
		MailSendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "bizdir",
				Subsystem: "mail",
				Name:      "send_duration_seconds",
				Help:      "Mail dispatch latency.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bizdir",
				Subsystem: "auth",
				Name:      "events_total",
				Help:      "Authentication flow outcomes by action and result.",
			},
			[]string{"action", "result"},
		),
		ResetTokensPurged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "bizdir",
				Subsystem: "janitor",
				Name:      "reset_tokens_purged_total",
				Help:      "Expired password reset tokens deleted by the janitor.",
			},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.MailSendTotal, p.MailSendDuration,
		p.AuthEventsTotal, p.ResetTokensPurged,
	)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

// AuthEvent counts one auth flow outcome. Safe on a nil receiver.
func (p *Prom) AuthEvent(action, result string) {
	if p == nil {
		return
	}
	p.AuthEventsTotal.WithLabelValues(action, result).Inc()
}

// ObserveMail records one mail dispatch. Safe on a nil receiver.
func (p *Prom) ObserveMail(template, result string, d time.Duration) {
	if p == nil {
		return
	}
	p.MailSendTotal.WithLabelValues(template, result).Inc()
	p.MailSendDuration.Observe(d.Seconds())
}
