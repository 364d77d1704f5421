// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route pattern and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Requests currently being served.",
	})

	ReportsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipehub_reports_submitted_total",
		Help: "User reports submitted.",
	})

	ReportsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipehub_reports_resolved_total",
		Help: "Reports resolved by moderators, by action.",
	}, []string{"action"})

	WarningsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipehub_warnings_issued_total",
		Help: "Warnings issued to users.",
	})

	UsersDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipehub_users_deleted_total",
		Help: "Deleted accounts by reason (moderator, threshold, self, unverified).",
	}, []string{"reason"})

	ContentDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipehub_content_deleted_total",
		Help: "Recipes and events removed by moderators.",
	}, []string{"kind"})

	CleanupRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipehub_cleanup_runs_total",
		Help: "Cleanup sweeps by outcome.",
	}, []string{"outcome"})

	MailSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipehub_mail_sent_total",
		Help: "Outbound mail attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	CaptchaChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipehub_captcha_checks_total",
		Help: "reCAPTCHA verifications by outcome.",
	}, []string{"outcome"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
	}, []string{"name"})
)
