package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure|unverified).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// Registrations counts successful account registrations.
	Registrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobtracker_registrations_total",
			Help: "Total number of registered accounts",
		},
	)

	// EmailVerifications counts verification link redemptions by result (success|failure).
	EmailVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_email_verifications_total",
			Help: "Total number of email verification attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobtracker_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
