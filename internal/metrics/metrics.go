// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VerifyAttempts counts passcode verification requests by outcome:
	// "success", "incorrect", "rate_limited", "not_found", "invalid",
	// "misconfigured".
	VerifyAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitbill_verify_attempts_total",
		Help: "Passcode verification attempts by outcome.",
	}, []string{"outcome"})

	// LockoutsTriggered counts the number of times a (result, client)
	// pair crossed the failure threshold and got locked out.
	LockoutsTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitbill_lockouts_triggered_total",
		Help: "Number of lockouts triggered by repeated passcode failures.",
	})

	// AttemptStoreErrors counts ledger I/O errors that were swallowed
	// per the fail-open policy, by operation ("check", "record", "reset").
	AttemptStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitbill_attempt_store_errors_total",
		Help: "Attempt-ledger store errors degraded per the availability policy.",
	}, []string{"op"})

	// RequestDuration observes HTTP request latency by route and status.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splitbill_http_request_duration_seconds",
		Help:    "HTTP request duration by path and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "status"})
)
