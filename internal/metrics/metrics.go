package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ExpiredAds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expired_ads_total",
			Help: "Number of ads whose promotion was switched off by expiry",
		},
	)

	ExpiredSubscriptions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expired_subscriptions_total",
			Help: "Number of subscriptions switched to inactive by expiry",
		},
	)

	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "expiry_sweep_duration_seconds",
			Help:    "Time taken by a global expiry sweep",
			Buckets: prometheus.DefBuckets,
		},
	)

	SweepErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_sweep_errors_total",
			Help: "Number of failed expiry sweep paths",
		},
	)

	SweepsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_sweeps_skipped_total",
			Help: "Scheduler ticks skipped because another sweep held the lock",
		},
	)

	PaymentsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_applied_total",
			Help: "Confirmed payments applied to the ledger",
		},
		[]string{"type"},
	)

	PaymentsIgnored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_ignored_total",
			Help: "Payment confirmations that caused no state change",
		},
		[]string{"reason"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

var once sync.Once

// Register можно звать несколько раз (тесты поднимают роутер много раз)
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ExpiredAds,
			ExpiredSubscriptions,
			SweepDuration,
			SweepErrors,
			SweepsSkipped,
			PaymentsApplied,
			PaymentsIgnored,
			HTTPRequests,
			HTTPDuration,
		)
	})
}
