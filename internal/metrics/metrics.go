// Package metrics defines vibe2apk's Prometheus instrumentation, exposed at
// GET /metrics when config.Config.MetricsEnabled is set. Grounded on
// _examples/akash3tsm7-latency-aware-task-queue/internal/metrics/metrics.go's
// promauto-package-var shape: metrics self-register at package init, and
// internal/apiserver / internal/workflow import this package to increment
// and observe them rather than owning their own registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts every request the API server answers, by
	// method, route pattern, and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibe2apk_http_requests_total",
			Help: "Total number of HTTP requests handled by the API server",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds observes end-to-end request latency for
	// every route, by method and route pattern; the download route is
	// included, so its buckets reflect full APK transfer time.
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vibe2apk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// BuildsSubmittedTotal counts admitted builds by kind (html, zip).
	BuildsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibe2apk_builds_submitted_total",
			Help: "Total number of builds admitted to the queue",
		},
		[]string{"kind"},
	)

	// BuildsCompletedTotal counts terminal builds by kind and outcome.
	// success is "true"/"false"; a build that ran to completion but
	// reported a logical failure (Result.Success=false) still counts here,
	// not against BuildsFailedTotal, matching the queue's own Complete
	// vs. Fail split (only unhandled worker errors, panics included, and
	// stale-lease reclaims are "failed" in the queue.Status sense).
	BuildsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibe2apk_builds_completed_total",
			Help: "Total number of builds that reached a terminal completed state",
		},
		[]string{"kind", "success"},
	)

	// BuildsFailedTotal counts unhandled worker errors and stale-lease
	// reclaims, i.e. jobs that reached queue.StatusFailed.
	BuildsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibe2apk_builds_failed_total",
			Help: "Total number of builds that failed via an unhandled error or lease reclaim",
		},
		[]string{"kind"},
	)

	// BuildDurationSeconds observes wall-clock build time by kind,
	// covering the full Prepare+Execute pipeline in internal/workflow.
	BuildDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vibe2apk_build_duration_seconds",
			Help:    "Build pipeline duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
		},
		[]string{"kind"},
	)

	// RateLimitRejectionsTotal counts admission requests turned away by
	// the fixed-window limiter, by whether the caller was authenticated.
	RateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vibe2apk_rate_limit_rejections_total",
			Help: "Total number of build submissions rejected by the rate limiter",
		},
		[]string{"authenticated"},
	)

	// WorkersActive reports the worker pool's configured concurrency, set
	// once at startup by internal/workflow.Pool.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vibe2apk_workers_active",
			Help: "Number of build worker goroutines running",
		},
	)

	// ReclaimedLeasesTotal counts stale active leases the pool's
	// reclaimer sweep has failed and returned to the failed set.
	ReclaimedLeasesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibe2apk_reclaimed_leases_total",
			Help: "Total number of stale leases reclaimed by the worker pool",
		},
	)

	// SweptArtifactsTotal counts build directories removed by the
	// storage retention sweeper.
	SweptArtifactsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vibe2apk_swept_artifacts_total",
			Help: "Total number of build directories removed by the retention sweeper",
		},
	)
)
