// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gitpulse",
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gitpulse",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by endpoint and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "method"})

	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gitpulse",
		Name:      "webhook_events_total",
		Help:      "Webhook deliveries by outcome (processed, ignored, rejected, failed).",
	}, []string{"outcome"})

	commitsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gitpulse",
		Name:      "commits_ingested_total",
		Help:      "Commit events durably inserted.",
	})

	commitsDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gitpulse",
		Name:      "commits_deduplicated_total",
		Help:      "Commit events skipped because the id was already stored.",
	})

	enrichmentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gitpulse",
		Name:      "enrichment_failures_total",
		Help:      "Best-effort commit stat lookups that failed and were absorbed.",
	})
)

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(endpoint, method, status string, seconds float64) {
	httpRequests.WithLabelValues(endpoint, method, status).Inc()
	httpDuration.WithLabelValues(endpoint, method).Observe(seconds)
}

// RecordWebhookEvent records one webhook delivery outcome.
func RecordWebhookEvent(outcome string) {
	webhookEvents.WithLabelValues(outcome).Inc()
}

// RecordCommitIngested counts a durably inserted commit event.
func RecordCommitIngested() { commitsIngested.Inc() }

// RecordCommitDeduplicated counts a duplicate delivery that produced no row.
func RecordCommitDeduplicated() { commitsDeduped.Inc() }

// RecordEnrichmentFailure counts an absorbed enrichment error.
func RecordEnrichmentFailure() { enrichmentFailures.Inc() }
