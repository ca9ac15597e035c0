package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "juris"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"route", "method"},
	)

	summariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_summaries_total",
			Help:      "Dashboard summaries computed, by resulting urgency.",
		},
		[]string{"urgency"},
	)

	inferenceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_requests_total",
			Help:      "Inference calls by model and outcome.",
		},
		[]string{"model", "outcome"},
	)

	inferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Inference call latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model"},
	)

	pagesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_extracted_total",
		Help:      "Document pages with extracted text.",
	})

	pagesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_skipped_total",
		Help:      "Document pages that yielded no text after retry.",
	})
)

// ObserveHTTP records one finished request.
func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// IncSummary counts a dashboard summary with the given urgency label.
func IncSummary(urgency string) {
	summariesTotal.WithLabelValues(urgency).Inc()
}

// ObserveInference records one inference call.
func ObserveInference(model string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	inferenceRequestsTotal.WithLabelValues(model, outcome).Inc()
	inferenceDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

// AddPages records extracted and skipped page counts.
func AddPages(extracted, skipped int) {
	if extracted > 0 {
		pagesExtractedTotal.Add(float64(extracted))
	}
	if skipped > 0 {
		pagesSkippedTotal.Add(float64(skipped))
	}
}

// RegisterDBStats exports pool statistics for db labelled with name.
// Only the first pool registered under a name is exported.
func RegisterDBStats(db *sql.DB, name string) error {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &already) {
		return errors.Wrapf(err, "register db stats %s", name)
	}
	return nil
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
