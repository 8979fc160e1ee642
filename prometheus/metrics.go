package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Zohair23/price-comparison-engine/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Vendor call metrics
	VendorCallsTotal    *prometheus.CounterVec
	VendorCallDuration  *prometheus.HistogramVec
	TokenRefreshCounter *prometheus.CounterVec

	// Ingestion metrics
	IngestedItemsCounter *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Alert metrics
	AlertsTriggeredCounter prometheus.Counter
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Vendor call metrics
	VendorCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_vendor_calls_total",
			Help: "Total number of external vendor calls",
		},
		[]string{"source", "outcome"},
	)

	VendorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_vendor_call_duration_seconds",
			Help:    "Duration of external vendor calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	TokenRefreshCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_token_refresh_total",
			Help: "Total number of token exchanges with the primary source",
		},
		[]string{"outcome"},
	)

	// Ingestion metrics
	IngestedItemsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_ingested_items_total",
			Help: "Total number of vendor items processed by ingestion",
		},
		[]string{"source", "outcome"},
	)

	// Database operation metrics
	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Alert metrics
	AlertsTriggeredCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_alerts_triggered_total",
			Help: "Total number of price alerts triggered",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordVendorCall records the outcome and latency of one external call
func RecordVendorCall(source, outcome string, duration time.Duration) {
	if VendorCallsTotal == nil || VendorCallDuration == nil {
		return
	}
	VendorCallsTotal.WithLabelValues(source, outcome).Inc()
	VendorCallDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordTokenRefresh increments the token exchange counter
func RecordTokenRefresh(outcome string) {
	if TokenRefreshCounter == nil {
		return
	}
	TokenRefreshCounter.WithLabelValues(outcome).Inc()
}

// RecordIngestedItem increments the ingestion counter
func RecordIngestedItem(source, outcome string) {
	if IngestedItemsCounter == nil {
		return
	}
	IngestedItemsCounter.WithLabelValues(source, outcome).Inc()
}

// RecordAlertTriggered increments the triggered alert counter
func RecordAlertTriggered() {
	if AlertsTriggeredCounter == nil {
		return
	}
	AlertsTriggeredCounter.Inc()
}
