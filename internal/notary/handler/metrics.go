package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	notaryRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starnotary_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	notaryRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "starnotary_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	notaryChainHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "starnotary_chain_height",
		Help: "Height of the chain tip.",
	})

	notaryBlocksAppendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "starnotary_blocks_appended_total",
		Help: "Total blocks appended through the API.",
	})

	notaryClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starnotary_claims_total",
		Help: "Star claim submissions by outcome.",
	}, []string{"result"})

	notaryValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starnotary_chain_validations_total",
		Help: "Full-chain validations by result.",
	}, []string{"result"})

	notaryRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "starnotary_rate_limited_total",
		Help: "Requests rejected by the per-IP rate limiter.",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		notaryRequestsTotal.WithLabelValues(method, path, status).Inc()
		notaryRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// SetChainHeight records the current tip height.
func SetChainHeight(height int64) {
	notaryChainHeight.Set(float64(height))
}

// RecordBlockAppended records a committed block at the given height.
func RecordBlockAppended(height int64) {
	notaryBlocksAppendedTotal.Inc()
	SetChainHeight(height)
}

// RecordClaim records a claim submission outcome.
func RecordClaim(result string) {
	notaryClaimsTotal.WithLabelValues(result).Inc()
}

// RecordValidation records a full-chain validation result.
func RecordValidation(valid bool) {
	if valid {
		notaryValidationsTotal.WithLabelValues("valid").Inc()
	} else {
		notaryValidationsTotal.WithLabelValues("invalid").Inc()
	}
}

// RecordRateLimited records a rate-limited request.
func RecordRateLimited() {
	notaryRateLimitedTotal.Inc()
}
