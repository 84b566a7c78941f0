// Package metrics はPrometheusのメトリクスとginミドルウェアを提供します。
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
	LoginError   = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linker_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)
	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linker_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
	pictureUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linker_picture_uploads_total",
			Help: "Profile picture uploads by result",
		},
		[]string{"result"},
	)
	pictureUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "linker_picture_upload_bytes",
			Help:    "Size of accepted profile picture uploads",
			Buckets: prometheus.ExponentialBuckets(1<<10, 4, 8),
		},
	)
)

// Middleware records request count and latency per matched route.
// Unmatched paths are reported as "unmatched" to keep label cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// ObserveLogin counts a login attempt.
func ObserveLogin(outcome string) {
	loginsTotal.WithLabelValues(outcome).Inc()
}

// ObservePictureUpload counts an upload; size is recorded only on success.
func ObservePictureUpload(err error, size int) {
	if err != nil {
		pictureUploadsTotal.WithLabelValues("error").Inc()
		return
	}
	pictureUploadsTotal.WithLabelValues("ok").Inc()
	pictureUploadBytes.Observe(float64(size))
}
