// Package metrics registers the Prometheus collectors of the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts handled requests.
	// Labels: method, route (gin full path), status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workforce",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "workforce",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// NotificationsCreated counts notifications written by task events.
	// Labels: type
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workforce",
			Name:      "notifications_created_total",
			Help:      "Total notifications created by notification type",
		},
		[]string{"type"},
	)

	// NotificationsCleaned counts notifications removed by maintenance.
	// Labels: reason (read, expired)
	NotificationsCleaned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workforce",
			Name:      "notifications_cleaned_total",
			Help:      "Total notifications deleted by the cleanup job",
		},
		[]string{"reason"},
	)
)

// Middleware records the request counter and latency histogram.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
