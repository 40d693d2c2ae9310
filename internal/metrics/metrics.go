// Package metrics provides Prometheus metrics for the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oxygen_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oxygen_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	rpcCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oxygen_rpc_calls_total",
			Help: "Total number of calls on the WebSocket RPC channel",
		},
		[]string{"method", "code"},
	)

	contentBytesServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oxygen_content_bytes_served_total",
			Help: "Total file content bytes returned to clients",
		},
	)

	arenaHandles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oxygen_index_handles",
			Help: "Number of indexed handles by kind",
		},
		[]string{"kind"},
	)

	indexBuildDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oxygen_index_build_duration_seconds",
			Help: "Time taken to build the index at startup",
		},
	)

	registeredClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oxygen_registered_clients",
			Help: "Number of registered clients",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency by route template, so ids in
// the URL do not create new series.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRPCCall records one RPC call outcome; code is "ok" on success.
func RecordRPCCall(method, code string) {
	rpcCallsTotal.WithLabelValues(method, code).Inc()
}

// RecordContentServed adds to the content bytes counter.
func RecordContentServed(bytes int64) {
	contentBytesServed.Add(float64(bytes))
}

// SetIndex publishes the arena size and build time.
func SetIndex(directories, files int, build time.Duration) {
	arenaHandles.WithLabelValues("directory").Set(float64(directories))
	arenaHandles.WithLabelValues("file").Set(float64(files))
	indexBuildDuration.Set(build.Seconds())
}

// SetRegisteredClients sets the registered client count.
func SetRegisteredClients(n int) {
	registeredClients.Set(float64(n))
}
