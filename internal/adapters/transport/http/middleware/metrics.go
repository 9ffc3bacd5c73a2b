package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillsync",
		Subsystem: "auth",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skillsync",
		Subsystem: "auth",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
	}, []string{"method", "path"})

	// SilentRenewals counts access tokens minted by the session
	// middleware's renewal path.
	SilentRenewals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skillsync",
		Subsystem: "auth",
		Name:      "silent_renewals_total",
		Help:      "Access tokens silently renewed from a refresh cookie.",
	})

	// RevokedRejections counts refresh attempts refused because the token
	// was blacklisted by logout.
	RevokedRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "skillsync",
		Subsystem: "auth",
		Name:      "revoked_rejections_total",
		Help:      "Refresh attempts rejected due to revocation.",
	})
)

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		requestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}
