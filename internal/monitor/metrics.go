package monitor

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics marketplace metrics collector
type Metrics struct {
	OrderCreatedTotal    *prometheus.CounterVec
	StockConflictTotal   prometheus.Counter
	StockRollbackTotal   prometheus.Counter
	TransitionTotal      *prometheus.CounterVec
	EventsPublishedTotal *prometheus.CounterVec
	EventsDroppedTotal   prometheus.Counter
	WebsocketSessions    prometheus.Gauge
	HTTPRequestTotal     *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
}

var collector *Metrics

// Init registers all collectors on the default registry
func Init() *Metrics {
	if collector != nil {
		return collector
	}

	collector = &Metrics{
		OrderCreatedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaar_orders_created_total",
			Help: "Orders created, labelled by outcome",
		}, []string{"outcome"}),

		StockConflictTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bazaar_stock_conflicts_total",
			Help: "Conditional stock decrements rejected for insufficient stock",
		}),

		StockRollbackTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bazaar_stock_rollbacks_total",
			Help: "Compensating stock increments issued after a failed order",
		}),

		TransitionTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaar_order_transitions_total",
			Help: "Order status transitions, labelled by target status",
		}, []string{"status"}),

		EventsPublishedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaar_events_published_total",
			Help: "Fan-out events published, labelled by event type",
		}, []string{"type"}),

		EventsDroppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bazaar_events_dropped_total",
			Help: "Events dropped because a client send queue was full",
		}),

		WebsocketSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bazaar_websocket_sessions",
			Help: "Currently connected websocket clients",
		}),

		HTTPRequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bazaar_http_requests_total",
			Help: "HTTP requests, labelled by method, path and status",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bazaar_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	return collector
}

// Get returns the collector, initializing it on first use
func Get() *Metrics {
	if collector == nil {
		return Init()
	}
	return collector
}

// Handler returns the /metrics endpoint handler
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// HTTPMiddleware records request count and latency per route
func HTTPMiddleware() gin.HandlerFunc {
	m := Get()
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.HTTPRequestTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}
