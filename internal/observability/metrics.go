// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackdonut_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blackdonut_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// EngagementActions counts engagement mutations by action and outcome.
	EngagementActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackdonut_engagement_actions_total",
		Help: "Total engagement actions (like, save, comment, pin, reply) by result",
	}, []string{"action", "result"})

	// CounterClamps counts decrements that would have taken a counter below zero.
	CounterClamps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackdonut_counter_clamps_total",
		Help: "Counter decrements that hit the zero floor",
	}, []string{"counter"})

	// WebSocketConnectionsTotal is the gauge of active partner WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blackdonut_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client was too slow.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackdonut_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// MediaUploads counts media host uploads by kind and result.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackdonut_media_uploads_total",
		Help: "Media uploads by kind and result",
	}, []string{"kind", "result"})
)

// RecordEngagement increments the engagement counter for action. A nil err
// records "ok".
func RecordEngagement(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EngagementActions.WithLabelValues(action, result).Inc()
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
