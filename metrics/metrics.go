// Package metrics registers the Prometheus instrumentation for the feed
// client and ingest pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for the spot pipeline.
// Components accept a nil *Metrics and skip instrumentation, so tests and
// tools can run unregistered.
type Metrics struct {
	SpotsSubmitted  prometheus.Counter
	SpotsEvicted    prometheus.Counter
	SpotsRejected   prometheus.Counter
	SpotsDuplicate  prometheus.Counter
	SpotsStored     prometheus.Counter
	StoreErrors     prometheus.Counter
	DecodeErrors    prometheus.Counter
	FeedReconnects  prometheus.Counter
	FeedMessages    *prometheus.CounterVec // label: source={CLUSTER,SKIMMER,DIGITAL}
	QueueDepth      prometheus.Gauge
	FeedConnected   prometheus.Gauge
	PipelineRunning prometheus.Gauge
}

// New creates and registers all metrics with the default registry.
func New() *Metrics {
	m := &Metrics{
		SpotsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spotfeed",
			Name:      "spots_submitted_total",
			Help:      "Spots submitted to the ingest queue.",
		}),
		SpotsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spotfeed",
			Name:      "spots_evicted_total",
			Help:      "Queued spots evicted to make room under overload.",
		}),
		SpotsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spotfeed",
			Name:      "spots_rejected_total",
			Help:      "Spots rejected by the validate stage.",
		}),
		SpotsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spotfeed",
			Name:      "spots_duplicate_total",
			Help:      "Spots suppressed by the dedup window.",
		}),
		SpotsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spotfeed",
			Name:      "spots_stored_total",
			Help:      "Spots handed to the storage collaborator successfully.",
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spotfeed",
			Name:      "store_errors_total",
			Help:      "Storage failures (record lost, not retried).",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spotfeed",
			Name:      "decode_errors_total",
			Help:      "Feed payloads that failed to decode.",
		}),
		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spotfeed",
			Name:      "feed_reconnects_total",
			Help:      "Feed connection attempts after a drop.",
		}),
		FeedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spotfeed",
			Name:      "feed_messages_total",
			Help:      "Decoded feed messages by source sub-topic.",
		}, []string{"source"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spotfeed",
			Name:      "queue_depth",
			Help:      "Current ingest queue occupancy.",
		}),
		FeedConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spotfeed",
			Name:      "feed_connected",
			Help:      "1 while the feed session is established.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spotfeed",
			Name:      "pipeline_running",
			Help:      "1 while the pipeline consumer is active.",
		}),
	}
	prometheus.MustRegister(
		m.SpotsSubmitted, m.SpotsEvicted, m.SpotsRejected, m.SpotsDuplicate,
		m.SpotsStored, m.StoreErrors, m.DecodeErrors, m.FeedReconnects,
		m.FeedMessages, m.QueueDepth, m.FeedConnected, m.PipelineRunning,
	)
	return m
}
