package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of the alert pipeline.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: outcome=ok|degraded|aborted
	RunDuration     prometheus.Histogram
	SymbolsTotal    prometheus.Counter
	SkippedTotal    *prometheus.CounterVec // labels: reason
	Highlighted     prometheus.Gauge
	SnapshotRecords prometheus.Gauge
	FetchDuration   prometheus.Histogram
	EmailsSent      prometheus.Counter
	EventsPublished prometheus.Counter
}

// New creates the pipeline metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_runs_total",
			Help: "Pipeline runs by outcome",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_run_duration_seconds",
			Help:    "Wall time of a full pipeline run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		SymbolsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_symbols_processed_total",
			Help: "Watch-list symbols processed",
		}),
		SkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_symbols_skipped_total",
			Help: "Symbols left out of the snapshot, by reason",
		}, []string{"reason"}),
		Highlighted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_highlighted_symbols",
			Help: "Highlighted symbols in the latest snapshot",
		}),
		SnapshotRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_snapshot_records",
			Help: "Records in the latest snapshot",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_fetch_duration_seconds",
			Help:    "Series fetch latency per symbol",
			Buckets: prometheus.DefBuckets,
		}),
		EmailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_emails_sent_total",
			Help: "Digest emails delivered",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_events_published_total",
			Help: "New-snapshot events published",
		}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.SymbolsTotal,
		m.SkippedTotal,
		m.Highlighted,
		m.SnapshotRecords,
		m.FetchDuration,
		m.EmailsSent,
		m.EventsPublished,
	)
	return m
}

// NewUnregistered creates metrics on a private registry, for tests and one-shot runs.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
