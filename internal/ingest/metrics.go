package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts ingestion runs. Runs are short-lived processes, so the
// registry is written to a node_exporter textfile instead of being served.
type Metrics struct {
	registry *prometheus.Registry
	textfile string

	runsTotal       *prometheus.CounterVec
	recordsTotal    *prometheus.CounterVec
	fallbacksTotal  prometheus.Counter
	lastSuccess     *prometheus.GaugeVec
	runDuration     prometheus.Histogram
	snapshotRecords prometheus.Gauge
}

// NewMetrics creates a registry with the ingestion collectors. textfile may
// be empty, in which case Flush does nothing.
func NewMetrics(textfile string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		textfile: textfile,
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modelrank_ingest_runs_total",
				Help: "Total ingestion runs by source and result",
			},
			[]string{"source", "result"},
		),
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modelrank_ingest_records_total",
				Help: "Total raw records processed by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		fallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "modelrank_ingest_fallbacks_total",
				Help: "Total runs that fell back to the fixture source",
			},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "modelrank_ingest_last_success_timestamp_seconds",
				Help: "Snapshot timestamp of the last successful run by source",
			},
			[]string{"source"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "modelrank_ingest_run_duration_seconds",
				Help:    "Duration of ingestion runs",
				Buckets: prometheus.DefBuckets,
			},
		),
		snapshotRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "modelrank_ingest_snapshot_records",
				Help: "Records stored by the last successful run",
			},
		),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.recordsTotal,
		m.fallbacksTotal,
		m.lastSuccess,
		m.runDuration,
		m.snapshotRecords,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) recordFallback() {
	m.fallbacksTotal.Inc()
}

func (m *Metrics) recordRun(r Report, err error, elapsed time.Duration) {
	source := r.Source
	if source == "" {
		source = "none"
	}

	m.runDuration.Observe(elapsed.Seconds())
	if r.Fetched > 0 {
		m.recordsTotal.WithLabelValues(source, "stored").Add(float64(r.Stored))
		m.recordsTotal.WithLabelValues(source, "skipped").Add(float64(r.Skipped))
	}
	if err != nil {
		m.runsTotal.WithLabelValues(source, "error").Inc()
		return
	}
	m.runsTotal.WithLabelValues(source, "success").Inc()
	m.lastSuccess.WithLabelValues(source).Set(float64(r.SnapshotTS.Unix()))
	m.snapshotRecords.Set(float64(r.Stored))
}

// Flush writes the registry to the textfile atomically.
func (m *Metrics) Flush() error {
	if m.textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(m.textfile, m.registry)
}
