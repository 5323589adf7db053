package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spboyer/modelrank/internal/models"
	"github.com/spboyer/modelrank/internal/normalize"
	"github.com/spboyer/modelrank/internal/warehouse"
)

// Store is the write side of the warehouse.
type Store interface {
	AppendSnapshot(ctx context.Context, records []models.Record, source string, ts time.Time) (warehouse.SnapshotInfo, error)
}

// Report summarizes one ingestion run.
type Report struct {
	Source     string                 `json:"source"`
	SnapshotTS time.Time              `json:"snapshot_ts"`
	Fetched    int                    `json:"fetched"`
	Stored     int                    `json:"stored"`
	Skipped    int                    `json:"skipped"`
	FellBack   bool                   `json:"fell_back"`
	Snapshot   warehouse.SnapshotInfo `json:"snapshot"`
}

// Pipeline runs fetch, normalize and append for one snapshot.
type Pipeline struct {
	store    Store
	primary  Connector
	fallback Connector
	metrics  *Metrics
	now      func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithMetrics records every run in m and flushes it afterwards.
func WithMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithNow replaces time.Now as the snapshot clock.
func WithNow(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a pipeline. primary may be nil to ingest from the
// fallback only; fallback may be nil to disable the fallback.
func NewPipeline(store Store, primary, fallback Connector, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:    store,
		primary:  primary,
		fallback: fallback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs one ingestion. A *FetchError from the primary connector
// switches to the fallback. Records that fail to normalize are skipped.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report, err := p.run(ctx)
	if p.metrics != nil {
		p.metrics.recordRun(report, err, time.Since(start))
		if ferr := p.metrics.Flush(); ferr != nil {
			slog.Warn("Failed to write ingest metrics", "error", ferr)
		}
	}
	return report, err
}

// Refresh runs one ingestion and discards the report.
func (p *Pipeline) Refresh(ctx context.Context) error {
	_, err := p.Run(ctx)
	return err
}

func (p *Pipeline) run(ctx context.Context) (Report, error) {
	var report Report

	conn, raws, err := p.fetch(ctx, &report)
	if err != nil {
		return report, err
	}

	report.Source = conn.Name()
	report.SnapshotTS = p.now().UTC()
	report.Fetched = len(raws)

	records, errs := normalize.NormalizeBatch(raws, report.Source, report.SnapshotTS)
	for _, e := range errs {
		slog.Warn("Skipping record", "source", report.Source, "error", e)
	}
	report.Skipped = len(errs)
	if len(records) == 0 {
		return report, fmt.Errorf("%s returned no usable records (%d fetched, %d skipped)", report.Source, report.Fetched, report.Skipped)
	}

	info, err := p.store.AppendSnapshot(ctx, records, report.Source, report.SnapshotTS)
	if err != nil {
		return report, err
	}
	report.Stored = len(records)
	report.Snapshot = info

	slog.Info("Snapshot ingested",
		"source", report.Source,
		"snapshot_id", info.ID,
		"stored", report.Stored,
		"skipped", report.Skipped,
		"fell_back", report.FellBack)
	return report, nil
}

func (p *Pipeline) fetch(ctx context.Context, report *Report) (Connector, []any, error) {
	if p.primary == nil {
		if p.fallback == nil {
			return nil, nil, errors.New("no connector configured")
		}
		raws, err := p.fallback.Fetch(ctx)
		return p.fallback, raws, err
	}

	raws, err := p.primary.Fetch(ctx)
	if err == nil {
		return p.primary, raws, nil
	}

	var fe *FetchError
	if !errors.As(err, &fe) || p.fallback == nil {
		return nil, nil, err
	}

	slog.Warn("Primary source unavailable, using fallback",
		"source", p.primary.Name(),
		"fallback", p.fallback.Name(),
		"error", err)
	report.FellBack = true
	if p.metrics != nil {
		p.metrics.recordFallback()
	}

	raws, err = p.fallback.Fetch(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fallback %s after %w: %w", p.fallback.Name(), fe, err)
	}
	return p.fallback, raws, nil
}
