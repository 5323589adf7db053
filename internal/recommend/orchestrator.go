package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spboyer/modelrank/internal/models"
	"github.com/spboyer/modelrank/internal/taskprofile"
)

//go:generate go tool mockgen -source=orchestrator.go -destination=mock_orchestrator_test.go -package=recommend

// DefaultMaxAge is how old the newest snapshot may be before a refresh.
const DefaultMaxAge = 24 * time.Hour

// nearEmptyRate is the absent fraction above which a field counts as unpopulated.
const nearEmptyRate = 0.98

// LatestSource is the read side of the warehouse the orchestrator needs.
type LatestSource interface {
	Latest(ctx context.Context) (map[string]models.Record, error)
	LatestSnapshotTime(ctx context.Context) (time.Time, bool, error)
}

// Refresher fetches and stores a fresh snapshot.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Request is one recommendation request.
type Request struct {
	Text         string
	Overrides    taskprofile.Overrides
	TopK         int
	ForceRefresh bool
	// MaxAge overrides the orchestrator's staleness threshold when positive.
	MaxAge time.Duration
}

// Orchestrator answers recommendation requests from the latest view,
// refreshing it first when it is missing or stale.
type Orchestrator struct {
	store     LatestSource
	refresher Refresher
	engine    *Engine
	maxAge    time.Duration
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxAge sets the staleness threshold.
func WithMaxAge(d time.Duration) Option {
	return func(o *Orchestrator) { o.maxAge = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an orchestrator. refresher may be nil, in which
// case stale data is used as is and missing data is an error.
func NewOrchestrator(store LatestSource, refresher Refresher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		refresher: refresher,
		engine:    NewEngine(),
		maxAge:    DefaultMaxAge,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Recommend parses the request, makes sure data is available and ranks it.
func (o *Orchestrator) Recommend(ctx context.Context, req Request) (*models.RecommendationResult, error) {
	profile := taskprofile.Parse(req.Text, req.Overrides)
	if err := profile.MissingPolicy.Validate(); err != nil {
		return nil, err
	}

	maxAge := o.maxAge
	if req.MaxAge > 0 {
		maxAge = req.MaxAge
	}
	refreshed, warnings, err := o.ensureFresh(ctx, req.ForceRefresh, maxAge)
	if err != nil {
		return nil, err
	}

	latest, err := o.store.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading latest snapshot: %w", err)
	}
	if len(latest) == 0 {
		return nil, &NoDataError{}
	}
	warnings = append(warnings, dataWarnings(profile.TaskType, latest)...)

	recs, err := o.engine.Rank(profile, latest, req.TopK)
	if err != nil {
		return nil, err
	}

	slog.Debug("Ranked models", "task_type", profile.TaskType, "candidates", len(latest), "returned", len(recs))
	return &models.RecommendationResult{
		TaskProfile:     profile,
		SnapshotTS:      newestSnapshot(latest).Format(time.RFC3339),
		Recommendations: recs,
		Warnings:        warnings,
		Refreshed:       refreshed,
	}, nil
}

// ensureFresh runs at most one refresh. A failed refresh is only fatal when
// there is nothing to fall back to.
func (o *Orchestrator) ensureFresh(ctx context.Context, force bool, maxAge time.Duration) (bool, []string, error) {
	newest, ok, err := o.store.LatestSnapshotTime(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("reading snapshot catalog: %w", err)
	}

	var reason string
	switch {
	case force:
		reason = "requested"
	case !ok:
		reason = "no snapshot"
	case o.now().Sub(newest) > maxAge:
		reason = "stale"
	default:
		return false, nil, nil
	}

	if o.refresher == nil {
		if !ok {
			return false, nil, &NoDataError{}
		}
		return false, []string{fmt.Sprintf("snapshot from %s is older than %s and no refresh is configured", newest.Format(time.RFC3339), maxAge)}, nil
	}

	slog.Info("Refreshing model data", "reason", reason)
	if err := o.refresher.Refresh(ctx); err != nil {
		if !ok {
			return false, nil, &NoDataError{Err: err}
		}
		if errors.Is(err, context.Canceled) {
			return false, nil, err
		}
		slog.Warn("Refresh failed, using existing data", "error", err, "snapshot_ts", newest)
		return false, []string{fmt.Sprintf("refresh failed; using existing snapshot from %s: %v", newest.Format(time.RFC3339), err)}, nil
	}
	return true, nil, nil
}

// dataWarnings flags a latest view whose key fields are almost entirely
// absent, and a task whose quality columns no model reports.
func dataWarnings(task models.TaskType, latest map[string]models.Record) []string {
	var warnings []string

	var noPrice, noSpeed, noContext, noQuality int
	cols := columnsFor(task)
	for _, r := range latest {
		if !r.PriceInputPer1M.Present() {
			noPrice++
		}
		if !r.OutputTokensPerS.Present() {
			noSpeed++
		}
		if !r.ContextWindow.Present() {
			noContext++
		}
		if name, _ := selectQuality(r, cols); name == "" {
			noQuality++
		}
	}

	total := float64(len(latest))
	if float64(noPrice)/total >= nearEmptyRate &&
		float64(noSpeed)/total >= nearEmptyRate &&
		float64(noContext)/total >= nearEmptyRate {
		warnings = append(warnings, "latest snapshot has near-empty price, speed and context fields; recommendations may be low-confidence")
	}
	if noQuality == len(latest) {
		warnings = append(warnings, fmt.Sprintf("no %s quality metric (%v) is available in the latest snapshot; ranking uses speed and cost only", task, QualityColumns(task)))
	}
	return warnings
}

func newestSnapshot(latest map[string]models.Record) time.Time {
	var newest time.Time
	for _, r := range latest {
		if r.SnapshotTS.After(newest) {
			newest = r.SnapshotTS
		}
	}
	return newest.UTC()
}
