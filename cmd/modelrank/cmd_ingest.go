package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spboyer/modelrank/internal/ingest"
	"github.com/spboyer/modelrank/internal/projectconfig"
	"github.com/spboyer/modelrank/internal/scheduler"
	"github.com/spf13/cobra"
)

type ingestOptions struct {
	fixture  string
	offline  bool
	schedule string
	watch    bool
	timezone string
}

func newIngestCommand(g *globalOptions) *cobra.Command {
	opts := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch, normalize and store one model snapshot",
		Long: `Fetch model records from Artificial Analysis, normalize them and append
them to the warehouse as one snapshot.

The API key is read from AA_API_KEY or from the configured .env file. When
the source cannot be reached the built-in fixture (or source.fixture) is
ingested instead.

With --schedule or --watch the command keeps running and ingests on a cron
schedule until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.fixture, "fixture", "", "Ingest from this JSON file instead of the API")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Ingest the fixture without contacting the API")
	cmd.Flags().StringVar(&opts.schedule, "schedule", "", `Keep running and ingest on this cron schedule (e.g. "0 */6 * * *" or "@every 6h")`)
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Keep running and ingest on the configured schedule")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "", "Timezone for --schedule (default: ingest.timezone)")

	return cmd
}

func runIngest(cmd *cobra.Command, g *globalOptions, opts *ingestOptions) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wh, err := openWarehouse(ctx, cfg)
	if err != nil {
		return err
	}
	defer wh.Close() //nolint:errcheck

	pipeline, err := newPipeline(cfg, wh, opts.fixture, opts.offline || opts.fixture != "")
	if err != nil {
		return err
	}

	spec := opts.schedule
	if spec == "" && opts.watch {
		spec = cfg.Ingest.Schedule
	}
	if spec == "" {
		report, err := pipeline.Run(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), report)
	}

	tz := opts.timezone
	if tz == "" {
		tz = cfg.Ingest.Timezone
	}
	return runScheduled(ctx, cmd.OutOrStdout(), pipeline, spec, tz)
}

// runScheduled ingests once right away, then on every tick of spec until
// ctx is cancelled.
func runScheduled(ctx context.Context, out io.Writer, pipeline *ingest.Pipeline, spec, timezone string) error {
	sched, err := scheduler.New(timezone)
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		report, err := pipeline.Run(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, report)
	}
	if err := sched.Schedule(spec, job); err != nil {
		return err
	}

	if err := job(ctx); err != nil {
		slog.Error("Initial ingestion failed", "error", err)
	}

	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	slog.Info("Scheduler stopped")
	return nil
}

// newPipeline wires the API connector, the fixture fallback and textfile
// metrics. With fixtureOnly the API is not contacted at all.
func newPipeline(cfg *projectconfig.ProjectConfig, store ingest.Store, fixturePath string, fixtureOnly bool) (*ingest.Pipeline, error) {
	if fixturePath == "" {
		fixturePath = cfg.Resolve(cfg.Source.Fixture)
	}
	fallback := &ingest.Fixture{Path: fixturePath}

	var primary ingest.Connector
	if !fixtureOnly {
		key, err := ingest.LoadAPIKey(cfg.Resolve(cfg.Paths.EnvFile))
		if err != nil {
			return nil, err
		}
		if key == "" {
			slog.Warn(fmt.Sprintf("%s is not set; the fixture will be used", ingest.APIKeyEnv))
		}
		primary = ingest.NewArtificialAnalysis(cfg.Source.Endpoint, key, cfg.SourceTimeout())
	}

	metrics := ingest.NewMetrics(cfg.Resolve(cfg.Metrics.Textfile))
	return ingest.NewPipeline(store, primary, fallback, ingest.WithMetrics(metrics)), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
