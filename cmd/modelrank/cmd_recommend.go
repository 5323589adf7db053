package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spboyer/modelrank/internal/models"
	"github.com/spboyer/modelrank/internal/projectconfig"
	"github.com/spboyer/modelrank/internal/recommend"
	"github.com/spboyer/modelrank/internal/spinner"
	"github.com/spboyer/modelrank/internal/taskprofile"
	"github.com/spboyer/modelrank/internal/validation"
	"github.com/spf13/cobra"
)

type recommendOptions struct {
	topK              int
	maxPrice          float64
	minContext        int64
	providerAllowlist string
	missingPolicy     string
	refresh           bool
	noRefresh         bool
	maxAgeHours       float64
	format            string
}

func newRecommendCommand(g *globalOptions) *cobra.Command {
	opts := &recommendOptions{}

	cmd := &cobra.Command{
		Use:   "recommend <task description>",
		Short: "Rank models for a free-text task description",
		Long: `Rank the latest snapshot of every model for a task described in plain
language, e.g. "fast and cheap python debugging under $5 per 1M tokens".

The description selects the task type and the quality/speed/cost weights.
Flags override constraints parsed from the text. The snapshot is refreshed
first when it is older than --max-age-hours.

Exit status is 1 when there is no data or every model was filtered out.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd, g, opts, strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.topK, "topk", projectconfig.DefaultTopK, "Number of models to return (0 for all)")
	f.Float64Var(&opts.maxPrice, "max-price-per-1m", 0, "Maximum input price in USD per 1M tokens")
	f.Int64Var(&opts.minContext, "min-context", 0, "Minimum context window in tokens")
	f.StringVar(&opts.providerAllowlist, "provider-allowlist", "", "Comma-separated providers to consider")
	f.StringVar(&opts.missingPolicy, "missing-policy", projectconfig.DefaultMissingPolicy, "How absent metrics score: penalize or neutral")
	f.BoolVar(&opts.refresh, "refresh", false, "Ingest a fresh snapshot before ranking")
	f.BoolVar(&opts.noRefresh, "no-refresh", false, "Never ingest; rank whatever is stored")
	f.Float64Var(&opts.maxAgeHours, "max-age-hours", projectconfig.DefaultMaxAgeHours, "Refresh when the newest snapshot is older than this")
	f.StringVarP(&opts.format, "format", "f", "json", "Output format: json or table")
	cmd.MarkFlagsMutuallyExclusive("refresh", "no-refresh")

	return cmd
}

func runRecommend(cmd *cobra.Command, g *globalOptions, opts *recommendOptions, text string) error {
	if opts.format != "json" && opts.format != "table" {
		return fmt.Errorf("unsupported format %q: must be json or table", opts.format)
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	overrides, err := buildOverrides(cmd, opts, cfg)
	if err != nil {
		return err
	}

	topK := cfg.Recommend.TopK
	if cmd.Flags().Changed("topk") {
		topK = opts.topK
	}
	maxAge := cfg.MaxAge()
	if cmd.Flags().Changed("max-age-hours") {
		if opts.maxAgeHours <= 0 {
			return fmt.Errorf("--max-age-hours must be positive, got %v", opts.maxAgeHours)
		}
		maxAge = time.Duration(opts.maxAgeHours * float64(time.Hour))
	}

	ctx := cmd.Context()
	wh, err := openWarehouse(ctx, cfg)
	if err != nil {
		return err
	}
	defer wh.Close() //nolint:errcheck

	var refresher recommend.Refresher
	if !opts.noRefresh {
		pipeline, err := newPipeline(cfg, wh, "", false)
		if err != nil {
			return err
		}
		refresher = &progressRefresher{next: pipeline, w: cmd.ErrOrStderr()}
	}

	orch := recommend.NewOrchestrator(wh, refresher, recommend.WithMaxAge(maxAge))
	result, err := orch.Recommend(ctx, recommend.Request{
		Text:         text,
		Overrides:    overrides,
		TopK:         topK,
		ForceRefresh: opts.refresh,
	})
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		slog.Warn(w)
	}

	if opts.format == "table" {
		return printRecommendationTable(cmd.OutOrStdout(), result)
	}
	return printRecommendationJSON(cmd.OutOrStdout(), result)
}

// progressRefresher shows a spinner on w while a refresh runs.
type progressRefresher struct {
	next recommend.Refresher
	w    io.Writer
}

func (p *progressRefresher) Refresh(ctx context.Context) error {
	stop := spinner.Start(p.w, "Refreshing model data...")
	defer stop()
	return p.next.Refresh(ctx)
}

// buildOverrides turns explicitly set flags into overrides. The missing
// policy falls back to the configured default.
func buildOverrides(cmd *cobra.Command, opts *recommendOptions, cfg *projectconfig.ProjectConfig) (taskprofile.Overrides, error) {
	var o taskprofile.Overrides
	flags := cmd.Flags()

	if flags.Changed("max-price-per-1m") {
		if opts.maxPrice < 0 {
			return o, fmt.Errorf("--max-price-per-1m must not be negative, got %v", opts.maxPrice)
		}
		o.MaxPricePer1M = &opts.maxPrice
	}
	if flags.Changed("min-context") {
		if opts.minContext < 0 {
			return o, fmt.Errorf("--min-context must not be negative, got %d", opts.minContext)
		}
		o.MinContext = &opts.minContext
	}
	if flags.Changed("provider-allowlist") {
		o.ProviderAllowlist = taskprofile.ParseProviderList(opts.providerAllowlist)
	}

	policy := cfg.Recommend.MissingPolicy
	if flags.Changed("missing-policy") {
		policy = opts.missingPolicy
	}
	p, err := taskprofile.ParseMissingPolicy(policy)
	if err != nil {
		return o, err
	}
	o.MissingPolicy = &p
	return o, nil
}

// printRecommendationJSON writes the result document after checking it
// against the published output schema.
func printRecommendationJSON(w io.Writer, result *models.RecommendationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if errs := validation.ValidateRecommendationBytes(data); len(errs) > 0 {
		return fmt.Errorf("result does not match the output schema: %s", strings.Join(errs, "; "))
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
