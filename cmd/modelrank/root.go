package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spboyer/modelrank/internal/projectconfig"
	"github.com/spboyer/modelrank/internal/warehouse"
	"github.com/spf13/cobra"
)

var version = "dev"

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	debug      bool
	configPath string
	dataDir    string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "modelrank",
		Short: "modelrank - rank LLMs for a task from benchmark snapshots",
		Long: `modelrank keeps a history of LLM benchmark snapshots and ranks models
for a free-text task description.

Snapshots are fetched from Artificial Analysis (or a local fixture),
normalized into a canonical schema and stored append-only. Recommendations
are computed from the latest record of every model, on the command line
or over HTTP with "modelrank serve".`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to the config file (default: nearest "+projectconfig.FileName+")")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Directory holding the snapshot catalog (overrides paths.data_dir)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if opts.debug {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newIngestCommand(opts))
	cmd.AddCommand(newRecommendCommand(opts))
	cmd.AddCommand(newLatestCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

// loadConfig reads the explicit --config file, or the nearest project file
// above the working directory, and applies --data-dir.
func (o *globalOptions) loadConfig() (*projectconfig.ProjectConfig, error) {
	var (
		cfg *projectconfig.ProjectConfig
		err error
	)
	if o.configPath != "" {
		cfg, err = projectconfig.LoadFile(o.configPath)
	} else {
		var wd string
		if wd, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		cfg, err = projectconfig.Load(wd)
	}
	if err != nil {
		return nil, err
	}

	if o.dataDir != "" {
		cfg.Paths.DataDir = o.dataDir
	} else {
		cfg.Paths.DataDir = cfg.Resolve(cfg.Paths.DataDir)
	}
	return cfg, nil
}

// openWarehouse opens the catalog under the data directory with the
// configured snapshot medium.
func openWarehouse(ctx context.Context, cfg *projectconfig.ProjectConfig) (*warehouse.Warehouse, error) {
	opts := warehouse.Options{Dir: cfg.Paths.DataDir}

	switch cfg.Storage.Medium {
	case "", projectconfig.MediumFile:
	case projectconfig.MediumAzBlob:
		medium, err := warehouse.NewBlobMedium(cfg.Storage.AccountURL, cfg.Storage.Container)
		if err != nil {
			return nil, err
		}
		opts.Medium = medium
	default:
		return nil, fmt.Errorf("unknown storage medium %q", cfg.Storage.Medium)
	}

	slog.Debug("Opening warehouse", "dir", opts.Dir, "medium", cfg.Storage.Medium)
	return warehouse.Open(ctx, opts)
}
