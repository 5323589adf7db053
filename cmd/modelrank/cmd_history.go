package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spboyer/modelrank/internal/models"
	"github.com/spboyer/modelrank/internal/warehouse"
	"github.com/spf13/cobra"
)

func newLatestCommand(g *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the latest record of every model",
		Long: `Show the current latest view: one record per model, taken from the
snapshot with the newest timestamp that contains it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkListFormat(format); err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			wh, err := openWarehouse(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer wh.Close() //nolint:errcheck

			latest, err := wh.Latest(cmd.Context())
			if err != nil {
				return err
			}
			records := make([]models.Record, 0, len(latest))
			for _, key := range slices.Sorted(maps.Keys(latest)) {
				records = append(records, latest[key])
			}
			return printRecords(cmd.OutOrStdout(), records, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")
	return cmd
}

func newHistoryCommand(g *globalOptions) *cobra.Command {
	var (
		format string
		model  string
		source string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored records in append order",
		Long: `List every stored record, oldest snapshot first. Snapshots are never
modified, so the output for a given prefix of history is stable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkListFormat(format); err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			wh, err := openWarehouse(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer wh.Close() //nolint:errcheck

			var records []models.Record
			for r, err := range wh.History(cmd.Context(), historyFilter(model, source)) {
				if err != nil {
					return err
				}
				records = append(records, r)
			}
			return printRecords(cmd.OutOrStdout(), records, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")
	cmd.Flags().StringVar(&model, "model", "", "Only this canonical model key (e.g. openai::gpt-4o)")
	cmd.Flags().StringVar(&source, "source", "", "Only records captured from this source")
	return cmd
}

// historyFilter combines the optional model and source filters.
func historyFilter(model, source string) warehouse.Filter {
	var filters []warehouse.Filter
	if model != "" {
		filters = append(filters, warehouse.ByModel(strings.TrimSpace(model)))
	}
	if source != "" {
		filters = append(filters, warehouse.BySource(strings.TrimSpace(source)))
	}
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	}
	return func(r models.Record) bool {
		for _, f := range filters {
			if !f(r) {
				return false
			}
		}
		return true
	}
}

func checkListFormat(format string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("unsupported format %q: must be table or json", format)
	}
	return nil
}

func printRecords(w io.Writer, records []models.Record, format string) error {
	if format == "json" {
		if records == nil {
			records = []models.Record{}
		}
		return writeJSON(w, records)
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records stored. Run 'modelrank ingest' first.")
		return err
	}
	return printRecordTable(w, records)
}
