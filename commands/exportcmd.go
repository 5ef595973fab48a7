package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/facultyatlas/export"
	"github.com/c360studio/facultyatlas/scraper"
	"github.com/c360studio/facultyatlas/store"
)

// exportOptions are the export subcommand's flags.
type exportOptions struct {
	exportDir string
	format    string
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export <result.json>",
		Short: "Re-export a saved scrape result as linked data",
		Long: `Export reads a scrape result previously written by scrape --output,
resolves its faculty records into a fresh entity graph, and writes the
aggregated views in the chosen format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), root, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.exportDir, "export-dir", "", "Export directory for aggregated views (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Export format: json, turtle, ntriples, jsonld")

	return cmd
}

func runExport(ctx context.Context, root *rootOptions, opts *exportOptions, resultPath string) error {
	logger := newLogger(root.logLevel)

	cfg, err := loadConfig(root, logger)
	if err != nil {
		return err
	}
	if opts.exportDir != "" {
		cfg.Export.Dir = opts.exportDir
	}

	format := export.Format(strings.ToLower(opts.format))
	if _, ok := export.GetFormatInfo(format); !ok {
		return fmt.Errorf("unsupported export format %q", opts.format)
	}

	data, err := os.ReadFile(resultPath)
	if err != nil {
		return fmt.Errorf("read scrape result: %w", err)
	}
	var result scraper.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parse scrape result: %w", err)
	}
	if len(result.Faculty) == 0 {
		return fmt.Errorf("scrape result %s contains no faculty records", resultPath)
	}

	st := store.NewMemoryStore(logger)
	defer st.Close()

	report, err := st.Ingest(ctx, result.Faculty, result.Metadata.ScrapeID)
	if err != nil {
		return fmt.Errorf("resolve scrape result: %w", err)
	}
	logger.Info("scrape result resolved",
		"processed", report.Processed,
		"created", report.Created,
		"merged", report.Merged)

	return exportViews(st, cfg.Export.Dir, format, logger)
}
