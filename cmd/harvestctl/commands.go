package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"arvaiapulse/internal/config"
	"arvaiapulse/internal/exporter"
	"arvaiapulse/internal/insights"
	"arvaiapulse/internal/services"
	"arvaiapulse/pkg/contracts/domain"
)

const formatBoth = "both"

var errProductAndWeek = errors.New("--product and --week are mutually exclusive")

func newAnnualCmd(opts *options) *cobra.Command {
	var product string

	cmd := &cobra.Command{
		Use:   "annual FILE",
		Short: "Print the 53 weekly totals of the season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			data, err := opts.load(ctx, args[0])
			if err != nil {
				return err
			}
			dashboard := services.NewDashboardService(data, opts.logger())
			snap, err := dashboard.Snapshot(ctx)
			if err != nil {
				return err
			}
			return opts.printJSON(dashboard.Annual(snap, selection(product, -1)))
		},
	}
	cmd.Flags().StringVar(&product, "product", "", "only count this product")
	return cmd
}

func newWeeklyCmd(opts *options) *cobra.Command {
	var week int

	cmd := &cobra.Command{
		Use:   "weekly --week N FILE",
		Short: "Print the per-product breakdown of one week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if week < 0 {
				return fmt.Errorf("--week must be zero or positive, got %d", week)
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			data, err := opts.load(ctx, args[0])
			if err != nil {
				return err
			}
			dashboard := services.NewDashboardService(data, opts.logger())
			snap, err := dashboard.Snapshot(ctx)
			if err != nil {
				return err
			}
			rows := dashboard.Weekly(snap, domain.SelectWeek(week))
			if rows == nil {
				rows = []domain.WeeklyProductRow{}
			}
			return opts.printJSON(rows)
		},
	}
	cmd.Flags().IntVar(&week, "week", -1, "week number")
	_ = cmd.MarkFlagRequired("week")
	return cmd
}

func newHighlightCmd(opts *options) *cobra.Command {
	var (
		product string
		week    int
	)

	cmd := &cobra.Command{
		Use:   "highlight (--product P | --week N) FILE",
		Short: "Print the weeks highlighted for a product or a week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if product != "" && week >= 0 {
				return errProductAndWeek
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			data, err := opts.load(ctx, args[0])
			if err != nil {
				return err
			}
			dashboard := services.NewDashboardService(data, opts.logger())
			snap, err := dashboard.Snapshot(ctx)
			if err != nil {
				return err
			}
			return opts.printJSON(dashboard.Highlight(snap, selection(product, week)))
		},
	}
	cmd.Flags().StringVar(&product, "product", "", "product to highlight")
	cmd.Flags().IntVar(&week, "week", -1, "week to highlight")
	return cmd
}

// exportResult is printed once per written file
type exportResult struct {
	Format string `json:"format"`
	Path   string `json:"path"`
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		format  string
		outDir  string
		product string
		week    int
	)

	cmd := &cobra.Command{
		Use:   "export --format csv|xlsx|both FILE",
		Short: "Write the dashboard tables to CSV and/or XLSX files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if product != "" && week >= 0 {
				return errProductAndWeek
			}
			formats, err := exportFormats(format)
			if err != nil {
				return err
			}
			if outDir == "" {
				paths, err := config.GetPaths()
				if err != nil {
					return err
				}
				outDir = paths.ExportsDir
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			data, err := opts.load(ctx, args[0])
			if err != nil {
				return err
			}
			dashboard := services.NewDashboardService(data, opts.logger())
			snap, err := dashboard.Snapshot(ctx)
			if err != nil {
				return err
			}

			sel := selection(product, week)
			report := exporter.NewReport(dashboard.View(snap, sel), snap.Calendar)
			results := make([]exportResult, len(formats))

			g, ctx := errgroup.WithContext(ctx)
			for i, f := range formats {
				path := filepath.Join(outDir, exporter.FileName(f, snap.Info.Season, sel))
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					written, err := saveReport(f, path, report)
					if err != nil {
						return fmt.Errorf("export %s: %w", f, err)
					}
					results[i] = exportResult{Format: f, Path: written}
					opts.logger().DebugContext(ctx, "export written",
						slog.String("format", f), slog.String("path", written))
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return opts.printJSON(results)
		},
	}
	cmd.Flags().StringVar(&format, "format", exporter.FormatCSV, "csv, xlsx or both")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default: data/exports next to the binary)")
	cmd.Flags().StringVar(&product, "product", "", "export the annual table of one product")
	cmd.Flags().IntVar(&week, "week", -1, "export the breakdown of one week")
	return cmd
}

func exportFormats(format string) ([]string, error) {
	switch strings.ToLower(format) {
	case exporter.FormatCSV:
		return []string{exporter.FormatCSV}, nil
	case exporter.FormatXLSX:
		return []string{exporter.FormatXLSX}, nil
	case formatBoth:
		return []string{exporter.FormatCSV, exporter.FormatXLSX}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func saveReport(format, path string, report exporter.Report) (string, error) {
	if format == exporter.FormatXLSX {
		return path, exporter.NewExcelWriter().SaveReport(path, report)
	}
	return exporter.NewCSVWriter(nil).SaveReport(path, report)
}

func newInsightsCmd(opts *options) *cobra.Command {
	var (
		product string
		week    int
	)

	cmd := &cobra.Command{
		Use:   "insights FILE",
		Short: "Summarise the distribution with the configured language model",
		Long: `insights reads the ARVAIA_INSIGHTS_* settings (or the config file) and
prints the generated summary. Without API keys it prints the fallback text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if product != "" && week >= 0 {
				return errProductAndWeek
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			logger := opts.logger()
			cfg, err := config.Load()
			if err != nil {
				logger.WarnContext(ctx, "using default configuration", slog.String("error", err.Error()))
				cfg = config.Default()
			}

			data, err := opts.load(ctx, args[0])
			if err != nil {
				return err
			}

			summarizer := insights.New(ctx, cfg.Insights, logger)
			if closer, ok := summarizer.(interface{ Close() error }); ok {
				defer closer.Close()
			}

			summary, err := services.NewInsightsService(data, summarizer, cfg.Insights.Timeout, nil, logger).
				Summarize(ctx, selection(product, week))
			if err != nil {
				return err
			}
			return opts.printJSON(map[string]string{"summary": summary})
		},
	}
	cmd.Flags().StringVar(&product, "product", "", "only summarise this product")
	cmd.Flags().IntVar(&week, "week", -1, "only summarise this week")
	return cmd
}
