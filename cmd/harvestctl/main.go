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
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/internal/dataset"
	"arvaiapulse/internal/infrastructure"
	"arvaiapulse/internal/services"
	"arvaiapulse/pkg/contracts"
	"arvaiapulse/pkg/contracts/domain"
)

// options are the persistent flags shared by every subcommand
type options struct {
	weekOne  string
	sheet    string
	logLevel string
	timeout  time.Duration

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "harvestctl",
		Short: "Inspect an Arvaia distribution sheet from the command line",
		Long: `harvestctl reads a distribution sheet (TSV, XLSX, or "-" for TSV on stdin)
and prints the same projections the dashboard serves, as JSON.`,
		Version:       contracts.GetVersionString(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.weekOne, "week-one", dataprocessing.DefaultWeekOneMonday.Format(time.DateOnly), "Monday week 1 starts on (YYYY-MM-DD)")
	root.PersistentFlags().StringVar(&opts.sheet, "sheet", "", "worksheet to read from an XLSX file (default: first)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "overall command timeout")

	root.AddCommand(
		newAnnualCmd(opts),
		newWeeklyCmd(opts),
		newHighlightCmd(opts),
		newExportCmd(opts),
		newInsightsCmd(opts),
	)
	return root
}

func (o *options) logger() *slog.Logger {
	return infrastructure.NewLogger(o.stderr, o.logLevel)
}

func (o *options) calendar() (dataprocessing.Calendar, error) {
	monday, err := time.Parse(time.DateOnly, o.weekOne)
	if err != nil {
		return dataprocessing.Calendar{}, fmt.Errorf("invalid --week-one %q: %w", o.weekOne, err)
	}
	if monday.Weekday() != time.Monday {
		return dataprocessing.Calendar{}, fmt.Errorf("--week-one %s is a %s, not a Monday", o.weekOne, monday.Weekday())
	}
	return dataprocessing.NewCalendar(monday), nil
}

// source picks the reader for path: stdin, a workbook or a TSV file
func (o *options) source(path string) (dataset.Source, error) {
	if path == "-" {
		raw, err := io.ReadAll(o.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return dataset.NewTextSource(string(raw), "stdin"), nil
	}
	if dataset.KindForPath(path) == dataset.KindXLSX {
		return dataset.NewXLSXSource(path, o.sheet), nil
	}
	return dataset.NewFileSource(path), nil
}

// load reads path into a dataset service
func (o *options) load(ctx context.Context, path string) (*services.DatasetService, error) {
	cal, err := o.calendar()
	if err != nil {
		return nil, err
	}
	src, err := o.source(path)
	if err != nil {
		return nil, err
	}

	data := services.NewDatasetService(src, cal, nil, o.logger())
	if _, err := data.Reload(ctx); err != nil {
		return nil, err
	}
	return data, nil
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.timeout > 0 {
		return context.WithTimeout(ctx, o.timeout)
	}
	return context.WithCancel(ctx)
}

func (o *options) printJSON(v interface{}) error {
	enc := json.NewEncoder(o.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// selection builds the filter from --product and --week. A week of -1
// means the flag was not given.
func selection(product string, week int) domain.Selection {
	switch {
	case week >= 0:
		return domain.SelectWeek(week)
	case product != "":
		return domain.SelectProduct(product)
	default:
		return domain.Selection{}
	}
}
