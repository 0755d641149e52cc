package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"arvaiapulse/internal/exporter"
	"arvaiapulse/internal/infrastructure"
	"arvaiapulse/pkg/contracts/domain"
)

// Export is a prepared download. Nothing is written until WriteTo.
type Export struct {
	Format      string
	FileName    string
	ContentType string

	report exporter.Report
	writer exporter.ReportWriter
}

// WriteTo streams the export to w.
func (e *Export) WriteTo(w io.Writer) error {
	return e.writer.WriteReport(w, e.report)
}

// ExportService turns dashboard views into CSV or XLSX reports.
type ExportService struct {
	dashboard *DashboardService
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
}

// NewExportService creates an export service.
func NewExportService(dashboard *DashboardService, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		dashboard: dashboard,
		metrics:   metrics,
		logger:    logger.With(slog.String("service", "export")),
	}
}

// Prepare builds the export of sel in format.
func (s *ExportService) Prepare(ctx context.Context, format string, sel domain.Selection) (*Export, error) {
	writer, err := exporter.ForFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	snap, err := s.dashboard.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	view := s.dashboard.View(snap, sel)
	s.metrics.RecordExport(ctx, format)
	s.logger.InfoContext(ctx, "export prepared",
		slog.String("format", format),
		slog.Int("weekly_rows", len(view.Weekly)),
	)

	return &Export{
		Format:      format,
		FileName:    exporter.FileName(format, snap.Info.Season, sel),
		ContentType: exporter.ContentType(format),
		report:      exporter.NewReport(view, snap.Calendar),
		writer:      writer,
	}, nil
}
