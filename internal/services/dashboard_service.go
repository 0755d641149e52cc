package services

import (
	"context"
	"log/slog"

	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/pkg/contracts/domain"
)

// Highlight lists the weeks to emphasise on the annual chart.
type Highlight struct {
	Selection domain.Selection   `json:"selection"`
	Weeks     []int              `json:"weeks"`
	Ranges    []domain.WeekRange `json:"ranges"`
}

// DashboardService computes the dashboard projections. Every method works
// on a Snapshot so one request sees one dataset even across a reload.
type DashboardService struct {
	data   *DatasetService
	logger *slog.Logger
}

// NewDashboardService creates a dashboard service over data.
func NewDashboardService(data *DatasetService, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		data:   data,
		logger: logger.With(slog.String("service", "dashboard")),
	}
}

// Snapshot returns the dataset the next projections should use.
func (s *DashboardService) Snapshot(ctx context.Context) (Snapshot, error) {
	snap, err := s.data.Snapshot()
	if err != nil {
		s.logger.DebugContext(ctx, "dashboard requested before dataset load")
	}
	return snap, err
}

// View returns every projection for sel.
func (s *DashboardService) View(snap Snapshot, sel domain.Selection) domain.DashboardView {
	return dataprocessing.BuildView(snap.Records, sel)
}

// Annual returns the 53 weekly aggregates for sel.
func (s *DashboardService) Annual(snap Snapshot, sel domain.Selection) []domain.WeeklyAggregate {
	return dataprocessing.AnnualByWeek(snap.Records, sel)
}

// Weekly returns the product breakdown of the selected week.
func (s *DashboardService) Weekly(snap Snapshot, sel domain.Selection) []domain.WeeklyProductRow {
	return dataprocessing.WeeklyBreakdown(snap.Records, sel)
}

// Highlight returns the highlighted weeks for sel.
func (s *DashboardService) Highlight(snap Snapshot, sel domain.Selection) Highlight {
	set := dataprocessing.HighlightedWeeks(snap.Records, sel)
	return Highlight{
		Selection: sel,
		Weeks:     set.Sorted(),
		Ranges:    dataprocessing.HighlightRanges(set),
	}
}

// Products returns the distinct products.
func (s *DashboardService) Products(snap Snapshot) []string {
	return dataprocessing.Products(snap.Records)
}

// Weeks returns the week options present in the dataset.
func (s *DashboardService) Weeks(snap Snapshot) []domain.WeekOption {
	return dataprocessing.Weeks(snap.Records, snap.Calendar)
}
