package services

import (
	"context"
	"log/slog"
	"time"

	"arvaiapulse/internal/infrastructure"
	"arvaiapulse/internal/insights"
	"arvaiapulse/pkg/contracts/domain"
)

// InsightsService produces the generative summary of the loaded dataset.
type InsightsService struct {
	data       *DatasetService
	summarizer insights.Summarizer
	timeout    time.Duration
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// NewInsightsService creates an insights service. A zero timeout leaves the
// caller's deadline in charge.
func NewInsightsService(data *DatasetService, summarizer insights.Summarizer, timeout time.Duration, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *InsightsService {
	if logger == nil {
		logger = slog.Default()
	}
	if summarizer == nil {
		summarizer = insights.DisabledSummarizer{}
	}
	return &InsightsService{
		data:       data,
		summarizer: summarizer,
		timeout:    timeout,
		metrics:    metrics,
		logger:     logger.With(slog.String("service", "insights")),
	}
}

// Summarize summarises the records matching sel, or every record when sel
// is zero.
func (s *InsightsService) Summarize(ctx context.Context, sel domain.Selection) (string, error) {
	records, err := s.data.Records()
	if err != nil {
		return "", err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	summary := s.summarizer.Summarize(ctx, filterRecords(records, sel))
	fallback := summary == insights.FallbackMessage
	s.metrics.RecordInsight(ctx, time.Since(start), fallback)

	s.logger.InfoContext(ctx, "summary generated",
		slog.Bool("fallback", fallback),
		slog.Duration("duration", time.Since(start)),
	)
	return summary, nil
}

func filterRecords(records []domain.HarvestRecord, sel domain.Selection) []domain.HarvestRecord {
	if sel.IsZero() {
		return records
	}
	filtered := make([]domain.HarvestRecord, 0, len(records))
	for _, r := range records {
		if (sel.ByWeek() && r.Week == sel.Week) || (sel.ByProduct() && r.Product == sel.Product) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
