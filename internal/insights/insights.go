package insights

import (
	"context"
	"log/slog"
	"strings"

	"arvaiapulse/pkg/contracts/domain"
)

const (
	// NoDataMessage is returned when there is nothing to analyse.
	NoDataMessage = "Nessun dato disponibile per l'analisi."

	// FallbackMessage is returned whenever the model cannot answer.
	FallbackMessage = "Impossibile generare approfondimenti al momento."

	// DefaultMaxRecords caps the records included in the prompt.
	DefaultMaxRecords = 50
)

// Summarizer turns a record slice into a short textual summary.
type Summarizer interface {
	Summarize(ctx context.Context, records []domain.HarvestRecord) string
}

// Generator sends one prompt to a model and returns its text answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelSummarizer summarises records through a pool of generators.
type ModelSummarizer struct {
	selector   *ClientSelector
	maxRecords int
	logger     *slog.Logger
}

// NewSummarizer creates a summarizer over the given generators.
func NewSummarizer(selector *ClientSelector, maxRecords int, logger *slog.Logger) *ModelSummarizer {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelSummarizer{
		selector:   selector,
		maxRecords: maxRecords,
		logger:     logger.With(slog.String("component", "insights")),
	}
}

// Summarize implements Summarizer.
func (s *ModelSummarizer) Summarize(ctx context.Context, records []domain.HarvestRecord) string {
	if len(records) == 0 {
		return NoDataMessage
	}

	prompt := BuildPrompt(records, s.maxRecords)

	var answer string
	err := s.selector.TryAllClients(ctx, func(g Generator, _ int) error {
		text, err := g.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		answer = strings.TrimSpace(text)
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "summary generation failed",
			slog.String("error", err.Error()),
			slog.Int("records", len(records)),
		)
		return FallbackMessage
	}

	if answer == "" {
		s.logger.WarnContext(ctx, "model returned an empty summary")
		return FallbackMessage
	}
	return answer
}

// DisabledSummarizer is used when no API key is configured.
type DisabledSummarizer struct{}

// Summarize implements Summarizer.
func (DisabledSummarizer) Summarize(_ context.Context, records []domain.HarvestRecord) string {
	if len(records) == 0 {
		return NoDataMessage
	}
	return FallbackMessage
}
