package dataset

import (
	"context"

	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/pkg/contracts/domain"
)

// TextSource serves TSV that is already in memory.
type TextSource struct {
	Raw  string
	Name string
}

// NewTextSource returns a source over raw TSV text.
func NewTextSource(raw, name string) *TextSource {
	return &TextSource{Raw: raw, Name: name}
}

// Load implements Source.
func (s *TextSource) Load(ctx context.Context) ([]domain.HarvestRecord, domain.DatasetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.DatasetInfo{}, err
	}
	records := dataprocessing.Parse(s.Raw)
	return records, newInfo(KindText, s.Name, headerLine(s.Raw), records), nil
}
