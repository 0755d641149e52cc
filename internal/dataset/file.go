package dataset

import (
	"context"
	"fmt"
	"os"

	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/pkg/contracts/domain"
)

// FileSource reads tab-separated text from disk on every Load.
type FileSource struct {
	Path string
}

// NewFileSource returns a source for the TSV file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) ([]domain.HarvestRecord, domain.DatasetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.DatasetInfo{}, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, domain.DatasetInfo{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	raw := string(data)
	records := dataprocessing.Parse(raw)
	return records, newInfo(KindFile, s.Path, headerLine(raw), records), nil
}
