package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/internal/dataset"
	"arvaiapulse/internal/infrastructure"
	"arvaiapulse/pkg/contracts/domain"
)

// reloadTimeout bounds a shared reload once it no longer belongs to any
// single caller.
const reloadTimeout = 2 * time.Minute

// Snapshot is a consistent view of the loaded dataset. Records must be
// treated as read-only.
type Snapshot struct {
	Records  []domain.HarvestRecord
	Info     domain.DatasetInfo
	Calendar dataprocessing.Calendar
}

// DatasetListener is called after every successful change of the dataset.
type DatasetListener func(ctx context.Context, info domain.DatasetInfo)

// DatasetService owns the record slice every projection reads from.
type DatasetService struct {
	source   dataset.Source
	calendar dataprocessing.Calendar
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger

	mu      sync.RWMutex
	records []domain.HarvestRecord
	info    domain.DatasetInfo
	loaded  bool

	reloads singleflight.Group

	listenersMu sync.Mutex
	listeners   []DatasetListener
}

// NewDatasetService creates a dataset service reading from source. source
// may be nil when records only ever arrive through Replace.
func NewDatasetService(source dataset.Source, cal dataprocessing.Calendar, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		source:   source,
		calendar: cal,
		metrics:  metrics,
		logger:   logger.With(slog.String("service", "dataset")),
	}
}

// Subscribe registers l for dataset changes.
func (s *DatasetService) Subscribe(l DatasetListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns the current dataset.
func (s *DatasetService) Snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return Snapshot{}, ErrDatasetNotLoaded
	}
	return Snapshot{Records: s.records, Info: s.info, Calendar: s.calendar}, nil
}

// Records returns the loaded records.
func (s *DatasetService) Records() ([]domain.HarvestRecord, error) {
	snap, err := s.Snapshot()
	return snap.Records, err
}

// Info describes the loaded dataset.
func (s *DatasetService) Info() (domain.DatasetInfo, error) {
	snap, err := s.Snapshot()
	return snap.Info, err
}

// Loaded reports whether a dataset is available.
func (s *DatasetService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Calendar returns the season calendar used for week labels.
func (s *DatasetService) Calendar() dataprocessing.Calendar {
	return s.calendar
}

// Reload reads the configured source again. Concurrent calls share one
// read, which keeps running when the caller that started it goes away; each
// caller still returns as soon as its own ctx is done. On failure the
// previous dataset stays in place.
func (s *DatasetService) Reload(ctx context.Context) (domain.DatasetInfo, error) {
	if s.source == nil {
		return domain.DatasetInfo{}, fmt.Errorf("reload: %w", dataset.ErrSourceUnavailable)
	}

	ch := s.reloads.DoChan("reload", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reloadTimeout)
		defer cancel()
		return s.load(loadCtx, s.source, sourceKind(s.source), false)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.DatasetInfo{}, res.Err
		}
		return res.Val.(domain.DatasetInfo), nil
	case <-ctx.Done():
		return domain.DatasetInfo{}, ctx.Err()
	}
}

// Replace swaps the dataset for raw TSV text, typically an upload.
func (s *DatasetService) Replace(ctx context.Context, raw, name string) (domain.DatasetInfo, error) {
	return s.load(ctx, dataset.NewTextSource(raw, name), dataset.KindText, true)
}

// ReplaceXLSX swaps the dataset for an uploaded workbook.
func (s *DatasetService) ReplaceXLSX(ctx context.Context, r io.Reader, sheet, name string) (domain.DatasetInfo, error) {
	return s.load(ctx, workbookSource{r: r, sheet: sheet, name: name}, dataset.KindText, true)
}

// load reads src and installs the result. Uploads must carry at least one
// data row; a configured source may legitimately be empty.
func (s *DatasetService) load(ctx context.Context, src dataset.Source, kind string, upload bool) (domain.DatasetInfo, error) {
	start := time.Now()
	records, info, err := src.Load(ctx)
	s.metrics.RecordDatasetLoad(ctx, kind, len(records), time.Since(start), err)

	if err != nil {
		s.logger.ErrorContext(ctx, "dataset load failed", slog.String("error", err.Error()))
		return domain.DatasetInfo{}, fmt.Errorf("load dataset: %w", err)
	}
	if upload && len(records) == 0 {
		s.logger.WarnContext(ctx, "rejected empty upload")
		return domain.DatasetInfo{}, ErrEmptyUpload
	}

	info.Season = s.calendar.Season()

	s.mu.Lock()
	s.records = records
	s.info = info
	s.loaded = true
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", info.Source),
		slog.String("location", info.Location),
		slog.Int("records", info.RecordCount),
		slog.String("checksum", info.Checksum),
		slog.Any("missing_columns", info.MissingColumns),
		slog.Duration("duration", time.Since(start)),
	)
	if len(info.MissingColumns) > 0 {
		s.logger.WarnContext(ctx, "dataset header is missing columns, their values default to zero",
			slog.Any("missing_columns", info.MissingColumns))
	}

	s.notify(ctx, info)
	return info, nil
}

func (s *DatasetService) notify(ctx context.Context, info domain.DatasetInfo) {
	s.listenersMu.Lock()
	listeners := append([]DatasetListener(nil), s.listeners...)
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(ctx, info)
	}
}

func sourceKind(src dataset.Source) string {
	switch src.(type) {
	case *dataset.FileSource:
		return dataset.KindFile
	case *dataset.XLSXSource:
		return dataset.KindXLSX
	case *dataset.SheetsSource:
		return dataset.KindSheets
	default:
		return dataset.KindText
	}
}

// workbookSource adapts an uploaded workbook to dataset.Source.
type workbookSource struct {
	r     io.Reader
	sheet string
	name  string
}

func (w workbookSource) Load(ctx context.Context) ([]domain.HarvestRecord, domain.DatasetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.DatasetInfo{}, err
	}
	return dataset.ReadXLSX(w.r, w.sheet, w.name)
}
