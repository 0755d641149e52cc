package dataset

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/pkg/contracts/domain"
)

// XLSXSource reads one sheet of an Excel workbook.
type XLSXSource struct {
	Path  string
	Sheet string
}

// NewXLSXSource returns a source for the workbook at path. An empty sheet
// selects the first sheet.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{Path: path, Sheet: sheet}
}

// Load implements Source.
func (s *XLSXSource) Load(ctx context.Context) ([]domain.HarvestRecord, domain.DatasetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.DatasetInfo{}, err
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, domain.DatasetInfo{}, fmt.Errorf("%w: open workbook: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	return loadWorkbook(f, s.Sheet, s.Path)
}

// ReadXLSX parses a workbook from r, used for uploads.
func ReadXLSX(r io.Reader, sheet, name string) ([]domain.HarvestRecord, domain.DatasetInfo, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.DatasetInfo{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	records, info, err := loadWorkbook(f, sheet, name)
	if err != nil {
		return nil, domain.DatasetInfo{}, err
	}
	info.Source = KindText
	return records, info, nil
}

func loadWorkbook(f *excelize.File, sheet, location string) ([]domain.HarvestRecord, domain.DatasetInfo, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, domain.DatasetInfo{}, fmt.Errorf("%w: workbook has no sheets", ErrSourceUnavailable)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, domain.DatasetInfo{}, fmt.Errorf("%w: read sheet %q: %w", ErrSourceUnavailable, sheet, err)
	}

	header := headerRow(rows)
	localizeNumericCells(rows, header)

	records := dataprocessing.ParseRows(rows)
	return records, newInfo(KindXLSX, location+"#"+sheet, header, records), nil
}

// localizeNumericCells rewrites raw numeric cells of the measure columns
// ("12.5") into the Italian form the parser expects ("12,5"). Cells that are
// already text are left untouched.
func localizeNumericCells(rows [][]string, header []string) {
	if header == nil {
		return
	}
	cols := dataprocessing.ResolveColumns(header)
	measures := []int{
		cols.Index(dataprocessing.ColumnWeight),
		cols.Index(dataprocessing.ColumnTempAvg),
		cols.Index(dataprocessing.ColumnTempMax),
		cols.Index(dataprocessing.ColumnTempMin),
		cols.Index(dataprocessing.ColumnPrecipitation),
	}

	for _, row := range rows {
		for _, idx := range measures {
			if idx < 0 || idx >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[idx])
			if strings.Contains(cell, ",") {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err == nil {
				row[idx] = strings.Replace(cell, ".", ",", 1)
			}
		}
	}
}
