package dataset

import (
	"context"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/pkg/contracts/domain"
)

// Source kinds reported in DatasetInfo.Source.
const (
	KindFile   = "file"
	KindXLSX   = "xlsx"
	KindSheets = "sheets"
	KindText   = "upload"
)

// ErrSourceUnavailable wraps every failure to reach or read a source.
var ErrSourceUnavailable = errors.New("dataset source unavailable")

// Source loads the full record set.
type Source interface {
	Load(ctx context.Context) ([]domain.HarvestRecord, domain.DatasetInfo, error)
}

// Checksum returns the hex blake2b-256 digest of the canonical TSV rendering
// of records. Two loads of equal content yield the same checksum whatever
// the source format.
func Checksum(records []domain.HarvestRecord) string {
	sum := blake2b.Sum256([]byte(canonicalTSV(records)))
	return hex.EncodeToString(sum[:])
}

func canonicalTSV(records []domain.HarvestRecord) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.Date)
		b.WriteByte('\t')
		b.WriteString(r.Product)
		for _, v := range []float64{r.WeightKg, float64(r.Week), r.TempAvg, r.TempMax, r.TempMin, r.Precipitation} {
			b.WriteByte('\t')
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// newInfo describes records loaded from location. header is the first
// non-blank row of the source, nil when there was none.
func newInfo(kind, location string, header []string, records []domain.HarvestRecord) domain.DatasetInfo {
	return domain.DatasetInfo{
		Source:         kind,
		Location:       location,
		RecordCount:    len(records),
		Checksum:       Checksum(records),
		MissingColumns: dataprocessing.ResolveColumns(header).Missing(),
		LoadedAt:       time.Now().UTC(),
	}
}

// headerLine returns the cells of the first non-blank line of raw TSV.
func headerLine(raw string) []string {
	for _, line := range strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if strings.TrimSpace(line) != "" {
			return strings.Split(line, "\t")
		}
	}
	return nil
}

// headerRow returns the first row with a non-blank cell.
func headerRow(rows [][]string) []string {
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return row
			}
		}
	}
	return nil
}
