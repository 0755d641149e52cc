package dataset

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/pkg/contracts/domain"
)

// SheetsSource reads a range of a Google spreadsheet shared by link.
type SheetsSource struct {
	SpreadsheetID string
	Range         string
	APIKey        string

	// Options are appended to the client options, for endpoints in tests.
	Options []option.ClientOption
}

// NewSheetsSource returns a source for spreadsheetID. sheet and cellRange
// are combined into an A1 range such as "Distribuzione!A:H".
func NewSheetsSource(spreadsheetID, sheet, cellRange, apiKey string) *SheetsSource {
	rng := cellRange
	if sheet != "" {
		rng = fmt.Sprintf("'%s'!%s", sheet, cellRange)
	}
	return &SheetsSource{SpreadsheetID: spreadsheetID, Range: rng, APIKey: apiKey}
}

// Load implements Source. Values are requested formatted, so cells arrive
// exactly as the sheet displays them and go through the same parsing as
// pasted TSV.
func (s *SheetsSource) Load(ctx context.Context) ([]domain.HarvestRecord, domain.DatasetInfo, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(s.APIKey)}, s.Options...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, domain.DatasetInfo{}, fmt.Errorf("%w: sheets client: %w", ErrSourceUnavailable, err)
	}

	resp, err := svc.Spreadsheets.Values.Get(s.SpreadsheetID, s.Range).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, domain.DatasetInfo{}, fmt.Errorf("%w: read range %s: %w", ErrSourceUnavailable, s.Range, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, values := range resp.Values {
		row := make([]string, len(values))
		for j, v := range values {
			row[j] = cellString(v)
		}
		rows[i] = row
	}

	records := dataprocessing.ParseRows(rows)
	return records, newInfo(KindSheets, s.SpreadsheetID+"/"+s.Range, headerRow(rows), records), nil
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
