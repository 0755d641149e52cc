package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the Excel export.
const (
	SheetAnnual = "Annuale"
	SheetWeekly = "Settimana"
)

// ExcelWriter writes reports as workbooks with one sheet per table.
type ExcelWriter struct{}

// NewExcelWriter creates a new Excel writer.
func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

// WriteReport implements ReportWriter.
func (ew *ExcelWriter) WriteReport(w io.Writer, report Report) error {
	f, err := ew.Build(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveReport writes the report to filePath.
func (ew *ExcelWriter) SaveReport(filePath string, report Report) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := ew.Build(report)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(filePath)
}

// Build assembles the workbook. The caller closes it.
func (ew *ExcelWriter) Build(report Report) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetAnnual); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetWeekly); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2E7D32"}},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	annual := make([][]interface{}, 0, len(report.Annual))
	for _, a := range report.Annual {
		annual = append(annual, []interface{}{
			a.Label,
			report.Calendar.MondayOf(a.WeekNumber),
			round2(a.TotalWeightKg),
			optionalCell(a.AvgTemp),
			optionalCell(a.MaxTemp),
			optionalCell(a.MinTemp),
			optionalCell(a.AvgPrecip),
		})
	}

	weekly := make([][]interface{}, 0, len(report.Weekly))
	for _, w := range report.Weekly {
		weekly = append(weekly, []interface{}{
			w.Product,
			round2(w.WeightThisWeekKg),
			round2(w.TotalWeightYearKg),
			optionalCell(w.PercentageOfAnnual),
		})
	}

	if err := writeSheet(f, SheetAnnual, AnnualHeaders, annual, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, SheetWeekly, WeeklyHeaders, weekly, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// optionalCell leaves nil values as empty cells.
func optionalCell(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return round2(*f)
}
