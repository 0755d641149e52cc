package exporter

import (
	"fmt"
	"io"

	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/pkg/contracts/domain"
)

// Report is the data behind one export.
type Report struct {
	Selection domain.Selection
	Annual    []domain.WeeklyAggregate
	Weekly    []domain.WeeklyProductRow
	Calendar  dataprocessing.Calendar
}

// NewReport builds a report from a dashboard view.
func NewReport(view domain.DashboardView, cal dataprocessing.Calendar) Report {
	return Report{
		Selection: view.Selection,
		Annual:    view.Annual,
		Weekly:    view.Weekly,
		Calendar:  cal,
	}
}

// AnnualRows renders the annual table body.
func (r Report) AnnualRows() [][]string {
	rows := make([][]string, 0, len(r.Annual))
	for _, a := range r.Annual {
		rows = append(rows, []string{
			a.Label,
			r.Calendar.MondayOf(a.WeekNumber),
			formatFloat(a.TotalWeightKg),
			formatOptional(a.AvgTemp),
			formatOptional(a.MaxTemp),
			formatOptional(a.MinTemp),
			formatOptional(a.AvgPrecip),
		})
	}
	return rows
}

// WeeklyRows renders the weekly breakdown body.
func (r Report) WeeklyRows() [][]string {
	rows := make([][]string, 0, len(r.Weekly))
	for _, w := range r.Weekly {
		rows = append(rows, []string{
			w.Product,
			formatFloat(w.WeightThisWeekKg),
			formatFloat(w.TotalWeightYearKg),
			formatOptional(w.PercentageOfAnnual),
		})
	}
	return rows
}

// ReportWriter writes a report in one format.
type ReportWriter interface {
	WriteReport(w io.Writer, report Report) error
}

// ForFormat returns the writer for format.
func ForFormat(format string) (ReportWriter, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(nil), nil
	case FormatXLSX:
		return NewExcelWriter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
