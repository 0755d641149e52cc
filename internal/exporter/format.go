package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/pkg/contracts/domain"
)

// Supported export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Table headers.
var (
	AnnualHeaders = []string{"Settimana", "Lunedi", "Peso_kg", "T_media", "T_max", "T_min", "Precipitazioni"}
	WeeklyHeaders = []string{"Prodotto", "Kg_settimana", "Kg_annuo", "Percentuale"}
)

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// FileName builds the download name for a report, e.g.
// "arvaia-distribuzione-2025-S05.xlsx".
func FileName(format string, season int, sel domain.Selection) string {
	name := fmt.Sprintf("arvaia-distribuzione-%d", season)
	switch {
	case sel.ByWeek():
		name += "-" + dataprocessing.FormatWeek(sel.Week)
	case sel.ByProduct():
		name += "-" + slug(sel.Product)
	}
	return name + "." + format
}

func slug(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash && b.Len() > 0 {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// formatFloat formats a float64 value rounded to 2 decimals without trailing zeros
func formatFloat(f float64) string {
	return strconv.FormatFloat(round2(f), 'f', -1, 64)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// formatOptional renders nil as an empty cell
func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}
