package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"

	"arvaiapulse/pkg/contracts/domain"
)

// Header tokens, matched as substrings of the lower-cased header cells.
const (
	ColumnDate          = "data"
	ColumnProduct       = "prodotto"
	ColumnWeight        = "peso_kg"
	ColumnWeek          = "settimana"
	ColumnTempAvg       = "temperatura media"
	ColumnTempMax       = "temperatura massima"
	ColumnTempMin       = "temperatura minima"
	ColumnPrecipitation = "precipitazioni"
)

// ColumnTokens lists the recognised header tokens in resolution order.
var ColumnTokens = []string{
	ColumnDate,
	ColumnProduct,
	ColumnWeight,
	ColumnWeek,
	ColumnTempAvg,
	ColumnTempMax,
	ColumnTempMin,
	ColumnPrecipitation,
}

var (
	lineBreaks  = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// Columns maps each header token to its column index, -1 when absent.
type Columns map[string]int

// Index returns the column index for token, or -1.
func (c Columns) Index(token string) int {
	if idx, ok := c[token]; ok {
		return idx
	}
	return -1
}

// Missing returns the tokens that matched no header cell.
func (c Columns) Missing() []string {
	var missing []string
	for _, token := range ColumnTokens {
		if c.Index(token) < 0 {
			missing = append(missing, token)
		}
	}
	return missing
}

// ResolveColumns maps each token to the first header cell containing it.
func ResolveColumns(header []string) Columns {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cols := make(Columns, len(ColumnTokens))
	for _, token := range ColumnTokens {
		cols[token] = -1
		for i, h := range normalized {
			if strings.Contains(h, token) {
				cols[token] = i
				break
			}
		}
	}
	return cols
}

// Parse converts tab-separated text into harvest records. The first
// non-blank line is the header. Malformed values fall back to zero and
// rows are never dropped, so the result always has one record per
// non-blank data line.
func Parse(raw string) []domain.HarvestRecord {
	var lines []string
	for _, line := range strings.Split(lineBreaks.Replace(raw), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return []domain.HarvestRecord{}
	}

	rows := make([][]string, len(lines))
	for i, line := range lines {
		rows[i] = strings.Split(line, "\t")
	}
	return parseRows(rows)
}

// ParseRows applies the same rules as Parse to rows that were already split
// into cells, such as spreadsheet ranges. Rows whose cells are all blank are
// skipped.
func ParseRows(rows [][]string) []domain.HarvestRecord {
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		if !blankRow(row) {
			kept = append(kept, row)
		}
	}
	if len(kept) < 2 {
		return []domain.HarvestRecord{}
	}
	return parseRows(kept)
}

func parseRows(rows [][]string) []domain.HarvestRecord {
	cols := ResolveColumns(rows[0])
	records := make([]domain.HarvestRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, parseRecord(row, cols))
	}
	return records
}

func parseRecord(row []string, cols Columns) domain.HarvestRecord {
	cell := func(token string) string {
		idx := cols.Index(token)
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	return domain.HarvestRecord{
		Date:          cell(ColumnDate),
		Product:       domain.NormalizeProduct(cell(ColumnProduct)),
		WeightKg:      ParseDecimal(cell(ColumnWeight)),
		Week:          ParseWeek(cell(ColumnWeek)),
		TempAvg:       ParseDecimal(cell(ColumnTempAvg)),
		TempMax:       ParseDecimal(cell(ColumnTempMax)),
		TempMin:       ParseDecimal(cell(ColumnTempMin)),
		Precipitation: ParseDecimal(cell(ColumnPrecipitation)),
	}
}

// ParseDecimal reads an Italian-formatted number: dots are thousands
// separators and the first comma is the decimal mark. The longest numeric
// prefix is used; anything unparsable yields 0, and so does a value out of
// float64 range such as "1e999", so no weight is ever infinite.
func ParseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	cleaned := strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	match := floatPrefix.FindString(strings.TrimSpace(cleaned))
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseWeek reads the leading integer of s, or 0.
func ParseWeek(s string) int {
	match := intPrefix.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0
	}
	v, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return v
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
