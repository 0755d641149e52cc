package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arvaiapulse/pkg/contracts/domain"
)

const sampleHeader = "Data\tProdotto\tPeso_kg\tSettimana\tTemperatura media\tTemperatura massima\tTemperatura minima\tPrecipitazioni"

func TestParse(t *testing.T) {
	raw := sampleHeader + "\n" +
		"02/01/2025\tZucchine\t12,5\t1\t5,0\t9,0\t2,0\t3,0\n" +
		"03/01/2025\t Patate \t3,5\t1\t6,0\t8,0\t3,0\t2,0\n"

	records := Parse(raw)
	require.Len(t, records, 2)

	assert.Equal(t, domain.HarvestRecord{
		Date:          "02/01/2025",
		Product:       "zucchine",
		WeightKg:      12.5,
		Week:          1,
		TempAvg:       5,
		TempMax:       9,
		TempMin:       2,
		Precipitation: 3,
	}, records[0])
	assert.Equal(t, "patate", records[1].Product)
	assert.Equal(t, 3.5, records[1].WeightKg)
}

func TestParse_LineEndingsAndBlankLines(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "unix", raw: sampleHeader + "\na\tx\t1\t1\n\nb\ty\t2\t2\n", want: 2},
		{name: "windows", raw: sampleHeader + "\r\na\tx\t1\t1\r\n   \r\nb\ty\t2\t2\r\n", want: 2},
		{name: "old mac", raw: sampleHeader + "\ra\tx\t1\t1\rb\ty\t2\t2", want: 2},
		{name: "header only", raw: sampleHeader + "\n\n", want: 0},
		{name: "empty", raw: "", want: 0},
		{name: "whitespace", raw: " \n\t\n", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := Parse(tt.raw)
			assert.NotNil(t, records)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestParse_MissingColumnsAndShortRows(t *testing.T) {
	raw := "Data\tProdotto\tPeso_kg\n" +
		"01/01\tCarote\n" +
		"02/01\tCarote\t4\n"

	records := Parse(raw)
	require.Len(t, records, 2)

	assert.Equal(t, "carote", records[0].Product)
	assert.Zero(t, records[0].WeightKg)
	assert.Zero(t, records[0].Week)
	assert.Equal(t, 4.0, records[1].WeightKg)
	assert.Zero(t, records[1].Precipitation)
}

func TestParse_FirstMatchingHeaderWins(t *testing.T) {
	raw := "Data consegna\tData raccolta\tProdotto\tPeso_kg\tSettimana\n" +
		"01/01\t31/12\tCavolo\t2\t1\n"

	records := Parse(raw)
	require.Len(t, records, 1)
	assert.Equal(t, "01/01", records[0].Date)
}

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"Prodotto", "Peso_kg", "Settimana"},
		{"", "  ", ""},
		{"Bietole", "1.234,56", "7"},
		{"Cipolle"},
	}

	records := ParseRows(rows)
	require.Len(t, records, 2)
	assert.Equal(t, "bietole", records[0].Product)
	assert.InDelta(t, 1234.56, records[0].WeightKg, 1e-9)
	assert.Equal(t, 7, records[0].Week)
	assert.Equal(t, "cipolle", records[1].Product)
	assert.Empty(t, ParseRows([][]string{{"Prodotto"}}))
}

func TestResolveColumns(t *testing.T) {
	cols := ResolveColumns([]string{" PRODOTTO ", "Peso_kg (netto)", "Settimana"})

	assert.Equal(t, 0, cols.Index(ColumnProduct))
	assert.Equal(t, 1, cols.Index(ColumnWeight))
	assert.Equal(t, 2, cols.Index(ColumnWeek))
	assert.Equal(t, -1, cols.Index(ColumnDate))
	assert.Equal(t, []string{
		ColumnDate, ColumnTempAvg, ColumnTempMax, ColumnTempMin, ColumnPrecipitation,
	}, cols.Missing())
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"12,5", 12.5},
		{"7", 7},
		{"-3,5", -3.5},
		{" 4,2 ", 4.2},
		{"10,5 kg", 10.5},
		{"1,2,3", 1.2},
		{"1.000", 1000},
		{"", 0},
		{"abc", 0},
		{",", 0},
		{"1e999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseDecimal(tt.in), 1e-9)
		})
	}
}

func TestParseWeek(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{" 05", 5},
		{"3,7", 3},
		{"8a", 8},
		{"-1", -1},
		{"", 0},
		{"x", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseWeek(tt.in))
		})
	}
}
