package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arvaiapulse/pkg/contracts/domain"
)

func rec(product string, week int, kg float64) domain.HarvestRecord {
	return domain.HarvestRecord{Product: product, Week: week, WeightKg: kg, TempAvg: 10, TempMax: 15, TempMin: 5, Precipitation: 1}
}

func TestAnnualByWeek_EndToEnd(t *testing.T) {
	raw := "data\tprodotto\tpeso_kg\tsettimana\ttemperatura media\ttemperatura massima\ttemperatura minima\tprecipitazioni\n" +
		"01/01\tpomodoro\t10,5\t1\t5,0\t8,0\t2,0\t0,0\n" +
		"02/01\tpomodoro\t5,5\t1\t6,0\t9,0\t3,0\t1,0\n"

	annual := AnnualByWeek(Parse(raw), domain.Selection{})
	require.Len(t, annual, domain.WeeksPerSeason)

	first := annual[0]
	assert.Equal(t, "S01", first.Label)
	assert.Equal(t, 1, first.WeekNumber)
	assert.InDelta(t, 16.0, first.TotalWeightKg, 1e-9)
	require.NotNil(t, first.AvgTemp)
	assert.Equal(t, 5.5, *first.AvgTemp)
	assert.Equal(t, 8.5, *first.MaxTemp)
	assert.Equal(t, 2.5, *first.MinTemp)
	assert.Equal(t, 0.5, *first.AvgPrecip)
	assert.Equal(t, 2, first.RecordCount)

	for _, a := range annual[1:] {
		assert.Zero(t, a.TotalWeightKg, a.Label)
		assert.Nil(t, a.AvgTemp, a.Label)
		assert.Nil(t, a.MaxTemp, a.Label)
		assert.Nil(t, a.MinTemp, a.Label)
		assert.Nil(t, a.AvgPrecip, a.Label)
	}
}

func TestAnnualByWeek_EmptyInput(t *testing.T) {
	annual := AnnualByWeek(nil, domain.Selection{})
	require.Len(t, annual, domain.WeeksPerSeason)
	for i, a := range annual {
		assert.Equal(t, i+1, a.WeekNumber)
		assert.Equal(t, FormatWeek(i+1), a.Label)
		assert.Zero(t, a.TotalWeightKg)
		assert.Nil(t, a.AvgTemp)
	}
}

func TestAnnualByWeek_ProductFilterOnlyAffectsWeight(t *testing.T) {
	records := []domain.HarvestRecord{
		{Product: "zucchine", Week: 3, WeightKg: 4, TempAvg: 10, TempMax: 14, TempMin: 6, Precipitation: 2},
		{Product: "patate", Week: 3, WeightKg: 6, TempAvg: 12, TempMax: 16, TempMin: 8, Precipitation: 4},
		{Product: "zucchine", Week: 4, WeightKg: 1, TempAvg: 7, TempMax: 9, TempMin: 3, Precipitation: 0},
	}

	all := AnnualByWeek(records, domain.Selection{})
	filtered := AnnualByWeek(records, domain.SelectProduct("Patate "))

	assert.Equal(t, 10.0, all[2].TotalWeightKg)
	assert.Equal(t, 6.0, filtered[2].TotalWeightKg)
	assert.Equal(t, 1.0, all[3].TotalWeightKg)
	assert.Zero(t, filtered[3].TotalWeightKg)

	for i := range all {
		assert.Equal(t, all[i].AvgTemp, filtered[i].AvgTemp)
		assert.Equal(t, all[i].MaxTemp, filtered[i].MaxTemp)
		assert.Equal(t, all[i].MinTemp, filtered[i].MinTemp)
		assert.Equal(t, all[i].AvgPrecip, filtered[i].AvgPrecip)
		assert.Equal(t, all[i].RecordCount, filtered[i].RecordCount)
	}
}

func TestAnnualByWeek_IgnoresOutOfSeasonWeeks(t *testing.T) {
	records := []domain.HarvestRecord{rec("a", 0, 5), rec("a", 54, 5), rec("a", -2, 5), rec("a", 53, 2)}

	annual := AnnualByWeek(records, domain.Selection{})
	assert.Equal(t, 2.0, TotalWeight(annual))
	assert.Equal(t, 1, annual[52].RecordCount)
}

func TestAnnualByWeek_RoundsToOneDecimal(t *testing.T) {
	records := []domain.HarvestRecord{
		{Product: "a", Week: 2, TempAvg: 1},
		{Product: "a", Week: 2, TempAvg: 1},
		{Product: "a", Week: 2, TempAvg: 2},
	}

	annual := AnnualByWeek(records, domain.Selection{})
	require.NotNil(t, annual[1].AvgTemp)
	assert.Equal(t, 1.3, *annual[1].AvgTemp)
}

func TestWeeklyBreakdown(t *testing.T) {
	records := []domain.HarvestRecord{
		rec("patate", 5, 2),
		rec("zucchine", 5, 3),
		rec("carote", 5, 3),
		rec("zucchine", 6, 9),
		rec("cavolo", 6, 4),
		rec("patate", 0, 6),
		rec("bietole", 5, 0),
	}

	rows := WeeklyBreakdown(records, domain.SelectWeek(5))
	require.Len(t, rows, 3)

	assert.Equal(t, "zucchine", rows[0].Product)
	assert.Equal(t, 3.0, rows[0].WeightThisWeekKg)
	assert.Equal(t, 12.0, rows[0].TotalWeightYearKg)
	require.NotNil(t, rows[0].PercentageOfAnnual)
	assert.Equal(t, 25.0, *rows[0].PercentageOfAnnual)

	assert.Equal(t, "carote", rows[1].Product)
	assert.Equal(t, 100.0, *rows[1].PercentageOfAnnual)

	// week 0 records still count towards the annual total
	assert.Equal(t, "patate", rows[2].Product)
	assert.Equal(t, 8.0, rows[2].TotalWeightYearKg)
	assert.Equal(t, 25.0, *rows[2].PercentageOfAnnual)

	var sum float64
	for _, r := range rows {
		sum += r.WeightThisWeekKg
	}
	assert.Equal(t, 8.0, sum)
}

func TestWeeklyBreakdown_NoWeekSelected(t *testing.T) {
	records := []domain.HarvestRecord{rec("patate", 5, 2)}

	assert.Empty(t, WeeklyBreakdown(records, domain.Selection{}))
	assert.Empty(t, WeeklyBreakdown(records, domain.SelectProduct("patate")))
	assert.NotNil(t, WeeklyBreakdown(records, domain.Selection{}))
}

func TestWeeklyBreakdown_ZeroAnnualTotal(t *testing.T) {
	records := []domain.HarvestRecord{rec("rape", 2, 3), rec("rape", 9, -3)}

	rows := WeeklyBreakdown(records, domain.SelectWeek(2))
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PercentageOfAnnual)
}

func TestHighlightedWeeks(t *testing.T) {
	records := []domain.HarvestRecord{
		rec("pomodoro", 5, 1),
		rec("pomodoro", 12, 1),
		rec("pomodoro", 12, 2),
		rec("basilico", 30, 1),
	}

	tests := []struct {
		name string
		sel  domain.Selection
		want []int
	}{
		{name: "week", sel: domain.SelectWeek(10), want: []int{8, 9, 10}},
		{name: "product", sel: domain.SelectProduct("pomodoro"), want: []int{3, 4, 5, 10, 11, 12}},
		{name: "early week is not clipped", sel: domain.SelectWeek(1), want: []int{-1, 0, 1}},
		{name: "unknown product", sel: domain.SelectProduct("mais"), want: []int{}},
		{name: "nothing selected", sel: domain.Selection{}, want: []int{}},
		{name: "week wins over product", sel: domain.Selection{Product: "pomodoro", Week: 30, HasWeek: true}, want: []int{28, 29, 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HighlightedWeeks(records, tt.sel).Sorted())
		})
	}
}

func TestHighlightRanges(t *testing.T) {
	set := make(WeekSet)
	set.Add(3, 4, 5, 10, 11, 12, 20)

	ranges := HighlightRanges(set)
	assert.Equal(t, []domain.WeekRange{
		{From: 3, To: 5, FromLabel: "S03", ToLabel: "S05"},
		{From: 10, To: 12, FromLabel: "S10", ToLabel: "S12"},
		{From: 20, To: 20, FromLabel: "S20", ToLabel: "S20"},
	}, ranges)
	assert.Empty(t, HighlightRanges(make(WeekSet)))
}

func TestProductsAndWeeks(t *testing.T) {
	records := []domain.HarvestRecord{rec("zucchine", 5, 1), rec("aglio", 2, 1), rec("zucchine", 2, 1)}

	assert.Equal(t, []string{"aglio", "zucchine"}, Products(records))

	weeks := Weeks(records, DefaultCalendar())
	require.Len(t, weeks, 2)
	assert.Equal(t, "S02 (Lun 06/01)", weeks[0].Display)
	assert.Equal(t, "S05 (Lun 27/01)", weeks[1].Display)
}

func TestBuildView(t *testing.T) {
	records := []domain.HarvestRecord{rec("zucchine", 5, 4), rec("aglio", 5, 1), rec("aglio", 7, 2)}

	view := BuildView(records, domain.SelectProduct("aglio"))
	assert.Len(t, view.Annual, domain.WeeksPerSeason)
	assert.Empty(t, view.Weekly)
	assert.Equal(t, 3.0, view.TotalWeightKg)
	assert.Equal(t, []int{3, 4, 5, 6, 7}, view.Highlighted)
	assert.Len(t, view.HighlightRanges, 1)
	assert.Equal(t, 3, view.RecordCount)

	view = BuildView(records, domain.SelectWeek(5))
	assert.Equal(t, 7.0, view.TotalWeightKg)
	require.Len(t, view.Weekly, 2)
	assert.Equal(t, "zucchine", view.Weekly[0].Product)
}
