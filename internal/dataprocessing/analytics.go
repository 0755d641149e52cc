package dataprocessing

import (
	"math"
	"sort"

	"arvaiapulse/pkg/contracts/domain"
)

// AnnualByWeek buckets records into the 53 weeks of the season. Weight only
// counts records of the selected product (all products when none is
// selected). Climate figures always use every record of the week, since the
// weather does not depend on what was harvested. Records outside weeks 1..53
// are ignored.
func AnnualByWeek(records []domain.HarvestRecord, sel domain.Selection) []domain.WeeklyAggregate {
	var acc [domain.WeeksPerSeason]climateAccumulator
	product := ""
	if sel.ByProduct() {
		product = sel.Product
	}

	for _, r := range records {
		if r.Week < 1 || r.Week > domain.WeeksPerSeason {
			continue
		}
		a := &acc[r.Week-1]
		if product == "" || r.Product == product {
			a.weight += r.WeightKg
		}
		a.tempAvg += r.TempAvg
		a.tempMax += r.TempMax
		a.tempMin += r.TempMin
		a.precip += r.Precipitation
		a.count++
	}

	out := make([]domain.WeeklyAggregate, domain.WeeksPerSeason)
	for i := range acc {
		a := &acc[i]
		out[i] = domain.WeeklyAggregate{
			Label:         FormatWeek(i + 1),
			WeekNumber:    i + 1,
			TotalWeightKg: a.weight,
			AvgTemp:       a.mean(a.tempAvg),
			MaxTemp:       a.mean(a.tempMax),
			MinTemp:       a.mean(a.tempMin),
			AvgPrecip:     a.mean(a.precip),
			RecordCount:   a.count,
		}
	}
	return out
}

// WeeklyBreakdown lists the products harvested in the selected week with
// their share of the annual total, heaviest first. Ties keep the order in
// which products first appear in that week. Annual totals include every
// record, whatever its week. Without a week selection the result is empty.
func WeeklyBreakdown(records []domain.HarvestRecord, sel domain.Selection) []domain.WeeklyProductRow {
	if !sel.ByWeek() {
		return []domain.WeeklyProductRow{}
	}

	var order []string
	annual := make(map[string]float64)
	weekly := make(map[string]float64)
	for _, r := range records {
		annual[r.Product] += r.WeightKg
		if r.Week != sel.Week {
			continue
		}
		if _, seen := weekly[r.Product]; !seen {
			order = append(order, r.Product)
		}
		weekly[r.Product] += r.WeightKg
	}

	rows := make([]domain.WeeklyProductRow, 0, len(weekly))
	for _, product := range order {
		w := weekly[product]
		if w == 0 {
			continue
		}
		row := domain.WeeklyProductRow{
			Product:           product,
			WeightThisWeekKg:  w,
			TotalWeightYearKg: annual[product],
		}
		if total := annual[product]; total != 0 {
			pct := round1(w / total * 100)
			row.PercentageOfAnnual = &pct
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].WeightThisWeekKg > rows[j].WeightThisWeekKg
	})
	return rows
}

// HighlightedWeeks returns the weeks to emphasise on climate charts: the
// selected week and the two before it, or, for a product, that window around
// every week in which the product was harvested.
func HighlightedWeeks(records []domain.HarvestRecord, sel domain.Selection) WeekSet {
	set := make(WeekSet)
	switch {
	case sel.ByWeek():
		set.Add(sel.Week, sel.Week-1, sel.Week-2)
	case sel.ByProduct():
		for _, r := range records {
			if r.Product == sel.Product {
				set.Add(r.Week, r.Week-1, r.Week-2)
			}
		}
	}
	return set
}

// HighlightRanges groups highlighted weeks into contiguous runs.
func HighlightRanges(set WeekSet) []domain.WeekRange {
	ranges := []domain.WeekRange{}
	weeks := set.Sorted()
	for i := 0; i < len(weeks); {
		j := i
		for j+1 < len(weeks) && weeks[j+1] == weeks[j]+1 {
			j++
		}
		ranges = append(ranges, domain.WeekRange{
			From:      weeks[i],
			To:        weeks[j],
			FromLabel: FormatWeek(weeks[i]),
			ToLabel:   FormatWeek(weeks[j]),
		})
		i = j + 1
	}
	return ranges
}

// Products returns the distinct products in ascending order.
func Products(records []domain.HarvestRecord) []string {
	seen := make(map[string]struct{})
	products := []string{}
	for _, r := range records {
		if _, ok := seen[r.Product]; ok {
			continue
		}
		seen[r.Product] = struct{}{}
		products = append(products, r.Product)
	}
	sort.Strings(products)
	return products
}

// Weeks returns the distinct week numbers present in records, ascending,
// described with cal.
func Weeks(records []domain.HarvestRecord, cal Calendar) []domain.WeekOption {
	set := make(WeekSet)
	for _, r := range records {
		set.Add(r.Week)
	}
	weeks := set.Sorted()
	options := make([]domain.WeekOption, len(weeks))
	for i, w := range weeks {
		options[i] = cal.WeekOption(w)
	}
	return options
}

// TotalWeight sums the weight of the weekly aggregates.
func TotalWeight(aggregates []domain.WeeklyAggregate) float64 {
	var total float64
	for _, a := range aggregates {
		total += a.TotalWeightKg
	}
	return total
}

// BuildView computes every dashboard projection for sel.
func BuildView(records []domain.HarvestRecord, sel domain.Selection) domain.DashboardView {
	annual := AnnualByWeek(records, sel)
	highlighted := HighlightedWeeks(records, sel)
	return domain.DashboardView{
		Selection:       sel,
		Annual:          annual,
		Weekly:          WeeklyBreakdown(records, sel),
		Highlighted:     highlighted.Sorted(),
		HighlightRanges: HighlightRanges(highlighted),
		TotalWeightKg:   TotalWeight(annual),
		RecordCount:     len(records),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
