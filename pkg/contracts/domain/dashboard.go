package domain

import "time"

// WeeksPerSeason is the number of ISO-like week buckets in a season.
const WeeksPerSeason = 53

// WeeklyAggregate holds the totals of one week of the season. Climate
// averages are nil when the week has no records at all.
type WeeklyAggregate struct {
	Label         string   `json:"label"`
	WeekNumber    int      `json:"week_number"`
	TotalWeightKg float64  `json:"total_weight_kg"`
	AvgTemp       *float64 `json:"avg_temp"`
	MaxTemp       *float64 `json:"max_temp"`
	MinTemp       *float64 `json:"min_temp"`
	AvgPrecip     *float64 `json:"avg_precip"`
	RecordCount   int      `json:"record_count"`
}

// WeeklyProductRow is one line of the per-week product breakdown.
type WeeklyProductRow struct {
	Product            string   `json:"product"`
	WeightThisWeekKg   float64  `json:"weight_this_week_kg"`
	TotalWeightYearKg  float64  `json:"total_weight_year_kg"`
	PercentageOfAnnual *float64 `json:"percentage_of_annual"` // nil when the annual total is zero
}

// WeekOption describes a week for pickers, e.g. "S05 (Lun 27/01)".
type WeekOption struct {
	Week    int    `json:"week"`
	Label   string `json:"label"`
	Monday  string `json:"monday"`
	Display string `json:"display"`
}

// WeekRange is a contiguous run of highlighted weeks.
type WeekRange struct {
	From      int    `json:"from"`
	To        int    `json:"to"`
	FromLabel string `json:"from_label"`
	ToLabel   string `json:"to_label"`
}

// DashboardView is everything the dashboard needs for one selection.
type DashboardView struct {
	Selection       Selection          `json:"selection"`
	Annual          []WeeklyAggregate  `json:"annual"`
	Weekly          []WeeklyProductRow `json:"weekly"`
	Highlighted     []int              `json:"highlighted_weeks"`
	HighlightRanges []WeekRange        `json:"highlight_ranges"`
	TotalWeightKg   float64            `json:"total_weight_kg"`
	RecordCount     int                `json:"record_count"`
}

// DatasetInfo describes the dataset currently served.
type DatasetInfo struct {
	Source         string    `json:"source"`
	Location       string    `json:"location,omitempty"`
	Season         int       `json:"season"`
	RecordCount    int       `json:"record_count"`
	Checksum       string    `json:"checksum"`
	MissingColumns []string  `json:"missing_columns,omitempty"`
	LoadedAt       time.Time `json:"loaded_at"`
}
