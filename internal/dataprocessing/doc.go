// Package dataprocessing turns the harvest distribution sheet into the
// figures shown on the dashboard.
//
// # Components
//
//  1. Parser: reads tab-separated text (or pre-split spreadsheet rows) into
//     domain.HarvestRecord values, tolerating missing columns and Italian
//     number formatting.
//  2. Calendar: maps week numbers to labels and Monday dates for a season.
//  3. Analytics: per-week aggregates, the per-product breakdown of a week
//     and the set of weeks highlighted for a selection.
//
// # Usage
//
//	records := dataprocessing.Parse(raw)
//	annual := dataprocessing.AnnualByWeek(records, domain.SelectProduct("zucchine"))
//	rows := dataprocessing.WeeklyBreakdown(records, domain.SelectWeek(12))
//
// # Error Handling
//
// Nothing in this package returns an error. Unparsable numbers become 0,
// short rows are padded with defaults and a missing header column simply
// leaves its field at the zero value. Every function builds fresh output
// and never mutates its inputs, so results may be shared between
// goroutines.
package dataprocessing
