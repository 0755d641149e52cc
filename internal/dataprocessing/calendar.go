package dataprocessing

import (
	"fmt"
	"time"

	"arvaiapulse/pkg/contracts/domain"
)

// DefaultWeekOneMonday is the Monday of week 1 of the 2025 season.
var DefaultWeekOneMonday = time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)

// FormatWeek renders a week number as "S" plus two digits, e.g. "S07".
func FormatWeek(n int) string {
	return fmt.Sprintf("S%02d", n)
}

// Calendar converts week numbers into dates for one season. The origin is
// fixed per deployment year and never derived from the week numbering.
type Calendar struct {
	weekOne time.Time
}

// NewCalendar returns a calendar whose week 1 starts on monday.
func NewCalendar(monday time.Time) Calendar {
	y, m, d := monday.Date()
	return Calendar{weekOne: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DefaultCalendar returns the calendar of the 2025 season.
func DefaultCalendar() Calendar {
	return NewCalendar(DefaultWeekOneMonday)
}

// WeekOne returns the Monday of week 1.
func (c Calendar) WeekOne() time.Time {
	if c.weekOne.IsZero() {
		return DefaultWeekOneMonday
	}
	return c.weekOne
}

// Season returns the year most of week 1 falls in.
func (c Calendar) Season() int {
	return c.WeekOne().AddDate(0, 0, 6).Year()
}

// Monday returns the Monday of week n. Weeks outside 1..53 extrapolate.
func (c Calendar) Monday(n int) time.Time {
	return c.WeekOne().AddDate(0, 0, (n-1)*7)
}

// MondayOf formats the Monday of week n as "dd/mm".
func (c Calendar) MondayOf(n int) string {
	return c.Monday(n).Format("02/01")
}

// WeekOption describes week n for pickers, e.g. "S05 (Lun 27/01)".
func (c Calendar) WeekOption(n int) domain.WeekOption {
	label := FormatWeek(n)
	monday := c.MondayOf(n)
	return domain.WeekOption{
		Week:    n,
		Label:   label,
		Monday:  monday,
		Display: fmt.Sprintf("%s (Lun %s)", label, monday),
	}
}
