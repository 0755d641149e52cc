package dataprocessing

import "sort"

// WeekSet is a set of week numbers. Values are not clipped to the season,
// so it may hold 0 or negative weeks near the start of the year.
type WeekSet map[int]struct{}

// Add inserts weeks into the set.
func (s WeekSet) Add(weeks ...int) {
	for _, w := range weeks {
		s[w] = struct{}{}
	}
}

// Has reports whether week is in the set.
func (s WeekSet) Has(week int) bool {
	_, ok := s[week]
	return ok
}

// Sorted returns the weeks in ascending order.
func (s WeekSet) Sorted() []int {
	weeks := make([]int, 0, len(s))
	for w := range s {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks
}

// climateAccumulator collects the per-week sums behind a WeeklyAggregate.
type climateAccumulator struct {
	weight  float64
	tempAvg float64
	tempMax float64
	tempMin float64
	precip  float64
	count   int
}

func (a *climateAccumulator) mean(sum float64) *float64 {
	if a.count == 0 {
		return nil
	}
	v := round1(sum / float64(a.count))
	return &v
}
