package domain

import "strings"

// HarvestRecord is one delivery line of the distribution sheet: a product
// weighed on a given day, together with the weather observed that week.
//
// Date is kept exactly as it appeared in the source and is only ever
// displayed. Product is the grouping key and is always trimmed and
// lower-cased by the parser.
type HarvestRecord struct {
	Date          string  `json:"data"`
	Product       string  `json:"prodotto"`
	WeightKg      float64 `json:"peso_kg"`
	Week          int     `json:"settimana"`
	TempAvg       float64 `json:"temperatura_media"`
	TempMax       float64 `json:"temperatura_massima"`
	TempMin       float64 `json:"temperatura_minima"`
	Precipitation float64 `json:"precipitazioni"`
}

// NormalizeProduct returns the grouping key for a product name.
func NormalizeProduct(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Selection is the active dashboard filter. At most one of product and week
// is meaningful; when both are set the week wins.
type Selection struct {
	Product string `json:"product,omitempty"`
	Week    int    `json:"week,omitempty"`
	HasWeek bool   `json:"has_week"`
}

// SelectProduct returns a product-only selection.
func SelectProduct(product string) Selection {
	return Selection{Product: NormalizeProduct(product)}
}

// SelectWeek returns a week-only selection.
func SelectWeek(week int) Selection {
	return Selection{Week: week, HasWeek: true}
}

// IsZero reports whether no filter is active.
func (s Selection) IsZero() bool {
	return s.Product == "" && !s.HasWeek
}

// ByWeek reports whether the selection filters on a week.
func (s Selection) ByWeek() bool {
	return s.HasWeek
}

// ByProduct reports whether the selection filters on a product. A week
// selection takes precedence, so this is false whenever HasWeek is set.
func (s Selection) ByProduct() bool {
	return !s.HasWeek && s.Product != ""
}
