package pipeline

import (
	"sort"

	"github.com/sells-group/house-rocket/internal/model"
)

// SeasonKey identifies a (zipcode, season) pricing group.
type SeasonKey struct {
	Zipcode string
	Season  string
}

// Median returns the median of values, averaging the middle pair for even
// counts. It returns 0 for an empty slice and does not reorder values.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// RegionalMedians returns the median price of each zipcode.
func RegionalMedians(listings []model.Listing) map[string]float64 {
	groups := make(map[string][]float64)
	for _, l := range listings {
		groups[l.Zipcode] = append(groups[l.Zipcode], l.Price)
	}
	out := make(map[string]float64, len(groups))
	for zip, prices := range groups {
		out[zip] = Median(prices)
	}
	return out
}

// SeasonalMedians returns the median price of each (zipcode, season) group
// among the given listings.
func SeasonalMedians(listings []model.Listing) map[SeasonKey]float64 {
	groups := make(map[SeasonKey][]float64)
	for _, l := range listings {
		k := SeasonKey{Zipcode: l.Zipcode, Season: l.Season}
		groups[k] = append(groups[k], l.Price)
	}
	out := make(map[SeasonKey]float64, len(groups))
	for k, prices := range groups {
		out[k] = Median(prices)
	}
	return out
}
