package pipeline

import "github.com/sells-group/house-rocket/internal/model"

// Resale markups over the purchase price.
const (
	MarkupAtOrBelowMedian = 1.30
	MarkupAboveMedian     = 1.10
)

// SalePrice projects the resale price of a purchase against its seasonal
// median. A price equal to the median takes the higher markup.
func SalePrice(price, seasonalMedian float64) float64 {
	if price <= seasonalMedian {
		return price * MarkupAtOrBelowMedian
	}
	return price * MarkupAboveMedian
}

// Price attaches the seasonal median, sale price and gain to each candidate.
// Candidates whose (zipcode, season) has no median are dropped.
func Price(candidates []model.Listing, seasonal map[SeasonKey]float64) []model.Listing {
	out := make([]model.Listing, 0, len(candidates))
	for _, l := range candidates {
		median, ok := seasonal[SeasonKey{Zipcode: l.Zipcode, Season: l.Season}]
		if !ok {
			continue
		}
		l.PriceMedianSeason = median
		l.SalePrice = SalePrice(l.Price, median)
		l.Gain = l.SalePrice - l.Price
		out = append(out, l)
	}
	return out
}

// TotalGain sums Gain over the listings.
func TotalGain(listings []model.Listing) float64 {
	var total float64
	for _, l := range listings {
		total += l.Gain
	}
	return total
}
