package pipeline

import (
	"sort"

	"github.com/sells-group/house-rocket/internal/model"
)

// minBuyCondition is the lowest condition grade worth buying.
const minBuyCondition = 3

// Classify attaches the zipcode median and a buy/no-buy status to each
// listing. A listing is a buy when it is cheaper than its zipcode median and
// in at least median condition.
func Classify(listings []model.Listing, medians map[string]float64) []model.Listing {
	out := make([]model.Listing, len(listings))
	for i, l := range listings {
		l.PriceMedian = medians[l.Zipcode]
		l.Status = Status(l.Price, l.PriceMedian, l.Condition)
		out[i] = l
	}
	return out
}

// Status is the buy rule for a single listing.
func Status(price, median float64, condition int) model.RecommendationStatus {
	if price < median && condition >= minBuyCondition {
		return model.StatusBuy
	}
	return model.StatusNoBuy
}

// BuyCandidates keeps the buy listings ordered by condition label, then price.
func BuyCandidates(classified []model.Listing) []model.Listing {
	out := make([]model.Listing, 0, len(classified)/2)
	for _, l := range classified {
		if l.Status == model.StatusBuy {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ConditionLabel != out[j].ConditionLabel {
			return out[i].ConditionLabel < out[j].ConditionLabel
		}
		return out[i].Price < out[j].Price
	})
	return out
}
