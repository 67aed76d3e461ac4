package insight

import "github.com/sells-group/house-rocket/internal/model"

// BuyRow is one line of the buy recommendation table.
type BuyRow struct {
	ID          int64   `json:"id" yaml:"id"`
	Zipcode     string  `json:"zipcode" yaml:"zipcode"`
	Price       float64 `json:"price" yaml:"price"`
	PriceMedian float64 `json:"price_median" yaml:"price_median"`
	Condition   string  `json:"condition" yaml:"condition"`
}

// ProfitRow is one line of the resale table.
type ProfitRow struct {
	ID                int64   `json:"id" yaml:"id"`
	Zipcode           string  `json:"zipcode" yaml:"zipcode"`
	Price             float64 `json:"price" yaml:"price"`
	Season            string  `json:"season" yaml:"season"`
	PriceMedianSeason float64 `json:"price_median_season" yaml:"price_median_season"`
	Condition         string  `json:"condition" yaml:"condition"`
	SalePrice         float64 `json:"sale_price" yaml:"sale_price"`
	Gain              float64 `json:"gain" yaml:"gain"`
}

// BuyRows projects buy candidates onto the buy table.
func BuyRows(listings []model.Listing) []BuyRow {
	rows := make([]BuyRow, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, BuyRow{
			ID:          l.ID,
			Zipcode:     l.Zipcode,
			Price:       l.Price,
			PriceMedian: l.PriceMedian,
			Condition:   l.ConditionLabel,
		})
	}
	return rows
}

// ProfitRows projects priced listings onto the resale table.
func ProfitRows(listings []model.Listing) []ProfitRow {
	rows := make([]ProfitRow, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, ProfitRow{
			ID:                l.ID,
			Zipcode:           l.Zipcode,
			Price:             l.Price,
			Season:            l.Season,
			PriceMedianSeason: l.PriceMedianSeason,
			Condition:         l.ConditionLabel,
			SalePrice:         l.SalePrice,
			Gain:              l.Gain,
		})
	}
	return rows
}
