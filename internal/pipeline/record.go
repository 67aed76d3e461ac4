package pipeline

import "github.com/sells-group/house-rocket/internal/model"

// Record converts a run result into its history rows. The store assigns the
// run ID and timestamp.
func Record(source string, f Filter, res *Result) (*model.RunSummary, []model.RunRecommendation) {
	run := &model.RunSummary{
		Source:        source,
		Listings:      len(res.Listings),
		BuyCandidates: res.Candidates,
		Selected:      res.Selected,
		TotalGain:     res.TotalGain,
		Conditions:    f.Conditions,
		Zipcodes:      f.Zipcodes,
	}

	recs := make([]model.RunRecommendation, 0, len(res.Profit))
	for _, l := range res.Profit {
		recs = append(recs, model.RunRecommendation{
			ListingID: l.ID,
			Zipcode:   l.Zipcode,
			Season:    l.Season,
			Price:     l.Price,
			SalePrice: l.SalePrice,
			Gain:      l.Gain,
		})
	}
	return run, recs
}
