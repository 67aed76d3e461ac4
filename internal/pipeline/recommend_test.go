package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/house-rocket/internal/model"
)

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 5.0, Median([]float64{5}))
	assert.Equal(t, 350000.0, Median([]float64{400000, 300000, 350000}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in, "input order preserved")
}

func TestRegionalMedians(t *testing.T) {
	medians := RegionalMedians([]model.Listing{
		rawListing(1, "98178", 300000, 4),
		rawListing(2, "98178", 350000, 4),
		rawListing(3, "98178", 400000, 2),
		rawListing(4, "98125", 500000, 3),
		rawListing(5, "98125", 700000, 3),
	})
	assert.Equal(t, map[string]float64{"98178": 350000, "98125": 600000}, medians)
}

func TestClassify_ZipExample(t *testing.T) {
	listings := DeriveAll([]model.Listing{
		rawListing(1, "98178", 300000, 4),
		rawListing(2, "98178", 350000, 4),
		rawListing(3, "98178", 400000, 2),
	})

	classified := Classify(listings, RegionalMedians(listings))
	require.Len(t, classified, 3)
	for _, l := range classified {
		assert.Equal(t, 350000.0, l.PriceMedian)
	}
	assert.Equal(t, model.StatusBuy, classified[0].Status)
	// Equal to the median is not strictly cheaper.
	assert.Equal(t, model.StatusNoBuy, classified[1].Status)
	assert.Equal(t, model.StatusNoBuy, classified[2].Status)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		median    float64
		condition int
		expected  model.RecommendationStatus
	}{
		{name: "cheap and median condition", price: 1, median: 2, condition: 3, expected: model.StatusBuy},
		{name: "cheap and excellent", price: 1, median: 2, condition: 5, expected: model.StatusBuy},
		{name: "cheap but bad condition", price: 1, median: 2, condition: 2, expected: model.StatusNoBuy},
		{name: "at median", price: 2, median: 2, condition: 5, expected: model.StatusNoBuy},
		{name: "above median", price: 3, median: 2, condition: 5, expected: model.StatusNoBuy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Status(tt.price, tt.median, tt.condition))
		})
	}
}

func TestBuyCandidates_SortedByLabelThenPrice(t *testing.T) {
	in := []model.Listing{
		{ID: 1, Price: 300, Features: model.Features{ConditionLabel: model.ConditionMedian}, Recommendation: model.Recommendation{Status: model.StatusBuy}},
		{ID: 2, Price: 100, Features: model.Features{ConditionLabel: model.ConditionMedian}, Recommendation: model.Recommendation{Status: model.StatusBuy}},
		{ID: 3, Price: 900, Features: model.Features{ConditionLabel: model.ConditionExcellent}, Recommendation: model.Recommendation{Status: model.StatusBuy}},
		{ID: 4, Price: 50, Features: model.Features{ConditionLabel: model.ConditionGood}, Recommendation: model.Recommendation{Status: model.StatusNoBuy}},
		{ID: 5, Price: 200, Features: model.Features{ConditionLabel: model.ConditionGood}, Recommendation: model.Recommendation{Status: model.StatusBuy}},
	}

	out := BuyCandidates(in)
	ids := make([]int64, len(out))
	for i, l := range out {
		ids[i] = l.ID
	}
	// excellent < good < median in label order.
	assert.Equal(t, []int64{3, 5, 2, 1}, ids)
}

func TestSalePrice(t *testing.T) {
	assert.InDelta(t, 390000.0, SalePrice(300000, 320000), 1e-6)
	assert.InDelta(t, 416000.0, SalePrice(320000, 320000), 1e-6, "ties take the higher markup")
	assert.InDelta(t, 363000.0, SalePrice(330000, 320000), 1e-6)
}

func TestPrice(t *testing.T) {
	a := rawListing(1, "98178", 300000, 4)
	a.Season = model.SeasonSummer
	b := rawListing(2, "98178", 330000, 4)
	b.Season = model.SeasonSummer
	orphan := rawListing(3, "98125", 100000, 4)
	orphan.Season = model.SeasonFall

	seasonal := map[SeasonKey]float64{{Zipcode: "98178", Season: model.SeasonSummer}: 320000}
	out := Price([]model.Listing{a, b, orphan}, seasonal)

	require.Len(t, out, 2, "candidate without a seasonal group is dropped")
	assert.Equal(t, 320000.0, out[0].PriceMedianSeason)
	assert.InDelta(t, 390000.0, out[0].SalePrice, 1e-6)
	assert.InDelta(t, 90000.0, out[0].Gain, 1e-6)
	assert.InDelta(t, 363000.0, out[1].SalePrice, 1e-6)
	assert.InDelta(t, 33000.0, out[1].Gain, 1e-6)
	assert.InDelta(t, 123000.0, TotalGain(out), 1e-6)

	for _, l := range out {
		assert.GreaterOrEqual(t, l.Gain, 0.0)
	}
}

func TestSeasonalMedians(t *testing.T) {
	mk := func(id int64, zip, season string, price float64) model.Listing {
		l := rawListing(id, zip, price, 3)
		l.Season = season
		return l
	}
	got := SeasonalMedians([]model.Listing{
		mk(1, "98178", model.SeasonSummer, 100),
		mk(2, "98178", model.SeasonSummer, 300),
		mk(3, "98178", model.SeasonWinter, 50),
		mk(4, "98125", model.SeasonSummer, 70),
	})
	assert.Equal(t, map[SeasonKey]float64{
		{Zipcode: "98178", Season: model.SeasonSummer}: 200,
		{Zipcode: "98178", Season: model.SeasonWinter}: 50,
		{Zipcode: "98125", Season: model.SeasonSummer}: 70,
	}, got)
}

func TestFilter(t *testing.T) {
	mk := func(id int64, zip, label string) model.Listing {
		return model.Listing{ID: id, Zipcode: zip, Features: model.Features{ConditionLabel: label}}
	}
	in := []model.Listing{
		mk(1, "98178", model.ConditionGood),
		mk(2, "98178", model.ConditionMedian),
		mk(3, "98125", model.ConditionGood),
		mk(4, "98001", model.ConditionExcellent),
	}
	ids := func(ls []model.Listing) []int64 {
		out := []int64{}
		for _, l := range ls {
			out = append(out, l.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{name: "no restriction", filter: Filter{}, want: []int64{1, 2, 3, 4}},
		{name: "zipcodes only", filter: Filter{Zipcodes: []string{"98178"}}, want: []int64{1, 2}},
		{name: "conditions only", filter: Filter{Conditions: []string{model.ConditionGood}}, want: []int64{1, 3}},
		{name: "both dimensions", filter: Filter{Zipcodes: []string{"98178", "98001"}, Conditions: []string{model.ConditionGood, model.ConditionExcellent}}, want: []int64{1, 4}},
		{name: "no match", filter: Filter{Zipcodes: []string{"99999"}}, want: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(in)))
		})
	}
}

func TestFilterOptions(t *testing.T) {
	opts := FilterOptions([]model.Listing{
		{Zipcode: "98178", Features: model.Features{ConditionLabel: model.ConditionGood}},
		{Zipcode: "98125", Features: model.Features{ConditionLabel: model.ConditionGood}},
		{Zipcode: "98178", Features: model.Features{ConditionLabel: model.ConditionMedian}},
	})
	assert.Equal(t, []string{model.ConditionGood, model.ConditionMedian}, opts.Conditions)
	assert.Equal(t, []string{"98125", "98178"}, opts.Zipcodes)
}

// sampleMarket has two zipcodes with a clear set of cheap, well-kept houses.
func sampleMarket() []model.Listing {
	july := time.Date(2014, time.July, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id int64, zip string, price float64, cond int) model.Listing {
		l := rawListing(id, zip, price, cond)
		l.Date = july
		return l
	}
	return []model.Listing{
		mk(1, "98178", 300000, 4),
		mk(2, "98178", 350000, 4),
		mk(3, "98178", 400000, 2),
		mk(4, "98178", 280000, 3),
		mk(5, "98125", 500000, 5),
		mk(6, "98125", 600000, 3),
		mk(7, "98125", 700000, 1),
	}
}

func TestCompute(t *testing.T) {
	res := Compute(sampleMarket(), Filter{})

	assert.Len(t, res.Listings, 7)
	// 98178 median 325000: ids 1 and 4 buy. 98125 median 600000: id 5 buy.
	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 3, res.Selected)
	require.Len(t, res.Profit, 3)
	assert.Equal(t, []string{"98125", "98178"}, res.Options.Zipcodes)
	assert.Equal(t, []string{model.ConditionExcellent, model.ConditionGood, model.ConditionMedian}, res.Options.Conditions)

	// Summer 98178 candidates [300000, 280000] -> median 290000.
	byID := map[int64]model.Listing{}
	for _, l := range res.Profit {
		byID[l.ID] = l
	}
	assert.InDelta(t, 280000*1.30, byID[4].SalePrice, 1e-6)
	assert.InDelta(t, 300000*1.10, byID[1].SalePrice, 1e-6)
	assert.InDelta(t, 500000*1.30, byID[5].SalePrice, 1e-6)
	assert.InDelta(t, 84000+30000+150000, res.TotalGain, 1e-6)
}

func TestCompute_FilterDoesNotShiftSeasonalPrices(t *testing.T) {
	all := Compute(sampleMarket(), Filter{})
	only := Compute(sampleMarket(), Filter{Conditions: []string{model.ConditionGood}})

	require.Len(t, only.Profit, 1)
	assert.Equal(t, int64(1), only.Profit[0].ID)
	assert.Equal(t, 1, only.Selected)
	assert.Equal(t, all.Options, only.Options)

	for _, l := range all.Profit {
		if l.ID == 1 {
			assert.Equal(t, l.SalePrice, only.Profit[0].SalePrice)
		}
	}
}

func TestCompute_Empty(t *testing.T) {
	res := Compute(nil, Filter{Zipcodes: []string{"98178"}})
	assert.Empty(t, res.Profit)
	assert.Equal(t, 0, res.Selected)
	assert.Equal(t, 0.0, res.TotalGain)
}

type stubSource struct {
	listings []model.Listing
	err      error
	path     string
}

func (s *stubSource) Listings(_ context.Context, path string) ([]model.Listing, error) {
	s.path = path
	return s.listings, s.err
}

type recordingObserver struct {
	runs       int
	listings   int
	candidates int
}

func (r *recordingObserver) ObserveRun(_ time.Duration, listings, candidates int) {
	r.runs++
	r.listings = listings
	r.candidates = candidates
}

func TestPipelineRun(t *testing.T) {
	src := &stubSource{listings: sampleMarket()}
	obs := &recordingObserver{}
	p := New(src, "kc_house_data.csv", WithObserver(obs))

	res, err := p.Run(context.Background(), Request{Filter: Filter{Zipcodes: []string{"98125"}}})
	require.NoError(t, err)
	assert.Equal(t, "kc_house_data.csv", src.path)
	assert.Equal(t, 1, res.Selected)
	assert.Equal(t, 1, obs.runs)
	assert.Equal(t, 7, obs.listings)
	assert.Equal(t, 3, obs.candidates)
}

func TestPipelineRun_SourceError(t *testing.T) {
	p := New(&stubSource{err: errors.New("disk gone")}, "x.csv")
	_, err := p.Run(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: load listings")
}

func TestPipelineRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(&stubSource{listings: sampleMarket()}, "x.csv").Run(ctx, Request{})
	require.Error(t, err)
}

func TestCompute_DoesNotMutateRaw(t *testing.T) {
	raw := sampleMarket()
	Compute(raw, Filter{})
	for _, l := range raw {
		assert.Empty(t, l.Season)
		assert.Empty(t, l.Status)
		assert.Equal(t, 2.25, l.Bathrooms)
	}
}

func TestRecord(t *testing.T) {
	f := Filter{Zipcodes: []string{"98178"}}
	res := Compute(sampleMarket(), f)

	run, recs := Record("kc_house_data.csv", f, res)
	assert.Equal(t, "kc_house_data.csv", run.Source)
	assert.Equal(t, 7, run.Listings)
	assert.Equal(t, 3, run.BuyCandidates)
	assert.Equal(t, 2, run.Selected)
	assert.Equal(t, []string{"98178"}, run.Zipcodes)
	assert.Nil(t, run.Conditions)
	assert.Empty(t, run.ID)

	require.Len(t, recs, 2)
	var gain float64
	for _, r := range recs {
		assert.Equal(t, "98178", r.Zipcode)
		assert.Equal(t, model.SeasonSummer, r.Season)
		gain += r.Gain
	}
	assert.InDelta(t, run.TotalGain, gain, 1e-6)
}
