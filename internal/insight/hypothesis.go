package insight

import (
	"fmt"
	"sort"

	"github.com/sells-group/house-rocket/internal/model"
)

// VerdictInconclusive is reported when a hypothesis lacks a comparison group.
const VerdictInconclusive = "Inconclusive"

// Bar colours for month-over-month variation.
const (
	ColorNegative = "negative"
	ColorPositive = "positive"
)

// Claimed effect sizes tested by the hypotheses.
const (
	waterfrontPremiumClaim = 0.30
	oldConstructionClaim   = 0.50
	basementLotClaim       = 0.50
	yearGrowthClaim        = 0.10
	monthGrowthClaim       = 0.15
	threeBathrooms         = 3
)

// Bar is one bar of a hypothesis chart.
type Bar struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
	Color string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// Hypothesis is a business claim checked against the listings.
type Hypothesis struct {
	ID      string  `json:"id" yaml:"id"`
	Claim   string  `json:"claim" yaml:"claim"`
	XLabel  string  `json:"x_label" yaml:"x_label"`
	YLabel  string  `json:"y_label" yaml:"y_label"`
	Bars    []Bar   `json:"bars" yaml:"bars"`
	Metric  float64 `json:"metric" yaml:"metric"`
	Holds   bool    `json:"holds" yaml:"holds"`
	Verdict string  `json:"verdict" yaml:"verdict"`
}

// Hypotheses evaluates the five business hypotheses over derived listings.
func Hypotheses(listings []model.Listing) []Hypothesis {
	return []Hypothesis{
		waterfrontPremium(listings),
		oldConstruction(listings),
		basementLot(listings),
		yearOverYear(listings),
		threeBathMonthOverMonth(listings),
	}
}

// meanBy averages value per group key, returning bars sorted by label.
func meanBy(listings []model.Listing, key func(model.Listing) string, value func(model.Listing) float64) []Bar {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, l := range listings {
		k := key(l)
		sums[k] += value(l)
		counts[k]++
	}
	bars := make([]Bar, 0, len(sums))
	for k, s := range sums {
		bars = append(bars, Bar{Label: k, Value: s / float64(counts[k])})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Label < bars[j].Label })
	return bars
}

func barValue(bars []Bar, label string) (float64, bool) {
	for _, b := range bars {
		if b.Label == label {
			return b.Value, true
		}
	}
	return 0, false
}

func price(l model.Listing) float64 { return l.Price }

func inconclusive(h Hypothesis) Hypothesis {
	h.Holds = false
	h.Metric = 0
	h.Verdict = VerdictInconclusive
	return h
}

func waterfrontPremium(listings []model.Listing) Hypothesis {
	h := Hypothesis{
		ID:     "H1",
		Claim:  "Waterfront listings are on average 30% more expensive",
		XLabel: "waterfront",
		YLabel: "average price",
		Bars:   meanBy(listings, func(l model.Listing) string { return l.WaterfrontLabel }, price),
	}
	yes, okYes := barValue(h.Bars, model.Yes)
	no, okNo := barValue(h.Bars, model.No)
	if !okYes || !okNo || no == 0 {
		return inconclusive(h)
	}

	h.Metric = (yes - no) / no
	h.Holds = h.Metric >= waterfrontPremiumClaim
	h.Verdict = fmt.Sprintf("%s: waterfront listings are on average %.0f%% more expensive", trueFalse(h.Holds), h.Metric*100)
	return h
}

func oldConstruction(listings []model.Listing) Hypothesis {
	h := Hypothesis{
		ID:     "H2",
		Claim:  "Listings built before 1955 are on average 50% cheaper",
		XLabel: "construction",
		YLabel: "average price",
		Bars:   meanBy(listings, func(l model.Listing) string { return l.Era }, price),
	}
	before, okBefore := barValue(h.Bars, model.EraBefore1955)
	after, okAfter := barValue(h.Bars, model.EraAfter1955)
	if !okBefore || !okAfter || after == 0 {
		return inconclusive(h)
	}

	h.Metric = (after - before) / after
	h.Holds = h.Metric >= oldConstructionClaim
	h.Verdict = fmt.Sprintf("%s: listings built before 1955 are on average only %.0f%% cheaper", trueFalse(h.Holds), h.Metric*100)
	return h
}

func basementLot(listings []model.Listing) Hypothesis {
	h := Hypothesis{
		ID:     "H3",
		Claim:  "Listings without a basement have 50% larger lots",
		XLabel: "basement",
		YLabel: "average sqft_lot",
		Bars: meanBy(listings,
			func(l model.Listing) string { return l.Basement },
			func(l model.Listing) float64 { return l.SqftLot }),
	}
	no, okNo := barValue(h.Bars, model.No)
	yes, okYes := barValue(h.Bars, model.Yes)
	if !okNo || !okYes || yes == 0 {
		return inconclusive(h)
	}

	h.Metric = (no - yes) / yes
	h.Holds = h.Metric >= basementLotClaim
	h.Verdict = fmt.Sprintf("%s: listings without a basement have lots %.0f%% larger than listings with one", trueFalse(h.Holds), h.Metric*100)
	return h
}

func yearOverYear(listings []model.Listing) Hypothesis {
	h := Hypothesis{
		ID:     "H4",
		Claim:  "The average price grew 10% year over year",
		XLabel: "year",
		YLabel: "average price",
		Bars:   meanBy(listings, func(l model.Listing) string { return l.Year }, price),
	}
	if len(h.Bars) < 2 || h.Bars[0].Value == 0 {
		return inconclusive(h)
	}

	first, second := h.Bars[0].Value, h.Bars[1].Value
	h.Metric = (second - first) / first
	h.Holds = h.Metric >= yearGrowthClaim
	h.Verdict = fmt.Sprintf("%s: the average price changed %.2f%% between %s and %s",
		trueFalse(h.Holds), h.Metric*100, h.Bars[0].Label, h.Bars[1].Label)
	return h
}

// threeBathMonthOverMonth charts the month-over-month change in mean price
// of 3-bathroom listings, scaled down by 100. The first month has no
// predecessor and charts as zero.
func threeBathMonthOverMonth(listings []model.Listing) Hypothesis {
	var subset []model.Listing
	for _, l := range listings {
		if l.Bathrooms == threeBathrooms {
			subset = append(subset, l)
		}
	}
	means := meanBy(subset, func(l model.Listing) string { return l.YearMonth }, price)

	h := Hypothesis{
		ID:     "H5",
		Claim:  "3-bathroom listings grow 15% month over month",
		XLabel: "year-month",
		YLabel: "price variation",
		Bars:   make([]Bar, 0, len(means)),
	}
	if len(means) < 2 {
		h.Bars = append(h.Bars, means...)
		return inconclusive(h)
	}

	steady := true
	var growthSum float64
	for i, m := range means {
		b := Bar{Label: m.Label, Color: ColorPositive}
		if i > 0 {
			prev := means[i-1].Value
			b.Value = (m.Value - prev) / 100
			if b.Value < 0 {
				b.Color = ColorNegative
			}
			growth := 0.0
			if prev != 0 {
				growth = (m.Value - prev) / prev
			}
			growthSum += growth
			if growth < monthGrowthClaim {
				steady = false
			}
		}
		h.Bars = append(h.Bars, b)
	}

	h.Metric = growthSum / float64(len(means)-1)
	h.Holds = steady
	if h.Holds {
		h.Verdict = "True: 3-bathroom listings grew at least 15% every month"
	} else {
		h.Verdict = fmt.Sprintf("False: month-over-month growth of 3-bathroom listings was not steady (average %.2f%%)", h.Metric*100)
	}
	return h
}

func trueFalse(ok bool) string {
	if ok {
		return "True"
	}
	return "False"
}
