package pipeline

import (
	"strconv"

	"github.com/sells-group/house-rocket/internal/model"
)

// eraSplitYear divides old and new construction. The split year itself is old.
const eraSplitYear = 1955

// Derive fills in the categorical features of a cleaned listing.
func Derive(l model.Listing) model.Listing {
	if l.YrBuilt > eraSplitYear {
		l.Era = model.EraAfter1955
	} else {
		l.Era = model.EraBefore1955
	}

	if l.SqftBasement == 0 {
		l.Basement = model.No
	} else {
		l.Basement = model.Yes
	}

	l.Year = strconv.Itoa(l.Date.Year())
	l.YearMonth = l.Date.Format("2006-01")
	l.Month = int(l.Date.Month())
	l.Season = SeasonOf(l.Month)

	if l.Waterfront == "1" {
		l.WaterfrontLabel = model.Yes
	} else {
		l.WaterfrontLabel = model.No
	}

	l.ConditionLabel = ConditionLabel(l.Condition)
	return l
}

// DeriveAll applies Derive to every listing and returns a new slice.
func DeriveAll(listings []model.Listing) []model.Listing {
	out := make([]model.Listing, len(listings))
	for i, l := range listings {
		out[i] = Derive(l)
	}
	return out
}

// SeasonOf buckets a sale month. Only June-July count as summer, March-April
// as spring and September-November as fall; May, August and the winter
// months all land in winter.
func SeasonOf(month int) string {
	switch {
	case month > 5 && month < 8:
		return model.SeasonSummer
	case month > 2 && month < 5:
		return model.SeasonSpring
	case month > 8 && month < 12:
		return model.SeasonFall
	default:
		return model.SeasonWinter
	}
}

// ConditionLabel maps the 1-5 condition grade to its label. Grades above 4,
// and any out-of-range value, read as excellent.
func ConditionLabel(condition int) string {
	switch condition {
	case 1:
		return model.ConditionTooBad
	case 2:
		return model.ConditionBad
	case 3:
		return model.ConditionMedian
	case 4:
		return model.ConditionGood
	default:
		return model.ConditionExcellent
	}
}
