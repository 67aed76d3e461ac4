// Package pipeline turns raw listings into buy recommendations: clean,
// derive features, classify against regional medians, price by season and
// filter.
package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/house-rocket/internal/model"
)

// outlierBedrooms marks the known data-entry error in the King County set.
const outlierBedrooms = 33

// Clean normalizes and deduplicates raw listings. Duplicate ids keep their
// last occurrence, rows with unknown sqft_above and the 33-bedroom outlier
// are dropped. The input is not modified and Clean is idempotent.
func Clean(raw []model.Listing) []model.Listing {
	last := make(map[int64]int, len(raw))
	for i, l := range raw {
		last[l.ID] = i
	}

	out := make([]model.Listing, 0, len(raw))
	for i, l := range raw {
		if last[l.ID] != i {
			continue
		}
		if !l.HasSqftAbove() || l.Bedrooms == outlierBedrooms {
			continue
		}

		l.Bathrooms = math.Trunc(l.Bathrooms)
		l.Floors = math.Trunc(l.Floors)
		l.Waterfront = normalizeFlag(l.Waterfront)
		above := l.SqftAboveValue()
		l.SqftAbove = &above
		out = append(out, l)
	}
	return out
}

// normalizeFlag renders numeric flags as integers so "1.0" and "1" agree.
func normalizeFlag(s string) string {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v != math.Trunc(v) {
		return s
	}
	return strconv.FormatInt(int64(v), 10)
}
