package pipeline

import (
	"slices"
	"sort"

	"github.com/sells-group/house-rocket/internal/model"
)

// Filter restricts buy candidates by condition label and zipcode. An empty
// list leaves that dimension unrestricted.
type Filter struct {
	Conditions []string `json:"conditions,omitempty" yaml:"conditions,omitempty" validate:"omitempty,dive,oneof='too bad' bad median good excellent"`
	Zipcodes   []string `json:"zipcodes,omitempty" yaml:"zipcodes,omitempty" validate:"omitempty,dive,len=5,numeric"`
}

// Empty reports whether the filter restricts nothing.
func (f Filter) Empty() bool {
	return len(f.Conditions) == 0 && len(f.Zipcodes) == 0
}

// Match reports whether l satisfies both dimensions.
func (f Filter) Match(l model.Listing) bool {
	if len(f.Conditions) > 0 && !slices.Contains(f.Conditions, l.ConditionLabel) {
		return false
	}
	if len(f.Zipcodes) > 0 && !slices.Contains(f.Zipcodes, l.Zipcode) {
		return false
	}
	return true
}

// Apply returns the listings matching the filter, keeping their order.
func (f Filter) Apply(listings []model.Listing) []model.Listing {
	if f.Empty() {
		return slices.Clone(listings)
	}
	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Options lists the distinct values a Filter can select.
type Options struct {
	Conditions []string `json:"conditions" yaml:"conditions"`
	Zipcodes   []string `json:"zipcodes" yaml:"zipcodes"`
}

// FilterOptions collects the distinct condition labels and zipcodes of the
// listings, each sorted ascending.
func FilterOptions(listings []model.Listing) Options {
	conds := make(map[string]struct{})
	zips := make(map[string]struct{})
	for _, l := range listings {
		conds[l.ConditionLabel] = struct{}{}
		zips[l.Zipcode] = struct{}{}
	}
	return Options{Conditions: sortedKeys(conds), Zipcodes: sortedKeys(zips)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
