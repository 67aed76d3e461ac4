// Package insight computes the descriptive statistics, business hypotheses
// and display formatting shown alongside the recommendations.
package insight

import (
	"math"

	"github.com/sells-group/house-rocket/internal/model"
	"github.com/sells-group/house-rocket/internal/pipeline"
)

// AttributeStats summarizes one numeric attribute.
type AttributeStats struct {
	Attribute string  `json:"attributes" yaml:"attribute"`
	Max       float64 `json:"max" yaml:"max"`
	Min       float64 `json:"min" yaml:"min"`
	Mean      float64 `json:"mean" yaml:"mean"`
	Median    float64 `json:"median" yaml:"median"`
	Std       float64 `json:"std" yaml:"std"`
	Count     int     `json:"count" yaml:"count"`
}

type attribute struct {
	name  string
	value func(model.Listing) (float64, bool)
}

func always(f func(model.Listing) float64) func(model.Listing) (float64, bool) {
	return func(l model.Listing) (float64, bool) { return f(l), true }
}

// describedAttributes leaves out identifiers (id, zipcode), coordinates,
// month and the regional median.
var describedAttributes = []attribute{
	{"price", always(func(l model.Listing) float64 { return l.Price })},
	{"bedrooms", always(func(l model.Listing) float64 { return float64(l.Bedrooms) })},
	{"bathrooms", always(func(l model.Listing) float64 { return l.Bathrooms })},
	{"sqft_living", always(func(l model.Listing) float64 { return l.SqftLiving })},
	{"sqft_lot", always(func(l model.Listing) float64 { return l.SqftLot })},
	{"floors", always(func(l model.Listing) float64 { return l.Floors })},
	{"condition", always(func(l model.Listing) float64 { return float64(l.Condition) })},
	{"sqft_above", func(l model.Listing) (float64, bool) { return l.SqftAboveValue(), l.HasSqftAbove() }},
	{"sqft_basement", always(func(l model.Listing) float64 { return l.SqftBasement })},
	{"yr_built", always(func(l model.Listing) float64 { return float64(l.YrBuilt) })},
}

// DescribedAttributes returns the attribute names in report order.
func DescribedAttributes() []string {
	out := make([]string, len(describedAttributes))
	for i, a := range describedAttributes {
		out[i] = a.name
	}
	return out
}

// Describe computes max, min, mean, median and population standard
// deviation for each numeric attribute. Attributes with no values report
// zeros.
func Describe(listings []model.Listing) []AttributeStats {
	out := make([]AttributeStats, 0, len(describedAttributes))
	for _, a := range describedAttributes {
		values := make([]float64, 0, len(listings))
		for _, l := range listings {
			if v, ok := a.value(l); ok {
				values = append(values, v)
			}
		}
		s := summarize(values)
		s.Attribute = a.name
		out = append(out, s)
	}
	return out
}

func summarize(values []float64) AttributeStats {
	s := AttributeStats{Count: len(values)}
	if len(values) == 0 {
		return s
	}

	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	var sum float64
	for _, v := range values {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		sum += v
	}
	s.Mean = sum / float64(len(values))
	s.Median = pipeline.Median(values)

	var sq float64
	for _, v := range values {
		d := v - s.Mean
		sq += d * d
	}
	s.Std = math.Sqrt(sq / float64(len(values)))
	return s
}
