package geo

import "math"

// YlOrRd is the six-class yellow-orange-red sequential scale.
var YlOrRd = []string{"#ffffb2", "#fed976", "#feb24c", "#fd8d3c", "#f03b20", "#bd0026"}

// ColorScale maps values in [Min, Max] onto equal-width colour classes.
type ColorScale struct {
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Colors []string `json:"colors"`
}

// NewColorScale spans values with the YlOrRd classes.
func NewColorScale(values []float64) ColorScale {
	s := ColorScale{Colors: YlOrRd}
	if len(values) == 0 {
		return s
	}
	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	return s
}

// Class returns the class index of v. Values outside the range clamp to the
// first or last class; a degenerate range maps everything to class 0.
func (s ColorScale) Class(v float64) int {
	n := len(s.Colors)
	if n == 0 {
		return 0
	}
	if s.Max <= s.Min || v <= s.Min {
		return 0
	}
	if v >= s.Max {
		return n - 1
	}
	idx := int((v - s.Min) * float64(n) / (s.Max - s.Min))
	return min(idx, n-1)
}

// ColorFor returns the colour for v.
func (s ColorScale) ColorFor(v float64) string {
	if len(s.Colors) == 0 {
		return ""
	}
	return s.Colors[s.Class(v)]
}

// Breaks returns the lower edge of each class.
func (s ColorScale) Breaks() []float64 {
	n := len(s.Colors)
	out := make([]float64, n)
	step := (s.Max - s.Min) / float64(n)
	for i := range out {
		out[i] = s.Min + step*float64(i)
	}
	return out
}
