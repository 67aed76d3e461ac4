package geo

import (
	"sort"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/house-rocket/internal/model"
)

// Choropleth styling.
const (
	FillOpacity = 0.7
	LineOpacity = 0.2
	GainLegend  = "AVG GAIN"
)

// ZipGain is the average projected gain of a zipcode.
type ZipGain struct {
	Zipcode string  `json:"zipcode"`
	Gain    float64 `json:"gain"`
	Count   int     `json:"count"`
}

// AverageGainByZip averages Gain per zipcode, ordered by zipcode.
func AverageGainByZip(listings []model.Listing) []ZipGain {
	sums := make(map[string]*ZipGain)
	for _, l := range listings {
		z, ok := sums[l.Zipcode]
		if !ok {
			z = &ZipGain{Zipcode: l.Zipcode}
			sums[l.Zipcode] = z
		}
		z.Gain += l.Gain
		z.Count++
	}

	out := make([]ZipGain, 0, len(sums))
	for _, z := range sums {
		z.Gain /= float64(z.Count)
		out = append(out, *z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zipcode < out[j].Zipcode })
	return out
}

// Choropleth is the gain layer: styled boundary features plus legend data.
type Choropleth struct {
	Features    *geojson.FeatureCollection `json:"features"`
	Scale       ColorScale                 `json:"scale"`
	Legend      string                     `json:"legend"`
	FillOpacity float64                    `json:"fill_opacity"`
	LineOpacity float64                    `json:"line_opacity"`
}

// GainChoropleth keeps the boundary features whose zipcode appears in the
// listings and tags each with ZIP, GAIN and a fill colour. The source
// features are not modified.
func GainChoropleth(b *Boundaries, listings []model.Listing) *Choropleth {
	gains := AverageGainByZip(listings)

	values := make([]float64, 0, len(gains))
	for _, g := range gains {
		values = append(values, g.Gain)
	}
	scale := NewColorScale(values)

	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, g := range gains {
		if b == nil {
			break
		}
		src, ok := b.Zip(g.Zipcode)
		if !ok {
			continue
		}

		props := make(map[string]any, len(src.Properties)+3)
		for k, v := range src.Properties {
			props[k] = v
		}
		props["ZIP"] = g.Zipcode
		props["GAIN"] = g.Gain
		props["fill"] = scale.ColorFor(g.Gain)

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         src.ID,
			Geometry:   src.Geometry,
			BBox:       src.BBox,
			Properties: props,
		})
	}

	return &Choropleth{
		Features:    fc,
		Scale:       scale,
		Legend:      GainLegend,
		FillOpacity: FillOpacity,
		LineOpacity: LineOpacity,
	}
}
