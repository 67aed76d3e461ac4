// Package geo loads zipcode boundaries and builds the map layers for
// recommended listings: a clustered point layer and a gain choropleth.
package geo

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/house-rocket/internal/model"
)

// zipProperties are the feature properties checked, in order, for the zipcode.
var zipProperties = []string{"ZIP", "ZIPCODE", "ZIP_CODE", "ZCTA5CE10", "ZCTA5CE20"}

// Boundaries is a read-only zipcode boundary collection keyed by ZIP.
type Boundaries struct {
	Source   string
	features []*geojson.Feature
	byZip    map[string]*geojson.Feature
}

// NewBoundaries indexes fc by zipcode. Features without a zipcode are kept
// in Features but cannot be looked up. The first feature wins on duplicates.
func NewBoundaries(source string, fc *geojson.FeatureCollection) *Boundaries {
	b := &Boundaries{Source: source, byZip: make(map[string]*geojson.Feature)}
	if fc == nil {
		return b
	}
	b.features = fc.Features
	for _, f := range fc.Features {
		zip := ZipOf(f)
		if zip == "" {
			continue
		}
		if _, dup := b.byZip[zip]; !dup {
			b.byZip[zip] = f
		}
	}
	return b
}

// Len returns the number of features.
func (b *Boundaries) Len() int {
	return len(b.features)
}

// Features returns the features in source order.
func (b *Boundaries) Features() []*geojson.Feature {
	return b.features
}

// Zip returns the boundary feature for a zipcode.
func (b *Boundaries) Zip(zip string) (*geojson.Feature, bool) {
	f, ok := b.byZip[model.NormalizeZip(zip)]
	return f, ok
}

// Zipcodes returns the indexed zipcodes in ascending order.
func (b *Boundaries) Zipcodes() []string {
	zips := make([]string, 0, len(b.byZip))
	for z := range b.byZip {
		zips = append(zips, z)
	}
	sort.Strings(zips)
	return zips
}

// ZipOf returns the normalized zipcode property of a feature, or "".
func ZipOf(f *geojson.Feature) string {
	if f == nil {
		return ""
	}
	for _, key := range zipProperties {
		v, ok := f.Properties[key]
		if !ok {
			continue
		}
		if zip := zipString(v); zip != "" {
			return zip
		}
	}
	return ""
}

func zipString(v any) string {
	switch z := v.(type) {
	case string:
		return model.NormalizeZip(z)
	case float64:
		return model.NormalizeZip(strconv.FormatFloat(z, 'f', -1, 64))
	case int:
		return strconv.Itoa(z)
	case int64:
		return strconv.FormatInt(z, 10)
	case fmt.Stringer:
		return model.NormalizeZip(z.String())
	case nil:
		return ""
	default:
		return model.NormalizeZip(strings.TrimSpace(fmt.Sprint(z)))
	}
}
