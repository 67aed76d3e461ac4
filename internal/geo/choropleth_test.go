package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/house-rocket/internal/model"
)

const sampleBoundaries = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"ZIP": 98178, "NAME": "Rainier"},
     "geometry": {"type": "Polygon", "coordinates": [[[-122.3,47.4],[-122.2,47.4],[-122.2,47.5],[-122.3,47.5],[-122.3,47.4]]]}},
    {"type": "Feature", "properties": {"ZIP": "98125"},
     "geometry": {"type": "Polygon", "coordinates": [[[-122.4,47.7],[-122.3,47.7],[-122.3,47.8],[-122.4,47.8],[-122.4,47.7]]]}},
    {"type": "Feature", "properties": {"ZIP": "98001"},
     "geometry": {"type": "Polygon", "coordinates": [[[-122.3,47.2],[-122.2,47.2],[-122.2,47.3],[-122.3,47.3],[-122.3,47.2]]]}},
    {"type": "Feature", "properties": {"NAME": "no zip"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}
  ]
}`

func sampleCollection(t *testing.T) *geojson.FeatureCollection {
	t.Helper()
	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal([]byte(sampleBoundaries), &fc))
	return &fc
}

func TestNewBoundaries(t *testing.T) {
	b := NewBoundaries("test", sampleCollection(t))

	assert.Equal(t, 4, b.Len())
	assert.Equal(t, []string{"98001", "98125", "98178"}, b.Zipcodes())

	f, ok := b.Zip("98178.0")
	require.True(t, ok)
	assert.Equal(t, "Rainier", f.Properties["NAME"])

	_, ok = b.Zip("99999")
	assert.False(t, ok)
}

func TestNewBoundaries_Nil(t *testing.T) {
	b := NewBoundaries("empty", nil)
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Zipcodes())
}

func TestZipOf(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		want  string
	}{
		{name: "string", props: map[string]any{"ZIP": "98178"}, want: "98178"},
		{name: "float", props: map[string]any{"ZIP": 98178.0}, want: "98178"},
		{name: "int", props: map[string]any{"ZIPCODE": 98125}, want: "98125"},
		{name: "census field", props: map[string]any{"ZCTA5CE10": "98001"}, want: "98001"},
		{name: "empty falls through", props: map[string]any{"ZIP": "", "ZIPCODE": "98002"}, want: "98002"},
		{name: "nil value", props: map[string]any{"ZIP": nil}, want: ""},
		{name: "missing", props: map[string]any{"NAME": "x"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ZipOf(&geojson.Feature{Properties: tt.props}))
		})
	}
	assert.Equal(t, "", ZipOf(nil))
}

func TestAverageGainByZip(t *testing.T) {
	gains := AverageGainByZip([]model.Listing{
		pricedListing(1, "98178", 47.5, -122.2, 90000),
		pricedListing(2, "98178", 47.5, -122.2, 30000),
		pricedListing(3, "98125", 47.7, -122.3, 12000),
	})

	require.Len(t, gains, 2)
	assert.Equal(t, ZipGain{Zipcode: "98125", Gain: 12000, Count: 1}, gains[0])
	assert.Equal(t, ZipGain{Zipcode: "98178", Gain: 60000, Count: 2}, gains[1])
}

func TestGainChoropleth_RestrictsToRecommendedZips(t *testing.T) {
	b := NewBoundaries("test", sampleCollection(t))
	listings := []model.Listing{
		pricedListing(1, "98178", 47.5, -122.2, 90000),
		pricedListing(2, "98125", 47.7, -122.3, 30000),
		pricedListing(3, "98999", 47.7, -122.3, 50000), // no boundary
	}

	c := GainChoropleth(b, listings)
	require.Len(t, c.Features.Features, 2)

	byZip := map[string]*geojson.Feature{}
	for _, f := range c.Features.Features {
		byZip[f.Properties["ZIP"].(string)] = f
	}
	require.Contains(t, byZip, "98178")
	require.Contains(t, byZip, "98125")
	assert.NotContains(t, byZip, "98001")

	assert.Equal(t, 90000.0, byZip["98178"].Properties["GAIN"])
	assert.Equal(t, "#bd0026", byZip["98178"].Properties["fill"])
	assert.Equal(t, "#ffffb2", byZip["98125"].Properties["fill"])
	assert.Equal(t, "Rainier", byZip["98178"].Properties["NAME"])

	assert.Equal(t, GainLegend, c.Legend)
	assert.Equal(t, 0.7, c.FillOpacity)
	assert.Equal(t, 0.2, c.LineOpacity)
}

func TestGainChoropleth_DoesNotMutateBoundaries(t *testing.T) {
	b := NewBoundaries("test", sampleCollection(t))
	GainChoropleth(b, []model.Listing{pricedListing(1, "98178", 47.5, -122.2, 1)})

	f, ok := b.Zip("98178")
	require.True(t, ok)
	assert.NotContains(t, f.Properties, "GAIN")
	assert.NotContains(t, f.Properties, "fill")
}

func TestGainChoropleth_Empty(t *testing.T) {
	c := GainChoropleth(NewBoundaries("test", sampleCollection(t)), nil)
	assert.Empty(t, c.Features.Features)

	c = GainChoropleth(nil, []model.Listing{pricedListing(1, "98178", 47.5, -122.2, 1)})
	assert.Empty(t, c.Features.Features)
}
