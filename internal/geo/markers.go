package geo

import (
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/house-rocket/internal/model"
)

// PopupText is the marker popup for a priced listing.
func PopupText(l model.Listing) string {
	return fmt.Sprintf(
		"Buy price US$ %.2f Sell Price US$ %.2f Gain US$ %.2f. Features: %s sqft, %d bedrooms, %s bathrooms, year built: %d",
		l.Price, l.SalePrice, l.Gain,
		strconv.FormatFloat(l.SqftLiving, 'f', -1, 64),
		l.Bedrooms,
		strconv.FormatFloat(l.Bathrooms, 'f', -1, 64),
		l.YrBuilt,
	)
}

// ListingMarkers builds one point feature per listing.
func ListingMarkers(listings []model.Listing) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(listings))}
	for _, l := range listings {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       strconv.FormatInt(l.ID, 10),
			Geometry: geom.NewPointFlat(geom.XY, []float64{l.Long, l.Lat}),
			Properties: map[string]any{
				"id":         l.ID,
				"zipcode":    l.Zipcode,
				"price":      l.Price,
				"sale_price": l.SalePrice,
				"gain":       l.Gain,
				"popup":      PopupText(l),
			},
		})
	}
	return fc
}

// Center returns the mean latitude and longitude of the listings.
// ok is false for an empty slice.
func Center(listings []model.Listing) (lat, long float64, ok bool) {
	if len(listings) == 0 {
		return 0, 0, false
	}
	for _, l := range listings {
		lat += l.Lat
		long += l.Long
	}
	n := float64(len(listings))
	return lat / n, long / n, true
}

// Bounds returns the bounding box of the listings, or nil when empty.
func Bounds(listings []model.Listing) *geom.Bounds {
	if len(listings) == 0 {
		return nil
	}
	b := geom.NewBounds(geom.XY)
	for _, l := range listings {
		b.Extend(geom.NewPointFlat(geom.XY, []float64{l.Long, l.Lat}))
	}
	return b
}
