package geo

import (
	"math"
	"sort"

	"github.com/sells-group/house-rocket/internal/model"
)

// Zoom limits accepted by Cluster.
const (
	MinZoom = 0
	MaxZoom = 20
)

// clusterCellPx is the grid cell edge in screen pixels on a 256px tile.
const clusterCellPx = 60.0

// MarkerCluster is a group of listings that share a grid cell at a zoom level.
type MarkerCluster struct {
	Lat        float64 `json:"lat"`
	Long       float64 `json:"long"`
	Count      int     `json:"count"`
	TotalGain  float64 `json:"total_gain"`
	ListingIDs []int64 `json:"listing_ids"`
}

type cellKey struct{ x, y int64 }

// Cluster groups listings into grid cells sized for the zoom level. The
// cluster position is the mean of its members. Results are ordered by size,
// then by position.
func Cluster(listings []model.Listing, zoom int) []MarkerCluster {
	zoom = max(MinZoom, min(MaxZoom, zoom))
	cell := 360.0 / math.Exp2(float64(zoom)) * clusterCellPx / 256.0

	cells := make(map[cellKey]*MarkerCluster)
	var order []cellKey
	for _, l := range listings {
		k := cellKey{x: int64(math.Floor(l.Long / cell)), y: int64(math.Floor(l.Lat / cell))}
		c, ok := cells[k]
		if !ok {
			c = &MarkerCluster{}
			cells[k] = c
			order = append(order, k)
		}
		c.Lat += l.Lat
		c.Long += l.Long
		c.Count++
		c.TotalGain += l.Gain
		c.ListingIDs = append(c.ListingIDs, l.ID)
	}

	out := make([]MarkerCluster, 0, len(order))
	for _, k := range order {
		c := cells[k]
		c.Lat /= float64(c.Count)
		c.Long /= float64(c.Count)
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Lat != out[j].Lat {
			return out[i].Lat < out[j].Lat
		}
		return out[i].Long < out[j].Long
	})
	return out
}
