package model

import "time"

// RunSummary records the headline numbers of one recommendation run.
type RunSummary struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	Listings      int       `json:"listings"`
	BuyCandidates int       `json:"buy_candidates"`
	Selected      int       `json:"selected"`
	TotalGain     float64   `json:"total_gain"`
	Conditions    []string  `json:"conditions,omitempty"`
	Zipcodes      []string  `json:"zipcodes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// RunRecommendation is one priced buy candidate saved alongside a run.
type RunRecommendation struct {
	RunID     string  `json:"run_id"`
	ListingID int64   `json:"listing_id"`
	Zipcode   string  `json:"zipcode"`
	Season    string  `json:"season"`
	Price     float64 `json:"price"`
	SalePrice float64 `json:"sale_price"`
	Gain      float64 `json:"gain"`
}

// BoundarySnapshot is a cached copy of a remote boundary file.
type BoundarySnapshot struct {
	Source    string    `json:"source"`
	ETag      string    `json:"etag,omitempty"`
	Data      []byte    `json:"-"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Stale reports whether the snapshot is older than ttl. A non-positive ttl
// never expires.
func (b *BoundarySnapshot) Stale(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(b.FetchedAt) > ttl
}

// RunDetail is a stored run with its priced recommendations.
type RunDetail struct {
	RunSummary
	Recommendations []RunRecommendation `json:"recommendations"`
}
