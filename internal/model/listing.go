// Package model defines the house-sale records shared by every pipeline stage.
package model

import "time"

// Season buckets derived from the sale month.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonFall   = "fall"
	SeasonWinter = "winter"
)

// Condition labels, indexed by the 1-5 condition grade.
const (
	ConditionTooBad    = "too bad"
	ConditionBad       = "bad"
	ConditionMedian    = "median"
	ConditionGood      = "good"
	ConditionExcellent = "excellent"
)

// ConditionLabels lists every condition label in grade order.
var ConditionLabels = []string{
	ConditionTooBad,
	ConditionBad,
	ConditionMedian,
	ConditionGood,
	ConditionExcellent,
}

// Construction era buckets split at 1955.
const (
	EraAfter1955  = "> 1955"
	EraBefore1955 = "< 1955"
)

// Yes/no labels used for the basement and waterfront features.
const (
	Yes = "yes"
	No  = "no"
)

// RecommendationStatus is the buy/no-buy verdict for a listing.
type RecommendationStatus string

const (
	StatusBuy   RecommendationStatus = "buy"
	StatusNoBuy RecommendationStatus = "no buy"
)

// Listing is one house-sale record. Raw columns come from the listings file;
// Features and Recommendation are filled in by later pipeline stages.
type Listing struct {
	ID           int64     `json:"id"`
	Date         time.Time `json:"date"`
	Price        float64   `json:"price"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    float64   `json:"bathrooms"`
	Floors       float64   `json:"floors"`
	SqftLiving   float64   `json:"sqft_living"`
	SqftLot      float64   `json:"sqft_lot"`
	SqftAbove    *float64  `json:"sqft_above"`
	SqftBasement float64   `json:"sqft_basement"`
	Waterfront   string    `json:"waterfront"`
	Condition    int       `json:"condition"`
	YrBuilt      int       `json:"yr_built"`
	Zipcode      string    `json:"zipcode"`
	Lat          float64   `json:"lat"`
	Long         float64   `json:"long"`

	Features
	Recommendation
}

// Features holds the categorical columns derived from a cleaned listing.
type Features struct {
	Era             string `json:"construction,omitempty"`
	Basement        string `json:"basement,omitempty"`
	Year            string `json:"year,omitempty"`
	YearMonth       string `json:"year_month,omitempty"`
	Month           int    `json:"month,omitempty"`
	Season          string `json:"season,omitempty"`
	WaterfrontLabel string `json:"waterfront_label,omitempty"`
	ConditionLabel  string `json:"describe_condition,omitempty"`
}

// Recommendation holds the regional pricing context and resale projection.
type Recommendation struct {
	PriceMedian       float64              `json:"price_median,omitempty"`
	Status            RecommendationStatus `json:"status,omitempty"`
	PriceMedianSeason float64              `json:"price_median_season,omitempty"`
	SalePrice         float64              `json:"sale_price,omitempty"`
	Gain              float64              `json:"gain,omitempty"`
}

// HasSqftAbove reports whether the above-ground square footage is known.
func (l Listing) HasSqftAbove() bool {
	return l.SqftAbove != nil
}

// SqftAboveValue returns the above-ground square footage, or 0 when unknown.
func (l Listing) SqftAboveValue() float64 {
	if l.SqftAbove == nil {
		return 0
	}
	return *l.SqftAbove
}
