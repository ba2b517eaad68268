package models

import (
	"encoding/json"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"

	DefaultRatingsAverage = 4.5
)

type Tour struct {
	ID              bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string          `bson:"name" json:"name"`
	Slug            string          `bson:"slug" json:"slug"`
	Duration        int             `bson:"duration" json:"duration"`
	MaxGroupSize    int             `bson:"maxGroupSize" json:"maxGroupSize"`
	Difficulty      string          `bson:"difficulty" json:"difficulty"`
	RatingsAverage  float64         `bson:"ratingsAverage" json:"ratingsAverage"`
	RatingsQuantity int             `bson:"ratingsQuantity" json:"ratingsQuantity"`
	Price           float64         `bson:"price" json:"price"`
	PriceDiscount   float64         `bson:"priceDiscount,omitempty" json:"priceDiscount,omitempty"`
	Summary         string          `bson:"summary" json:"summary"`
	Description     string          `bson:"description,omitempty" json:"description,omitempty"`
	ImageCover      string          `bson:"imageCover" json:"imageCover"`
	Images          []string        `bson:"images" json:"images"`
	StartDates      []time.Time     `bson:"startDates" json:"startDates"`
	SecretTour      bool            `bson:"secretTour" json:"secretTour"`
	Guides          []bson.ObjectID `bson:"guides" json:"guides"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`

	// Reviews is filled on the detail endpoint only.
	Reviews []Review `bson:"-" json:"reviews,omitempty"`
}

// DurationWeeks is derived, never stored.
func (t *Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

// MarshalJSON adds the derived durationWeeks to the stored fields.
func (t Tour) MarshalJSON() ([]byte, error) {
	type tour Tour
	return json.Marshal(struct {
		tour
		DurationWeeks float64 `json:"durationWeeks"`
	}{tour(t), t.DurationWeeks()})
}

// TourStats is one row of the per-difficulty aggregation.
type TourStats struct {
	Difficulty string  `bson:"_id" json:"_id"`
	NumTours   int     `bson:"numTours" json:"numTours"`
	NumRatings int     `bson:"numRatings" json:"numRatings"`
	AvgRating  float64 `bson:"avgRating" json:"avgRating"`
	AvgPrice   float64 `bson:"avgPrice" json:"avgPrice"`
	MinPrice   float64 `bson:"minPrice" json:"minPrice"`
	MaxPrice   float64 `bson:"maxPrice" json:"maxPrice"`
}

// MonthlyPlan is one month of tour starts within a year.
type MonthlyPlan struct {
	Month         int      `bson:"month" json:"month"`
	NumTourStarts int      `bson:"numTourStarts" json:"numTourStarts"`
	Tours         []string `bson:"tours" json:"tours"`
}

// RatingSummary is the review aggregate kept on a tour.
type RatingSummary struct {
	Quantity int
	Average  float64
}

// NewRatingSummary rounds the average to one decimal and falls back to the
// defaults when a tour has no reviews left.
func NewRatingSummary(quantity int, average float64) RatingSummary {
	if quantity == 0 {
		return RatingSummary{Quantity: 0, Average: DefaultRatingsAverage}
	}
	return RatingSummary{Quantity: quantity, Average: RoundRating(average)}
}

func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
