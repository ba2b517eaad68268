package dto

import "time"

type CreateTourDTO struct {
	Name           string      `json:"name" binding:"required,min=10,max=40"`
	Duration       int         `json:"duration" binding:"required,gt=0"`
	MaxGroupSize   int         `json:"maxGroupSize" binding:"required,gt=0"`
	Difficulty     string      `json:"difficulty" binding:"required,oneof=easy medium difficult"`
	RatingsAverage *float64    `json:"ratingsAverage" binding:"omitempty,min=1,max=5"`
	Price          float64     `json:"price" binding:"required,gt=0"`
	PriceDiscount  float64     `json:"priceDiscount" binding:"omitempty,gte=0,ltfield=Price"`
	Summary        string      `json:"summary" binding:"required"`
	Description    string      `json:"description"`
	ImageCover     string      `json:"imageCover" binding:"required"`
	Images         []string    `json:"images"`
	StartDates     []time.Time `json:"startDates"`
	SecretTour     bool        `json:"secretTour"`
	Guides         []string    `json:"guides" binding:"omitempty,dive,mongodb"`
}

// UpdateTourDTO has only optional fields. The discount is checked against the
// stored price by the service.
type UpdateTourDTO struct {
	Name           *string      `json:"name" binding:"omitempty,min=10,max=40"`
	Duration       *int         `json:"duration" binding:"omitempty,gt=0"`
	MaxGroupSize   *int         `json:"maxGroupSize" binding:"omitempty,gt=0"`
	Difficulty     *string      `json:"difficulty" binding:"omitempty,oneof=easy medium difficult"`
	RatingsAverage *float64     `json:"ratingsAverage" binding:"omitempty,min=1,max=5"`
	Price          *float64     `json:"price" binding:"omitempty,gt=0"`
	PriceDiscount  *float64     `json:"priceDiscount" binding:"omitempty,gte=0"`
	Summary        *string      `json:"summary" binding:"omitempty,min=1"`
	Description    *string      `json:"description"`
	ImageCover     *string      `json:"imageCover" binding:"omitempty,min=1"`
	Images         *[]string    `json:"images"`
	StartDates     *[]time.Time `json:"startDates"`
	SecretTour     *bool        `json:"secretTour"`
	Guides         *[]string    `json:"guides" binding:"omitempty,dive,mongodb"`
}
