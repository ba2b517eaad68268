package dto

// CreateReviewDTO. The tour falls back to the :id path parameter on nested routes.
type CreateReviewDTO struct {
	Review string  `json:"review" binding:"required"`
	Rating float64 `json:"rating" binding:"required,min=1,max=5"`
	Tour   string  `json:"tour" binding:"omitempty,mongodb"`
}

type UpdateReviewDTO struct {
	Review *string  `json:"review" binding:"omitempty,min=1"`
	Rating *float64 `json:"rating" binding:"omitempty,min=1,max=5"`
}
