package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/toursbackend/dto"
	"github.com/princinho/toursbackend/services"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ReviewController serves /reviews and the nested /tours/:id/reviews, where
// :id names the tour.
type ReviewController struct {
	reviews *services.ReviewService
}

func NewReviewController(reviews *services.ReviewService) *ReviewController {
	return &ReviewController{reviews: reviews}
}

// GET /api/v1/reviews and /api/v1/tours/:id/reviews
func (h *ReviewController) GetReviews(nested bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tourID, ok := h.tourID(c, nested)
		if !ok {
			return
		}
		reviews, total, err := h.reviews.List(c.Request.Context(), tourID, c.Request.URL.Query())
		if err != nil {
			c.Error(err)
			return
		}
		list(c, "reviews", reviews, total)
	}
}

// POST /api/v1/reviews and /api/v1/tours/:id/reviews
func (h *ReviewController) CreateReview(nested bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		tourID, ok := h.tourID(c, nested)
		if !ok {
			return
		}
		var in dto.CreateReviewDTO
		if !bindJSON(c, &in) {
			return
		}

		review, err := h.reviews.Create(c.Request.Context(), me, tourID, in)
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusCreated, gin.H{"review": review})
	}
}

// GET /api/v1/reviews/:id
func (h *ReviewController) GetReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		review, err := h.reviews.Get(c.Request.Context(), id)
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusOK, gin.H{"review": review})
	}
}

// PATCH /api/v1/reviews/:id
func (h *ReviewController) UpdateReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var in dto.UpdateReviewDTO
		if !bindJSON(c, &in) {
			return
		}

		review, err := h.reviews.Update(c.Request.Context(), me, id, in)
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusOK, gin.H{"review": review})
	}
}

// DELETE /api/v1/reviews/:id
func (h *ReviewController) DeleteReview() gin.HandlerFunc {
	return func(c *gin.Context) {
		me, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.reviews.Delete(c.Request.Context(), me, id); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *ReviewController) tourID(c *gin.Context, nested bool) (*bson.ObjectID, bool) {
	if !nested {
		return nil, true
	}
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	return &id, true
}
