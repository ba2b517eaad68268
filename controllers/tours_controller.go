package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/princinho/toursbackend/apperrors"
	"github.com/princinho/toursbackend/dto"
	"github.com/princinho/toursbackend/services"
)

type TourController struct {
	tours *services.TourService
}

func NewTourController(tours *services.TourService) *TourController {
	return &TourController{tours: tours}
}

// AliasTopTours presets the query of /tours/top-5-cheap.
func AliasTopTours() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "-ratingsAverage,price")
		q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
		c.Request.URL.RawQuery = q.Encode()
		c.Next()
	}
}

// GET /api/v1/tours
func (h *TourController) GetTours() gin.HandlerFunc {
	return func(c *gin.Context) {
		tours, total, err := h.tours.List(c.Request.Context(), c.Request.URL.Query())
		if err != nil {
			c.Error(err)
			return
		}
		list(c, "tours", tours, total)
	}
}

// GET /api/v1/tours/:id
func (h *TourController) GetTour() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		tour, err := h.tours.Get(c.Request.Context(), id)
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusOK, gin.H{"tour": tour})
	}
}

// POST /api/v1/tours
func (h *TourController) CreateTour() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.CreateTourDTO
		if !bindJSON(c, &in) {
			return
		}
		tour, err := h.tours.Create(c.Request.Context(), in)
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusCreated, gin.H{"tour": tour})
	}
}

// PATCH /api/v1/tours/:id
func (h *TourController) UpdateTour() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var in dto.UpdateTourDTO
		if !bindJSON(c, &in) {
			return
		}
		tour, err := h.tours.Update(c.Request.Context(), id, in)
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusOK, gin.H{"tour": tour})
	}
}

// DELETE /api/v1/tours/:id
func (h *TourController) DeleteTour() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.tours.Delete(c.Request.Context(), id); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GET /api/v1/tours/tour-stats
func (h *TourController) GetTourStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := h.tours.Stats(c.Request.Context())
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusOK, gin.H{"stats": stats})
	}
}

// GET /api/v1/tours/monthly-plan/:year
func (h *TourController) GetMonthlyPlan() gin.HandlerFunc {
	return func(c *gin.Context) {
		year, err := strconv.Atoi(c.Param("year"))
		if err != nil {
			c.Error(apperrors.BadRequest(fmt.Sprintf("Invalid year: %s", c.Param("year"))))
			return
		}
		plan, err := h.tours.MonthlyPlan(c.Request.Context(), year)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"results": len(plan),
			"data":    gin.H{"plan": plan},
		})
	}
}

// PATCH /api/v1/tours/:id/images takes a multipart form with an optional
// imageCover file and up to three images files.
func (h *TourController) UploadTourImages() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			if errors.Is(err, http.ErrNotMultipart) {
				err = apperrors.BadRequest("Please upload images as multipart/form-data")
			}
			c.Error(err)
			return
		}

		var cover *multipart.FileHeader
		if files := form.File["imageCover"]; len(files) > 0 {
			cover = files[0]
		}

		tour, err := h.tours.UploadImages(c.Request.Context(), id, cover, form.File["images"])
		if err != nil {
			c.Error(err)
			return
		}
		success(c, http.StatusOK, gin.H{"tour": tour})
	}
}
