package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/toursbackend/apifeatures"
	"github.com/princinho/toursbackend/apperrors"
	"github.com/princinho/toursbackend/dto"
	"github.com/princinho/toursbackend/logger"
	"github.com/princinho/toursbackend/models"
	"github.com/princinho/toursbackend/repositories"
	"github.com/princinho/toursbackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	msgNoTour     = "No tour found with that ID"
	MaxTourImages = 3
)

type TourService struct {
	tours     repositories.TourRepository
	reviews   repositories.ReviewRepository
	store     utils.ObjectStore
	validator *utils.FileValidator
	query     *apifeatures.Builder
	now       func() time.Time
}

// NewTourService accepts a nil store, in which case image uploads fail.
func NewTourService(
	tours repositories.TourRepository,
	reviews repositories.ReviewRepository,
	store utils.ObjectStore,
	validator *utils.FileValidator,
	query *apifeatures.Builder,
) *TourService {
	return &TourService{
		tours:     tours,
		reviews:   reviews,
		store:     store,
		validator: validator,
		query:     query,
		now:       time.Now,
	}
}

func (s *TourService) List(ctx context.Context, params url.Values) ([]models.Tour, int64, error) {
	spec := s.query.Build(params)
	tours, err := s.tours.List(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tours.Count(ctx, spec.Filter)
	if err != nil {
		return nil, 0, err
	}
	return tours, total, nil
}

// Get returns the tour with its reviews embedded.
func (s *TourService) Get(ctx context.Context, id bson.ObjectID) (*models.Tour, error) {
	tour, err := s.tours.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, msgNoTour)
	}

	spec := apifeatures.Build(url.Values{}).Where("tour", id)
	spec.Limit, spec.Skip = 0, 0
	reviews, err := s.reviews.List(ctx, spec)
	if err != nil {
		return nil, err
	}
	tour.Reviews = reviews
	return tour, nil
}

func (s *TourService) Create(ctx context.Context, in dto.CreateTourDTO) (*models.Tour, error) {
	guides, err := utils.StringsToObjectIDs("guides", in.Guides)
	if err != nil {
		return nil, err
	}

	rating := models.DefaultRatingsAverage
	if in.RatingsAverage != nil {
		rating = models.RoundRating(*in.RatingsAverage)
	}

	name := strings.TrimSpace(in.Name)
	tour := &models.Tour{
		ID:             bson.NewObjectID(),
		Name:           name,
		Slug:           utils.GenerateSlug(name),
		Duration:       in.Duration,
		MaxGroupSize:   in.MaxGroupSize,
		Difficulty:     in.Difficulty,
		RatingsAverage: rating,
		Price:          in.Price,
		PriceDiscount:  in.PriceDiscount,
		Summary:        strings.TrimSpace(in.Summary),
		Description:    strings.TrimSpace(in.Description),
		ImageCover:     in.ImageCover,
		Images:         nonNil(in.Images),
		StartDates:     in.StartDates,
		SecretTour:     in.SecretTour,
		Guides:         guides,
		CreatedAt:      s.now().UTC(),
	}
	if tour.StartDates == nil {
		tour.StartDates = []time.Time{}
	}

	if err := s.tours.Create(ctx, tour); err != nil {
		return nil, err
	}
	return tour, nil
}

// Update applies the given fields. A new name also renames the slug.
func (s *TourService) Update(ctx context.Context, id bson.ObjectID, in dto.UpdateTourDTO) (*models.Tour, error) {
	set := bson.M{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		set["name"] = name
		set["slug"] = utils.GenerateSlug(name)
	}
	if in.Duration != nil {
		set["duration"] = *in.Duration
	}
	if in.MaxGroupSize != nil {
		set["maxGroupSize"] = *in.MaxGroupSize
	}
	if in.Difficulty != nil {
		set["difficulty"] = *in.Difficulty
	}
	if in.RatingsAverage != nil {
		set["ratingsAverage"] = models.RoundRating(*in.RatingsAverage)
	}
	if in.Price != nil {
		set["price"] = *in.Price
	}
	if in.Summary != nil {
		set["summary"] = strings.TrimSpace(*in.Summary)
	}
	if in.Description != nil {
		set["description"] = strings.TrimSpace(*in.Description)
	}
	if in.ImageCover != nil {
		set["imageCover"] = *in.ImageCover
	}
	if in.Images != nil {
		set["images"] = nonNil(*in.Images)
	}
	if in.StartDates != nil {
		set["startDates"] = *in.StartDates
	}
	if in.SecretTour != nil {
		set["secretTour"] = *in.SecretTour
	}
	if in.Guides != nil {
		guides, err := utils.StringsToObjectIDs("guides", *in.Guides)
		if err != nil {
			return nil, err
		}
		set["guides"] = guides
	}

	if in.PriceDiscount != nil || in.Price != nil {
		current, err := s.tours.FindByID(ctx, id)
		if err != nil {
			return nil, notFound(err, msgNoTour)
		}
		price, discount := current.Price, current.PriceDiscount
		if in.Price != nil {
			price = *in.Price
		}
		if in.PriceDiscount != nil {
			discount = *in.PriceDiscount
			set["priceDiscount"] = discount
		}
		if discount >= price && discount > 0 {
			return nil, apperrors.Validation(fmt.Sprintf("Invalid input data. priceDiscount (%v) should be below price", discount))
		}
	}

	if len(set) == 0 {
		return nil, apperrors.BadRequest("No updates provided")
	}

	tour, err := s.tours.Update(ctx, id, set)
	if err != nil {
		return nil, notFound(err, msgNoTour)
	}
	return tour, nil
}

// Delete removes the tour and its reviews.
func (s *TourService) Delete(ctx context.Context, id bson.ObjectID) error {
	if err := s.tours.Delete(ctx, id); err != nil {
		return notFound(err, msgNoTour)
	}
	if err := s.reviews.DeleteByTour(ctx, id); err != nil {
		logger.FromContext(ctx).Warn("could not delete reviews of removed tour", "tour_id", id.Hex(), "error", err)
	}
	return nil
}

func (s *TourService) Stats(ctx context.Context) ([]models.TourStats, error) {
	return s.tours.Stats(ctx)
}

func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	if year < 1970 || year > 9999 {
		return nil, apperrors.BadRequest(fmt.Sprintf("Invalid year: %d", year))
	}
	return s.tours.MonthlyPlan(ctx, year)
}

// UploadImages replaces the cover and/or gallery images of a tour. Objects
// that are no longer referenced are removed from the store afterwards.
func (s *TourService) UploadImages(ctx context.Context, id bson.ObjectID, cover *multipart.FileHeader, images []*multipart.FileHeader) (*models.Tour, error) {
	if s.store == nil {
		return nil, apperrors.Internal("Image uploads are not configured on this server", nil)
	}
	if cover == nil && len(images) == 0 {
		return nil, apperrors.BadRequest("Please upload an imageCover or images")
	}
	if len(images) > MaxTourImages {
		return nil, apperrors.BadRequest(fmt.Sprintf("Max %d images", MaxTourImages))
	}

	tour, err := s.tours.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, msgNoTour)
	}

	var uploaded []string
	rollback := func() {
		if len(uploaded) == 0 {
			return
		}
		if err := s.store.Delete(context.WithoutCancel(ctx), uploaded...); err != nil {
			logger.FromContext(ctx).Warn("could not remove uploaded images", "error", err)
		}
	}

	set := bson.M{}
	var replaced []string

	if cover != nil {
		link, name, err := s.upload(ctx, tour.Slug, "cover", cover)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, name)
		set["imageCover"] = link
		replaced = append(replaced, tour.ImageCover)
	}

	if len(images) > 0 {
		urls := make([]string, 0, len(images))
		for i, fh := range images {
			link, name, err := s.upload(ctx, tour.Slug, fmt.Sprintf("%d", i+1), fh)
			if err != nil {
				rollback()
				return nil, err
			}
			uploaded = append(uploaded, name)
			urls = append(urls, link)
		}
		set["images"] = urls
		replaced = append(replaced, tour.Images...)
	}

	updated, err := s.tours.Update(ctx, id, set)
	if err != nil {
		rollback()
		return nil, notFound(err, msgNoTour)
	}

	s.removeObjects(ctx, replaced)
	return updated, nil
}

func (s *TourService) upload(ctx context.Context, slug, label string, fh *multipart.FileHeader) (string, string, error) {
	contentType, err := s.validator.ValidateFile(fh)
	if err != nil {
		return "", "", apperrors.BadRequest(fmt.Sprintf("%s: %v", fh.Filename, err))
	}

	f, err := fh.Open()
	if err != nil {
		return "", "", apperrors.Unexpected(err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := fmt.Sprintf("tours/%s/%s-%d-%s%s", slug, label, s.now().UTC().Unix(), uuid.New().String(), ext)

	link, err := s.store.Upload(ctx, name, contentType, f)
	if err != nil {
		return "", "", apperrors.Internal("Image upload failed. Try again later!", err)
	}
	return link, name, nil
}

// removeObjects deletes replaced images that live in our store. Seed file
// names such as tour-1-cover.jpg are not store URLs and are skipped.
func (s *TourService) removeObjects(ctx context.Context, urls []string) {
	names := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if name, err := s.store.ObjectName(u); err == nil {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return
	}
	if err := s.store.Delete(ctx, names...); err != nil {
		logger.FromContext(ctx).Warn("could not remove replaced images", "error", err)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
