package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/princinho/toursbackend/apifeatures"
	"github.com/princinho/toursbackend/apperrors"
	"github.com/princinho/toursbackend/dto"
	"github.com/princinho/toursbackend/logger"
	"github.com/princinho/toursbackend/models"
	"github.com/princinho/toursbackend/repositories"
	"github.com/princinho/toursbackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const msgNoReview = "No review found with that ID"

// ReviewService keeps each tour's rating summary in step with its reviews.
type ReviewService struct {
	reviews repositories.ReviewRepository
	tours   repositories.TourRepository
	query   *apifeatures.Builder
	now     func() time.Time
}

func NewReviewService(reviews repositories.ReviewRepository, tours repositories.TourRepository, query *apifeatures.Builder) *ReviewService {
	return &ReviewService{reviews: reviews, tours: tours, query: query, now: time.Now}
}

// List returns all reviews, or those of one tour when tourID is set.
func (s *ReviewService) List(ctx context.Context, tourID *bson.ObjectID, params url.Values) ([]models.Review, int64, error) {
	spec := s.query.Build(params)
	if tourID != nil {
		spec = spec.Where("tour", *tourID)
	}
	reviews, err := s.reviews.List(ctx, spec)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.reviews.Count(ctx, spec.Filter)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *ReviewService) Get(ctx context.Context, id bson.ObjectID) (*models.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, msgNoReview)
	}
	return review, nil
}

// Create stores a review by author. The tour comes from the nested route
// when tourID is set, otherwise from the body.
func (s *ReviewService) Create(ctx context.Context, author *models.User, tourID *bson.ObjectID, in dto.CreateReviewDTO) (*models.Review, error) {
	if tourID == nil {
		if in.Tour == "" {
			return nil, apperrors.Validation("Invalid input data. Review must belong to a tour")
		}
		id, err := utils.ParseObjectID("tour", in.Tour)
		if err != nil {
			return nil, err
		}
		tourID = &id
	}

	if _, err := s.tours.FindByID(ctx, *tourID); err != nil {
		return nil, notFound(err, msgNoTour)
	}

	review := &models.Review{
		ID:        bson.NewObjectID(),
		Review:    strings.TrimSpace(in.Review),
		Rating:    in.Rating,
		CreatedAt: s.now().UTC(),
		Tour:      *tourID,
		User:      author.ID,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	s.refreshRatings(ctx, review.Tour)
	return review, nil
}

// Update lets authors edit their own reviews. Admins may edit any review.
func (s *ReviewService) Update(ctx context.Context, actor *models.User, id bson.ObjectID, in dto.UpdateReviewDTO) (*models.Review, error) {
	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}

	set := bson.M{}
	if in.Review != nil {
		set["review"] = strings.TrimSpace(*in.Review)
	}
	if in.Rating != nil {
		set["rating"] = *in.Rating
	}
	if len(set) == 0 {
		return nil, apperrors.BadRequest("No updates provided")
	}

	review, err := s.reviews.Update(ctx, id, set)
	if err != nil {
		return nil, notFound(err, msgNoReview)
	}

	if in.Rating != nil {
		s.refreshRatings(ctx, review.Tour)
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor *models.User, id bson.ObjectID) error {
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}

	review, err := s.reviews.Delete(ctx, id)
	if err != nil {
		return notFound(err, msgNoReview)
	}

	s.refreshRatings(ctx, review.Tour)
	return nil
}

func (s *ReviewService) authorize(ctx context.Context, actor *models.User, id bson.ObjectID) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return notFound(err, msgNoReview)
	}
	if review.User != actor.ID {
		return apperrors.Forbidden("You can only change your own reviews")
	}
	return nil
}

// refreshRatings recomputes the tour summary. A failure leaves the review
// write in place and is only logged.
func (s *ReviewService) refreshRatings(ctx context.Context, tourID bson.ObjectID) {
	summary, err := s.reviews.RatingStats(ctx, tourID)
	if err == nil {
		err = s.tours.UpdateRatings(ctx, tourID, summary)
	}
	if err != nil {
		logger.FromContext(ctx).Error("could not refresh tour ratings", "tour_id", tourID.Hex(), "error", err)
	}
}
