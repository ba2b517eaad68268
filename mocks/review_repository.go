package mocks

import (
	"context"
	"sync"

	"github.com/princinho/toursbackend/apifeatures"
	"github.com/princinho/toursbackend/models"
	"github.com/princinho/toursbackend/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type ReviewRepository struct {
	CreateFunc      func(ctx context.Context, review *models.Review) error
	RatingStatsFunc func(ctx context.Context, tourID bson.ObjectID) (models.RatingSummary, error)

	mu      sync.Mutex
	order   []bson.ObjectID
	reviews map[bson.ObjectID]models.Review
}

func NewReviewRepository(seed ...*models.Review) *ReviewRepository {
	r := &ReviewRepository{reviews: make(map[bson.ObjectID]models.Review)}
	for _, rv := range seed {
		_ = r.Create(context.Background(), rv)
	}
	return r
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, review)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.Tour == review.Tour && rv.User == review.User {
			return duplicateKey("reviews", "tour_1_user_1", "tour", review.Tour.Hex())
		}
	}
	if review.ID.IsZero() {
		review.ID = bson.NewObjectID()
	}
	r.reviews[review.ID] = *review
	r.order = append(r.order, review.ID)
	return nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &rv, nil
}

// List honours a tour predicate and the page window.
func (r *ReviewRepository) List(ctx context.Context, spec apifeatures.Spec) ([]models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return page(r.matching(spec.Filter), spec.Skip, spec.Limit), nil
}

func (r *ReviewRepository) Count(ctx context.Context, filter bson.D) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *ReviewRepository) matching(filter bson.D) []models.Review {
	tour, byTour := filterValue(filter, "tour")
	out := make([]models.Review, 0, len(r.reviews))
	for _, id := range r.order {
		rv, ok := r.reviews[id]
		if !ok {
			continue
		}
		if byTour && tour != rv.Tour {
			continue
		}
		out = append(out, rv)
	}
	return out
}

func (r *ReviewRepository) Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.reviews[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	updated, err := applySet(&current, set)
	if err != nil {
		return nil, err
	}
	r.reviews[id] = *updated
	return updated, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id bson.ObjectID) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	delete(r.reviews, id)
	return &rv, nil
}

func (r *ReviewRepository) DeleteByTour(ctx context.Context, tourID bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rv := range r.reviews {
		if rv.Tour == tourID {
			delete(r.reviews, id)
		}
	}
	return nil
}

func (r *ReviewRepository) RatingStats(ctx context.Context, tourID bson.ObjectID) (models.RatingSummary, error) {
	if r.RatingStatsFunc != nil {
		return r.RatingStatsFunc(ctx, tourID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	var sum float64
	for _, rv := range r.reviews {
		if rv.Tour == tourID {
			n++
			sum += rv.Rating
		}
	}
	if n == 0 {
		return models.NewRatingSummary(0, 0), nil
	}
	return models.NewRatingSummary(n, sum/float64(n)), nil
}
