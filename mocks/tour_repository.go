package mocks

import (
	"context"
	"sync"

	"github.com/princinho/toursbackend/apifeatures"
	"github.com/princinho/toursbackend/models"
	"github.com/princinho/toursbackend/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type TourRepository struct {
	CreateFunc      func(ctx context.Context, tour *models.Tour) error
	ListFunc        func(ctx context.Context, spec apifeatures.Spec) ([]models.Tour, error)
	UpdateFunc      func(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Tour, error)
	StatsFunc       func(ctx context.Context) ([]models.TourStats, error)
	MonthlyPlanFunc func(ctx context.Context, year int) ([]models.MonthlyPlan, error)

	// LastSpec is the query the most recent List call received.
	LastSpec apifeatures.Spec

	mu    sync.Mutex
	order []bson.ObjectID
	tours map[bson.ObjectID]models.Tour
}

func NewTourRepository(seed ...*models.Tour) *TourRepository {
	r := &TourRepository{tours: make(map[bson.ObjectID]models.Tour)}
	for _, t := range seed {
		_ = r.Create(context.Background(), t)
	}
	return r
}

func (r *TourRepository) Create(ctx context.Context, tour *models.Tour) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tour)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tours {
		if t.Name == tour.Name {
			return duplicateKey("tours", "name_1", "name", tour.Name)
		}
	}
	if tour.ID.IsZero() {
		tour.ID = bson.NewObjectID()
	}
	r.tours[tour.ID] = *tour
	r.order = append(r.order, tour.ID)
	return nil
}

func (r *TourRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tours[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

// List hides secret tours and honours the page window only.
func (r *TourRepository) List(ctx context.Context, spec apifeatures.Spec) ([]models.Tour, error) {
	r.mu.Lock()
	r.LastSpec = spec
	r.mu.Unlock()
	if r.ListFunc != nil {
		return r.ListFunc(ctx, spec)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Tour, 0, len(r.tours))
	for _, id := range r.order {
		if t := r.tours[id]; !t.SecretTour {
			out = append(out, t)
		}
	}
	return page(out, spec.Skip, spec.Limit), nil
}

func (r *TourRepository) Count(ctx context.Context, filter bson.D) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tours {
		if !t.SecretTour {
			n++
		}
	}
	return n, nil
}

func (r *TourRepository) Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Tour, error) {
	if r.UpdateFunc != nil {
		return r.UpdateFunc(ctx, id, set)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.tours[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	updated, err := applySet(&current, set)
	if err != nil {
		return nil, err
	}
	r.tours[id] = *updated
	return updated, nil
}

func (r *TourRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tours[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.tours, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *TourRepository) Stats(ctx context.Context) ([]models.TourStats, error) {
	if r.StatsFunc != nil {
		return r.StatsFunc(ctx)
	}
	return []models.TourStats{}, nil
}

func (r *TourRepository) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	if r.MonthlyPlanFunc != nil {
		return r.MonthlyPlanFunc(ctx, year)
	}
	return []models.MonthlyPlan{}, nil
}

func (r *TourRepository) UpdateRatings(ctx context.Context, id bson.ObjectID, summary models.RatingSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tours[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.RatingsQuantity = summary.Quantity
	t.RatingsAverage = summary.Average
	r.tours[id] = t
	return nil
}
