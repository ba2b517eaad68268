package services

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/princinho/toursbackend/dto"
	"github.com/princinho/toursbackend/mocks"
	"github.com/princinho/toursbackend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type reviewFixture struct {
	svc     *ReviewService
	tours   *mocks.TourRepository
	reviews *mocks.ReviewRepository
	tour    *models.Tour
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	tour := forestHiker()
	tours := mocks.NewTourRepository(tour)
	reviews := mocks.NewReviewRepository()
	return &reviewFixture{
		svc:     NewReviewService(reviews, tours, testQuery()),
		tours:   tours,
		reviews: reviews,
		tour:    tour,
	}
}

func (f *reviewFixture) ratings(t *testing.T) (int, float64) {
	t.Helper()
	tour, err := f.tours.FindByID(context.Background(), f.tour.ID)
	require.NoError(t, err)
	return tour.RatingsQuantity, tour.RatingsAverage
}

func TestReviewService_RatingsFollowReviews(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	alice := newUser(t, "alice@example.com", models.RoleUser)
	bob := newUser(t, "bob@example.com", models.RoleUser)

	first, err := f.svc.Create(ctx, alice, &f.tour.ID, dto.CreateReviewDTO{Review: "Loved it", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, first.User)
	assert.Equal(t, f.tour.ID, first.Tour)

	qty, avg := f.ratings(t)
	assert.Equal(t, 1, qty)
	assert.Equal(t, 5.0, avg)

	_, err = f.svc.Create(ctx, bob, nil, dto.CreateReviewDTO{Review: "Fine", Rating: 4, Tour: f.tour.ID.Hex()})
	require.NoError(t, err)
	qty, avg = f.ratings(t)
	assert.Equal(t, 2, qty)
	assert.Equal(t, 4.5, avg)

	_, err = f.svc.Update(ctx, alice, first.ID, dto.UpdateReviewDTO{Rating: ptr(3.0)})
	require.NoError(t, err)
	_, avg = f.ratings(t)
	assert.Equal(t, 3.5, avg)

	require.NoError(t, f.svc.Delete(ctx, alice, first.ID))
	qty, avg = f.ratings(t)
	assert.Equal(t, 1, qty)
	assert.Equal(t, 4.0, avg)

	reviews, total, err := f.svc.List(ctx, &f.tour.ID, url.Values{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, reviews, 1)
	assert.Equal(t, bob.ID, reviews[0].User)
}

func TestReviewService_LastReviewResetsDefaults(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	alice := newUser(t, "alice@example.com", models.RoleUser)

	r, err := f.svc.Create(ctx, alice, &f.tour.ID, dto.CreateReviewDTO{Review: "Meh", Rating: 2})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, alice, r.ID))

	qty, avg := f.ratings(t)
	assert.Equal(t, 0, qty)
	assert.Equal(t, models.DefaultRatingsAverage, avg)
}

func TestReviewService_Create_Rejects(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	alice := newUser(t, "alice@example.com", models.RoleUser)

	_, err := f.svc.Create(ctx, alice, nil, dto.CreateReviewDTO{Review: "No tour", Rating: 4})
	requireAppError(t, err, http.StatusBadRequest, "Invalid input data. Review must belong to a tour")

	missing := bson.NewObjectID()
	_, err = f.svc.Create(ctx, alice, &missing, dto.CreateReviewDTO{Review: "Ghost", Rating: 4})
	requireAppError(t, err, http.StatusNotFound, "No tour found with that ID")

	_, err = f.svc.Create(ctx, alice, &f.tour.ID, dto.CreateReviewDTO{Review: "Once", Rating: 4})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, alice, &f.tour.ID, dto.CreateReviewDTO{Review: "Twice", Rating: 4})
	requireAppError(t, err, http.StatusConflict, "Duplicate field value: "+f.tour.ID.Hex()+". Please use another value.")
}

func TestReviewService_Ownership(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	alice := newUser(t, "alice@example.com", models.RoleUser)
	mallory := newUser(t, "mallory@example.com", models.RoleUser)
	admin := newUser(t, "admin@example.com", models.RoleAdmin)

	r, err := f.svc.Create(ctx, alice, &f.tour.ID, dto.CreateReviewDTO{Review: "Mine", Rating: 5})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, mallory, r.ID, dto.UpdateReviewDTO{Review: ptr("Hacked")})
	requireAppError(t, err, http.StatusForbidden, "You can only change your own reviews")

	err = f.svc.Delete(ctx, mallory, r.ID)
	requireAppError(t, err, http.StatusForbidden, "You can only change your own reviews")

	got, err := f.svc.Update(ctx, admin, r.ID, dto.UpdateReviewDTO{Review: ptr("Moderated")})
	require.NoError(t, err)
	assert.Equal(t, "Moderated", got.Review)

	require.NoError(t, f.svc.Delete(ctx, admin, r.ID))
	_, err = f.svc.Get(ctx, r.ID)
	requireAppError(t, err, http.StatusNotFound, "No review found with that ID")
}
