// Package repositories holds the MongoDB access for users, tours and reviews.
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/princinho/toursbackend/apifeatures"
	"github.com/princinho/toursbackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var ErrNotFound = errors.New("document not found")

var (
	_ UserRepository   = (*MongoUserRepository)(nil)
	_ TourRepository   = (*MongoTourRepository)(nil)
	_ ReviewRepository = (*MongoReviewRepository)(nil)
)

// SensitiveUserFields never leave the users collection through a listing.
var SensitiveUserFields = []string{"password", "passwordResetToken", "passwordResetExpires", "active"}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error)
	SetPasswordReset(ctx context.Context, id bson.ObjectID, hashedToken string, expires time.Time) error
	ClearPasswordReset(ctx context.Context, id bson.ObjectID, hashedToken string) error
	SetPassword(ctx context.Context, id bson.ObjectID, hash string, changedAt time.Time) error
	UpdateByID(ctx context.Context, id bson.ObjectID, set bson.M) (*models.User, error)
	List(ctx context.Context, spec apifeatures.Spec) ([]models.User, error)
	Count(ctx context.Context, filter bson.D) (int64, error)
}

type TourRepository interface {
	Create(ctx context.Context, tour *models.Tour) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Tour, error)
	List(ctx context.Context, spec apifeatures.Spec) ([]models.Tour, error)
	Count(ctx context.Context, filter bson.D) (int64, error)
	Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Tour, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	Stats(ctx context.Context) ([]models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error)
	UpdateRatings(ctx context.Context, id bson.ObjectID, summary models.RatingSummary) error
}

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Review, error)
	List(ctx context.Context, spec apifeatures.Spec) ([]models.Review, error)
	Count(ctx context.Context, filter bson.D) (int64, error)
	Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Review, error)
	Delete(ctx context.Context, id bson.ObjectID) (*models.Review, error)
	DeleteByTour(ctx context.Context, tourID bson.ObjectID) error
	RatingStats(ctx context.Context, tourID bson.ObjectID) (models.RatingSummary, error)
}
