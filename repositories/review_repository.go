package repositories

import (
	"context"
	"errors"

	"github.com/princinho/toursbackend/apifeatures"
	"github.com/princinho/toursbackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{col: db.Collection("reviews")}
}

func (r *MongoReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID.IsZero() {
		review.ID = bson.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, review)
	return err
}

func (r *MongoReviewRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Review, error) {
	var review models.Review
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *MongoReviewRepository) List(ctx context.Context, spec apifeatures.Spec) ([]models.Review, error) {
	filter := spec.Filter
	if filter == nil {
		filter = bson.D{}
	}
	cursor, err := r.col.Find(ctx, filter, spec.FindOptions())
	if err != nil {
		return nil, err
	}
	reviews := make([]models.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *MongoReviewRepository) Count(ctx context.Context, filter bson.D) (int64, error) {
	if filter == nil {
		filter = bson.D{}
	}
	return r.col.CountDocuments(ctx, filter)
}

func (r *MongoReviewRepository) Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Review, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var review models.Review
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

// Delete returns the removed review so callers can refresh its tour.
func (r *MongoReviewRepository) Delete(ctx context.Context, id bson.ObjectID) (*models.Review, error) {
	var review models.Review
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *MongoReviewRepository) DeleteByTour(ctx context.Context, tourID bson.ObjectID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"tour": tourID})
	return err
}

func (r *MongoReviewRepository) RatingStats(ctx context.Context, tourID bson.ObjectID) (models.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "tour", Value: tourID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tour"},
			{Key: "nRating", Value: bson.M{"$sum": 1}},
			{Key: "avgRating", Value: bson.M{"$avg": "$rating"}},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingSummary{}, err
	}
	var rows []struct {
		NRating   int     `bson:"nRating"`
		AvgRating float64 `bson:"avgRating"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return models.RatingSummary{}, err
	}
	if len(rows) == 0 {
		return models.NewRatingSummary(0, 0), nil
	}
	return models.NewRatingSummary(rows[0].NRating, rows[0].AvgRating), nil
}
