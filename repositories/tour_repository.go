package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/princinho/toursbackend/apifeatures"
	"github.com/princinho/toursbackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// publicOnly hides secret tours from listings and aggregations.
var publicOnly = bson.M{"$ne": true}

type MongoTourRepository struct {
	col *mongo.Collection
}

func NewTourRepository(db *mongo.Database) *MongoTourRepository {
	return &MongoTourRepository{col: db.Collection("tours")}
}

func (r *MongoTourRepository) Create(ctx context.Context, tour *models.Tour) error {
	if tour.ID.IsZero() {
		tour.ID = bson.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, tour)
	return err
}

func (r *MongoTourRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Tour, error) {
	var tour models.Tour
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&tour); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tour, nil
}

func (r *MongoTourRepository) List(ctx context.Context, spec apifeatures.Spec) ([]models.Tour, error) {
	spec = spec.Where("secretTour", publicOnly)

	cursor, err := r.col.Find(ctx, spec.Filter, spec.FindOptions())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tours := make([]models.Tour, 0)
	for cursor.Next(ctx) {
		var t models.Tour
		if err := cursor.Decode(&t); err != nil {
			return nil, err
		}
		tours = append(tours, t)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return tours, nil
}

func (r *MongoTourRepository) Count(ctx context.Context, filter bson.D) (int64, error) {
	spec := apifeatures.Spec{Filter: filter}.Where("secretTour", publicOnly)
	return r.col.CountDocuments(ctx, spec.Filter)
}

func (r *MongoTourRepository) Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Tour, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var tour models.Tour
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&tour); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tour, nil
}

func (r *MongoTourRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats groups well rated public tours by difficulty.
func (r *MongoTourRepository) Stats(ctx context.Context) ([]models.TourStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "ratingsAverage", Value: bson.M{"$gte": 4.5}},
			{Key: "secretTour", Value: publicOnly},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"$toUpper": "$difficulty"}},
			{Key: "numTours", Value: bson.M{"$sum": 1}},
			{Key: "numRatings", Value: bson.M{"$sum": "$ratingsQuantity"}},
			{Key: "avgRating", Value: bson.M{"$avg": "$ratingsAverage"}},
			{Key: "avgPrice", Value: bson.M{"$avg": "$price"}},
			{Key: "minPrice", Value: bson.M{"$min": "$price"}},
			{Key: "maxPrice", Value: bson.M{"$max": "$price"}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgPrice", Value: 1}}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	stats := make([]models.TourStats, 0)
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// MonthlyPlan counts tour starts per month of year, busiest month first.
func (r *MongoTourRepository) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "secretTour", Value: publicOnly}}}},
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.D{
			{Key: "startDates", Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lt", Value: to}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"$month": "$startDates"}},
			{Key: "numTourStarts", Value: bson.M{"$sum": 1}},
			{Key: "tours", Value: bson.M{"$push": "$name"}},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "month", Value: "$_id"}}}},
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
		{{Key: "$sort", Value: bson.D{{Key: "numTourStarts", Value: -1}, {Key: "month", Value: 1}}}},
		{{Key: "$limit", Value: 12}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	plan := make([]models.MonthlyPlan, 0)
	if err := cursor.All(ctx, &plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *MongoTourRepository) UpdateRatings(ctx context.Context, id bson.ObjectID, summary models.RatingSummary) error {
	_, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"ratingsQuantity": summary.Quantity,
		"ratingsAverage":  summary.Average,
	}})
	return err
}
