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

// activeOnly matches users that were never deactivated.
var activeOnly = bson.E{Key: "active", Value: bson.M{"$ne": false}}

type MongoUserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection("users")}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, user)
	return err
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}, activeOnly})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}, activeOnly})
}

func (r *MongoUserRepository) FindByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error) {
	return r.findOne(ctx, bson.D{
		{Key: "passwordResetToken", Value: hashedToken},
		{Key: "passwordResetExpires", Value: bson.M{"$gt": now}},
		activeOnly,
	})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SetPasswordReset stores a fresh reset token hash, replacing any earlier one.
func (r *MongoUserRepository) SetPasswordReset(ctx context.Context, id bson.ObjectID, hashedToken string, expires time.Time) error {
	return r.updateActive(ctx, bson.D{{Key: "_id", Value: id}, activeOnly}, bson.M{
		"$set": bson.M{"passwordResetToken": hashedToken, "passwordResetExpires": expires},
	})
}

// ClearPasswordReset drops the reset token only while it is still the given
// one, so a newer request is left alone.
func (r *MongoUserRepository) ClearPasswordReset(ctx context.Context, id bson.ObjectID, hashedToken string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "passwordResetToken", Value: hashedToken}},
		bson.M{"$unset": bson.M{"passwordResetToken": "", "passwordResetExpires": ""}},
	)
	return err
}

// SetPassword stores a new hash and change time and drops any reset token.
func (r *MongoUserRepository) SetPassword(ctx context.Context, id bson.ObjectID, hash string, changedAt time.Time) error {
	return r.updateActive(ctx, bson.D{{Key: "_id", Value: id}, activeOnly}, bson.M{
		"$set":   bson.M{"password": hash, "passwordChangedAt": changedAt},
		"$unset": bson.M{"passwordResetToken": "", "passwordResetExpires": ""},
	})
}

func (r *MongoUserRepository) updateActive(ctx context.Context, filter bson.D, update bson.M) error {
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) UpdateByID(ctx context.Context, id bson.ObjectID, set bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.col.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}, activeOnly}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) List(ctx context.Context, spec apifeatures.Spec) ([]models.User, error) {
	spec = spec.Hide(SensitiveUserFields...)

	cursor, err := r.col.Find(ctx, withActive(spec.Filter), spec.FindOptions())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	for cursor.Next(ctx) {
		var u models.User
		if err := cursor.Decode(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *MongoUserRepository) Count(ctx context.Context, filter bson.D) (int64, error) {
	spec := apifeatures.Spec{Filter: filter}.Hide(SensitiveUserFields...)
	return r.col.CountDocuments(ctx, withActive(spec.Filter))
}

func withActive(filter bson.D) bson.D {
	out := make(bson.D, 0, len(filter)+1)
	out = append(out, filter...)
	return append(out, activeOnly)
}
