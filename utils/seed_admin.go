package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/princinho/toursbackend/logger"
	"github.com/princinho/toursbackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SeedAdminUser inserts the bootstrap admin unless a user with that email
// already exists. Empty credentials skip seeding.
func SeedAdminUser(ctx context.Context, usersCol *mongo.Collection, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		logger.Info("admin seeding skipped, ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	filter := bson.M{"email": email}
	update := bson.M{
		"$setOnInsert": bson.M{
			"name":      "Admin",
			"email":     email,
			"photo":     models.DefaultPhoto,
			"password":  hash,
			"role":      models.RoleAdmin,
			"active":    true,
			"createdAt": time.Now().UTC(),
		},
	}

	res, err := usersCol.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("seed admin upsert failed: %w", err)
	}

	if res.UpsertedCount == 1 {
		logger.Info("admin user seeded", "email", email)
	} else {
		logger.Info("admin user already exists", "email", email)
	}
	return nil
}
