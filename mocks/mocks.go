// Package mocks provides in-memory stand-ins for the repositories, the
// mailer and the object store. Every method can be overridden through its
// XxxFunc field.
package mocks

import (
	"fmt"

	"github.com/princinho/toursbackend/mailer"
	"github.com/princinho/toursbackend/repositories"
	"github.com/princinho/toursbackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	_ repositories.UserRepository   = (*UserRepository)(nil)
	_ repositories.TourRepository   = (*TourRepository)(nil)
	_ repositories.ReviewRepository = (*ReviewRepository)(nil)
	_ mailer.Mailer                 = (*Mailer)(nil)
	_ utils.ObjectStore             = (*ObjectStore)(nil)
)

// duplicateKey mimics the driver error for a unique index violation.
func duplicateKey(collection, index, field string, value any) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code: 11000,
		Message: fmt.Sprintf(`E11000 duplicate key error collection: natours.%s index: %s dup key: { %s: "%v" }`,
			collection, index, field, value),
	}}}
}

// applySet runs a $set against doc by round tripping through BSON.
func applySet[T any](doc *T, set bson.M) (*T, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	m := bson.M{}
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for k, v := range set {
		m[k] = v
	}
	raw, err = bson.Marshal(m)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// filterValue returns the predicate on field in a query filter.
func filterValue(filter bson.D, field string) (any, bool) {
	for _, e := range filter {
		if e.Key == field {
			return e.Value, true
		}
	}
	return nil, false
}

func page[T any](items []T, skip int64, limit int) []T {
	if skip >= int64(len(items)) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
