package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Review struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Review    string        `bson:"review" json:"review"`
	Rating    float64       `bson:"rating" json:"rating"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	Tour      bson.ObjectID `bson:"tour" json:"tour"`
	User      bson.ObjectID `bson:"user" json:"user"`
}
