package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wallet holds a single balance per user. Balance is in whole currency units
// and is never persisted negative; all mutation goes through the settlement
// engine. The user reference carries a unique index.
type Wallet struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user" validate:"required"`
	Balance   int64              `json:"balance" bson:"balance"`
	Currency  string             `json:"currency" bson:"currency"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
