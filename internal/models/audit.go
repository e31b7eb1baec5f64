package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditRechargeRevert AuditAction = "RECHARGE_REVERT"
	AuditRechargeDelete AuditAction = "RECHARGE_DELETE"
)

// AuditLog records an administrative action with its actor and free-form
// metadata. Append-only.
type AuditLog struct {
	ID        primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	ActorID   primitive.ObjectID     `json:"actor_id" bson:"actor" validate:"required"`
	Action    AuditAction            `json:"action" bson:"action" validate:"required"`
	Meta      map[string]interface{} `json:"meta" bson:"meta"`
	CreatedAt time.Time              `json:"created_at" bson:"created_at"`
}

// TripAcceptanceLog records a driver accepting a trip.
type TripAcceptanceLog struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DriverID   primitive.ObjectID `json:"driver_id" bson:"driver" validate:"required"`
	TripID     primitive.ObjectID `json:"trip_id" bson:"trip" validate:"required"`
	AcceptedAt time.Time          `json:"accepted_at" bson:"accepted_at"`
}
