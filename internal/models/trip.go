package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripStatus string
type PaymentMethod string

const (
	TripStatusScheduled  TripStatus = "scheduled"
	TripStatusReady      TripStatus = "ready"
	TripStatusPending    TripStatus = "pending"
	TripStatusAccepted   TripStatus = "accepted"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"

	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodWallet PaymentMethod = "wallet"
	PaymentMethodBank   PaymentMethod = "bank"
)

// GeoPoint is a GeoJSON point with an optional display address.
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"` // [lng, lat]
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
}

type Trip struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	PassengerID       primitive.ObjectID  `json:"passenger_id" bson:"passenger" validate:"required"`
	DriverID          *primitive.ObjectID `json:"driver_id,omitempty" bson:"driver,omitempty"`
	PickupLocation    GeoPoint            `json:"pickup_location" bson:"pickup_location" validate:"required"`
	DropoffLocation   GeoPoint            `json:"dropoff_location" bson:"dropoff_location" validate:"required"`
	Fare              int64               `json:"fare" bson:"fare" validate:"required,gt=0"`
	CommissionAmount  int64               `json:"commission_amount" bson:"commission_amount"`
	Status            TripStatus          `json:"status" bson:"status"`
	UniqueRequestID   string              `json:"unique_request_id,omitempty" bson:"unique_request_id,omitempty"`
	Paid              bool                `json:"paid" bson:"paid"`
	PaymentMethod     PaymentMethod       `json:"payment_method" bson:"payment_method"`
	IsScheduled       bool                `json:"is_scheduled" bson:"is_scheduled"`
	ScheduledDateTime *time.Time          `json:"scheduled_date_time,omitempty" bson:"scheduled_date_time,omitempty"`
	SweepAttempts     int                 `json:"-" bson:"sweep_attempts"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

// IsTerminal reports whether the status permits no further transitions
// (admin override excepted).
func (s TripStatus) IsTerminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

func ValidTripStatus(s TripStatus) bool {
	switch s {
	case TripStatusScheduled, TripStatusReady, TripStatusPending, TripStatusAccepted,
		TripStatusInProgress, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodWallet, PaymentMethodBank:
		return true
	}
	return false
}
