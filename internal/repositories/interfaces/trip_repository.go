package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrTripConflict reports a guarded update that matched no document: the trip
// moved to another status between the caller's read and write.
var ErrTripConflict = errors.New("trip was modified concurrently")

type TripFilter struct {
	ID            *primitive.ObjectID
	PassengerID   *primitive.ObjectID
	DriverID      *primitive.ObjectID
	Status        models.TripStatus
	PaymentMethod models.PaymentMethod
	Paid          *bool
	IsScheduled   *bool
	FromDate      *time.Time
	ToDate        *time.Time
}

type TripRepository interface {
	// Create inserts the trip. A duplicate unique_request_id insert fails
	// with a duplicate-key error the service resolves to the stored trip.
	Create(ctx context.Context, trip *models.Trip) error

	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error)

	// GetByRequestID returns the trip carrying the idempotency key, or
	// (nil, nil) when none exists.
	GetByRequestID(ctx context.Context, requestID string) (*models.Trip, error)

	// UpdateGuarded persists the trip's mutable fields, matching on the
	// status the caller read. A concurrent transition that moved the trip
	// away makes the write a no-op and UpdateGuarded reports a conflict.
	UpdateGuarded(ctx context.Context, trip *models.Trip, expectedStatus models.TripStatus) error

	List(ctx context.Context, filter *TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error)

	// ListDueScheduled returns scheduled trips whose time has arrived and
	// whose sweep attempt count is below maxAttempts.
	ListDueScheduled(ctx context.Context, now time.Time, maxAttempts int) ([]*models.Trip, error)

	// IncrementSweepAttempts bumps the sweeper bookkeeping counter outside
	// the per-trip unit of work.
	IncrementSweepAttempts(ctx context.Context, id primitive.ObjectID) error
}

type TripAcceptanceLogRepository interface {
	Create(ctx context.Context, entry *models.TripAcceptanceLog) error
}
