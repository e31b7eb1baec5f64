package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type tripRepository struct {
	collection *mongo.Collection
}

func NewTripRepository(db *mongo.Database) interfaces.TripRepository {
	return &tripRepository{
		collection: db.Collection("trips"),
	}
}

func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) error {
	trip.ID = primitive.NewObjectID()
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = trip.CreatedAt

	_, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return fmt.Errorf("failed to create trip: %w", err)
	}

	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	var trip models.Trip
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return &trip, nil
}

func (r *tripRepository) GetByRequestID(ctx context.Context, requestID string) (*models.Trip, error) {
	var trip models.Trip
	err := r.collection.FindOne(ctx, bson.M{"unique_request_id": requestID}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trip by request id: %w", err)
	}

	return &trip, nil
}

func (r *tripRepository) UpdateGuarded(ctx context.Context, trip *models.Trip, expectedStatus models.TripStatus) error {
	trip.UpdatedAt = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": trip.ID, "status": expectedStatus},
		bson.M{"$set": bson.M{
			"driver":            trip.DriverID,
			"status":            trip.Status,
			"paid":              trip.Paid,
			"commission_amount": trip.CommissionAmount,
			"sweep_attempts":    trip.SweepAttempts,
			"updated_at":        trip.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrTripConflict
	}

	return nil
}

func (r *tripRepository) List(ctx context.Context, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error) {
	query := bson.M{}
	if filter != nil {
		if filter.ID != nil {
			query["_id"] = *filter.ID
		}
		if filter.PassengerID != nil {
			query["passenger"] = *filter.PassengerID
		}
		if filter.DriverID != nil {
			query["driver"] = *filter.DriverID
		}
		if filter.Status != "" {
			query["status"] = filter.Status
		}
		if filter.PaymentMethod != "" {
			query["payment_method"] = filter.PaymentMethod
		}
		if filter.Paid != nil {
			query["paid"] = *filter.Paid
		}
		if filter.IsScheduled != nil {
			query["is_scheduled"] = *filter.IsScheduled
		}
		if filter.FromDate != nil || filter.ToDate != nil {
			dateRange := bson.M{}
			if filter.FromDate != nil {
				dateRange["$gte"] = *filter.FromDate
			}
			if filter.ToDate != nil {
				dateRange["$lte"] = *filter.ToDate
			}
			query["created_at"] = dateRange
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []*models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, 0, fmt.Errorf("failed to decode trips: %w", err)
	}

	return trips, total, nil
}

func (r *tripRepository) ListDueScheduled(ctx context.Context, now time.Time, maxAttempts int) ([]*models.Trip, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"is_scheduled":        true,
		"status":              models.TripStatusScheduled,
		"scheduled_date_time": bson.M{"$lte": now},
		"sweep_attempts":      bson.M{"$lt": maxAttempts},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list due scheduled trips: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []*models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("failed to decode due scheduled trips: %w", err)
	}

	return trips, nil
}

func (r *tripRepository) IncrementSweepAttempts(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"sweep_attempts": 1}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment sweep attempts: %w", err)
	}

	return nil
}

type tripAcceptanceLogRepository struct {
	collection *mongo.Collection
}

func NewTripAcceptanceLogRepository(db *mongo.Database) interfaces.TripAcceptanceLogRepository {
	return &tripAcceptanceLogRepository{
		collection: db.Collection("trip_acceptance_logs"),
	}
}

func (r *tripAcceptanceLogRepository) Create(ctx context.Context, entry *models.TripAcceptanceLog) error {
	entry.ID = primitive.NewObjectID()
	if entry.AcceptedAt.IsZero() {
		entry.AcceptedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to create trip acceptance log: %w", err)
	}

	return nil
}
