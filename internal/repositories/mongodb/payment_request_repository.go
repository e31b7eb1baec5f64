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

type paymentRequestRepository struct {
	collection *mongo.Collection
}

func NewPaymentRequestRepository(db *mongo.Database) interfaces.PaymentRequestRepository {
	return &paymentRequestRepository{
		collection: db.Collection("payment_requests"),
	}
}

func (r *paymentRequestRepository) Create(ctx context.Context, request *models.PaymentRequest) error {
	request.ID = primitive.NewObjectID()
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt

	_, err := r.collection.InsertOne(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to create payment request: %w", err)
	}

	return nil
}

func (r *paymentRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentRequest, error) {
	var request models.PaymentRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment request: %w", err)
	}

	return &request, nil
}

func (r *paymentRequestRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.PaymentRequest, int64, error) {
	query := bson.M{"user": userID}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payment requests: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payment requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*models.PaymentRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, 0, fmt.Errorf("failed to decode payment requests: %w", err)
	}

	return requests, total, nil
}

func (r *paymentRequestRepository) ResolvePending(ctx context.Context, id primitive.ObjectID, status models.PaymentRequestStatus, adminNotes string) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.PaymentRequestPending},
		bson.M{"$set": bson.M{
			"status":      status,
			"admin_notes": adminNotes,
			"updated_at":  time.Now(),
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to resolve payment request: %w", err)
	}

	return result.ModifiedCount == 1, nil
}
