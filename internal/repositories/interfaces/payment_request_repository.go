package interfaces

import (
	"context"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentRequestRepository interface {
	Create(ctx context.Context, request *models.PaymentRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentRequest, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.PaymentRequest, int64, error)

	// ResolvePending conditionally moves a pending request to approved or
	// rejected; reports false when the request was already resolved.
	ResolvePending(ctx context.Context, id primitive.ObjectID, status models.PaymentRequestStatus, adminNotes string) (bool, error)
}
