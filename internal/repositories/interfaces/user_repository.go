package interfaces

import (
	"context"

	"github.com/atiaa9916/stp-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)

	// GetByPhone returns the user with the given phone, or (nil, nil) when
	// none exists.
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}
