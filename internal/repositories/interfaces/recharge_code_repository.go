package interfaces

import (
	"context"
	"time"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RechargeCodeFilter struct {
	VendorID   *primitive.ObjectID
	IsUsed     *bool
	IsDisabled *bool
}

type RechargeCodeRepository interface {
	Create(ctx context.Context, code *models.RechargeCode) error
	CreateMany(ctx context.Context, codes []*models.RechargeCode) error

	GetByID(ctx context.Context, id primitive.ObjectID) (*models.RechargeCode, error)

	// GetByCode returns the code record, or (nil, nil) when unknown.
	GetByCode(ctx context.Context, code string) (*models.RechargeCode, error)

	List(ctx context.Context, filter *RechargeCodeFilter, params *utils.PaginationParams) ([]*models.RechargeCode, int64, error)
	ListByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]*models.RechargeCode, error)

	// MarkUsed conditionally flips an unused, enabled code to used. It
	// reports false without error when the condition no longer holds, which
	// is how a concurrent redemption loses.
	MarkUsed(ctx context.Context, id primitive.ObjectID, usedBy primitive.ObjectID, usedAt time.Time) (bool, error)

	// Disable conditionally disables an unused, enabled code; reports false
	// when the code was already used or disabled.
	Disable(ctx context.Context, id primitive.ObjectID) (bool, error)

	// Revert clears the used state and disables the code, for the admin
	// reversal path.
	Revert(ctx context.Context, id primitive.ObjectID) error

	// Delete removes a code outright; only callers that verified the code is
	// unused may do this.
	Delete(ctx context.Context, id primitive.ObjectID) error
}
