package interfaces

import (
	"context"

	"github.com/atiaa9916/stp-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WalletRepository interface {
	// Create inserts a new wallet for userID; the unique index on the user
	// reference rejects a second wallet for the same user.
	Create(ctx context.Context, wallet *models.Wallet) error

	// GetByUser returns the user's wallet, or (nil, nil) when none exists.
	// When historical duplicates survive, the highest balance then most
	// recently updated record wins.
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error)

	// SetBalance overwrites the stored balance. Callers are the settlement
	// engine and the ledger reconciliation path only.
	SetBalance(ctx context.Context, id primitive.ObjectID, balance int64) error
}
