package interfaces

import (
	"context"
	"time"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LedgerSums is the credit/debit aggregate for one user.
type LedgerSums struct {
	Credit int64
	Debit  int64
}

func (s LedgerSums) Net() int64 {
	return s.Credit - s.Debit
}

type TransactionFilter struct {
	UserID   *primitive.ObjectID
	TripID   *primitive.ObjectID
	Type     models.TransactionType
	FromDate *time.Time
	ToDate   *time.Time
}

type TransactionRepository interface {
	// Create appends a ledger entry. Entries are immutable; there is no
	// update or delete.
	Create(ctx context.Context, transaction *models.Transaction) error

	GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error)
	List(ctx context.Context, filter *TransactionFilter, params *utils.PaginationParams) ([]*models.Transaction, int64, error)

	// SumByUser aggregates the user's ledger; the net must equal the wallet
	// balance (reconciliation invariant).
	SumByUser(ctx context.Context, userID primitive.ObjectID) (*LedgerSums, error)

	// CountByTrip counts entries of one type referencing a trip for one user,
	// used to verify the at-most-one-settlement property.
	CountByTrip(ctx context.Context, tripID primitive.ObjectID, txType models.TransactionType) (int64, error)
}
