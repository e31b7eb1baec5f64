package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionType string
type TransactionMethod string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"

	TransactionMethodWallet TransactionMethod = "wallet"
	TransactionMethodCash   TransactionMethod = "cash"
	TransactionMethodBank   TransactionMethod = "bank"
	TransactionMethodSystem TransactionMethod = "system"
)

// Transaction is a single immutable ledger entry. The signed sum of a user's
// entries (credits minus debits) must equal their wallet balance.
type Transaction struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID  `json:"user_id" bson:"user" validate:"required"`
	Type        TransactionType     `json:"type" bson:"type" validate:"required"`
	Amount      int64               `json:"amount" bson:"amount" validate:"required,gt=0"`
	Method      TransactionMethod   `json:"method" bson:"method"`
	Description string              `json:"description" bson:"description"`
	RelatedTrip *primitive.ObjectID `json:"related_trip,omitempty" bson:"related_trip,omitempty"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" bson:"updated_at"`
}

// Signed returns the entry's contribution to the ledger sum.
func (t *Transaction) Signed() int64 {
	if t.Type == TransactionTypeDebit {
		return -t.Amount
	}
	return t.Amount
}
