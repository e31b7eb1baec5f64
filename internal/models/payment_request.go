package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentRequestMethod string
type PaymentRequestStatus string

const (
	PaymentRequestMethodVisa     PaymentRequestMethod = "visa"
	PaymentRequestMethodShamCash PaymentRequestMethod = "shamcash"
	PaymentRequestMethodCash     PaymentRequestMethod = "cash"

	PaymentRequestPending  PaymentRequestStatus = "pending"
	PaymentRequestApproved PaymentRequestStatus = "approved"
	PaymentRequestRejected PaymentRequestStatus = "rejected"
)

// PaymentRequest is a manually reviewed wallet top-up. The proof reference is
// an opaque string (receipt number or external file key); approval credits the
// wallet through the settlement engine.
type PaymentRequest struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	UserID        primitive.ObjectID   `json:"user_id" bson:"user" validate:"required"`
	Amount        int64                `json:"amount" bson:"amount" validate:"required,gte=1000"`
	Method        PaymentRequestMethod `json:"method" bson:"method"`
	Status        PaymentRequestStatus `json:"status" bson:"status"`
	TransactionID string               `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	ProofRef      string               `json:"proof_ref,omitempty" bson:"proof_ref,omitempty"`
	AdminNotes    string               `json:"admin_notes,omitempty" bson:"admin_notes,omitempty"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" bson:"updated_at"`
}

func ValidPaymentRequestMethod(m PaymentRequestMethod) bool {
	switch m {
	case PaymentRequestMethodVisa, PaymentRequestMethodShamCash, PaymentRequestMethodCash:
		return true
	}
	return false
}
