package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RechargeCode is a single-use wallet credit token minted by a vendor.
// Terminal states are used and disabled; a disabled code can never become
// used, and a used code can only leave that state through the admin revert
// path, which disables it.
type RechargeCode struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Code       string              `json:"code" bson:"code" validate:"required"`
	Amount     int64               `json:"amount" bson:"amount" validate:"required,gte=1000"`
	VendorID   primitive.ObjectID  `json:"vendor_id" bson:"vendor" validate:"required"`
	IsUsed     bool                `json:"is_used" bson:"is_used"`
	IsDisabled bool                `json:"is_disabled" bson:"is_disabled"`
	UsedBy     *primitive.ObjectID `json:"used_by,omitempty" bson:"used_by,omitempty"`
	UsedAt     *time.Time          `json:"used_at,omitempty" bson:"used_at,omitempty"`
	ExpiresAt  *time.Time          `json:"expires_at,omitempty" bson:"expires_at,omitempty"` // nil = no expiry
	CreatedAt  time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at" bson:"updated_at"`
}

// Expired reports whether the code is past its expiry at the given time.
func (c *RechargeCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}
