package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommissionType string
type ChargeStage string

const (
	CommissionFixedAmount     CommissionType = "fixedAmount"
	CommissionFixedPercentage CommissionType = "fixedPercentage"
	// CommissionSmartDynamic is reserved; it currently computes to zero.
	CommissionSmartDynamic CommissionType = "smartDynamic"

	ChargeStageAccepted  ChargeStage = "accepted"
	ChargeStageCompleted ChargeStage = "completed"
)

type CommissionApplies struct {
	Wallet bool `json:"wallet" bson:"wallet"`
	Cash   bool `json:"cash" bson:"cash"`
}

// CommissionSettings is the persisted commission configuration. At most one
// row is active at a time; activation deactivates all others in the same
// unit of work.
type CommissionSettings struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Type        CommissionType     `json:"type" bson:"type"`
	Value       float64            `json:"value" bson:"value"`
	Applies     CommissionApplies  `json:"applies" bson:"applies"`
	ChargeStage ChargeStage        `json:"charge_stage" bson:"charge_stage"`
	IsActive    bool               `json:"is_active" bson:"is_active"`
	Note        string             `json:"note,omitempty" bson:"note,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// CommissionPolicy is the normalized resolution result the settlement paths
// consume. Resolution never fails; a default policy is always available.
type CommissionPolicy struct {
	Type        CommissionType    `json:"type"`
	Value       float64           `json:"value"`
	Applies     CommissionApplies `json:"applies"`
	ChargeStage ChargeStage       `json:"charge_stage"`
}

// Setting is the legacy free-form configuration record. The resolver consults
// the row keyed "commission" when no CommissionSettings row is active.
type Setting struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Key         string             `json:"key" bson:"key"`
	Model       string             `json:"model,omitempty" bson:"model,omitempty"` // "percent" or "flat"
	Value       float64            `json:"value,omitempty" bson:"value,omitempty"`
	Percent     float64            `json:"percent,omitempty" bson:"percent,omitempty"`
	Applies     *CommissionApplies `json:"applies,omitempty" bson:"applies,omitempty"`
	ChargeStage ChargeStage        `json:"charge_stage,omitempty" bson:"charge_stage,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty" bson:"is_active,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

func ValidCommissionType(t CommissionType) bool {
	switch t {
	case CommissionFixedAmount, CommissionFixedPercentage, CommissionSmartDynamic:
		return true
	}
	return false
}

func ValidChargeStage(s ChargeStage) bool {
	return s == ChargeStageAccepted || s == ChargeStageCompleted
}
