package utils

import "time"

// Application Constants
const (
	AppName    = "STPBackend"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "SYP"
	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Roles
	RoleAdmin     = "admin"
	RoleDriver    = "driver"
	RolePassenger = "passenger"
	RoleVendor    = "vendor"

	// Wallet / settlement
	MinRechargeAmount         = int64(1000)
	MinTopUpAmount            = int64(1000)
	MinRemainingAfterTransfer = int64(20000)

	// Recharge codes
	MaxRechargeBatchSize  = 100
	DefaultCodeExpiryDays = 30

	// Commission policy
	ActivePolicyCacheKey    = "commission_policy_active"
	ActivePolicyCacheTTL    = 30 * time.Second
	LegacyCommissionSetting = "commission"

	// Sweeper
	DefaultSweepInterval    = 2 * time.Minute
	DefaultMaxSweepAttempts = 10

	// Ledger descriptions. Settlement primitives write exactly these strings so
	// operational tooling can match on them.
	DescTripFarePaid      = "trip fare paid from wallet"
	DescTripFareRefund    = "refund of cancelled trip fare"
	DescCommissionCharge  = "platform commission on trip"
	DescCommissionRefund  = "commission refund for cancelled trip"
	DescRechargeRedeemFmt = "wallet recharge using code %s"
	DescRechargeRevertFmt = "recharge code %s reverted by admin"
	DescTopUpApprovedFmt  = "wallet top-up via payment request %s"
	DescTransferOutFmt    = "transfer to %s"
	DescTransferInFmt     = "transfer received from %s"

	// Response status
	StatusSuccess = "success"
	StatusError   = "error"

	// Common error messages
	ErrValidationFailed = "Validation failed"
	ErrInternalServer   = "Internal server error"
	ErrUnauthorized     = "Unauthorized access"
	ErrForbidden        = "Access forbidden"
)
