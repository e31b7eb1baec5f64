package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMintCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vendorID := primitive.NewObjectID()

	code, err := f.recharge.MintCode(ctx, vendorID, &MintCodeRequest{Amount: 5000})
	require.NoError(t, err)

	assert.Len(t, code.Code, 16)
	assert.Equal(t, code.Code, strings.ToUpper(code.Code))
	assert.Equal(t, int64(5000), code.Amount)
	assert.Equal(t, vendorID, code.VendorID)
	require.NotNil(t, code.ExpiresAt)
	assert.True(t, code.ExpiresAt.After(time.Now()))

	// Below the floor is rejected.
	_, err = f.recharge.MintCode(ctx, vendorID, &MintCodeRequest{Amount: 500})
	require.Error(t, err)
	assert.Equal(t, utils.KindInvalidInput, utils.KindOf(err))
}

func TestMintBatch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vendorID := primitive.NewObjectID()

	codes, err := f.recharge.MintBatch(ctx, vendorID, &MintBatchRequest{Amount: 2000, Count: 5})
	require.NoError(t, err)
	require.Len(t, codes, 5)

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.False(t, seen[code.Code], "codes must be unique within a batch")
		seen[code.Code] = true
	}

	_, err = f.recharge.MintBatch(ctx, vendorID, &MintBatchRequest{Amount: 2000, Count: 0})
	require.Error(t, err)
	assert.Equal(t, utils.KindInvalidInput, utils.KindOf(err))

	_, err = f.recharge.MintBatch(ctx, vendorID, &MintBatchRequest{Amount: 2000, Count: utils.MaxRechargeBatchSize + 1})
	require.Error(t, err)
	assert.Equal(t, utils.KindInvalidInput, utils.KindOf(err))
}

func TestRedeemCreditsWalletOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vendorID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	code, err := f.recharge.MintCode(ctx, vendorID, &MintCodeRequest{Amount: 5000})
	require.NoError(t, err)

	balance, err := f.recharge.Redeem(ctx, userID, code.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)
	assert.Equal(t, int64(5000), f.balance(userID))

	stored, err := f.codes.GetByID(ctx, code.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsUsed)
	require.NotNil(t, stored.UsedBy)
	assert.Equal(t, userID, *stored.UsedBy)

	// Second redemption fails and moves no money.
	_, err = f.recharge.Redeem(ctx, primitive.NewObjectID(), code.Code)
	require.Error(t, err)
	assert.Equal(t, utils.KindExpiredOrUsed, utils.KindOf(err))
	assert.Equal(t, int64(5000), f.balance(userID))
}

func TestRedeemNormalizesInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	code, err := f.recharge.MintCode(ctx, primitive.NewObjectID(), &MintCodeRequest{Amount: 3000})
	require.NoError(t, err)

	// Lowercase with surrounding whitespace still resolves.
	_, err = f.recharge.Redeem(ctx, userID, "  "+strings.ToLower(code.Code)+" ")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), f.balance(userID))
}

func TestRedeemPreconditionOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vendorID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	// Unknown code.
	_, err := f.recharge.Redeem(ctx, userID, "NOSUCHCODE123456")
	require.Error(t, err)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))

	// Empty input.
	_, err = f.recharge.Redeem(ctx, userID, "   ")
	require.Error(t, err)
	assert.Equal(t, utils.KindInvalidInput, utils.KindOf(err))

	// Disabled wins over everything else.
	disabled, err := f.recharge.MintCode(ctx, vendorID, &MintCodeRequest{Amount: 2000})
	require.NoError(t, err)
	require.NoError(t, f.recharge.DisableCode(ctx, vendorID, disabled.Code))
	_, err = f.recharge.Redeem(ctx, userID, disabled.Code)
	require.Error(t, err)
	assert.Equal(t, utils.KindForbidden, utils.KindOf(err))

	// Expired code.
	past := time.Now().Add(-time.Hour)
	expired, err := f.recharge.MintCode(ctx, vendorID, &MintCodeRequest{Amount: 2000, ExpiresAt: &past})
	require.NoError(t, err)
	_, err = f.recharge.Redeem(ctx, userID, expired.Code)
	require.Error(t, err)
	assert.Equal(t, utils.KindExpiredOrUsed, utils.KindOf(err))
	assert.Zero(t, f.balance(userID))
}

func TestDisableCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vendorID := primitive.NewObjectID()
	otherVendorID := primitive.NewObjectID()

	code, err := f.recharge.MintCode(ctx, vendorID, &MintCodeRequest{Amount: 2000})
	require.NoError(t, err)

	// Another vendor cannot see, let alone disable, the code.
	err = f.recharge.DisableCode(ctx, otherVendorID, code.Code)
	require.Error(t, err)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))

	require.NoError(t, f.recharge.DisableCode(ctx, vendorID, code.Code))

	// Disabling again reports the state, conditionally.
	err = f.recharge.DisableCode(ctx, vendorID, code.Code)
	require.Error(t, err)
	assert.Equal(t, utils.KindExpiredOrUsed, utils.KindOf(err))
}

func TestVendorStatsAndUsage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	vendorID := primitive.NewObjectID()
	userID := f.users.add(utils.RolePassenger, "Redeemer", "0911111111")

	redeemed, err := f.recharge.MintCode(ctx, vendorID, &MintCodeRequest{Amount: 5000})
	require.NoError(t, err)
	_, err = f.recharge.MintCode(ctx, vendorID, &MintCodeRequest{Amount: 2000})
	require.NoError(t, err)
	disabled, err := f.recharge.MintCode(ctx, vendorID, &MintCodeRequest{Amount: 1000})
	require.NoError(t, err)

	_, err = f.recharge.Redeem(ctx, userID, redeemed.Code)
	require.NoError(t, err)
	require.NoError(t, f.recharge.DisableCode(ctx, vendorID, disabled.Code))

	stats, err := f.recharge.VendorStats(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalCodes)
	assert.Equal(t, int64(1), stats.UsedCodes)
	assert.Equal(t, int64(1), stats.UnusedCodes)
	assert.Equal(t, int64(1), stats.DisabledCodes)
	assert.Equal(t, int64(8000), stats.TotalAmount)
	assert.Equal(t, int64(5000), stats.RedeemedAmount)
	require.NotNil(t, stats.LastUsedAt)

	usage, err := f.recharge.VendorUsage(ctx, vendorID)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, redeemed.Code, usage[0].Code)
	assert.Equal(t, "Redeemer", usage[0].UsedByName)
}

func TestRevertRedemption(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	adminID := primitive.NewObjectID()
	vendorID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	code, err := f.recharge.MintCode(ctx, vendorID, &MintCodeRequest{Amount: 5000})
	require.NoError(t, err)
	_, err = f.recharge.Redeem(ctx, userID, code.Code)
	require.NoError(t, err)

	require.NoError(t, f.recharge.Revert(ctx, adminID, code.ID, "vendor fraud report"))

	assert.Zero(t, f.balance(userID))

	stored, err := f.codes.GetByID(ctx, code.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsUsed)
	assert.True(t, stored.IsDisabled, "reverted codes must not circulate again")
	assert.Nil(t, stored.UsedBy)

	// The reversal is audited.
	require.Len(t, f.audits.entries, 1)
	assert.Equal(t, models.AuditRechargeRevert, f.audits.entries[0].Action)
	assert.Equal(t, adminID, f.audits.entries[0].ActorID)

	// Reverting again fails: the code is no longer in used state.
	err = f.recharge.Revert(ctx, adminID, code.ID, "again")
	require.Error(t, err)
	assert.Equal(t, utils.KindInvalidInput, utils.KindOf(err))
}

func TestRevertFailsWhenRedeemerSpentTheFunds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	adminID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	code, err := f.recharge.MintCode(ctx, primitive.NewObjectID(), &MintCodeRequest{Amount: 5000})
	require.NoError(t, err)
	_, err = f.recharge.Redeem(ctx, userID, code.Code)
	require.NoError(t, err)

	// The redeemer spends most of it before the admin acts.
	_, err = f.wallet.DebitWallet(ctx, userID, 4000, models.TransactionMethodSystem, "spend")
	require.NoError(t, err)

	err = f.recharge.Revert(ctx, adminID, code.ID, "late report")
	require.Error(t, err)
	assert.Equal(t, utils.KindInsufficientFunds, utils.KindOf(err))

	// Nothing changed: balance intact, code still used.
	assert.Equal(t, int64(1000), f.balance(userID))
	stored, err := f.codes.GetByID(ctx, code.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsUsed)
}

func TestDeleteCode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	adminID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	unused, err := f.recharge.MintCode(ctx, primitive.NewObjectID(), &MintCodeRequest{Amount: 2000})
	require.NoError(t, err)
	used, err := f.recharge.MintCode(ctx, primitive.NewObjectID(), &MintCodeRequest{Amount: 2000})
	require.NoError(t, err)
	_, err = f.recharge.Redeem(ctx, userID, used.Code)
	require.NoError(t, err)

	require.NoError(t, f.recharge.DeleteCode(ctx, adminID, unused.ID))
	gone, err := f.codes.GetByID(ctx, unused.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Used codes are ledger history and cannot be deleted.
	err = f.recharge.DeleteCode(ctx, adminID, used.ID)
	require.Error(t, err)
	assert.Equal(t, utils.KindExpiredOrUsed, utils.KindOf(err))
}
