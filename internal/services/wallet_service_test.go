package services

import (
	"context"
	"testing"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureWalletCreatesOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	first, err := f.wallet.EnsureWallet(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, first.Balance)
	assert.Equal(t, utils.DefaultCurrency, first.Currency)

	second, err := f.wallet.EnsureWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetBalanceHealsDriftedWallet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	// Build a real ledger: +5000 then -1500.
	_, err := f.wallet.CreditWallet(ctx, userID, 5000, models.TransactionMethodSystem, "seed")
	require.NoError(t, err)
	_, err = f.wallet.DebitWallet(ctx, userID, 1500, models.TransactionMethodSystem, "spend")
	require.NoError(t, err)

	// Corrupt the stored balance behind the service's back.
	wallet, err := f.wallets.GetByUser(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, f.wallets.SetBalance(ctx, wallet.ID, 99999))

	balance, err := f.wallet.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3500), balance.Balance)

	// The heal was persisted.
	assert.Equal(t, int64(3500), f.balance(userID))
}

func TestGetBalanceClampsNegativeLedger(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	// A debit-only ledger can only come from historical data; the derived
	// balance is clamped at zero rather than reported negative.
	wallet, err := f.wallet.EnsureWallet(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, f.transactions.Create(ctx, &models.Transaction{
		UserID: userID,
		Type:   models.TransactionTypeDebit,
		Amount: 700,
	}))
	require.NoError(t, f.wallets.SetBalance(ctx, wallet.ID, 0))

	balance, err := f.wallet.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, balance.Balance)
}

func TestChargeWalletInsufficientFunds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	f.wallets.seed(userID, 1000)

	_, err := f.wallet.ChargeWallet(ctx, userID, 2000, models.PaymentMethodWallet, nil)
	require.Error(t, err)
	assert.Equal(t, utils.KindInsufficientFunds, utils.KindOf(err))

	// A failed charge leaves no ledger entry and keeps the balance intact.
	entries, _, err := f.wallet.GetTransactions(ctx, userID, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int64(1000), f.balance(userID))

	// A missing wallet is the same failure, not a panic.
	_, err = f.wallet.ChargeWallet(ctx, primitive.NewObjectID(), 2000, models.PaymentMethodWallet, nil)
	require.Error(t, err)
	assert.Equal(t, utils.KindInsufficientFunds, utils.KindOf(err))
}

func TestChargeWalletRejectsNonWalletMethod(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	f.wallets.seed(userID, 10000)

	_, err := f.wallet.ChargeWallet(ctx, userID, 2000, models.PaymentMethodCash, nil)
	require.Error(t, err)
	assert.Equal(t, utils.KindInvalidInput, utils.KindOf(err))
}

func TestEveryMovementPairsWithOneLedgerEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()
	f.wallets.seed(userID, 10000)
	tripID := primitive.NewObjectID()

	_, err := f.wallet.ChargeWallet(ctx, userID, 2000, models.PaymentMethodWallet, &tripID)
	require.NoError(t, err)
	_, err = f.wallet.RefundWallet(ctx, userID, 2000, &tripID)
	require.NoError(t, err)

	entries, total, err := f.wallet.GetTransactions(ctx, userID, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	var credit, debit int64
	for _, entry := range entries {
		require.NotNil(t, entry.RelatedTrip)
		assert.Equal(t, tripID, *entry.RelatedTrip)
		if entry.Type == models.TransactionTypeCredit {
			credit += entry.Amount
		} else {
			debit += entry.Amount
		}
	}
	assert.Equal(t, int64(2000), credit)
	assert.Equal(t, int64(2000), debit)
	assert.Equal(t, int64(10000), f.balance(userID))
}

func TestRefundsAreNoOpsWithoutTarget(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Refund to a user without a wallet does nothing and does not fail.
	balance, err := f.wallet.RefundWallet(ctx, primitive.NewObjectID(), 500, nil)
	require.NoError(t, err)
	assert.Zero(t, balance)

	require.NoError(t, f.wallet.RefundCommission(ctx, primitive.NewObjectID(), 500, nil))

	// Zero amounts are swallowed too.
	_, err = f.wallet.RefundWallet(ctx, primitive.NewObjectID(), 0, nil)
	require.NoError(t, err)
	assert.Empty(t, f.transactions.entries)
}

func TestChargeCommissionZeroPolicyChargesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	driverID := primitive.NewObjectID()
	f.wallets.seed(driverID, 5000)

	policy := &models.CommissionPolicy{
		Type:    models.CommissionFixedAmount,
		Value:   0,
		Applies: models.CommissionApplies{Wallet: true},
	}

	charged, err := f.wallet.ChargeCommission(ctx, driverID, 2000, policy, nil)
	require.NoError(t, err)
	assert.Zero(t, charged)
	assert.Empty(t, f.transactions.entries)
}

func TestChargeCommissionInsufficientDriverFunds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	driverID := primitive.NewObjectID()
	f.wallets.seed(driverID, 100)

	policy := &models.CommissionPolicy{
		Type:    models.CommissionFixedPercentage,
		Value:   10,
		Applies: models.CommissionApplies{Wallet: true},
	}

	_, err := f.wallet.ChargeCommission(ctx, driverID, 2000, policy, nil)
	require.Error(t, err)
	assert.Equal(t, utils.KindInsufficientFunds, utils.KindOf(err))
	assert.Equal(t, int64(100), f.balance(driverID))
}

func TestTransferBetweenDriverAndPassenger(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	driverID := f.users.add(utils.RoleDriver, "Driver", "0922222222")
	passengerID := f.users.add(utils.RolePassenger, "Passenger", "0911111111")
	f.wallets.seed(driverID, 50000)
	f.wallets.seed(passengerID, 1000)

	result, err := f.wallet.Transfer(ctx, driverID, &TransferRequest{
		RecipientPhone: "0911111111",
		Amount:         10000,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(40000), result.SenderBalance)
	assert.Equal(t, "Passenger", result.RecipientName)
	assert.Equal(t, int64(40000), f.balance(driverID))
	assert.Equal(t, int64(11000), f.balance(passengerID))

	// Both sides of the move hit the ledger.
	senderEntries, _, _ := f.wallet.GetTransactions(ctx, driverID, nil)
	recipientEntries, _, _ := f.wallet.GetTransactions(ctx, passengerID, nil)
	require.Len(t, senderEntries, 1)
	require.Len(t, recipientEntries, 1)
	assert.Equal(t, models.TransactionTypeDebit, senderEntries[0].Type)
	assert.Equal(t, models.TransactionTypeCredit, recipientEntries[0].Type)
}

func TestTransferEnforcesMinimumRemainingBalance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	driverID := f.users.add(utils.RoleDriver, "Driver", "0922222222")
	f.users.add(utils.RolePassenger, "Passenger", "0911111111")
	f.wallets.seed(driverID, 25000)

	// 25000 - 10000 would leave 15000, below the 20000 floor.
	_, err := f.wallet.Transfer(ctx, driverID, &TransferRequest{
		RecipientPhone: "0911111111",
		Amount:         10000,
	})
	require.Error(t, err)
	assert.Equal(t, utils.KindInvalidInput, utils.KindOf(err))
	assert.Equal(t, int64(25000), f.balance(driverID))

	// 25000 - 5000 leaves exactly the floor, which is allowed.
	result, err := f.wallet.Transfer(ctx, driverID, &TransferRequest{
		RecipientPhone: "0911111111",
		Amount:         5000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), result.SenderBalance)
}

func TestTransferRejectsInvalidParties(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	driverID := f.users.add(utils.RoleDriver, "Driver", "0922222222")
	vendorID := f.users.add(utils.RoleVendor, "Vendor", "0955555555")
	f.wallets.seed(driverID, 100000)

	// Vendors cannot receive transfers.
	_, err := f.wallet.Transfer(ctx, driverID, &TransferRequest{RecipientPhone: "0955555555", Amount: 5000})
	require.Error(t, err)
	assert.Equal(t, utils.KindForbidden, utils.KindOf(err))

	// Nor send them.
	_, err = f.wallet.Transfer(ctx, vendorID, &TransferRequest{RecipientPhone: "0922222222", Amount: 5000})
	require.Error(t, err)
	assert.Equal(t, utils.KindForbidden, utils.KindOf(err))

	// Self-transfer is rejected.
	_, err = f.wallet.Transfer(ctx, driverID, &TransferRequest{RecipientPhone: "0922222222", Amount: 5000})
	require.Error(t, err)
	assert.Equal(t, utils.KindInvalidInput, utils.KindOf(err))

	// Unknown recipient.
	_, err = f.wallet.Transfer(ctx, driverID, &TransferRequest{RecipientPhone: "0900000000", Amount: 5000})
	require.Error(t, err)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}
