package services

import (
	"context"
	"fmt"

	"github.com/atiaa9916/stp-backend/internal/config"
	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"
	"github.com/atiaa9916/stp-backend/internal/utils"
	"github.com/atiaa9916/stp-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WalletService is the settlement engine. Every wallet balance write in the
// system goes through applyMovement, which pairs the mutation with exactly one
// ledger entry. The trip-settlement primitives (ChargeWallet, RefundWallet,
// ChargeCommission, RefundCommission) never open a unit of work of their own;
// the caller holds one and composes them inside it.
type WalletService interface {
	// EnsureWallet returns the user's wallet, creating an empty one when none
	// exists yet.
	EnsureWallet(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error)

	// GetBalance re-derives the balance from the ledger aggregate and heals
	// the stored value when it drifted.
	GetBalance(ctx context.Context, userID primitive.ObjectID) (*BalanceResponse, error)

	GetTransactions(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error)

	// ListTransactions is the admin-wide ledger search.
	ListTransactions(ctx context.Context, filter *interfaces.TransactionFilter, params *utils.PaginationParams) ([]*models.Transaction, int64, error)

	// ChargeWallet debits the passenger fare. Fails with InsufficientFunds
	// when the wallet is missing or cannot cover the amount.
	ChargeWallet(ctx context.Context, userID primitive.ObjectID, amount int64, method models.PaymentMethod, tripID *primitive.ObjectID) (int64, error)

	// RefundWallet credits a cancelled fare back. A missing wallet or a
	// non-positive amount is a no-op, not an error.
	RefundWallet(ctx context.Context, userID primitive.ObjectID, amount int64, tripID *primitive.ObjectID) (int64, error)

	// ChargeCommission computes the commission under policy and debits the
	// driver when it is positive. Returns the amount charged (zero when the
	// policy computes to zero).
	ChargeCommission(ctx context.Context, driverID primitive.ObjectID, fare int64, policy *models.CommissionPolicy, tripID *primitive.ObjectID) (int64, error)

	// RefundCommission credits a previously charged commission back. A
	// missing wallet or a non-positive amount is a no-op.
	RefundCommission(ctx context.Context, driverID primitive.ObjectID, amount int64, tripID *primitive.ObjectID) error

	// CreditWallet adds funds outside trip settlement (recharge redemption,
	// top-up approval). Creates the wallet when absent. Opens no unit of work.
	CreditWallet(ctx context.Context, userID primitive.ObjectID, amount int64, method models.TransactionMethod, description string) (int64, error)

	// DebitWallet removes funds outside trip settlement (admin recharge
	// revert). Fails with InsufficientFunds when the balance cannot cover it.
	DebitWallet(ctx context.Context, userID primitive.ObjectID, amount int64, method models.TransactionMethod, description string) (int64, error)

	// Transfer moves funds between a driver and a passenger, resolved by the
	// recipient's phone. The sender must retain at least the configured
	// minimum balance afterwards.
	Transfer(ctx context.Context, senderID primitive.ObjectID, request *TransferRequest) (*TransferResult, error)
}

type walletService struct {
	walletRepo      interfaces.WalletRepository
	transactionRepo interfaces.TransactionRepository
	userRepo        interfaces.UserRepository
	runner          TransactionRunner
	config          *config.WalletConfig
	currency        string
	logger          *logger.Logger
}

type BalanceResponse struct {
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

type TransferRequest struct {
	RecipientPhone string `json:"recipient_phone" validate:"required"`
	Amount         int64  `json:"amount" validate:"required,gt=0"`
}

type TransferResult struct {
	SenderBalance int64  `json:"sender_balance"`
	RecipientName string `json:"recipient_name"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

func NewWalletService(
	walletRepo interfaces.WalletRepository,
	transactionRepo interfaces.TransactionRepository,
	userRepo interfaces.UserRepository,
	runner TransactionRunner,
	config *config.WalletConfig,
	currency string,
	logger *logger.Logger,
) WalletService {
	return &walletService{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		runner:          runner,
		config:          config,
		currency:        currency,
		logger:          logger,
	}
}

func (s *walletService) EnsureWallet(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	wallet, err := s.walletRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, utils.Internal("failed to load wallet", err)
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = &models.Wallet{
		UserID:   userID,
		Balance:  0,
		Currency: s.currency,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, utils.Internal("failed to create wallet", err)
	}

	s.logger.WithUserID(userID).Info("Wallet created")
	return wallet, nil
}

func (s *walletService) GetBalance(ctx context.Context, userID primitive.ObjectID) (*BalanceResponse, error) {
	wallet, err := s.EnsureWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	sums, err := s.transactionRepo.SumByUser(ctx, userID)
	if err != nil {
		return nil, utils.Internal("failed to aggregate ledger", err)
	}

	reconciled := sums.Net()
	if reconciled < 0 {
		reconciled = 0
	}
	if reconciled != wallet.Balance {
		s.logger.WithUserID(userID).WithFields(map[string]interface{}{
			"stored_balance": wallet.Balance,
			"ledger_balance": reconciled,
		}).Warn("Wallet balance drifted from ledger, healing")
		if err := s.walletRepo.SetBalance(ctx, wallet.ID, reconciled); err != nil {
			return nil, utils.Internal("failed to heal wallet balance", err)
		}
		wallet.Balance = reconciled
	}

	return &BalanceResponse{Balance: wallet.Balance, Currency: wallet.Currency}, nil
}

func (s *walletService) GetTransactions(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	transactions, total, err := s.transactionRepo.GetByUser(ctx, userID, params)
	if err != nil {
		return nil, 0, utils.Internal("failed to load transactions", err)
	}
	return transactions, total, nil
}

func (s *walletService) ListTransactions(ctx context.Context, filter *interfaces.TransactionFilter, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	transactions, total, err := s.transactionRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, utils.Internal("failed to list transactions", err)
	}
	return transactions, total, nil
}

// applyMovement is the single point that mutates a wallet balance. It writes
// the new balance and appends the paired ledger entry; callers must hold the
// enclosing unit of work so both commit or neither does.
func (s *walletService) applyMovement(
	ctx context.Context,
	wallet *models.Wallet,
	txType models.TransactionType,
	amount int64,
	method models.TransactionMethod,
	description string,
	relatedTrip *primitive.ObjectID,
) (int64, error) {
	newBalance := wallet.Balance
	if txType == models.TransactionTypeDebit {
		newBalance -= amount
	} else {
		newBalance += amount
	}

	if err := s.walletRepo.SetBalance(ctx, wallet.ID, newBalance); err != nil {
		return 0, fmt.Errorf("failed to write balance: %w", err)
	}

	entry := &models.Transaction{
		UserID:      wallet.UserID,
		Type:        txType,
		Amount:      amount,
		Method:      method,
		Description: description,
		RelatedTrip: relatedTrip,
	}
	if err := s.transactionRepo.Create(ctx, entry); err != nil {
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	wallet.Balance = newBalance
	s.logger.LogSettlementEvent(wallet.UserID, description, entry.Signed(), relatedTrip)

	return newBalance, nil
}

func (s *walletService) ChargeWallet(ctx context.Context, userID primitive.ObjectID, amount int64, method models.PaymentMethod, tripID *primitive.ObjectID) (int64, error) {
	if amount <= 0 {
		return 0, utils.NewAppError(utils.KindInvalidInput, "charge amount must be positive")
	}
	if method != models.PaymentMethodWallet {
		return 0, utils.NewAppError(utils.KindInvalidInput, "only wallet payments can be charged")
	}

	wallet, err := s.walletRepo.GetByUser(ctx, userID)
	if err != nil {
		return 0, utils.Internal("failed to load wallet", err)
	}
	if wallet == nil || wallet.Balance < amount {
		return 0, utils.NewAppError(utils.KindInsufficientFunds, "passenger wallet balance is insufficient")
	}

	newBalance, err := s.applyMovement(ctx, wallet, models.TransactionTypeDebit, amount,
		models.TransactionMethodWallet, utils.DescTripFarePaid, tripID)
	if err != nil {
		return 0, utils.Internal("failed to charge wallet", err)
	}

	return newBalance, nil
}

func (s *walletService) RefundWallet(ctx context.Context, userID primitive.ObjectID, amount int64, tripID *primitive.ObjectID) (int64, error) {
	if amount <= 0 {
		return 0, nil
	}

	wallet, err := s.walletRepo.GetByUser(ctx, userID)
	if err != nil {
		return 0, utils.Internal("failed to load wallet", err)
	}
	if wallet == nil {
		return 0, nil
	}

	newBalance, err := s.applyMovement(ctx, wallet, models.TransactionTypeCredit, amount,
		models.TransactionMethodWallet, utils.DescTripFareRefund, tripID)
	if err != nil {
		return 0, utils.Internal("failed to refund wallet", err)
	}

	return newBalance, nil
}

func (s *walletService) ChargeCommission(ctx context.Context, driverID primitive.ObjectID, fare int64, policy *models.CommissionPolicy, tripID *primitive.ObjectID) (int64, error) {
	amount := ComputeCommission(policy, fare)
	if amount == 0 {
		return 0, nil
	}

	wallet, err := s.walletRepo.GetByUser(ctx, driverID)
	if err != nil {
		return 0, utils.Internal("failed to load driver wallet", err)
	}
	if wallet == nil || wallet.Balance < amount {
		return 0, utils.NewAppError(utils.KindInsufficientFunds, "driver wallet balance is insufficient for commission")
	}

	if _, err := s.applyMovement(ctx, wallet, models.TransactionTypeDebit, amount,
		models.TransactionMethodWallet, utils.DescCommissionCharge, tripID); err != nil {
		return 0, utils.Internal("failed to charge commission", err)
	}

	return amount, nil
}

func (s *walletService) RefundCommission(ctx context.Context, driverID primitive.ObjectID, amount int64, tripID *primitive.ObjectID) error {
	if amount <= 0 {
		return nil
	}

	wallet, err := s.walletRepo.GetByUser(ctx, driverID)
	if err != nil {
		return utils.Internal("failed to load driver wallet", err)
	}
	if wallet == nil {
		return nil
	}

	if _, err := s.applyMovement(ctx, wallet, models.TransactionTypeCredit, amount,
		models.TransactionMethodWallet, utils.DescCommissionRefund, tripID); err != nil {
		return utils.Internal("failed to refund commission", err)
	}

	return nil
}

func (s *walletService) CreditWallet(ctx context.Context, userID primitive.ObjectID, amount int64, method models.TransactionMethod, description string) (int64, error) {
	if amount <= 0 {
		return 0, utils.NewAppError(utils.KindInvalidInput, "credit amount must be positive")
	}

	wallet, err := s.EnsureWallet(ctx, userID)
	if err != nil {
		return 0, err
	}

	newBalance, err := s.applyMovement(ctx, wallet, models.TransactionTypeCredit, amount, method, description, nil)
	if err != nil {
		return 0, utils.Internal("failed to credit wallet", err)
	}

	return newBalance, nil
}

func (s *walletService) DebitWallet(ctx context.Context, userID primitive.ObjectID, amount int64, method models.TransactionMethod, description string) (int64, error) {
	if amount <= 0 {
		return 0, utils.NewAppError(utils.KindInvalidInput, "debit amount must be positive")
	}

	wallet, err := s.walletRepo.GetByUser(ctx, userID)
	if err != nil {
		return 0, utils.Internal("failed to load wallet", err)
	}
	if wallet == nil || wallet.Balance < amount {
		return 0, utils.NewAppError(utils.KindInsufficientFunds, "wallet balance is insufficient")
	}

	newBalance, err := s.applyMovement(ctx, wallet, models.TransactionTypeDebit, amount, method, description, nil)
	if err != nil {
		return 0, utils.Internal("failed to debit wallet", err)
	}

	return newBalance, nil
}

func (s *walletService) Transfer(ctx context.Context, senderID primitive.ObjectID, request *TransferRequest) (*TransferResult, error) {
	if request.Amount <= 0 {
		return nil, utils.NewAppError(utils.KindInvalidInput, "transfer amount must be positive")
	}
	if request.RecipientPhone == "" {
		return nil, utils.NewAppError(utils.KindInvalidInput, "recipient phone is required")
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, utils.Internal("failed to load sender", err)
	}
	if sender == nil {
		return nil, utils.NewAppError(utils.KindNotFound, "sender not found")
	}
	if sender.Role != utils.RoleDriver && sender.Role != utils.RolePassenger {
		return nil, utils.NewAppError(utils.KindForbidden, "transfers are limited to drivers and passengers")
	}

	recipient, err := s.userRepo.GetByPhone(ctx, request.RecipientPhone)
	if err != nil {
		return nil, utils.Internal("failed to load recipient", err)
	}
	if recipient == nil {
		return nil, utils.NewAppError(utils.KindNotFound, "recipient not found")
	}
	if recipient.ID == senderID {
		return nil, utils.NewAppError(utils.KindInvalidInput, "cannot transfer to own wallet")
	}
	if recipient.Role != utils.RoleDriver && recipient.Role != utils.RolePassenger {
		return nil, utils.NewAppError(utils.KindForbidden, "transfers are limited to drivers and passengers")
	}

	var result *TransferResult
	err = s.runner.WithTransaction(ctx, func(ctx context.Context) error {
		senderWallet, err := s.walletRepo.GetByUser(ctx, senderID)
		if err != nil {
			return utils.Internal("failed to load sender wallet", err)
		}
		if senderWallet == nil || senderWallet.Balance < request.Amount {
			return utils.NewAppError(utils.KindInsufficientFunds, "wallet balance is insufficient")
		}
		if senderWallet.Balance-request.Amount < s.config.MinRemainingAfterTransfer {
			return utils.NewAppErrorf(utils.KindInvalidInput,
				"transfer would leave less than the minimum balance of %d", s.config.MinRemainingAfterTransfer)
		}

		recipientWallet, err := s.EnsureWallet(ctx, recipient.ID)
		if err != nil {
			return err
		}

		senderBalance, err := s.applyMovement(ctx, senderWallet, models.TransactionTypeDebit, request.Amount,
			models.TransactionMethodWallet, fmt.Sprintf(utils.DescTransferOutFmt, recipient.Phone), nil)
		if err != nil {
			return utils.Internal("failed to debit sender", err)
		}

		if _, err := s.applyMovement(ctx, recipientWallet, models.TransactionTypeCredit, request.Amount,
			models.TransactionMethodWallet, fmt.Sprintf(utils.DescTransferInFmt, sender.Phone), nil); err != nil {
			return utils.Internal("failed to credit recipient", err)
		}

		result = &TransferResult{
			SenderBalance: senderBalance,
			RecipientName: recipient.Name,
			Amount:        request.Amount,
			Currency:      s.currency,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
