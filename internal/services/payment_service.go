package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"
	"github.com/atiaa9916/stp-backend/internal/utils"
	"github.com/atiaa9916/stp-backend/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentService interface {
	// CreateTopUp files a pending top-up request carrying an opaque proof
	// reference for manual review.
	CreateTopUp(ctx context.Context, userID primitive.ObjectID, request *TopUpRequest) (*models.PaymentRequest, error)

	ListTopUps(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.PaymentRequest, int64, error)

	// ApproveTopUp resolves a pending request and credits the wallet through
	// the settlement engine, in one unit of work. An already-resolved request
	// surfaces as Conflict.
	ApproveTopUp(ctx context.Context, adminID, requestID primitive.ObjectID, notes string) (*models.PaymentRequest, error)

	RejectTopUp(ctx context.Context, adminID, requestID primitive.ObjectID, notes string) (*models.PaymentRequest, error)

	// CreateVisaSession validates the amount and returns a sandbox checkout
	// session. Card capture itself is out of scope; this mirrors the manual
	// review flow until a gateway is wired.
	CreateVisaSession(ctx context.Context, userID primitive.ObjectID, amount int64) (*VisaSessionResponse, error)
}

type paymentService struct {
	requestRepo   interfaces.PaymentRequestRepository
	walletService WalletService
	runner        TransactionRunner
	minTopUp      int64
	logger        *logger.Logger
}

type TopUpRequest struct {
	Amount        int64                       `json:"amount" validate:"required,gte=1000"`
	Method        models.PaymentRequestMethod `json:"method" validate:"required"`
	ProofRef      string                      `json:"proof_ref,omitempty"`
	TransactionID string                      `json:"transaction_id,omitempty"`
}

type VisaSessionResponse struct {
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
	Amount     int64  `json:"amount"`
	Sandbox    bool   `json:"sandbox"`
}

func NewPaymentService(
	requestRepo interfaces.PaymentRequestRepository,
	walletService WalletService,
	runner TransactionRunner,
	minTopUp int64,
	logger *logger.Logger,
) PaymentService {
	return &paymentService{
		requestRepo:   requestRepo,
		walletService: walletService,
		runner:        runner,
		minTopUp:      minTopUp,
		logger:        logger,
	}
}

func (s *paymentService) CreateTopUp(ctx context.Context, userID primitive.ObjectID, request *TopUpRequest) (*models.PaymentRequest, error) {
	if request.Amount < s.minTopUp {
		return nil, utils.NewAppErrorf(utils.KindInvalidInput, "top-up amount must be at least %d", s.minTopUp)
	}
	if !models.ValidPaymentRequestMethod(request.Method) {
		return nil, utils.NewAppError(utils.KindInvalidInput, "unknown top-up method")
	}

	record := &models.PaymentRequest{
		UserID:        userID,
		Amount:        request.Amount,
		Method:        request.Method,
		Status:        models.PaymentRequestPending,
		TransactionID: request.TransactionID,
		ProofRef:      request.ProofRef,
	}
	if err := s.requestRepo.Create(ctx, record); err != nil {
		return nil, utils.Internal("failed to create top-up request", err)
	}

	s.logger.WithUserID(userID).WithFields(map[string]interface{}{
		"amount": record.Amount,
		"method": record.Method,
	}).Info("Top-up request filed")

	return record, nil
}

func (s *paymentService) ListTopUps(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.PaymentRequest, int64, error) {
	requests, total, err := s.requestRepo.GetByUser(ctx, userID, params)
	if err != nil {
		return nil, 0, utils.Internal("failed to list top-up requests", err)
	}
	return requests, total, nil
}

func (s *paymentService) ApproveTopUp(ctx context.Context, adminID, requestID primitive.ObjectID, notes string) (*models.PaymentRequest, error) {
	record, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, utils.Internal("failed to load top-up request", err)
	}
	if record == nil {
		return nil, utils.NewAppError(utils.KindNotFound, "top-up request not found")
	}

	err = s.runner.WithTransaction(ctx, func(ctx context.Context) error {
		resolved, err := s.requestRepo.ResolvePending(ctx, requestID, models.PaymentRequestApproved, notes)
		if err != nil {
			return utils.Internal("failed to resolve top-up request", err)
		}
		if !resolved {
			return utils.NewAppError(utils.KindConflict, "top-up request was already resolved")
		}

		_, err = s.walletService.CreditWallet(ctx, record.UserID, record.Amount,
			models.TransactionMethodBank, fmt.Sprintf(utils.DescTopUpApprovedFmt, record.ID.Hex()))
		return err
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, utils.Internal("failed to approve top-up request", err)
	}

	record.Status = models.PaymentRequestApproved
	record.AdminNotes = notes

	s.logger.WithUserID(adminID).WithFields(map[string]interface{}{
		"request_id": record.ID.Hex(),
		"amount":     record.Amount,
	}).Info("Top-up request approved")

	return record, nil
}

func (s *paymentService) RejectTopUp(ctx context.Context, adminID, requestID primitive.ObjectID, notes string) (*models.PaymentRequest, error) {
	record, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, utils.Internal("failed to load top-up request", err)
	}
	if record == nil {
		return nil, utils.NewAppError(utils.KindNotFound, "top-up request not found")
	}

	resolved, err := s.requestRepo.ResolvePending(ctx, requestID, models.PaymentRequestRejected, notes)
	if err != nil {
		return nil, utils.Internal("failed to resolve top-up request", err)
	}
	if !resolved {
		return nil, utils.NewAppError(utils.KindConflict, "top-up request was already resolved")
	}

	record.Status = models.PaymentRequestRejected
	record.AdminNotes = notes

	s.logger.WithUserID(adminID).WithField("request_id", record.ID.Hex()).Info("Top-up request rejected")
	return record, nil
}

func (s *paymentService) CreateVisaSession(ctx context.Context, userID primitive.ObjectID, amount int64) (*VisaSessionResponse, error) {
	if amount < s.minTopUp {
		return nil, utils.NewAppErrorf(utils.KindInvalidInput, "top-up amount must be at least %d", s.minTopUp)
	}

	sessionID := uuid.NewString()
	session := &VisaSessionResponse{
		SessionID:  sessionID,
		SessionURL: fmt.Sprintf("https://sandbox.checkout.example.com/session/%s", sessionID),
		Amount:     amount,
		Sandbox:    true,
	}

	s.logger.WithUserID(userID).WithField("amount", amount).Info("Sandbox card session created")
	return session, nil
}
