package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"
	"github.com/atiaa9916/stp-backend/internal/utils"
	"github.com/atiaa9916/stp-backend/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RechargeService interface {
	// MintCode creates one single-use code for the vendor.
	MintCode(ctx context.Context, vendorID primitive.ObjectID, request *MintCodeRequest) (*models.RechargeCode, error)

	// MintBatch creates up to the batch limit of codes in one call.
	MintBatch(ctx context.Context, vendorID primitive.ObjectID, request *MintBatchRequest) ([]*models.RechargeCode, error)

	// Redeem credits the user's wallet with the code's amount and consumes
	// the code, atomically. Preconditions are checked in order: unknown,
	// disabled, used, expired; the first failure wins. A concurrent
	// redemption race is decided by the conditional mark-used write.
	Redeem(ctx context.Context, userID primitive.ObjectID, code string) (int64, error)

	ListVendorCodes(ctx context.Context, vendorID primitive.ObjectID, filter *interfaces.RechargeCodeFilter, params *utils.PaginationParams) ([]*models.RechargeCode, int64, error)
	VendorStats(ctx context.Context, vendorID primitive.ObjectID) (*VendorStats, error)
	VendorUsage(ctx context.Context, vendorID primitive.ObjectID) ([]*CodeUsage, error)

	// DisableCode takes one of the vendor's unused codes out of circulation.
	DisableCode(ctx context.Context, vendorID primitive.ObjectID, code string) error

	ListAllCodes(ctx context.Context, filter *interfaces.RechargeCodeFilter, params *utils.PaginationParams) ([]*models.RechargeCode, int64, error)

	// Revert undoes a redemption: debits the redeemer, disables the code and
	// records an audit entry, all in one unit of work. Fails when the
	// redeemer's balance no longer covers the amount.
	Revert(ctx context.Context, adminID, codeID primitive.ObjectID, reason string) error

	// DeleteCode removes an unused code entirely and records an audit entry.
	DeleteCode(ctx context.Context, adminID, codeID primitive.ObjectID) error
}

type rechargeService struct {
	codeRepo      interfaces.RechargeCodeRepository
	userRepo      interfaces.UserRepository
	auditRepo     interfaces.AuditLogRepository
	walletService WalletService
	runner        TransactionRunner
	logger        *logger.Logger
}

type MintCodeRequest struct {
	Amount     int64      `json:"amount" validate:"required,gte=1000"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	ExpiryDays int        `json:"expiry_days,omitempty"`
}

type MintBatchRequest struct {
	Amount     int64      `json:"amount" validate:"required,gte=1000"`
	Count      int        `json:"count" validate:"required,gte=1,lte=100"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	ExpiryDays int        `json:"expiry_days,omitempty"`
}

type VendorStats struct {
	TotalCodes     int64      `json:"total_codes"`
	UsedCodes      int64      `json:"used_codes"`
	UnusedCodes    int64      `json:"unused_codes"`
	DisabledCodes  int64      `json:"disabled_codes"`
	TotalAmount    int64      `json:"total_amount"`
	RedeemedAmount int64      `json:"redeemed_amount"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
}

type CodeUsage struct {
	Code       string     `json:"code"`
	Amount     int64      `json:"amount"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	UsedByName string     `json:"used_by_name,omitempty"`
}

func NewRechargeService(
	codeRepo interfaces.RechargeCodeRepository,
	userRepo interfaces.UserRepository,
	auditRepo interfaces.AuditLogRepository,
	walletService WalletService,
	runner TransactionRunner,
	logger *logger.Logger,
) RechargeService {
	return &rechargeService{
		codeRepo:      codeRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
		walletService: walletService,
		runner:        runner,
		logger:        logger,
	}
}

func generateCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

func resolveExpiry(explicit *time.Time, days int) *time.Time {
	if explicit != nil {
		return explicit
	}
	if days > 0 {
		expiry := time.Now().AddDate(0, 0, days)
		return &expiry
	}
	expiry := time.Now().AddDate(0, 0, utils.DefaultCodeExpiryDays)
	return &expiry
}

func (s *rechargeService) MintCode(ctx context.Context, vendorID primitive.ObjectID, request *MintCodeRequest) (*models.RechargeCode, error) {
	if request.Amount < utils.MinRechargeAmount {
		return nil, utils.NewAppErrorf(utils.KindInvalidInput, "recharge amount must be at least %d", utils.MinRechargeAmount)
	}

	code := &models.RechargeCode{
		Code:      generateCode(),
		Amount:    request.Amount,
		VendorID:  vendorID,
		ExpiresAt: resolveExpiry(request.ExpiresAt, request.ExpiryDays),
	}
	if err := s.codeRepo.Create(ctx, code); err != nil {
		return nil, utils.Internal("failed to create recharge code", err)
	}

	s.logger.WithUserID(vendorID).WithField("amount", code.Amount).Info("Recharge code minted")
	return code, nil
}

func (s *rechargeService) MintBatch(ctx context.Context, vendorID primitive.ObjectID, request *MintBatchRequest) ([]*models.RechargeCode, error) {
	if request.Amount < utils.MinRechargeAmount {
		return nil, utils.NewAppErrorf(utils.KindInvalidInput, "recharge amount must be at least %d", utils.MinRechargeAmount)
	}
	if request.Count < 1 || request.Count > utils.MaxRechargeBatchSize {
		return nil, utils.NewAppErrorf(utils.KindInvalidInput, "batch size must be between 1 and %d", utils.MaxRechargeBatchSize)
	}

	expiry := resolveExpiry(request.ExpiresAt, request.ExpiryDays)
	codes := make([]*models.RechargeCode, 0, request.Count)
	for i := 0; i < request.Count; i++ {
		codes = append(codes, &models.RechargeCode{
			Code:      generateCode(),
			Amount:    request.Amount,
			VendorID:  vendorID,
			ExpiresAt: expiry,
		})
	}

	if err := s.codeRepo.CreateMany(ctx, codes); err != nil {
		return nil, utils.Internal("failed to create recharge codes", err)
	}

	s.logger.WithUserID(vendorID).WithFields(map[string]interface{}{
		"count":  request.Count,
		"amount": request.Amount,
	}).Info("Recharge code batch minted")

	return codes, nil
}

func (s *rechargeService) Redeem(ctx context.Context, userID primitive.ObjectID, codeValue string) (int64, error) {
	codeValue = strings.ToUpper(strings.TrimSpace(codeValue))
	if codeValue == "" {
		return 0, utils.NewAppError(utils.KindInvalidInput, "recharge code is required")
	}

	code, err := s.codeRepo.GetByCode(ctx, codeValue)
	if err != nil {
		return 0, utils.Internal("failed to load recharge code", err)
	}
	if code == nil {
		return 0, utils.NewAppError(utils.KindNotFound, "recharge code not found")
	}
	if code.IsDisabled {
		return 0, utils.NewAppError(utils.KindForbidden, "recharge code is disabled")
	}
	if code.IsUsed {
		return 0, utils.NewAppError(utils.KindExpiredOrUsed, "recharge code was already used")
	}
	if code.Expired(time.Now()) {
		return 0, utils.NewAppError(utils.KindExpiredOrUsed, "recharge code has expired")
	}

	var newBalance int64
	err = s.runner.WithTransaction(ctx, func(ctx context.Context) error {
		used, err := s.codeRepo.MarkUsed(ctx, code.ID, userID, time.Now())
		if err != nil {
			return utils.Internal("failed to consume recharge code", err)
		}
		if !used {
			return utils.NewAppError(utils.KindExpiredOrUsed, "recharge code was already used")
		}

		balance, err := s.walletService.CreditWallet(ctx, userID, code.Amount,
			models.TransactionMethodSystem, fmt.Sprintf(utils.DescRechargeRedeemFmt, code.Code))
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return 0, appErr
		}
		return 0, utils.Internal("failed to redeem recharge code", err)
	}

	s.logger.WithUserID(userID).WithFields(map[string]interface{}{
		"code":   code.Code,
		"amount": code.Amount,
	}).Info("Recharge code redeemed")

	return newBalance, nil
}

func (s *rechargeService) ListVendorCodes(ctx context.Context, vendorID primitive.ObjectID, filter *interfaces.RechargeCodeFilter, params *utils.PaginationParams) ([]*models.RechargeCode, int64, error) {
	if filter == nil {
		filter = &interfaces.RechargeCodeFilter{}
	}
	filter.VendorID = &vendorID

	codes, total, err := s.codeRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, utils.Internal("failed to list recharge codes", err)
	}
	return codes, total, nil
}

func (s *rechargeService) VendorStats(ctx context.Context, vendorID primitive.ObjectID) (*VendorStats, error) {
	codes, err := s.codeRepo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, utils.Internal("failed to load vendor codes", err)
	}

	stats := &VendorStats{}
	for _, code := range codes {
		stats.TotalCodes++
		stats.TotalAmount += code.Amount
		switch {
		case code.IsUsed:
			stats.UsedCodes++
			stats.RedeemedAmount += code.Amount
			if code.UsedAt != nil && (stats.LastUsedAt == nil || code.UsedAt.After(*stats.LastUsedAt)) {
				stats.LastUsedAt = code.UsedAt
			}
		case code.IsDisabled:
			stats.DisabledCodes++
		default:
			stats.UnusedCodes++
		}
	}

	return stats, nil
}

func (s *rechargeService) VendorUsage(ctx context.Context, vendorID primitive.ObjectID) ([]*CodeUsage, error) {
	codes, err := s.codeRepo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, utils.Internal("failed to load vendor codes", err)
	}

	usage := make([]*CodeUsage, 0)
	for _, code := range codes {
		if !code.IsUsed {
			continue
		}
		entry := &CodeUsage{
			Code:   code.Code,
			Amount: code.Amount,
			UsedAt: code.UsedAt,
		}
		if code.UsedBy != nil {
			user, err := s.userRepo.GetByID(ctx, *code.UsedBy)
			if err == nil && user != nil {
				entry.UsedByName = user.Name
			}
		}
		usage = append(usage, entry)
	}

	return usage, nil
}

func (s *rechargeService) DisableCode(ctx context.Context, vendorID primitive.ObjectID, codeValue string) error {
	code, err := s.codeRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(codeValue)))
	if err != nil {
		return utils.Internal("failed to load recharge code", err)
	}
	if code == nil || code.VendorID != vendorID {
		return utils.NewAppError(utils.KindNotFound, "recharge code not found")
	}

	disabled, err := s.codeRepo.Disable(ctx, code.ID)
	if err != nil {
		return utils.Internal("failed to disable recharge code", err)
	}
	if !disabled {
		return utils.NewAppError(utils.KindExpiredOrUsed, "recharge code was already used or disabled")
	}

	s.logger.WithUserID(vendorID).WithField("code", code.Code).Info("Recharge code disabled")
	return nil
}

func (s *rechargeService) ListAllCodes(ctx context.Context, filter *interfaces.RechargeCodeFilter, params *utils.PaginationParams) ([]*models.RechargeCode, int64, error) {
	codes, total, err := s.codeRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, utils.Internal("failed to list recharge codes", err)
	}
	return codes, total, nil
}

func (s *rechargeService) Revert(ctx context.Context, adminID, codeID primitive.ObjectID, reason string) error {
	code, err := s.codeRepo.GetByID(ctx, codeID)
	if err != nil {
		return utils.Internal("failed to load recharge code", err)
	}
	if code == nil {
		return utils.NewAppError(utils.KindNotFound, "recharge code not found")
	}
	if !code.IsUsed || code.UsedBy == nil {
		return utils.NewAppError(utils.KindInvalidInput, "recharge code is not in used state")
	}

	err = s.runner.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.walletService.DebitWallet(ctx, *code.UsedBy, code.Amount,
			models.TransactionMethodSystem, fmt.Sprintf(utils.DescRechargeRevertFmt, code.Code)); err != nil {
			return err
		}
		if err := s.codeRepo.Revert(ctx, code.ID); err != nil {
			return utils.Internal("failed to revert recharge code", err)
		}
		return s.auditRepo.Create(ctx, &models.AuditLog{
			ActorID: adminID,
			Action:  models.AuditRechargeRevert,
			Meta: map[string]interface{}{
				"code":    code.Code,
				"amount":  code.Amount,
				"used_by": code.UsedBy.Hex(),
				"reason":  reason,
			},
		})
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return utils.Internal("failed to revert recharge code", err)
	}

	s.logger.WithUserID(adminID).WithField("code", code.Code).Warn("Recharge code reverted")
	return nil
}

func (s *rechargeService) DeleteCode(ctx context.Context, adminID, codeID primitive.ObjectID) error {
	code, err := s.codeRepo.GetByID(ctx, codeID)
	if err != nil {
		return utils.Internal("failed to load recharge code", err)
	}
	if code == nil {
		return utils.NewAppError(utils.KindNotFound, "recharge code not found")
	}
	if code.IsUsed {
		return utils.NewAppError(utils.KindExpiredOrUsed, "used recharge codes cannot be deleted")
	}

	err = s.runner.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.codeRepo.Delete(ctx, code.ID); err != nil {
			return err
		}
		return s.auditRepo.Create(ctx, &models.AuditLog{
			ActorID: adminID,
			Action:  models.AuditRechargeDelete,
			Meta: map[string]interface{}{
				"code":   code.Code,
				"amount": code.Amount,
				"vendor": code.VendorID.Hex(),
			},
		})
	})
	if err != nil {
		return utils.Internal("failed to delete recharge code", err)
	}

	s.logger.WithUserID(adminID).WithField("code", code.Code).Info("Recharge code deleted")
	return nil
}
