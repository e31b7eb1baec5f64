package services

import (
	"context"
	"math"

	"github.com/atiaa9916/stp-backend/internal/config"
	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"
	"github.com/atiaa9916/stp-backend/internal/utils"
	"github.com/atiaa9916/stp-backend/pkg/logger"
)

type CommissionService interface {
	// ResolveActivePolicy resolves the commission policy the settlement paths
	// apply. It never fails: active settings row, then the legacy "commission"
	// setting, then the environment defaults.
	ResolveActivePolicy(ctx context.Context) *models.CommissionPolicy

	// GetSettings returns the active row, or the latest row when none is
	// active and scope permits. Returns (nil, nil) when nothing is stored.
	GetSettings(ctx context.Context, scope string) (*models.CommissionSettings, error)

	// UpdateSettings validates and persists new settings. Activation runs
	// deactivate-all plus activate-one inside a single unit of work, so at
	// most one row is ever active.
	UpdateSettings(ctx context.Context, request *UpdateCommissionRequest) (*models.CommissionSettings, error)
}

type commissionService struct {
	settingsRepo interfaces.CommissionSettingsRepository
	settingRepo  interfaces.SettingRepository
	runner       TransactionRunner
	cache        CacheService
	defaults     *config.CommissionConfig
	logger       *logger.Logger
}

type UpdateCommissionRequest struct {
	Type        models.CommissionType    `json:"type" validate:"required"`
	Value       float64                  `json:"value"`
	Applies     models.CommissionApplies `json:"applies"`
	ChargeStage models.ChargeStage       `json:"charge_stage" validate:"required"`
	IsActive    bool                     `json:"is_active"`
	Note        string                   `json:"note"`
}

func NewCommissionService(
	settingsRepo interfaces.CommissionSettingsRepository,
	settingRepo interfaces.SettingRepository,
	runner TransactionRunner,
	cache CacheService,
	defaults *config.CommissionConfig,
	logger *logger.Logger,
) CommissionService {
	return &commissionService{
		settingsRepo: settingsRepo,
		settingRepo:  settingRepo,
		runner:       runner,
		cache:        cache,
		defaults:     defaults,
		logger:       logger,
	}
}

func (s *commissionService) ResolveActivePolicy(ctx context.Context) *models.CommissionPolicy {
	if s.cache != nil {
		var cached models.CommissionPolicy
		if err := s.cache.Get(ctx, utils.ActivePolicyCacheKey, &cached); err == nil {
			return &cached
		}
	}

	policy := s.resolvePolicy(ctx)

	if s.cache != nil {
		if err := s.cache.Set(ctx, utils.ActivePolicyCacheKey, policy, utils.ActivePolicyCacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache active commission policy")
		}
	}

	return policy
}

func (s *commissionService) resolvePolicy(ctx context.Context) *models.CommissionPolicy {
	active, err := s.settingsRepo.GetActive(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Commission settings lookup failed, falling back")
	}
	if active != nil {
		return &models.CommissionPolicy{
			Type:        active.Type,
			Value:       active.Value,
			Applies:     active.Applies,
			ChargeStage: active.ChargeStage,
		}
	}

	legacy, err := s.settingRepo.GetByKey(ctx, utils.LegacyCommissionSetting)
	if err != nil {
		s.logger.WithError(err).Warn("Legacy commission setting lookup failed, falling back")
	}
	if legacy != nil && (legacy.IsActive == nil || *legacy.IsActive) {
		return policyFromLegacy(legacy)
	}

	return s.defaultPolicy()
}

func policyFromLegacy(setting *models.Setting) *models.CommissionPolicy {
	policy := &models.CommissionPolicy{
		Type:        models.CommissionFixedAmount,
		Value:       setting.Value,
		ChargeStage: models.ChargeStageCompleted,
	}
	if setting.Model == "percent" {
		policy.Type = models.CommissionFixedPercentage
		policy.Value = setting.Percent
	}
	if setting.Applies != nil {
		policy.Applies = *setting.Applies
	} else {
		policy.Applies = models.CommissionApplies{Wallet: true, Cash: false}
	}
	if models.ValidChargeStage(setting.ChargeStage) {
		policy.ChargeStage = setting.ChargeStage
	}
	return policy
}

func (s *commissionService) defaultPolicy() *models.CommissionPolicy {
	policy := &models.CommissionPolicy{
		Type:        models.CommissionFixedAmount,
		Value:       s.defaults.FlatValue,
		Applies:     models.CommissionApplies{Wallet: true, Cash: s.defaults.AppliesCash},
		ChargeStage: models.ChargeStageCompleted,
	}
	if s.defaults.Model == "percent" {
		policy.Type = models.CommissionFixedPercentage
		policy.Value = s.defaults.PercentValue
	}
	if stage := models.ChargeStage(s.defaults.ChargeStage); models.ValidChargeStage(stage) {
		policy.ChargeStage = stage
	}
	return policy
}

// ComputeCommission returns the commission owed on fare under policy, always
// non-negative. The smartDynamic type is reserved and computes to zero.
func ComputeCommission(policy *models.CommissionPolicy, fare int64) int64 {
	var amount int64
	switch policy.Type {
	case models.CommissionFixedPercentage:
		amount = int64(math.Round(float64(fare) * policy.Value / 100))
	case models.CommissionFixedAmount:
		amount = int64(math.Round(policy.Value))
	case models.CommissionSmartDynamic:
		amount = 0
	}
	if amount < 0 {
		return 0
	}
	return amount
}

// CommissionApplies reports whether policy charges commission for the given
// payment method. Bank-paid trips are never charged: the policy carries no
// bank flag, and that behavior is kept as-is.
func CommissionApplies(policy *models.CommissionPolicy, method models.PaymentMethod) bool {
	switch method {
	case models.PaymentMethodWallet:
		return policy.Applies.Wallet
	case models.PaymentMethodCash:
		return policy.Applies.Cash
	default:
		return false
	}
}

func (s *commissionService) GetSettings(ctx context.Context, scope string) (*models.CommissionSettings, error) {
	if scope == "latest" {
		settings, err := s.settingsRepo.GetLatest(ctx)
		if err != nil {
			return nil, utils.Internal("failed to load commission settings", err)
		}
		return settings, nil
	}

	settings, err := s.settingsRepo.GetActive(ctx)
	if err != nil {
		return nil, utils.Internal("failed to load commission settings", err)
	}
	return settings, nil
}

func (s *commissionService) UpdateSettings(ctx context.Context, request *UpdateCommissionRequest) (*models.CommissionSettings, error) {
	if !models.ValidCommissionType(request.Type) {
		return nil, utils.NewAppError(utils.KindInvalidInput, "unknown commission type")
	}
	if !models.ValidChargeStage(request.ChargeStage) {
		return nil, utils.NewAppError(utils.KindInvalidInput, "charge stage must be accepted or completed")
	}
	if request.Value < 0 {
		return nil, utils.NewAppError(utils.KindInvalidInput, "commission value must not be negative")
	}
	if request.Type == models.CommissionFixedPercentage && request.Value > 100 {
		return nil, utils.NewAppError(utils.KindInvalidInput, "percentage commission must not exceed 100")
	}

	settings := &models.CommissionSettings{
		Type:        request.Type,
		Value:       request.Value,
		Applies:     request.Applies,
		ChargeStage: request.ChargeStage,
		IsActive:    request.IsActive,
		Note:        request.Note,
	}

	err := s.runner.WithTransaction(ctx, func(ctx context.Context) error {
		if settings.IsActive {
			if err := s.settingsRepo.DeactivateAll(ctx); err != nil {
				return err
			}
		}
		return s.settingsRepo.Create(ctx, settings)
	})
	if err != nil {
		return nil, utils.Internal("failed to update commission settings", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, utils.ActivePolicyCacheKey); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate commission policy cache")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"type":         settings.Type,
		"value":        settings.Value,
		"charge_stage": settings.ChargeStage,
		"is_active":    settings.IsActive,
	}).Info("Commission settings updated")

	return settings, nil
}
