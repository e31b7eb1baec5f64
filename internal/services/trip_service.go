package services

import (
	"context"
	"errors"
	"time"

	"github.com/atiaa9916/stp-backend/internal/config"
	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"
	"github.com/atiaa9916/stp-backend/internal/utils"
	"github.com/atiaa9916/stp-backend/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TripService interface {
	// CreateTrip validates and stores a new trip. A repeated request carrying
	// the same idempotency key returns the stored trip flagged duplicated
	// instead of creating or charging twice. When precharging is enabled,
	// non-scheduled wallet trips are charged here, in the same unit of work
	// as the insert.
	CreateTrip(ctx context.Context, passengerID primitive.ObjectID, request *CreateTripRequest) (*CreateTripResponse, error)

	GetTrip(ctx context.Context, id primitive.ObjectID) (*models.Trip, error)

	// ChangeStatus authorizes and applies one status transition, running the
	// settlement actions the transition triggers inside a single unit of
	// work. A concurrent transition of the same trip surfaces as Conflict.
	ChangeStatus(ctx context.Context, tripID, actorID primitive.ObjectID, role string, target models.TripStatus) (*TripStatusResult, error)

	// CancelTrip is ChangeStatus to cancelled.
	CancelTrip(ctx context.Context, tripID, actorID primitive.ObjectID, role string) (*TripStatusResult, error)

	// ListTrips returns trips scoped to the actor: passengers and drivers see
	// their own, admins see everything the filter matches.
	ListTrips(ctx context.Context, actorID primitive.ObjectID, role string, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error)
}

type tripService struct {
	tripRepo       interfaces.TripRepository
	acceptanceRepo interfaces.TripAcceptanceLogRepository
	walletService  WalletService
	commission     CommissionService
	runner         TransactionRunner
	walletConfig   *config.WalletConfig
	logger         *logger.Logger
}

type CreateTripRequest struct {
	PickupLocation    models.GeoPoint      `json:"pickup_location" validate:"required"`
	DropoffLocation   models.GeoPoint      `json:"dropoff_location" validate:"required"`
	Fare              int64                `json:"fare" validate:"required,gt=0"`
	PaymentMethod     models.PaymentMethod `json:"payment_method" validate:"required"`
	DriverID          *primitive.ObjectID  `json:"driver_id,omitempty"`
	IsScheduled       bool                 `json:"is_scheduled"`
	ScheduledDateTime *time.Time           `json:"scheduled_date_time,omitempty"`
	UniqueRequestID   string               `json:"unique_request_id,omitempty"`
}

type CreateTripResponse struct {
	Trip             *models.Trip `json:"trip"`
	Duplicated       bool         `json:"duplicated"`
	PassengerBalance *int64       `json:"passenger_balance,omitempty"`
}

type TripStatusResult struct {
	Trip             *models.Trip `json:"trip"`
	PassengerBalance *int64       `json:"passenger_balance,omitempty"`
	DriverBalance    *int64       `json:"driver_balance,omitempty"`
}

func NewTripService(
	tripRepo interfaces.TripRepository,
	acceptanceRepo interfaces.TripAcceptanceLogRepository,
	walletService WalletService,
	commission CommissionService,
	runner TransactionRunner,
	walletConfig *config.WalletConfig,
	logger *logger.Logger,
) TripService {
	return &tripService{
		tripRepo:       tripRepo,
		acceptanceRepo: acceptanceRepo,
		walletService:  walletService,
		commission:     commission,
		runner:         runner,
		walletConfig:   walletConfig,
		logger:         logger,
	}
}

func (s *tripService) CreateTrip(ctx context.Context, passengerID primitive.ObjectID, request *CreateTripRequest) (*CreateTripResponse, error) {
	if err := validateCreateTrip(request); err != nil {
		return nil, err
	}

	requestID := request.UniqueRequestID
	if requestID == "" {
		requestID = uuid.NewString()
	} else {
		existing, err := s.tripRepo.GetByRequestID(ctx, requestID)
		if err != nil {
			return nil, utils.Internal("failed to check idempotency key", err)
		}
		if existing != nil {
			return &CreateTripResponse{Trip: existing, Duplicated: true}, nil
		}
	}

	status := models.TripStatusPending
	if request.IsScheduled {
		status = models.TripStatusScheduled
	}

	trip := &models.Trip{
		PassengerID:       passengerID,
		DriverID:          request.DriverID,
		PickupLocation:    request.PickupLocation,
		DropoffLocation:   request.DropoffLocation,
		Fare:              request.Fare,
		Status:            status,
		UniqueRequestID:   requestID,
		PaymentMethod:     request.PaymentMethod,
		IsScheduled:       request.IsScheduled,
		ScheduledDateTime: request.ScheduledDateTime,
	}

	precharge := s.walletConfig.PrechargeEnabled &&
		!request.IsScheduled &&
		request.PaymentMethod == models.PaymentMethodWallet

	var passengerBalance *int64
	err := s.runner.WithTransaction(ctx, func(ctx context.Context) error {
		if precharge {
			trip.Paid = true
		}
		if err := s.tripRepo.Create(ctx, trip); err != nil {
			return err
		}
		if precharge {
			balance, err := s.walletService.ChargeWallet(ctx, passengerID, trip.Fare, models.PaymentMethodWallet, &trip.ID)
			if err != nil {
				return err
			}
			passengerBalance = &balance
		}
		return nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			existing, lookupErr := s.tripRepo.GetByRequestID(ctx, requestID)
			if lookupErr == nil && existing != nil {
				return &CreateTripResponse{Trip: existing, Duplicated: true}, nil
			}
			return nil, utils.WrapAppError(utils.KindConflict, "trip request already processed", err)
		}
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, utils.Internal("failed to create trip", err)
	}

	s.logger.LogTripEvent(trip.ID, "created", map[string]interface{}{
		"fare":           trip.Fare,
		"payment_method": trip.PaymentMethod,
		"is_scheduled":   trip.IsScheduled,
		"precharged":     precharge,
	})

	return &CreateTripResponse{Trip: trip, Duplicated: false, PassengerBalance: passengerBalance}, nil
}

func validateCreateTrip(request *CreateTripRequest) error {
	if request.Fare <= 0 {
		return utils.NewAppError(utils.KindInvalidInput, "fare must be positive")
	}
	if !models.ValidPaymentMethod(request.PaymentMethod) {
		return utils.NewAppError(utils.KindInvalidInput, "payment method must be cash, wallet or bank")
	}
	if len(request.PickupLocation.Coordinates) != 2 || len(request.DropoffLocation.Coordinates) != 2 {
		return utils.NewAppError(utils.KindInvalidInput, "pickup and dropoff coordinates are required")
	}
	if request.IsScheduled && request.ScheduledDateTime == nil {
		return utils.NewAppError(utils.KindInvalidInput, "scheduled trips require a scheduled date and time")
	}
	if !request.IsScheduled && request.ScheduledDateTime != nil {
		return utils.NewAppError(utils.KindInvalidInput, "scheduled date and time is only valid on scheduled trips")
	}
	return nil
}

func (s *tripService) GetTrip(ctx context.Context, id primitive.ObjectID) (*models.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, id)
	if err != nil {
		return nil, utils.Internal("failed to load trip", err)
	}
	if trip == nil {
		return nil, utils.NewAppError(utils.KindNotFound, "trip not found")
	}
	return trip, nil
}

func (s *tripService) ChangeStatus(ctx context.Context, tripID, actorID primitive.ObjectID, role string, target models.TripStatus) (*TripStatusResult, error) {
	trip, err := s.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeTransition(trip, actorID, role, target); err != nil {
		return nil, err
	}

	policy := s.commission.ResolveActivePolicy(ctx)

	var result *TripStatusResult
	err = s.runner.WithTransaction(ctx, func(ctx context.Context) error {
		fresh, err := s.tripRepo.GetByID(ctx, tripID)
		if err != nil {
			return utils.Internal("failed to load trip", err)
		}
		if fresh == nil {
			return utils.NewAppError(utils.KindNotFound, "trip not found")
		}
		if err := AuthorizeTransition(fresh, actorID, role, target); err != nil {
			return err
		}

		expected := fresh.Status

		if target == models.TripStatusAccepted && role == utils.RoleDriver {
			fresh.DriverID = &actorID
		}

		settled, err := s.applySettlement(ctx, fresh, target, policy)
		if err != nil {
			return err
		}

		fresh.Status = target
		if err := s.tripRepo.UpdateGuarded(ctx, fresh, expected); err != nil {
			if errors.Is(err, interfaces.ErrTripConflict) {
				return utils.WrapAppError(utils.KindConflict, "trip was changed by another request", err)
			}
			return utils.Internal("failed to update trip", err)
		}

		result = &TripStatusResult{
			Trip:             fresh,
			PassengerBalance: settled.passengerBalance,
			DriverBalance:    settled.driverBalance,
		}
		return nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, utils.Internal("failed to change trip status", err)
	}

	s.logger.LogTripEvent(tripID, "status_changed", map[string]interface{}{
		"to":   target,
		"role": role,
	})

	return result, nil
}

func (s *tripService) CancelTrip(ctx context.Context, tripID, actorID primitive.ObjectID, role string) (*TripStatusResult, error) {
	return s.ChangeStatus(ctx, tripID, actorID, role, models.TripStatusCancelled)
}

type settlementOutcome struct {
	passengerBalance *int64
	driverBalance    *int64
}

// applySettlement runs the money movements one transition triggers. It runs
// inside the caller's unit of work, mutates trip's paid and commission fields
// in place, and leaves the status write to the caller. A trip is charged at
// most once across its lifetime: the paid flag gates the fare paths and the
// stored commission amount gates the commission paths.
func (s *tripService) applySettlement(ctx context.Context, trip *models.Trip, target models.TripStatus, policy *models.CommissionPolicy) (*settlementOutcome, error) {
	outcome := &settlementOutcome{}

	chargeFare := func() error {
		balance, err := s.walletService.ChargeWallet(ctx, trip.PassengerID, trip.Fare, models.PaymentMethodWallet, &trip.ID)
		if err != nil {
			return err
		}
		trip.Paid = true
		outcome.passengerBalance = &balance
		return nil
	}

	chargeCommission := func() error {
		if trip.DriverID == nil || trip.CommissionAmount != 0 || !CommissionApplies(policy, trip.PaymentMethod) {
			return nil
		}
		amount, err := s.walletService.ChargeCommission(ctx, *trip.DriverID, trip.Fare, policy, &trip.ID)
		if err != nil {
			return err
		}
		trip.CommissionAmount = amount
		if amount > 0 {
			wallet, err := s.walletService.EnsureWallet(ctx, *trip.DriverID)
			if err == nil {
				outcome.driverBalance = &wallet.Balance
			}
		}
		return nil
	}

	switch target {
	case models.TripStatusAccepted, models.TripStatusReady:
		if trip.IsScheduled && trip.PaymentMethod == models.PaymentMethodWallet && !trip.Paid {
			if err := chargeFare(); err != nil {
				return nil, err
			}
		}
		if target == models.TripStatusAccepted {
			if trip.DriverID != nil {
				entry := &models.TripAcceptanceLog{
					DriverID:   *trip.DriverID,
					TripID:     trip.ID,
					AcceptedAt: time.Now(),
				}
				if err := s.acceptanceRepo.Create(ctx, entry); err != nil {
					return nil, utils.Internal("failed to record trip acceptance", err)
				}
			}
			if policy.ChargeStage == models.ChargeStageAccepted {
				if err := chargeCommission(); err != nil {
					return nil, err
				}
			}
		}

	case models.TripStatusCompleted:
		if trip.PaymentMethod == models.PaymentMethodCash {
			// Cash settles out-of-band; no wallet movement.
			trip.Paid = true
		}
		if trip.PaymentMethod == models.PaymentMethodWallet && !trip.Paid {
			if err := chargeFare(); err != nil {
				return nil, err
			}
		}
		if policy.ChargeStage == models.ChargeStageCompleted {
			if err := chargeCommission(); err != nil {
				return nil, err
			}
		}

	case models.TripStatusCancelled:
		if trip.PaymentMethod == models.PaymentMethodWallet && trip.Paid && trip.Fare > 0 {
			balance, err := s.walletService.RefundWallet(ctx, trip.PassengerID, trip.Fare, &trip.ID)
			if err != nil {
				return nil, err
			}
			trip.Paid = false
			outcome.passengerBalance = &balance
		}
		if trip.CommissionAmount > 0 && trip.DriverID != nil {
			if err := s.walletService.RefundCommission(ctx, *trip.DriverID, trip.CommissionAmount, &trip.ID); err != nil {
				return nil, err
			}
			trip.CommissionAmount = 0
		}
	}

	return outcome, nil
}

func (s *tripService) ListTrips(ctx context.Context, actorID primitive.ObjectID, role string, filter *interfaces.TripFilter, params *utils.PaginationParams) ([]*models.Trip, int64, error) {
	if filter == nil {
		filter = &interfaces.TripFilter{}
	}
	switch role {
	case utils.RoleAdmin:
		// Unscoped.
	case utils.RoleDriver:
		filter.DriverID = &actorID
		filter.PassengerID = nil
	default:
		filter.PassengerID = &actorID
		filter.DriverID = nil
	}

	trips, total, err := s.tripRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, utils.Internal("failed to list trips", err)
	}
	return trips, total, nil
}
