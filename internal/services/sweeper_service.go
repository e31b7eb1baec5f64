package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/atiaa9916/stp-backend/internal/config"
	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/repositories/interfaces"
	"github.com/atiaa9916/stp-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SweeperService advances due scheduled trips outside the request path. Each
// trip gets its own unit of work running the same settlement primitives the
// status-change path uses; a failing trip is logged, its attempt counter
// bumped, and the sweep moves on. Trips that exhaust their attempts drop out
// of the due query and are left for admin intervention.
type SweeperService interface {
	// Run performs one sweep. A sweep already in flight makes Run report
	// immediately without touching any trip.
	Run(ctx context.Context) *SweepReport

	// Start drives Run on the configured interval until ctx is done.
	Start(ctx context.Context)
}

type sweeperService struct {
	tripRepo      interfaces.TripRepository
	walletService WalletService
	commission    CommissionService
	runner        TransactionRunner
	config        *config.SweeperConfig
	logger        *logger.Logger
	running       atomic.Bool
}

type SweepReport struct {
	Processed int  `json:"processed"`
	Skipped   int  `json:"skipped"`
	InFlight  bool `json:"in_flight,omitempty"`
}

func NewSweeperService(
	tripRepo interfaces.TripRepository,
	walletService WalletService,
	commission CommissionService,
	runner TransactionRunner,
	config *config.SweeperConfig,
	logger *logger.Logger,
) SweeperService {
	return &sweeperService{
		tripRepo:      tripRepo,
		walletService: walletService,
		commission:    commission,
		runner:        runner,
		config:        config,
		logger:        logger,
	}
}

func (s *sweeperService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.config.Interval.String()).Info("Scheduled trip sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduled trip sweeper stopped")
			return
		case <-ticker.C:
			s.Run(ctx)
		}
	}
}

func (s *sweeperService) Run(ctx context.Context) *SweepReport {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug("Sweep already in flight, skipping")
		return &SweepReport{InFlight: true}
	}
	defer s.running.Store(false)

	report := &SweepReport{}

	due, err := s.tripRepo.ListDueScheduled(ctx, time.Now(), s.config.MaxAttempts)
	if err != nil {
		s.logger.WithError(err).Error("Failed to query due scheduled trips")
		return report
	}

	policy := s.commission.ResolveActivePolicy(ctx)

	for _, trip := range due {
		if err := s.processTrip(ctx, trip.ID, policy); err != nil {
			report.Skipped++
			s.logger.WithTripID(trip.ID).WithError(err).Warn("Scheduled trip skipped")
			if incErr := s.tripRepo.IncrementSweepAttempts(ctx, trip.ID); incErr != nil {
				s.logger.WithTripID(trip.ID).WithError(incErr).Error("Failed to bump sweep attempts")
			}
			continue
		}
		report.Processed++
	}

	if report.Processed > 0 || report.Skipped > 0 {
		s.logger.WithFields(map[string]interface{}{
			"processed": report.Processed,
			"skipped":   report.Skipped,
		}).Info("Scheduled trip sweep finished")
	}

	return report
}

// processTrip moves one due trip to ready, charging the driver commission and
// the passenger fare under the same all-or-nothing rules as the request path.
func (s *sweeperService) processTrip(ctx context.Context, tripID primitive.ObjectID, policy *models.CommissionPolicy) error {
	return s.runner.WithTransaction(ctx, func(ctx context.Context) error {
		trip, err := s.tripRepo.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if trip == nil || trip.Status != models.TripStatusScheduled {
			// Already moved by a request or a concurrent sweep.
			return nil
		}

		if trip.DriverID != nil && trip.CommissionAmount == 0 && CommissionApplies(policy, trip.PaymentMethod) {
			amount, err := s.walletService.ChargeCommission(ctx, *trip.DriverID, trip.Fare, policy, &trip.ID)
			if err != nil {
				return err
			}
			trip.CommissionAmount = amount
		}

		if trip.PaymentMethod == models.PaymentMethodWallet && !trip.Paid {
			if _, err := s.walletService.ChargeWallet(ctx, trip.PassengerID, trip.Fare, models.PaymentMethodWallet, &trip.ID); err != nil {
				return err
			}
			trip.Paid = true
		}

		trip.Status = models.TripStatusReady
		if err := s.tripRepo.UpdateGuarded(ctx, trip, models.TripStatusScheduled); err != nil {
			return err
		}

		s.logger.LogTripEvent(trip.ID, "swept_ready", map[string]interface{}{
			"paid":              trip.Paid,
			"commission_amount": trip.CommissionAmount,
		})
		return nil
	})
}
