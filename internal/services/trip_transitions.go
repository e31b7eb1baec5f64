package services

import (
	"github.com/atiaa9916/stp-backend/internal/models"
	"github.com/atiaa9916/stp-backend/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NormalizeTripStatus maps the spellings clients send to the canonical status
// values. Unknown values pass through and fail validation downstream.
func NormalizeTripStatus(raw string) models.TripStatus {
	switch raw {
	case "canceled":
		return models.TripStatusCancelled
	case "in-progress", "inprogress", "ongoing":
		return models.TripStatusInProgress
	default:
		return models.TripStatus(raw)
	}
}

// AuthorizeTransition decides whether actor may move trip to target. It is a
// pure check with no storage access; callers run it before opening the
// settlement unit of work and the guarded write re-verifies the starting
// status at commit time.
//
// Admins may force any transition. Drivers accept open trips (binding
// themselves), move their own trips forward, mark their scheduled trips
// ready, and cancel from accepted. Passengers cancel their own trips from any
// pre-progress state.
func AuthorizeTransition(trip *models.Trip, actorID primitive.ObjectID, role string, target models.TripStatus) error {
	if !models.ValidTripStatus(target) {
		return utils.NewAppError(utils.KindInvalidInput, "unknown trip status")
	}

	if role == utils.RoleAdmin {
		return nil
	}

	from := trip.Status
	boundDriver := trip.DriverID != nil && *trip.DriverID == actorID
	boundPassenger := trip.PassengerID == actorID

	switch role {
	case utils.RoleDriver:
		switch target {
		case models.TripStatusAccepted:
			if from == models.TripStatusPending || from == models.TripStatusReady || from == models.TripStatusScheduled {
				return nil
			}
		case models.TripStatusInProgress:
			if from == models.TripStatusAccepted {
				if boundDriver {
					return nil
				}
				return utils.NewAppError(utils.KindForbidden, "only the trip's driver may change its status")
			}
		case models.TripStatusCompleted:
			if from == models.TripStatusInProgress {
				if boundDriver {
					return nil
				}
				return utils.NewAppError(utils.KindForbidden, "only the trip's driver may change its status")
			}
		case models.TripStatusReady:
			if from == models.TripStatusScheduled {
				if boundDriver {
					return nil
				}
				return utils.NewAppError(utils.KindForbidden, "only the trip's driver may change its status")
			}
		case models.TripStatusCancelled:
			if from == models.TripStatusAccepted {
				if boundDriver {
					return nil
				}
				return utils.NewAppError(utils.KindForbidden, "only the trip's driver may change its status")
			}
		}
	case utils.RolePassenger:
		if target == models.TripStatusCancelled {
			switch from {
			case models.TripStatusPending, models.TripStatusAccepted, models.TripStatusScheduled, models.TripStatusReady:
				if boundPassenger {
					return nil
				}
				return utils.NewAppError(utils.KindForbidden, "only the trip's passenger may cancel it")
			}
		}
	default:
		return utils.NewAppError(utils.KindForbidden, "role may not change trip status")
	}

	if from.IsTerminal() {
		return utils.NewAppErrorf(utils.KindIllegalTransition, "trip is already %s", from)
	}
	return utils.NewAppErrorf(utils.KindIllegalTransition, "cannot move trip from %s to %s", from, target)
}
